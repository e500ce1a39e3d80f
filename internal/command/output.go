// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dicebot/dicebot/internal/observability"
)

// logOutputError logs a reply that could not be delivered and counts it.
// The command itself has already taken effect, so it does not fail.
func logOutputError(ctx context.Context, cmd string, bytesWritten int, err error) {
	slog.WarnContext(ctx, "failed to write command output",
		"command", cmd,
		"bytes_written", bytesWritten,
		"error", err,
	)
	observability.RecordCommandOutputFailure(cmd)
}

func writeOutput(ctx context.Context, exec *Execution, msg string) {
	if n, err := fmt.Fprintln(exec.Output, msg); err != nil {
		logOutputError(ctx, exec.Group+" "+exec.InvokedAs, n, err)
	}
}

func writeOutputf(ctx context.Context, exec *Execution, format string, args ...any) {
	writeOutput(ctx, exec, fmt.Sprintf(format, args...))
}

// writeLines sends lines as paginated blocks, one write per block.
func writeLines(ctx context.Context, out io.Writer, cmd string, lines []string, pageSize int) {
	for _, page := range Paginate(lines, pageSize) {
		if n, err := fmt.Fprintln(out, page); err != nil {
			logOutputError(ctx, cmd, n, err)
			return
		}
	}
}
