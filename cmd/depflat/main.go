package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"

	"depflat/internal/errors"
	"depflat/internal/output"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// reportError logs a failed command together with any suggested fixes.
func reportError(err error) {
	logger := currentLogger()
	logger.Error("Command failed", "error", err.Error())

	var de *errors.DepflatError
	if stderrors.As(err, &de) {
		if de.Details != nil {
			if data, derr := output.DeterministicEncode(de.Details); derr == nil {
				logger.Debug("Error details", "code", string(de.Code), "details", string(data))
			}
		}
		for _, fix := range de.SuggestedFixes {
			switch {
			case fix.Command != "":
				fmt.Fprintf(os.Stderr, "  hint: run %q (%s)\n", fix.Command, fix.Description)
			case fix.Field != "":
				fmt.Fprintf(os.Stderr, "  hint: set %q (%s)\n", fix.Field, fix.Description)
			}
		}
	}
}
