// Command forksh is the entrypoint for the interactive job-control shell.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/forksh/forksh/internal/shell"
)

func main() {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "forksh: logger init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sh, err := shell.New(logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "forksh: %v\n", err)
		os.Exit(1)
	}

	if err := sh.Run(); err != nil {
		logger.Error("shell exited with error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "forksh: %v\n", err)
		os.Exit(1)
	}
}
