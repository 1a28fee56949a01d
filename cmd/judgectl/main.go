package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/openoj/judge-api/cmd/judgectl/cmds"
	"github.com/openoj/judge-api/internal/logger"
)

func main() {
	logger.LogLevel.Set(slog.LevelInfo)
	logger.InitSlog()

	ctx := context.Background()

	if err := cmds.Execute(ctx); err != nil {
		logger.Logger.Error("error executing subcommands", "error", err)
		os.Exit(1)
	}
}
