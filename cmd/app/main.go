package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/starford/brainboard/internal/command"
)

func main() {
	if err := command.New().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, command.Message(err))
		slog.Debug("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
