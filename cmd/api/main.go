package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"todoapi/internal/app"
	"todoapi/internal/config"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "todo-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()
	application := app.New(cfg)
	if err := application.Init(ctx); err != nil {
		return err
	}

	return application.Run(ctx)
}
