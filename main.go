// Package main is the entry point for the todo API.
package main

import (
	"context"
	"fmt"
	"os"

	"todoapi/bootstrap"
	"todoapi/cmd"
	_ "todoapi/docs"
)

// run initializes and serves the todo API until a shutdown signal arrives.
func run() error {
	ctx := context.Background()

	app, err := bootstrap.NewApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.Start(ctx); err != nil {
		app.Shutdown()
		return fmt.Errorf("failed to start application: %w", err)
	}

	waitErr := app.WaitForShutdown()

	app.Shutdown()

	return waitErr
}

// main is the entry point.
func main() {
	// Check if running as CLI command
	if len(os.Args) > 1 && os.Args[1] == "todos" {
		// Strip "todos" from os.Args since the command already knows it's the todos command
		os.Args = append([]string{os.Args[0]}, os.Args[2:]...)

		todosCmd := cmd.NewTodosCmd()
		todosCmd.SilenceErrors = true
		if err := todosCmd.Execute(); err != nil {
			cmd.PrintError(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	// Otherwise run as normal server
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
