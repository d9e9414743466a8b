// Package cmd provides command-line interface commands for the todo service.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"todoapi/bootstrap"
	"todoapi/core"
	"todoapi/service"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// CLI output formatters
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
)

// Global flags for todos commands
var (
	outputJSON bool
	noColor    bool
	quiet      bool
)

const defaultTimeout = 30 * time.Second

// openTodoService connects to the configured store. Tests replace it.
var openTodoService = connectTodoService

// validateFilePath rejects paths that would escape the current directory.
func validateFilePath(filename string) error {
	decoded, err := url.QueryUnescape(filename)
	if err != nil {
		decoded = filename
	}

	if strings.Contains(decoded, "..") || strings.Contains(filename, "..") {
		return fmt.Errorf("path traversal detected: '..' not allowed in file path")
	}

	absPath, err := filepath.Abs(filepath.Clean(decoded))
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	rel, err := filepath.Rel(workDir, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path escapes current directory")
	}

	return nil
}

// NewTodosCmd creates the root todos command with all subcommands.
func NewTodosCmd() *cobra.Command {
	todosCmd := &cobra.Command{
		Use:   "todos",
		Short: "Manage todos directly in the store",
		Long: `Manage todos directly in MongoDB using the service configuration.

The commands use the same connection settings as the API server
(MONGO_URL, config.yaml, .env and the configured secrets provider).`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	todosCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	todosCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	todosCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress non-essential output")

	todosCmd.AddCommand(newListCmd())
	todosCmd.AddCommand(newGetCmd())
	todosCmd.AddCommand(newAddCmd())
	todosCmd.AddCommand(newDoneCmd())
	todosCmd.AddCommand(newDeleteCmd())
	todosCmd.AddCommand(newExportCmd())

	return todosCmd
}

// newListCmd creates the 'list' subcommand
func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all todos",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()

			svc, cleanup, err := openWithSpinner(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			todos, err := svc.ListTodos(ctx)
			if err != nil {
				return fmt.Errorf("failed to list todos: %w", err)
			}

			if outputJSON {
				return outputAsJSON(cmd.OutOrStdout(), todos)
			}

			renderTodosTable(cmd.OutOrStdout(), todos)
			return nil
		},
	}
}

// newGetCmd creates the 'get' subcommand
func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <todo-id>",
		Aliases: []string{"show"},
		Short:   "Show a single todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()

			svc, cleanup, err := openWithSpinner(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			todo, err := svc.GetTodo(ctx, args[0])
			if err != nil {
				return err
			}

			if outputJSON {
				return outputAsJSON(cmd.OutOrStdout(), todo)
			}

			renderTodoDetails(cmd.OutOrStdout(), todo)
			return nil
		},
	}
}

// newAddCmd creates the 'add' subcommand
func newAddCmd() *cobra.Command {
	var (
		description string
		done        bool
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()

			svc, cleanup, err := openWithSpinner(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			input := &core.TodoInput{Title: args[0]}
			if cmd.Flags().Changed("description") {
				input.Description = &description
			}
			if cmd.Flags().Changed("done") {
				input.Done = &done
			}

			todo, err := svc.CreateTodo(ctx, input)
			if err != nil {
				return err
			}

			if outputJSON {
				return outputAsJSON(cmd.OutOrStdout(), todo)
			}
			if !quiet {
				successColor.Fprintf(cmd.OutOrStdout(), "✓ Created todo %s\n", todo.HexID())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Todo description")
	cmd.Flags().BoolVar(&done, "done", false, "Mark the todo as done")

	return cmd
}

// newDoneCmd creates the 'done' subcommand
func newDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <todo-id>",
		Short: "Mark a todo as done",
		Long:  "Replace the todo with done=true, keeping its title and description.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()

			svc, cleanup, err := openWithSpinner(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			todo, err := svc.GetTodo(ctx, args[0])
			if err != nil {
				return err
			}

			doneFlag := true
			input := &core.TodoInput{
				Title:       todo.Title,
				Description: todo.Description,
				Done:        &doneFlag,
			}
			if err := svc.UpdateTodo(ctx, args[0], input); err != nil {
				return err
			}

			if !quiet {
				successColor.Fprintf(cmd.OutOrStdout(), "✓ Marked todo %s as done\n", args[0])
			}
			return nil
		},
	}
}

// newDeleteCmd creates the 'delete' subcommand
func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <todo-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()

			svc, cleanup, err := openWithSpinner(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.DeleteTodo(ctx, args[0]); err != nil {
				return err
			}

			if !quiet {
				successColor.Fprintf(cmd.OutOrStdout(), "✓ Deleted todo %s\n", args[0])
			}
			return nil
		},
	}
}

// newExportCmd creates the 'export' subcommand
func newExportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all todos",
		Long:  "Export all todos as YAML or JSON. Without --output the document is written to stdout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "yaml" && format != "json" {
				return fmt.Errorf("unsupported format %q (use yaml or json)", format)
			}
			if output != "" {
				if err := validateFilePath(output); err != nil {
					return fmt.Errorf("invalid file path: %w", err)
				}
			}

			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()

			svc, cleanup, err := openWithSpinner(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			todos, err := svc.ListTodos(ctx)
			if err != nil {
				return fmt.Errorf("failed to list todos: %w", err)
			}

			data, err := marshalExport(todos, format)
			if err != nil {
				return err
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}

			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			if !quiet {
				successColor.Fprintf(cmd.OutOrStdout(), "✓ Exported %d todos to %s\n", len(todos), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Export format (yaml or json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")

	return cmd
}

// exportedTodo is the document shape written by export. IDs are hex strings
// so the output is readable in both formats.
type exportedTodo struct {
	ID          string  `json:"id" yaml:"id"`
	Title       string  `json:"title" yaml:"title"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
	Done        bool    `json:"done" yaml:"done"`
}

func marshalExport(todos []core.Todo, format string) ([]byte, error) {
	exported := make([]exportedTodo, len(todos))
	for i := range todos {
		exported[i] = exportedTodo{
			ID:          todos[i].HexID(),
			Title:       todos[i].Title,
			Description: todos[i].Description,
			Done:        todos[i].Done,
		}
	}

	doc := struct {
		Todos []exportedTodo `json:"todos" yaml:"todos"`
	}{Todos: exported}

	if format == "json" {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return append(data, '\n'), nil
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return data, nil
}

// openWithSpinner opens the service, showing a spinner on w while connecting.
func openWithSpinner(ctx context.Context, w io.Writer) (core.TodoService, func(), error) {
	var s *spinner.Spinner
	if !outputJSON && !quiet {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
		s.Suffix = " Connecting to MongoDB..."
		s.Start()
	}

	svc, cleanup, err := openTodoService(ctx)

	if s != nil {
		s.Stop()
	}
	if err != nil {
		return nil, nil, err
	}
	return svc, cleanup, nil
}

// connectTodoService loads configuration and connects to the store.
// Returns the service and a cleanup function.
func connectTodoService(ctx context.Context) (core.TodoService, func(), error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	sugar := logger.Sugar()

	cfg, err := bootstrap.InitConfig(sugar)
	if err != nil {
		return nil, nil, err
	}

	mongoDB, err := bootstrap.InitMongoDB(cfg, sugar)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	todoStorage := bootstrap.InitTodoStorage(mongoDB, cfg, nil, sugar)
	svc := service.NewTodoService(todoStorage, sugar)

	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoDB.Close(closeCtx); err != nil {
			sugar.Warnf("Failed to close MongoDB connection during cleanup: %v", err)
		}
		_ = logger.Sync()
	}

	return svc, cleanup, nil
}

// outputAsJSON writes data as indented JSON
func outputAsJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// PrintError reports a failed command on w
func PrintError(w io.Writer, err error) {
	errorColor.Fprintf(w, "✗ Error: %v\n", err)
}
