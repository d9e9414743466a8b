package cmd

import (
	"fmt"
	"io"
	"strings"

	"todoapi/core"

	"github.com/fatih/color"
)

const tableWidth = 80

// renderTodosTable displays todos in a formatted table
func renderTodosTable(w io.Writer, todos []core.Todo) {
	if len(todos) == 0 {
		warningColor.Fprintln(w, "No todos found")
		return
	}

	headerColor.Fprintln(w, "TODOS")
	headerColor.Fprintln(w, strings.Repeat("=", tableWidth))
	fmt.Fprintf(w, "%-26s %-6s %s\n", "ID", "Done", "Title")
	fmt.Fprintln(w, strings.Repeat("-", tableWidth))

	doneCount := 0
	for _, todo := range todos {
		if todo.Done {
			doneCount++
		}
		fmt.Fprintf(w, "%-26s %-6s %s\n", todo.HexID(), formatDone(todo.Done), truncate(todo.Title, 46))
	}

	fmt.Fprintln(w, strings.Repeat("=", tableWidth))
	infoColor.Fprintf(w, "%d todos, %d done\n", len(todos), doneCount)
}

// renderTodoDetails displays a single todo
func renderTodoDetails(w io.Writer, todo *core.Todo) {
	headerColor.Fprintf(w, "Todo %s\n", todo.HexID())
	printField(w, "Title", todo.Title)
	if todo.Description != nil {
		printField(w, "Description", *todo.Description)
	}
	printField(w, "Done", formatBool(todo.Done))
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %-12s %s\n", label+":", value)
}

// formatBool formats a boolean as a colored Yes/No
func formatBool(b bool) string {
	if b {
		return color.GreenString("Yes")
	}
	return color.RedString("No")
}

// formatDone formats the table marker without color so column widths hold
func formatDone(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// truncate shortens s to max runes, marking the cut with "..."
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
