package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/dgallion1/pdfoutline/internal/layout"
	"github.com/dgallion1/pdfoutline/internal/parser"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// ParseFile turns one path into positioned lines.
	ParseFile func(path string) (*layout.Document, error)
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{ParseFile: parser.ParseFile}
}

// Env carries what subcommands need from the process.
type Env struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	Log       *slog.Logger
	ParseFile func(path string) (*layout.Document, error)
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool       `short:"v" help:"Log at debug level"`
	Extract ExtractCmd `cmd:"" help:"Infer title and outline of PDF files"`
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	kp, err := kong.New(cli,
		kong.Name("outline"),
		kong.Description("Infer document titles and H1-H3 outlines from PDF layout"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle no arguments
	if len(args) == 0 {
		_, _ = kp.Parse([]string{"--help"})
		return fmt.Errorf("no arguments provided")
	}

	// Handle help flags
	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = kp.Parse([]string{"--help"})
		return nil
	}

	kctx, err := kp.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	env := &Env{
		Ctx:       ctx,
		Stdout:    stdout,
		Stderr:    stderr,
		Log:       slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
		ParseFile: m.ParseFile,
	}
	if env.ParseFile == nil {
		env.ParseFile = parser.ParseFile
	}
	return kctx.Run(env)
}
