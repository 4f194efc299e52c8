// Package command defines the brainboard command line.
package command

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/starford/brainboard/internal"
	"github.com/starford/brainboard/internal/apperr"
	"github.com/starford/brainboard/internal/parser"
	"github.com/starford/brainboard/internal/present"
)

// DefaultConfigFile is read when --config is not given.
const DefaultConfigFile = "config/config.yaml"

type runner struct {
	opts []internal.Option
}

// New returns the root command. opts are applied after the configuration
// when the application is built.
func New(opts ...internal.Option) *cli.Command {
	r := &runner{opts: opts}
	return &cli.Command{
		Name:  "brainboard",
		Usage: "Notes, tasks and answers from your second-brain backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (missing file means defaults)",
				DefaultText: DefaultConfigFile,
				Value:       DefaultConfigFile,
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:  "backend-url",
				Usage: "Backend base URL, overrides the config file and " + internal.EnvBackendURL,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output format: text, json or yaml",
				Value:   string(present.FormatText),
			},
		},
		Commands: []*cli.Command{
			r.notesCommand(),
			r.tasksCommand(),
			r.searchCommand(),
			r.summarizeCommand(),
			r.extractCommand(),
			r.graphCommand(),
			r.healthCommand(),
			r.ingestCommand(),
			r.watchCommand(),
			r.mcpCommand(),
		},
	}
}

// Message renders err for the terminal. Backend failures get the
// user-facing message; anything else is shown as is.
func Message(err error) string {
	for _, target := range []error{
		apperr.ErrInvalidRequest,
		apperr.ErrNetwork,
		apperr.ErrNotFound,
		apperr.ErrHTTP,
		apperr.ErrMalformedResponse,
		apperr.ErrSchemaValidation,
	} {
		if errors.Is(err, target) {
			return present.Error(err)
		}
	}
	return "Error: " + err.Error()
}

func (r *runner) app(cmd *cli.Command) (*internal.App, error) {
	cfg, err := internal.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if u := cmd.String("backend-url"); u != "" {
		cfg.Backend.BaseURL = u
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --backend-url: %w", err)
		}
	}
	opts := append([]internal.Option{internal.WithConfig(cfg)}, r.opts...)
	return internal.New(opts...)
}

// emit writes v in the selected output format; text output comes from
// render.
func emit(cmd *cli.Command, v any, render func() string) error {
	f, err := present.ParseFormat(cmd.String("output"))
	if err != nil {
		return err
	}
	w := writer(cmd)
	if f == present.FormatText {
		_, err := fmt.Fprintln(w, render())
		return err
	}
	return present.Encode(w, f, v)
}

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

// args checks the positional argument count.
func args(cmd *cli.Command, n int, usage string) ([]string, error) {
	a := cmd.Args().Slice()
	if len(a) < n {
		return nil, fmt.Errorf("usage: %s %s", cmd.FullName(), usage)
	}
	return a, nil
}

// readDocument reads a file, or stdin for "-", and parses it by extension.
// Stdin is parsed as Markdown.
func readDocument(cmd *cli.Command, path string) (parser.Document, error) {
	if path == "-" {
		in := cmd.Root().Reader
		if in == nil {
			in = os.Stdin
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return parser.Document{}, fmt.Errorf("read stdin: %w", err)
		}
		return parser.ParseMarkdown(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return parser.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return parser.Parse(path, data), nil
}
