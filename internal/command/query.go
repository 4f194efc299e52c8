package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/brainboard/internal/citation"
	"github.com/starford/brainboard/internal/models"
	"github.com/starford/brainboard/internal/present"
)

func (r *runner) searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Ask a question over your notes",
		ArgsUsage: "<query>...",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "k", Usage: "Number of note chunks to retrieve (backend default when unset)"},
			&cli.BoolFlag{Name: "html", Usage: "Render the answer as HTML with citation links"},
		},
		Action: r.search,
	}
}

func (r *runner) search(ctx context.Context, cmd *cli.Command) error {
	a, err := args(cmd, 1, "<query>...")
	if err != nil {
		return err
	}
	req := models.SearchRequest{Query: strings.Join(a, " ")}
	if cmd.IsSet("k") {
		k := int(cmd.Int("k"))
		req.K = &k
	}
	app, err := r.app(cmd)
	if err != nil {
		return err
	}
	res, err := app.API.Search(ctx, req)
	if err != nil {
		return err
	}
	if report := citation.Check(res); !report.Consistent() {
		app.Logger.Warn("search answer citations do not match markers",
			slog.Int("markers", report.Markers),
			slog.Int("citations", report.Citations),
			slog.Any("unmatched", report.Unmatched),
			slog.Any("unreferenced", report.Unreferenced))
	}
	if cmd.Bool("html") {
		_, err := fmt.Fprintln(writer(cmd), present.AnswerHTML(res))
		return err
	}
	return emit(cmd, res, func() string { return present.Answer(res) })
}

func (r *runner) summarizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "summarize",
		Usage:     "Summarize a file (or - for stdin)",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := args(cmd, 1, "<file>")
			if err != nil {
				return err
			}
			doc, err := readDocument(cmd, a[0])
			if err != nil {
				return err
			}
			app, err := r.app(cmd)
			if err != nil {
				return err
			}
			res, err := app.API.Summarize(ctx, models.SummarizeRequest{Text: doc.Body})
			if err != nil {
				return err
			}
			return emit(cmd, res, func() string { return present.Summary(res) })
		},
	}
}

func (r *runner) extractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Extract tasks from a file (or - for stdin)",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "note", Usage: "Note id the tasks belong to"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := args(cmd, 1, "<file>")
			if err != nil {
				return err
			}
			doc, err := readDocument(cmd, a[0])
			if err != nil {
				return err
			}
			req := models.ExtractTasksRequest{Text: doc.Body}
			if id := cmd.String("note"); id != "" {
				req.SourceNoteID = &id
			}
			app, err := r.app(cmd)
			if err != nil {
				return err
			}
			res, err := app.API.ExtractTasks(ctx, req)
			if err != nil {
				return err
			}
			return emit(cmd, res, func() string { return present.TaskList(res.Tasks) })
		},
	}
}

func (r *runner) graphCommand() *cli.Command {
	return &cli.Command{
		Name:  "graph",
		Usage: "Show how notes are linked by similarity",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "Number of notes to include", Value: 100},
			&cli.FloatFlag{Name: "min-weight", Usage: "Hide links weaker than this similarity"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := r.app(cmd)
			if err != nil {
				return err
			}
			g, err := app.Graph(ctx, int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			g = g.Filter(cmd.Float("min-weight"))
			return emit(cmd, g, func() string { return present.Graph(g) })
		},
	}
}

func (r *runner) healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check the backend status",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := r.app(cmd)
			if err != nil {
				return err
			}
			h, err := app.API.Health(ctx)
			if err != nil {
				return err
			}
			return emit(cmd, h, func() string { return present.Health(h) })
		},
	}
}
