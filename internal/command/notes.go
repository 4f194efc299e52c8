package command

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/starford/brainboard/internal/ingest"
	"github.com/starford/brainboard/internal/models"
	"github.com/starford/brainboard/internal/present"
)

func (r *runner) notesCommand() *cli.Command {
	return &cli.Command{
		Name:  "notes",
		Usage: "List, show and create notes",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List notes, most recently updated first",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "skip", Usage: "Number of notes to skip"},
					&cli.IntFlag{Name: "limit", Usage: "Page size", Value: models.DefaultNotesLimit},
				},
				Action: r.listNotes,
			},
			{
				Name:      "show",
				Usage:     "Show a note with its tasks and related notes",
				ArgsUsage: "<note-id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "html", Usage: "Render the body as HTML"},
				},
				Action: r.showNote,
			},
			{
				Name:      "create",
				Usage:     "Create a note from a file (or - for stdin), embed it and extract its tasks",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Title, overrides the one found in the file"},
					&cli.BoolFlag{Name: "summarize", Usage: "Also summarize the note"},
				},
				Action: r.createNote,
			},
		},
	}
}

func (r *runner) listNotes(ctx context.Context, cmd *cli.Command) error {
	app, err := r.app(cmd)
	if err != nil {
		return err
	}
	notes, err := app.API.ListNotes(ctx, models.ListNotesParams{
		Skip:  int(cmd.Int("skip")),
		Limit: int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}
	return emit(cmd, notes, func() string { return present.NoteList(notes, time.Now()) })
}

func (r *runner) showNote(ctx context.Context, cmd *cli.Command) error {
	a, err := args(cmd, 1, "<note-id>")
	if err != nil {
		return err
	}
	app, err := r.app(cmd)
	if err != nil {
		return err
	}
	note, err := app.API.GetNote(ctx, a[0])
	if err != nil {
		return err
	}
	if cmd.Bool("html") {
		html, err := present.BodyHTML(note.Body)
		if err != nil {
			return err
		}
		_, err = writer(cmd).Write([]byte(html))
		return err
	}
	return emit(cmd, note, func() string { return present.NoteDetail(note, time.Now()) })
}

func (r *runner) createNote(ctx context.Context, cmd *cli.Command) error {
	a, err := args(cmd, 1, "<file>")
	if err != nil {
		return err
	}
	doc, err := readDocument(cmd, a[0])
	if err != nil {
		return err
	}
	if title := cmd.String("title"); title != "" {
		doc.Title = title
	}
	app, err := r.app(cmd)
	if err != nil {
		return err
	}
	out, err := app.Pipeline(cmd.Bool("summarize")).Ingest(ctx, doc, a[0])
	if err != nil {
		return err
	}
	return emit(cmd, out, func() string { return renderOutcome(out) })
}

func renderOutcome(out ingest.Outcome) string {
	s := present.NoteCard(out.Note, time.Now())
	if len(out.Tasks) > 0 {
		s += "\n\n" + present.TaskList(out.Tasks)
	}
	if out.Summary != nil {
		s += "\n\n" + present.Summary(*out.Summary)
	}
	return s
}
