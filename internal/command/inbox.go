package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/brainboard/internal/inbox"
)

func (r *runner) ingestCommand() *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Ingest files, or every new file in the inbox when none are given",
		ArgsUsage: "[file...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "summarize", Usage: "Also summarize each note"},
		},
		Action: r.ingest,
	}
}

func (r *runner) ingest(ctx context.Context, cmd *cli.Command) error {
	app, err := r.app(cmd)
	if err != nil {
		return err
	}

	var res inbox.Result
	if files := cmd.Args().Slice(); len(files) > 0 {
		pipeline := app.Pipeline(cmd.Bool("summarize"))
		for _, f := range files {
			doc, err := readDocument(cmd, f)
			if err != nil {
				return err
			}
			out, err := pipeline.Ingest(ctx, doc, f)
			if err != nil {
				res.Failed = append(res.Failed, inbox.Failure{Path: f, Err: err, Message: err.Error()})
				continue
			}
			res.Ingested = append(res.Ingested, inbox.Item{Path: f, NoteID: out.Note.ID, Tasks: len(out.Tasks)})
		}
	} else {
		if cmd.Bool("summarize") {
			app.Config.Inbox.Summarize = true
		}
		syncer, err := app.Syncer()
		if err != nil {
			return err
		}
		if res, err = syncer.Sync(ctx); err != nil {
			return err
		}
	}

	if err := emit(cmd, res, func() string { return renderResult(res) }); err != nil {
		return err
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d of %d files failed", len(res.Failed), len(res.Failed)+len(res.Ingested))
	}
	return nil
}

func renderResult(res inbox.Result) string {
	var b strings.Builder
	for _, it := range res.Ingested {
		fmt.Fprintf(&b, "ingested %s -> %s (%d tasks)\n", it.Path, it.NoteID, it.Tasks)
	}
	for _, f := range res.Failed {
		fmt.Fprintf(&b, "failed   %s: %s\n", f.Path, f.Message)
	}
	if res.Skipped > 0 {
		fmt.Fprintf(&b, "skipped  %d unchanged\n", res.Skipped)
	}
	if b.Len() == 0 {
		return "Nothing to ingest."
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *runner) watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Ingest files as they are dropped into the inbox",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := r.app(cmd)
			if err != nil {
				return err
			}
			return app.Watch(ctx)
		},
	}
}

func (r *runner) mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the notes tools to an MCP client over stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := r.app(cmd)
			if err != nil {
				return err
			}
			return app.ServeMCP()
		},
	}
}
