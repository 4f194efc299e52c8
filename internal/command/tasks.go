package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/starford/brainboard/internal/models"
	"github.com/starford/brainboard/internal/present"
	"github.com/starford/brainboard/internal/taskboard"
)

func (r *runner) tasksCommand() *cli.Command {
	return &cli.Command{
		Name:  "tasks",
		Usage: "List and complete tasks",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List tasks",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "open, completed or all", Value: "all"},
					&cli.IntFlag{Name: "offset", Usage: "Number of tasks to skip"},
					&cli.IntFlag{Name: "limit", Usage: "Page size", Value: models.DefaultTasksLimit},
				},
				Action: r.listTasks,
			},
			{
				Name:      "done",
				Usage:     "Mark tasks completed",
				ArgsUsage: "<task-id>...",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return r.setCompleted(ctx, cmd, true)
				},
			},
			{
				Name:      "reopen",
				Usage:     "Mark tasks open again",
				ArgsUsage: "<task-id>...",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return r.setCompleted(ctx, cmd, false)
				},
			},
		},
	}
}

func parseStatus(s string) (*bool, error) {
	switch s {
	case "all", "":
		return nil, nil
	case "open":
		return new(bool), nil
	case "completed":
		done := true
		return &done, nil
	default:
		return nil, fmt.Errorf("--status must be open, completed or all, got %q", s)
	}
}

func (r *runner) listTasks(ctx context.Context, cmd *cli.Command) error {
	completed, err := parseStatus(cmd.String("status"))
	if err != nil {
		return err
	}
	app, err := r.app(cmd)
	if err != nil {
		return err
	}
	tasks, err := app.API.ListTasks(ctx, models.ListTasksParams{
		Completed: completed,
		Offset:    int(cmd.Int("offset")),
		Limit:     int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}
	return emit(cmd, tasks, func() string { return present.TaskList(tasks) })
}

// setCompleted applies the change through a task board so a failed update
// leaves the previous state on screen.
func (r *runner) setCompleted(ctx context.Context, cmd *cli.Command, completed bool) error {
	ids, err := args(cmd, 1, "<task-id>...")
	if err != nil {
		return err
	}
	app, err := r.app(cmd)
	if err != nil {
		return err
	}
	board := taskboard.New(app.API, app.Logger)
	for _, id := range ids {
		// The backend state is unknown until it answers; seed the opposite.
		board.Put(id, models.Task{Completed: !completed})
		if _, err := board.SetCompleted(ctx, id, completed); err != nil {
			return err
		}
	}
	entries := board.Entries()
	return emit(cmd, entries, func() string { return present.TaskBoard(entries) })
}
