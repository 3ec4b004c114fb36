package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

func (a *App) list(ctx context.Context) error {
	tasks, err := a.client.Tasks(ctx)
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks yet.")
		return nil
	}

	for _, t := range tasks {
		mark := " "
		if t.IsCompleted {
			mark = "x"
		}
		fmt.Printf("[%s] %d  %s (%s)\n", mark, t.ID, t.Title, t.Priority)
	}
	return nil
}

func (a *App) add(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Enter task title", os.Stdout)
	if err != nil {
		return err
	}

	priority, err := getSimpleText(a.reader, "Enter priority (low/normal/high, empty for normal)", os.Stdout)
	if err != nil {
		return err
	}

	task, err := a.client.AddTask(ctx, title, priority)
	if err != nil {
		return err
	}

	fmt.Printf("Created task %d\n", task.ID)
	return nil
}

func (a *App) done(ctx context.Context, args []string) error {
	id, err := parseIDArg(args)
	if err != nil {
		return err
	}

	task, err := a.client.CompleteTask(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("Completed task %d: %s\n", task.ID, task.Title)
	return nil
}

func (a *App) remove(ctx context.Context, args []string) error {
	id, err := parseIDArg(args)
	if err != nil {
		return err
	}

	task, err := a.client.DeleteTask(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("Deleted task %d: %s\n", task.ID, task.Title)
	return nil
}

func (a *App) attach(ctx context.Context, args []string) error {
	id, err := parseIDArg(args)
	if err != nil {
		return err
	}

	path, err := getSimpleText(a.reader, "Enter file path", os.Stdout)
	if err != nil {
		return err
	}

	attachment, err := a.client.AttachFile(ctx, id, path)
	if err != nil {
		return err
	}

	fmt.Printf("Uploaded %s as attachment %d\n", attachment.FileName, attachment.ID)
	return nil
}

func parseIDArg(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one task id argument")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid task id: %s", args[0])
	}
	return id, nil
}
