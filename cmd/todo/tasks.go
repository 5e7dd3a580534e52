package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

type taskRow struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

func newTasksCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and manage tasks",
	}
	cmd.AddCommand(
		newTasksListCmd(opts),
		newTasksAddCmd(opts),
		newTasksDoneCmd(opts),
		newTasksRemoveCmd(opts),
	)
	return cmd
}

func newTasksListCmd(opts *globalOptions) *cobra.Command {
	var completed, pending bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := opts.client()
			uid, err := c.userID(cmd.Context())
			if err != nil {
				return err
			}
			q := url.Values{}
			switch {
			case completed:
				q.Set("completed", "true")
			case pending:
				q.Set("completed", "false")
			}
			path := "/api/" + uid + "/tasks"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var tasks []taskRow
			if err := c.get(cmd.Context(), path, &tasks); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, "no tasks")
				return nil
			}
			fmt.Fprintf(out, "%-6s %-40s %-8s\n", "ID", "TITLE", "DONE")
			fmt.Fprintln(out, strings.Repeat("-", 56))
			for _, t := range tasks {
				done := ""
				if t.Completed {
					done = "yes"
				}
				fmt.Fprintf(out, "%-6d %-40s %-8s\n", t.ID, truncate(t.Title, 39), done)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&completed, "completed", false, "only completed tasks")
	cmd.Flags().BoolVar(&pending, "pending", false, "only pending tasks")
	cmd.MarkFlagsMutuallyExclusive("completed", "pending")
	return cmd
}

func newTasksAddCmd(opts *globalOptions) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			uid, err := c.userID(cmd.Context())
			if err != nil {
				return err
			}
			body := map[string]any{"title": strings.Join(args, " ")}
			if description != "" {
				body["description"] = description
			}
			var t taskRow
			if err := c.post(cmd.Context(), "/api/"+uid+"/tasks", body, &t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created task %d\n", t.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	return cmd
}

func newTasksDoneCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			c := opts.client()
			uid, err := c.userID(cmd.Context())
			if err != nil {
				return err
			}
			path := fmt.Sprintf("/api/%s/tasks/%d/complete", uid, id)
			if err := c.do(cmd.Context(), http.MethodPatch, path, map[string]bool{"completed": true}, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "task %d completed\n", id)
			return nil
		},
	}
}

func newTasksRemoveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			c := opts.client()
			uid, err := c.userID(cmd.Context())
			if err != nil {
				return err
			}
			path := fmt.Sprintf("/api/%s/tasks/%d", uid, id)
			if err := c.do(cmd.Context(), http.MethodDelete, path, nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "task %d deleted\n", id)
			return nil
		},
	}
}

func parseTaskID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}
