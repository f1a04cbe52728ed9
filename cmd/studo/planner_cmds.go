package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/studo/internal/markdown"
	"github.com/verte-zerg/studo/internal/model"
	"github.com/verte-zerg/studo/internal/planner"
	"github.com/verte-zerg/studo/internal/stats"
	"github.com/verte-zerg/studo/internal/store"
)

var (
	taskSubject  string
	taskDeadline string
	taskPending  bool

	examDate     string
	examPriority string

	noteContent string
	noteSubject string
	noteFiles   []string
	noteSearch  string
)

func newTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Manage tasks",
	}

	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.ArbitraryArgs,
		RunE:  runTaskAddCmd,
	}
	addDeadlineFlagAliases(addCmd)
	addCmd.Flags().StringVarP(&taskSubject, "subject", "s", "", "subject (default: General)")
	addCmd.Flags().StringVar(&taskDeadline, "deadline", "", "deadline (YYYY-MM-DD)")

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE:    runTaskListCmd,
	}
	listCmd.Flags().BoolVar(&taskPending, "pending", false, "only show incomplete tasks")

	doneCmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle task completion",
		Args:  cobra.ExactArgs(1),
		RunE:  runTaskDoneCmd,
	}

	rmCmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a task",
		Args:    cobra.ExactArgs(1),
		RunE:    runTaskRemoveCmd,
	}

	cmd.AddCommand(addCmd, listCmd, doneCmd, rmCmd)
	return cmd
}

func runTaskAddCmd(cmd *cobra.Command, args []string) error {
	if err := validateDate("--deadline", taskDeadline); err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cfg, func(ctx context.Context, st *store.Store) error {
		var added model.Task
		changed, err := update(ctx, st, func(doc *model.Document) error {
			task, ok := planner.AddTask(doc, planner.TaskInput{
				Title:    strings.Join(args, " "),
				Subject:  taskSubject,
				Deadline: taskDeadline,
			}, time.Now())
			if !ok {
				return errNoChange
			}
			added = task
			return nil
		})
		if err != nil || !changed {
			return err
		}
		return printf(cmd.OutOrStdout(), "Added task %s: %s\n", shortID(added.ID), added.Title)
	})
}

func runTaskListCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cfg, func(ctx context.Context, st *store.Store) error {
		doc := loadDocument(ctx, st)
		tasks := planner.SortTasks(doc.Tasks)
		if taskPending {
			tasks = planner.PendingTasks(tasks)
		}
		out := cmd.OutOrStdout()
		if len(tasks) == 0 {
			return printf(out, "No tasks.\n")
		}
		now := time.Now()
		rows := make([][]string, 0, len(tasks))
		for _, task := range tasks {
			status := "[ ]"
			if task.Completed {
				status = "[x]"
			}
			rows = append(rows, []string{
				shortID(task.ID),
				status,
				task.Title,
				task.Subject,
				planner.DeadlineLabel(task.Deadline, now),
			})
		}
		if err := stats.WriteTable(out, []string{"ID", "Done", "Title", "Subject", "Deadline"}, rows, nil); err != nil {
			return err
		}
		return printf(out, "Completion: %.0f%%\n", planner.CompletionRate(doc.Tasks))
	})
}

func runTaskDoneCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cfg, func(ctx context.Context, st *store.Store) error {
		var toggled model.Task
		_, err := update(ctx, st, func(doc *model.Document) error {
			id, ok := planner.ResolveID(planner.TaskIDs(doc.Tasks), args[0])
			if !ok {
				return fmt.Errorf("unknown task %q", args[0])
			}
			planner.ToggleTask(doc, id)
			toggled, _ = doc.FindTask(id)
			return nil
		})
		if err != nil {
			return err
		}
		verb := "Reopened"
		if toggled.Completed {
			verb = "Completed"
		}
		return printf(cmd.OutOrStdout(), "%s task %s: %s\n", verb, shortID(toggled.ID), toggled.Title)
	})
}

func runTaskRemoveCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cfg, func(ctx context.Context, st *store.Store) error {
		var removed string
		_, err := update(ctx, st, func(doc *model.Document) error {
			id, ok := planner.ResolveID(planner.TaskIDs(doc.Tasks), args[0])
			if !ok {
				return fmt.Errorf("unknown task %q", args[0])
			}
			planner.RemoveTask(doc, id)
			removed = id
			return nil
		})
		if err != nil {
			return err
		}
		return printf(cmd.OutOrStdout(), "Removed task %s\n", shortID(removed))
	})
}

func newExamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "exams",
		Aliases: []string{"exam"},
		Short:   "Manage exams",
	}

	addCmd := &cobra.Command{
		Use:   "add <subject>",
		Short: "Add an exam",
		Args:  cobra.ArbitraryArgs,
		RunE:  runExamAddCmd,
	}
	addCmd.Flags().StringVar(&examDate, "date", "", "exam date (YYYY-MM-DD)")
	addCmd.Flags().StringVarP(&examPriority, "priority", "p", string(model.PriorityMedium), "priority (low, medium, high)")

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List exams by date",
		Args:    cobra.NoArgs,
		RunE:    runExamListCmd,
	}

	rmCmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove an exam",
		Args:    cobra.ExactArgs(1),
		RunE:    runExamRemoveCmd,
	}

	cmd.AddCommand(addCmd, listCmd, rmCmd)
	return cmd
}

func runExamAddCmd(cmd *cobra.Command, args []string) error {
	if err := validateDate("--date", examDate); err != nil {
		return err
	}
	priority := model.Priority(strings.ToLower(strings.TrimSpace(examPriority)))
	switch priority {
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh:
	default:
		return fmt.Errorf("invalid --priority %q (want low, medium or high)", examPriority)
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cfg, func(ctx context.Context, st *store.Store) error {
		var added model.Exam
		changed, err := update(ctx, st, func(doc *model.Document) error {
			exam, ok := planner.AddExam(doc, planner.ExamInput{
				Subject:  strings.Join(args, " "),
				Date:     examDate,
				Priority: priority,
			})
			if !ok {
				return errNoChange
			}
			added = exam
			return nil
		})
		if err != nil || !changed {
			return err
		}
		return printf(cmd.OutOrStdout(), "Added exam %s: %s on %s\n", shortID(added.ID), added.Subject, added.Date)
	})
}

func runExamListCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cfg, func(ctx context.Context, st *store.Store) error {
		doc := loadDocument(ctx, st)
		out := cmd.OutOrStdout()
		exams := planner.SortExams(doc.Exams)
		if len(exams) == 0 {
			return printf(out, "No exams.\n")
		}
		now := time.Now()
		rows := make([][]string, 0, len(exams))
		for _, exam := range exams {
			countdown := "-"
			if days, ok := planner.DaysLeft(exam.Date, now); ok {
				countdown = stats.CountdownLabel(days)
				if planner.Urgent(days) {
					countdown += " !"
				}
			}
			rows = append(rows, []string{shortID(exam.ID), exam.Subject, exam.Date, string(exam.Priority), countdown})
		}
		return stats.WriteTable(out, []string{"ID", "Subject", "Date", "Priority", "In"}, rows, nil)
	})
}

func runExamRemoveCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cfg, func(ctx context.Context, st *store.Store) error {
		var removed string
		_, err := update(ctx, st, func(doc *model.Document) error {
			id, ok := planner.ResolveID(planner.ExamIDs(doc.Exams), args[0])
			if !ok {
				return fmt.Errorf("unknown exam %q", args[0])
			}
			planner.RemoveExam(doc, id)
			removed = id
			return nil
		})
		if err != nil {
			return err
		}
		return printf(cmd.OutOrStdout(), "Removed exam %s\n", shortID(removed))
	})
}

func newNotesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notes",
		Aliases: []string{"note"},
		Short:   "Manage study notes",
	}

	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a note",
		Args:  cobra.ArbitraryArgs,
		RunE:  runNoteAddCmd,
	}
	addContentFlagAliases(addCmd)
	addCmd.Flags().StringVarP(&noteContent, "content", "c", "", "note body (markdown)")
	addCmd.Flags().StringVarP(&noteSubject, "subject", "s", "", "subject (default: General)")
	addCmd.Flags().StringArrayVar(&noteFiles, "file", nil, "attached resource as name=url (repeatable)")

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List notes",
		Args:    cobra.NoArgs,
		RunE:    runNoteListCmd,
	}
	listCmd.Flags().StringVar(&noteSearch, "search", "", "filter by title or subject")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Render a note",
		Args:  cobra.ExactArgs(1),
		RunE:  runNoteShowCmd,
	}

	reviewCmd := &cobra.Command{
		Use:   "review <id>",
		Short: "Mark a note as reviewed now",
		Args:  cobra.ExactArgs(1),
		RunE:  runNoteReviewCmd,
	}

	rmCmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Delete a note",
		Args:    cobra.ExactArgs(1),
		RunE:    runNoteRemoveCmd,
	}

	cmd.AddCommand(addCmd, listCmd, showCmd, reviewCmd, rmCmd)
	return cmd
}

func runNoteAddCmd(cmd *cobra.Command, args []string) error {
	files, err := parseResourceFiles(noteFiles)
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cfg, func(ctx context.Context, st *store.Store) error {
		var added model.Note
		changed, err := update(ctx, st, func(doc *model.Document) error {
			note, ok := planner.AddNote(doc, planner.NoteInput{
				Title:   strings.Join(args, " "),
				Content: noteContent,
				Subject: noteSubject,
				Files:   files,
			}, time.Now())
			if !ok {
				return errNoChange
			}
			added = note
			return nil
		})
		if err != nil || !changed {
			return err
		}
		return printf(cmd.OutOrStdout(), "Added note %s: %s\n", shortID(added.ID), added.Title)
	})
}

func runNoteListCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cfg, func(ctx context.Context, st *store.Store) error {
		doc := loadDocument(ctx, st)
		out := cmd.OutOrStdout()
		notes := planner.FilterNotes(doc.Notes, noteSearch)
		if len(notes) == 0 {
			return printf(out, "No notes.\n")
		}
		now := time.Now()
		rows := make([][]string, 0, len(notes))
		for _, note := range notes {
			review := "fresh"
			if planner.IsDecaying(note, now) {
				review = "needs review"
			}
			rows = append(rows, []string{shortID(note.ID), note.Title, note.Subject, review})
		}
		return stats.WriteTable(out, []string{"ID", "Title", "Subject", "Review"}, rows, nil)
	})
}

func runNoteShowCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cfg, func(ctx context.Context, st *store.Store) error {
		doc := loadDocument(ctx, st)
		id, ok := planner.ResolveID(planner.NoteIDs(doc.Notes), args[0])
		if !ok {
			return fmt.Errorf("unknown note %q", args[0])
		}
		note, _ := planner.FindNote(doc, id)

		out := cmd.OutOrStdout()
		if err := printf(out, "%s  [%s]\n\n", note.Title, note.Subject); err != nil {
			return err
		}
		if body := markdown.Render(note.Content, markdown.TerminalWidth(os.Stdout), doc.Settings.DarkMode); body != "" {
			if err := printf(out, "%s\n", body); err != nil {
				return err
			}
		}
		if len(note.Files) > 0 {
			if err := printf(out, "\nFiles:\n"); err != nil {
				return err
			}
			for _, file := range note.Files {
				if err := printf(out, "  %s  %s\n", file.Name, file.URL); err != nil {
					return err
				}
			}
		}
		if planner.IsDecaying(note, time.Now()) {
			return printf(out, "\nLast reviewed %s; time for a review.\n", time.UnixMilli(note.LastReviewed).Format(planner.DateLayout))
		}
		return nil
	})
}

func runNoteReviewCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cfg, func(ctx context.Context, st *store.Store) error {
		var reviewed string
		_, err := update(ctx, st, func(doc *model.Document) error {
			id, ok := planner.ResolveID(planner.NoteIDs(doc.Notes), args[0])
			if !ok {
				return fmt.Errorf("unknown note %q", args[0])
			}
			planner.MarkReviewed(doc, id, time.Now())
			reviewed = id
			return nil
		})
		if err != nil {
			return err
		}
		return printf(cmd.OutOrStdout(), "Reviewed note %s\n", shortID(reviewed))
	})
}

func runNoteRemoveCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cfg, func(ctx context.Context, st *store.Store) error {
		var removed string
		_, err := update(ctx, st, func(doc *model.Document) error {
			id, ok := planner.ResolveID(planner.NoteIDs(doc.Notes), args[0])
			if !ok {
				return fmt.Errorf("unknown note %q", args[0])
			}
			planner.DeleteNote(doc, id)
			removed = id
			return nil
		})
		if err != nil {
			return err
		}
		return printf(cmd.OutOrStdout(), "Removed note %s\n", shortID(removed))
	})
}

func parseResourceFiles(values []string) ([]model.ResourceFile, error) {
	files := make([]model.ResourceFile, 0, len(values))
	for _, value := range values {
		name, url, ok := strings.Cut(value, "=")
		name = strings.TrimSpace(name)
		url = strings.TrimSpace(url)
		if !ok || name == "" || url == "" {
			return nil, fmt.Errorf("invalid --file %q (want name=url)", value)
		}
		files = append(files, model.ResourceFile{Name: name, URL: url})
	}
	return files, nil
}

func validateDate(flag, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if _, err := time.ParseInLocation(planner.DateLayout, value, time.Local); err != nil {
		return fmt.Errorf("invalid %s value: %w", flag, err)
	}
	return nil
}

func printf(w io.Writer, format string, args ...any) error {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
