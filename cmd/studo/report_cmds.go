package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/studo/internal/model"
	"github.com/verte-zerg/studo/internal/settings"
	"github.com/verte-zerg/studo/internal/stats"
	"github.com/verte-zerg/studo/internal/statsui"
	"github.com/verte-zerg/studo/internal/store"
)

var (
	statsDays int

	exportFormat string
	exportOutput string

	resetYes bool
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change settings",
		Args:  cobra.NoArgs,
		RunE:  runSettingsShowCmd,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		Args:  cobra.NoArgs,
		RunE:  runSettingsShowCmd,
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting (work, short, long, name, dark, accent)",
		Args:  cobra.ExactArgs(2),
		RunE:  runSettingsSetCmd,
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore default settings",
		Args:  cobra.NoArgs,
		RunE:  runSettingsResetCmd,
	}

	cmd.AddCommand(showCmd, setCmd, resetCmd)
	return cmd
}

func runSettingsShowCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cfg, func(ctx context.Context, st *store.Store) error {
		doc := loadDocument(ctx, st)
		return printSettings(cmd, doc.Settings)
	})
}

func runSettingsSetCmd(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))
	value := args[1]
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cfg, func(ctx context.Context, st *store.Store) error {
		var saved model.Settings
		_, err := update(ctx, st, func(doc *model.Document) error {
			if err := applySetting(doc, key, value); err != nil {
				return err
			}
			saved = doc.Settings
			return nil
		})
		if err != nil {
			return err
		}
		return printSettings(cmd, saved)
	})
}

func runSettingsResetCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cfg, func(ctx context.Context, st *store.Store) error {
		var saved model.Settings
		_, err := update(ctx, st, func(doc *model.Document) error {
			settings.Reset(doc)
			saved = doc.Settings
			return nil
		})
		if err != nil {
			return err
		}
		return printSettings(cmd, saved)
	})
}

func applySetting(doc *model.Document, key, value string) error {
	switch key {
	case "name", "user", "username":
		settings.SetUserName(doc, value)
		return nil
	case "dark", "dark-mode":
		dark, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid dark value %q: want true or false", value)
		}
		settings.SetDarkMode(doc, dark)
		return nil
	case "accent", "color":
		return settings.SetAccent(doc, value)
	}

	mode, err := model.ParseMode(key)
	if err != nil {
		return fmt.Errorf("unknown setting %q (want work, short, long, name, dark or accent)", key)
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid minutes %q: %w", value, err)
	}
	_, err = settings.SetPomodoro(doc, mode, minutes)
	return err
}

func printSettings(cmd *cobra.Command, s model.Settings) error {
	out := cmd.OutOrStdout()
	rows := [][]string{
		{"name", s.UserName},
		{"dark", strconv.FormatBool(s.DarkMode)},
		{"accent", fmt.Sprintf("%s (%s)", s.AccentColor, settings.AccentHex(s.AccentColor))},
		{"work", fmt.Sprintf("%d min", s.Pomodoro.Work)},
		{"short", fmt.Sprintf("%d min", s.Pomodoro.Short)},
		{"long", fmt.Sprintf("%d min", s.Pomodoro.Long)},
	}
	return stats.WriteTable(out, []string{"Setting", "Value"}, rows, nil)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print focus analytics",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().IntVar(&statsDays, "days", stats.DefaultDays, "number of days in the daily breakdown")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	if statsDays <= 0 {
		return fmt.Errorf("--days must be > 0")
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cfg, func(ctx context.Context, st *store.Store) error {
		doc := loadDocument(ctx, st)
		report := stats.BuildReport(doc, time.Now(), statsDays)
		return stats.RenderReport(cmd.OutOrStdout(), report)
	})
}

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Open the dashboard TUI",
		Args:    cobra.NoArgs,
		RunE:    runDashboardCmd,
	}
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cfg, func(_ context.Context, st *store.Store) error {
		dashboard := statsui.NewModel(st, time.Now)
		defer dashboard.Close()
		program := tea.NewProgram(dashboard, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run dashboard TUI: %w", err)
		}
		return nil
	})
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the study document",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVarP(&exportFormat, "format", "f", store.FormatJSON, "output format (json, yaml)")
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cfg, func(ctx context.Context, st *store.Store) error {
		doc := loadDocument(ctx, st)
		if exportOutput == "" {
			return store.Export(cmd.OutOrStdout(), doc, exportFormat)
		}
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		if err := store.Export(f, doc, exportFormat); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close export file: %w", err)
		}
		logErrf("Wrote %s\n", exportOutput)
		return nil
	})
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all notes, tasks, exams, sessions and settings",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "confirm the reset")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	if !resetYes {
		logErrln("This deletes every note, task, exam and focus session. Re-run with --yes to confirm.")
		return fmt.Errorf("reset not confirmed")
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cfg, func(ctx context.Context, st *store.Store) error {
		if err := st.Clear(ctx); err != nil {
			return err
		}
		return printf(cmd.OutOrStdout(), "All data cleared.\n")
	})
}
