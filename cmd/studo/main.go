// Package main provides the CLI entrypoint for studo.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/studo/internal/coach"
	"github.com/verte-zerg/studo/internal/config"
	"github.com/verte-zerg/studo/internal/focus"
	"github.com/verte-zerg/studo/internal/model"
	"github.com/verte-zerg/studo/internal/planner"
	"github.com/verte-zerg/studo/internal/store"
	"github.com/verte-zerg/studo/internal/tui"
)

// errNoChange aborts a store update that has nothing to write.
var errNoChange = errors.New("no change")

var (
	rootDB    string
	rootModel string
	rootTick  time.Duration

	focusMode string
	focusTask string
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "studo",
		Short:         "Terminal study companion with a focus timer",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runFocusCmd,
	}

	rootCmd.PersistentFlags().StringVar(&rootDB, "db", "", "database path (default: $XDG_DATA_HOME/studo/studo.db)")
	rootCmd.PersistentFlags().StringVar(&rootModel, "model", config.DefaultModel, "text-generation model for quotes and tips")
	rootCmd.PersistentFlags().DurationVar(&rootTick, "tick", config.DefaultTick, "wall-clock length of one timer second")

	rootCmd.Flags().StringVar(&focusMode, "mode", string(model.ModeWork), "starting mode (work, short, long)")
	rootCmd.Flags().StringVar(&focusTask, "task", "", "task id (or unique prefix) to tag focus minutes with")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newTasksCmd())
	rootCmd.AddCommand(newExamsCmd())
	rootCmd.AddCommand(newNotesCmd())
	rootCmd.AddCommand(newSettingsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newDashboardCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newQuoteCmd())
	rootCmd.AddCommand(newTipsCmd())

	return rootCmd
}

func runFocusCmd(cmd *cobra.Command, _ []string) error {
	mode, err := model.ParseMode(focusMode)
	if err != nil {
		return fmt.Errorf("invalid --mode value: %w", err)
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	return withStore(cfg, func(ctx context.Context, st *store.Store) error {
		doc := loadDocument(ctx, st)

		engine := focus.New(st, doc.Settings.Pomodoro, focus.Options{TickInterval: cfg.Tick})
		defer engine.Close()
		if mode != model.ModeWork {
			engine.SwitchMode(mode)
		}
		if focusTask != "" {
			id, ok := planner.ResolveID(planner.TaskIDs(doc.Tasks), focusTask)
			if !ok {
				return fmt.Errorf("unknown task %q", focusTask)
			}
			engine.SetSelectedTask(id)
		}

		room := tui.NewModel(engine, st, newCoach(ctx, cfg))
		defer room.Close()
		program := tea.NewProgram(room, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run TUI: %w", err)
		}
		return nil
	})
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// resolveConfig merges built-in defaults, the config file, the environment
// and explicitly set flags, in increasing precedence.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.Resolve(fileCfg, os.Getenv)
	applyStringFlag(cmd, "db", &cfg.DBPath, rootDB)
	applyStringFlag(cmd, "model", &cfg.Model, rootModel)
	applyDurationFlag(cmd, "tick", &cfg.Tick, rootTick)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func applyDurationFlag(cmd *cobra.Command, name string, target *time.Duration, value time.Duration) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func withStore(cfg config.Config, fn func(ctx context.Context, st *store.Store) error) error {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	return fn(context.Background(), st)
}

// loadDocument returns the stored document. A corrupt blob is logged and
// replaced by the default document.
func loadDocument(ctx context.Context, st *store.Store) model.Document {
	doc, err := st.Load(ctx)
	if err != nil {
		logErrf("studo: %v; starting from defaults\n", err)
	}
	return doc
}

// update applies fn through the store. errNoChange skips the write without
// reporting an error.
func update(ctx context.Context, st *store.Store, fn func(doc *model.Document) error) (bool, error) {
	err := st.Update(ctx, fn)
	if errors.Is(err, errNoChange) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func newCoach(ctx context.Context, cfg config.Config) *coach.Coach {
	var client coach.Client
	if cfg.APIKey != "" {
		gemini, err := coach.NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			logErrf("coach unavailable: %v\n", err)
		} else {
			client = gemini
		}
	}
	c := coach.New(client, cfg.Timeout)
	c.OnError = func(err error) {
		logErrf("coach: %v\n", err)
	}
	return c
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# studo configuration
# Uncomment a value to enable it. CLI flags override config values.

[storage]
# db = %q      # SQLite database path

[coach]
# model = %q             # Text-generation model
# api-key = ""                         # Falls back to $%s
# timeout = %q                       # Request timeout

[focus]
# tick = %q                           # Wall-clock length of one timer second
`,
		config.DefaultDBPath(),
		config.DefaultModel,
		config.APIKeyEnv,
		config.DefaultTimeout.String(),
		config.DefaultTick.String(),
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
