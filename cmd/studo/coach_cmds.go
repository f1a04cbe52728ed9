package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/studo/internal/coach"
	"github.com/verte-zerg/studo/internal/markdown"
)

func newQuoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote",
		Short: "Print a motivational quote",
		Args:  cobra.NoArgs,
		RunE:  runQuoteCmd,
	}
}

func runQuoteCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ctx := context.Background()
	quote := newCoach(ctx, cfg).Quote(ctx)
	return printf(cmd.OutOrStdout(), "%s\n", coach.Wrap(quote, markdown.TerminalWidth(os.Stdout)))
}

func newTipsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tips <subject>",
		Short: "Ask for quick study tips on a subject",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTipsCmd,
	}
}

func runTipsCmd(cmd *cobra.Command, args []string) error {
	subject := strings.TrimSpace(strings.Join(args, " "))
	if subject == "" {
		return fmt.Errorf("subject must not be empty")
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ctx := context.Background()
	tips := newCoach(ctx, cfg).StudyTips(ctx, subject)
	return printf(cmd.OutOrStdout(), "%s\n", coach.Wrap(tips, markdown.TerminalWidth(os.Stdout)))
}
