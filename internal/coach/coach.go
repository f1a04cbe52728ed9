// Package coach asks a text-generation model for motivation and study tips.
// Every failure degrades to a fixed fallback string.
package coach

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/muesli/reflow/wordwrap"
)

// DefaultTimeout bounds a single generation request.
const DefaultTimeout = 10 * time.Second

// Fallback texts.
const (
	QuoteEmpty  = "The secret of getting ahead is getting started."
	QuoteFailed = "Believe in yourself and all that you are."
	TipsEmpty   = "Stay focused, take breaks, and review often."
	TipsFailed  = "Consistency is key."
)

const quotePrompt = "Give me a single, unique, short motivational quote for a student today. No author name, just the quote text."

// Client generates text for a prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Coach wraps a Client with timeouts and fallbacks. A nil Client is valid
// and always yields the failure fallbacks.
type Coach struct {
	client  Client
	timeout time.Duration
	// OnError, when set, receives every generation failure.
	OnError func(err error)
}

// New creates a Coach. A non-positive timeout uses DefaultTimeout.
func New(client Client, timeout time.Duration) *Coach {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Coach{client: client, timeout: timeout}
}

// Quote returns one short motivational quote.
func (c *Coach) Quote(ctx context.Context) string {
	return c.ask(ctx, quotePrompt, QuoteEmpty, QuoteFailed)
}

// StudyTips returns three quick tips for subject.
func (c *Coach) StudyTips(ctx context.Context, subject string) string {
	prompt := fmt.Sprintf("Provide 3 quick study tips for the subject: %s. Format as a concise list.", strings.TrimSpace(subject))
	return c.ask(ctx, prompt, TipsEmpty, TipsFailed)
}

func (c *Coach) ask(ctx context.Context, prompt, empty, failed string) string {
	if c == nil || c.client == nil {
		return failed
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.client.Generate(ctx, prompt)
	if err != nil {
		if c.OnError != nil {
			c.OnError(err)
		}
		return failed
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return empty
	}
	return text
}

// Wrap reflows generated text to width columns for terminal output.
func Wrap(text string, width int) string {
	if width < 1 {
		return text
	}
	return wordwrap.String(text, width)
}
