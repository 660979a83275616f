package output

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh/spinner"
)

// SpinnerOption configures RunWithSpinner.
type SpinnerOption func(*spinnerConfig)

type spinnerConfig struct {
	title string
}

// WithTitle sets the spinner title.
func WithTitle(title string) SpinnerOption {
	return func(c *spinnerConfig) {
		c.title = title
	}
}

// RunWithSpinner runs action while a spinner is drawn on stderr. Without a
// terminal, or with debug logging on, action runs plainly so log lines are
// not interleaved with spinner frames.
func RunWithSpinner(ctx context.Context, action func() error, opts ...SpinnerOption) error {
	cfg := spinnerConfig{title: "Building..."}
	for _, opt := range opts {
		opt(&cfg)
	}

	if !IsTTY() || debugEnabled() {
		return action()
	}

	done := make(chan error, 1)
	go func() {
		done <- action()
	}()

	var (
		actionErr error
		returned  bool
	)
	err := spinner.New().
		Title(cfg.title).
		Action(func() {
			select {
			case actionErr = <-done:
				returned = true
			case <-ctx.Done():
			}
		}).
		Run()
	if err != nil && !returned {
		return fmt.Errorf("spinner: %w", err)
	}

	if !returned {
		// The action observes ctx; wait for it to unwind.
		actionErr = <-done
		if actionErr == nil {
			actionErr = ctx.Err()
		}
	}
	return actionErr
}
