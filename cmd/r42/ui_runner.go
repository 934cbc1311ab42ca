package main

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"r42/internal/driver"
	"r42/internal/source"
	"r42/internal/ui"
)

type batchOutcome struct {
	fs      *source.FileSet
	results []driver.FileResult
	err     error
}

// runBatchWithUI runs the batch in the background and renders its events to out.
func runBatchWithUI(ctx context.Context, out io.Writer, title string, files []string, proj *projectContext, opts driver.Options) (*source.FileSet, []driver.FileResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan batchOutcome, 1)

	go func() {
		opts.Progress = driver.ChannelSink{Ch: events}
		fs, results, err := driver.TransformBatch(ctx, files, proj.registry, opts)
		outcomeCh <- batchOutcome{fs: fs, results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(out))
	_, uiErr := program.Run()
	// the UI may stop early; keep the workers unblocked
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.fs, outcome.results, uiErr
	}
	return outcome.fs, outcome.results, outcome.err
}
