package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"cschema/internal/driver"
	"cschema/internal/ui"
)

// runWithUI runs job while a progress model follows its events. job must
// send every event to the sink it is given and return when done.
func runWithUI(ctx context.Context, title string, headers []string, job func(ctx context.Context, sink driver.ProgressSink) error) error {
	events := make(chan driver.Event, 256)
	outcome := make(chan error, 1)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		err := job(ctx, driver.ChannelSink{Ch: events})
		close(events)
		outcome <- err
	}()

	model := ui.NewProgressModel(title, headers, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// the model may quit early on ctrl+c; stop the job and drain its events
	cancel()
	for range events {
	}
	err := <-outcome
	if err != nil {
		return err
	}
	return uiErr
}
