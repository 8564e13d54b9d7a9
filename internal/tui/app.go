package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"pacdeck/internal/progress"
	"pacdeck/pkg/pacman"
)

// RunOperation shows the live progress view while op runs. Events are read from
// events until op returns. Closing the view early cancels op, and the result is
// still returned once op has stopped.
func RunOperation(ctx context.Context, title string, events <-chan progress.Event, op func(context.Context) pacman.Result) (pacman.Result, error) {
	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan pacman.Result, 1)
	final := make(chan pacman.Result, 1)
	go func() {
		r := op(opCtx)
		results <- r
		final <- r
	}()

	model := NewModel(title, events, results, cancel)
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(output))

	_, err := p.Run()
	if model.Done() {
		return model.Result(), nil
	}

	// view closed before the result arrived
	cancel()
	r := <-final
	if err != nil && ctx.Err() == nil {
		return r, err
	}
	return r, nil
}
