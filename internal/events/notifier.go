package events

import (
	"context"
	"errors"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/model"
)

// Notifier receives timing events.
type Notifier interface {
	TimingRecorded(ctx context.Context, ev model.TimingEvent) error
}

// Nop discards events. It is used when no feed is configured.
type Nop struct{}

func (Nop) TimingRecorded(context.Context, model.TimingEvent) error { return nil }

// Fanout delivers every event to all of its notifiers, even when one fails.
type Fanout []Notifier

func (f Fanout) TimingRecorded(ctx context.Context, ev model.TimingEvent) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.TimingRecorded(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
