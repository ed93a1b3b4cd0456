// Package alert delivers fired rubbing alerts: to the console, as a sound,
// to the store, to external plugins and to any other rubbing.AlertDispatcher.
package alert

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jedawel/lenssafe/internal/rubbing"
)

// Named attaches a name to a dispatcher for logging.
type Named struct {
	Name       string
	Dispatcher rubbing.AlertDispatcher
}

// Multi fans an event out to several dispatchers in order. Every failure is
// logged, and all of them are returned joined.
type Multi struct {
	targets []Named
	logger  *zap.Logger
}

// NewMulti creates a Multi. A nil logger discards output.
func NewMulti(logger *zap.Logger, targets ...Named) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multi{targets: targets, logger: logger.Named("alert")}
}

// Add appends a dispatcher. Not safe to call concurrently with Dispatch.
func (m *Multi) Add(name string, d rubbing.AlertDispatcher) {
	m.targets = append(m.targets, Named{Name: name, Dispatcher: d})
}

// Len returns the number of dispatchers.
func (m *Multi) Len() int {
	return len(m.targets)
}

// Dispatch delivers ev to every dispatcher, even after one fails.
func (m *Multi) Dispatch(ctx context.Context, ev rubbing.AlertEvent) error {
	var errs []error
	for _, t := range m.targets {
		if err := t.Dispatcher.Dispatch(ctx, ev); err != nil {
			m.logger.Warn("alert delivery failed",
				zap.String("target", t.Name),
				zap.String("alert_id", ev.ID),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
		}
	}
	return errors.Join(errs...)
}
