// Package alert delivers pipeline run reports to webhook destinations.
package alert

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Notification is the data sent to alert destinations after a pipeline run.
type Notification struct {
	Pipeline    string         `json:"pipeline"`
	State       string         `json:"state"`
	Fetched     int            `json:"fetched"`
	Transformed int            `json:"transformed"`
	Loaded      int            `json:"loaded"`
	Skipped     int            `json:"skipped"`
	Failed      int            `json:"failed"`
	SkipReasons map[string]int `json:"skip_reasons,omitempty"`
	Duration    time.Duration  `json:"duration"`
	Err         string         `json:"error,omitempty"`
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (n *Notification) headline() string {
	if n.Err != "" {
		return fmt.Sprintf("Pipeline %s failed", n.Pipeline)
	}
	return fmt.Sprintf("Pipeline %s completed", n.Pipeline)
}

func (n *Notification) countsLine() string {
	return fmt.Sprintf("fetched %d, transformed %d, loaded %d, skipped %d, failed %d in %s",
		n.Fetched, n.Transformed, n.Loaded, n.Skipped, n.Failed, n.Duration.Round(time.Millisecond))
}
