// Package alert delivers operational alerts (classifier failures, lost
// audit records) to the log and to optional chat channels.
package alert

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Severity grades an alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Color returns the hex color chat channels use for the severity.
func (s Severity) Color() string {
	switch s {
	case SeverityCritical:
		return "#d50200"
	case SeverityWarning:
		return "#de9e31"
	default:
		return "#36a64f"
	}
}

// Field is a labelled value shown with an alert.
type Field struct {
	Name  string
	Value string
	Short bool
}

// Alert is one operational notification.
type Alert struct {
	Title    string
	Body     string
	Severity Severity
	Fields   []Field
}

// Notifier delivers alerts.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// LogNotifier writes alerts to a logrus logger.
type LogNotifier struct {
	log logrus.FieldLogger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify logs the alert at a level matching its severity.
func (n *LogNotifier) Notify(_ context.Context, a Alert) error {
	fields := logrus.Fields{"alert": a.Title, "severity": string(a.Severity)}
	for _, f := range a.Fields {
		fields[f.Name] = f.Value
	}
	entry := n.log.WithFields(fields)
	switch a.Severity {
	case SeverityCritical:
		entry.Error(a.Body)
	case SeverityWarning:
		entry.Warn(a.Body)
	default:
		entry.Info(a.Body)
	}
	return nil
}

// Multi fans an alert out to every notifier concurrently.
type Multi []Notifier

// Notify delivers to all notifiers and joins their errors. One failing
// channel does not stop delivery to the others.
func (m Multi) Notify(ctx context.Context, a Alert) error {
	var g errgroup.Group
	errs := make([]error, len(m))
	for i, n := range m {
		i, n := i, n
		g.Go(func() error {
			errs[i] = n.Notify(ctx, a)
			return errs[i]
		})
	}
	if err := g.Wait(); err == nil {
		return nil
	}
	return errors.Join(errs...)
}

// Nop discards alerts.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, Alert) error { return nil }
