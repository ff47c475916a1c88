// Package notify delivers trade and performance reports to outside
// channels. Delivery is fire-and-forget: a failed send is logged and
// never blocks or rolls back ledger state.
package notify

import "log"

// Notifier sends a rendered report. Implementations must not block the
// caller on network I/O.
type Notifier interface {
	SendReport(text string)
}

// LogNotifier writes reports to the process log. It is the default when
// no external channel is configured.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// SendReport logs the report text.
func (n *LogNotifier) SendReport(text string) {
	n.logger.Printf("report:\n%s", text)
}

// NopNotifier drops every report.
type NopNotifier struct{}

// SendReport does nothing.
func (NopNotifier) SendReport(string) {}

var (
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = NopNotifier{}
)
