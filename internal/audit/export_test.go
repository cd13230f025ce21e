package audit

import "time"

// SetNow overrides the logger's clock in tests.
func (l *Logger) SetNow(now func() time.Time) {
	l.now = now
}
