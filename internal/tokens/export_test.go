package tokens

import "time"

// SetNow overrides the manager's clock in tests.
func (m *Manager) SetNow(now func() time.Time) {
	m.now = now
}
