package page

// LockEntries reports how many per-page lock entries are alive.
func (m *Manager) LockEntries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
