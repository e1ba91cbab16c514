// Package presence keeps the process-wide set of connected users, keyed by
// contact address.
package presence

import (
	"sort"
	"sync"

	"kawanchat/server/internal/apperror"
)

// Tracker is safe for concurrent use
type Tracker struct {
	mu     sync.RWMutex
	online map[string]struct{}
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{online: make(map[string]struct{})}
}

// MarkOnline adds contact to the online set. Empty contacts are ignored.
func (t *Tracker) MarkOnline(contact string) {
	if contact == "" {
		return
	}

	t.mu.Lock()
	t.online[contact] = struct{}{}
	t.mu.Unlock()
}

// MarkOffline removes contact from the online set. Empty contacts are ignored.
func (t *Tracker) MarkOffline(contact string) {
	if contact == "" {
		return
	}

	t.mu.Lock()
	delete(t.online, contact)
	t.mu.Unlock()
}

// IsOnline reports whether contact is connected
func (t *Tracker) IsOnline(contact string) (bool, error) {
	if contact == "" {
		return false, apperror.ErrEmptyContact
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.online[contact]
	return ok, nil
}

// BulkStatus answers for every contact under a single read lock. Absent and
// empty contacts are reported offline.
func (t *Tracker) BulkStatus(contacts []string) map[string]bool {
	status := make(map[string]bool, len(contacts))

	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, contact := range contacts {
		_, ok := t.online[contact]
		status[contact] = ok
	}
	return status
}

// ListOnline returns a sorted snapshot of the online set. The caller owns the
// returned slice.
func (t *Tracker) ListOnline() []string {
	t.mu.RLock()
	contacts := make([]string, 0, len(t.online))
	for contact := range t.online {
		contacts = append(contacts, contact)
	}
	t.mu.RUnlock()

	sort.Strings(contacts)
	return contacts
}

// Count returns the number of online users
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.online)
}
