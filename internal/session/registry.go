// Package session tracks which subscribers currently hold a NAS session.
// The database stays authoritative; the registry is liveness bookkeeping
// shared by the HTTP handlers and the background monitor.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/mohit83k/radius-bridge/internal/model"
)

// Session is what the registry remembers about a live session.
type Session struct {
	Username        string     `json:"username"`
	SessionID       string     `json:"session_id"`
	StartTime       time.Time  `json:"start_time"`
	Kind            model.Kind `json:"kind"`
	NASIPAddress    string     `json:"nas_ip_address,omitempty"`
	FramedIPAddress string     `json:"framed_ip_address,omitempty"`
}

// Registry is a mutex-guarded map from subscriber identifier to session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Session)}
}

// Add records or replaces the session for s.Username.
func (r *Registry) Add(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.Username] = s
}

// Remove drops the session for username and reports whether one existed.
// Removing an unknown username is a no-op.
func (r *Registry) Remove(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[username]
	delete(r.sessions, username)
	return ok
}

// Get returns the session for username.
func (r *Registry) Get(username string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[username]
	return s, ok
}

// FindBySessionID returns the session carrying the NAS session id.
func (r *Registry) FindBySessionID(sessionID string) (Session, bool) {
	if sessionID == "" {
		return Session{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.SessionID == sessionID {
			return s, true
		}
	}
	return Session{}, false
}

// RemoveByNAS drops every session learned from nasIP, e.g. after the NAS
// reports Accounting-On/Off. It returns the removed usernames.
func (r *Registry) RemoveByNAS(nasIP string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for username, s := range r.sessions {
		if s.NASIPAddress == nasIP {
			delete(r.sessions, username)
			removed = append(removed, username)
		}
	}
	sort.Strings(removed)
	return removed
}

// List returns a snapshot ordered by username.
func (r *Registry) List() []Session {
	r.mu.RLock()
	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
