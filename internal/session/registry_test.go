package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mohit83k/radius-bridge/internal/model"
)

func TestRegistry_AddGetRemove(t *testing.T) {
	r := NewRegistry()
	start := time.Now()
	r.Add(Session{Username: "ABC123", SessionID: "s1", StartTime: start, Kind: model.KindVoucher})

	s, ok := r.Get("ABC123")
	if !ok || s.SessionID != "s1" || s.Kind != model.KindVoucher {
		t.Fatalf("unexpected session: %+v (found=%v)", s, ok)
	}

	if !r.Remove("ABC123") {
		t.Error("expected first remove to report an existing entry")
	}
	if r.Remove("ABC123") {
		t.Error("expected second remove to be a no-op")
	}
	if _, ok := r.Get("ABC123"); ok {
		t.Error("expected entry gone")
	}
}

func TestRegistry_RemoveByNAS(t *testing.T) {
	r := NewRegistry()
	r.Add(Session{Username: "b", NASIPAddress: "10.0.0.1"})
	r.Add(Session{Username: "a", NASIPAddress: "10.0.0.1"})
	r.Add(Session{Username: "c", NASIPAddress: "10.0.0.2"})

	removed := r.RemoveByNAS("10.0.0.1")
	if len(removed) != 2 || removed[0] != "a" || removed[1] != "b" {
		t.Errorf("unexpected removed set: %v", removed)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 session left, got %d", r.Len())
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	r := NewRegistry()
	r.Add(Session{Username: "zed"})
	r.Add(Session{Username: "amy"})

	list := r.List()
	if len(list) != 2 || list[0].Username != "amy" || list[1].Username != "zed" {
		t.Errorf("unexpected list: %+v", list)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("user-%d", i%10)
			r.Add(Session{Username: name})
			r.List()
			r.Remove(name)
		}(i)
	}
	wg.Wait()

	if r.Len() > 10 {
		t.Errorf("registry grew beyond distinct keys: %d", r.Len())
	}
}

func TestRegistry_FindBySessionID(t *testing.T) {
	r := NewRegistry()
	r.Add(Session{Username: "alice", SessionID: "81a0000f"})

	s, ok := r.FindBySessionID("81a0000f")
	if !ok || s.Username != "alice" {
		t.Errorf("expected alice, got %+v (found=%v)", s, ok)
	}
	if _, ok := r.FindBySessionID(""); ok {
		t.Error("empty session id must not match")
	}
}
