package course

import "sync"

type scopeKind int

const (
	scopeProgress scopeKind = iota
	scopeCatalog
)

type scopeKey struct {
	kind      scopeKind
	learnerID string
	courseID  int
}

type scopeSlot struct {
	once  sync.Once
	value interface{}
}

// Scope memoizes reads for the lifetime of a single request.
//
// It must be created per request and never shared between requests. Concurrent loads of the
// same key compute once. A nil *Scope disables memoization.
type Scope struct {
	mu    sync.Mutex
	slots map[scopeKey]*scopeSlot
}

// NewScope create an empty request scope
func NewScope() *Scope {
	return &Scope{slots: make(map[scopeKey]*scopeSlot)}
}

func (s *Scope) load(key scopeKey, compute func() interface{}) interface{} {
	if s == nil {
		return compute()
	}
	s.mu.Lock()
	slot, ok := s.slots[key]
	if !ok {
		slot = new(scopeSlot)
		s.slots[key] = slot
	}
	s.mu.Unlock()

	slot.once.Do(func() {
		slot.value = compute()
	})
	return slot.value
}

// Invalidate drop every memoized read of the learner
func (s *Scope) Invalidate(learnerID string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.slots {
		if key.learnerID == learnerID {
			delete(s.slots, key)
		}
	}
}
