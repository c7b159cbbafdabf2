package store

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"go-floodline/types"
)

// Store is the session-lifetime incident collection and the only mutable
// shared resource in the process. Records are append-only; verdict and vote
// fields change exclusively through Update, which serializes writers per
// incident and applies mutations all-or-nothing. Readers always receive
// copies, so a half-applied mutation is never observable.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]*types.Incident
	order []string // newest first

	locks   map[string]*sync.Mutex
	locksMu sync.Mutex

	log *logrus.Logger
}

func New(log *logrus.Logger) *Store {
	return &Store{
		byID:  make(map[string]*types.Incident),
		locks: make(map[string]*sync.Mutex),
		log:   log,
	}
}

// Append adds an incident to the front of the visible ordering.
func (s *Store) Append(inc *types.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[inc.ID]; exists {
		return fmt.Errorf("append %s: %w", inc.ID, types.ErrDuplicateID)
	}

	s.byID[inc.ID] = inc.Clone()
	s.order = append([]string{inc.ID}, s.order...)

	s.log.WithFields(logrus.Fields{
		"incident_id": inc.ID,
		"origin":      inc.Origin,
		"category":    inc.Category,
	}).Info("Incident appended")
	return nil
}

// Update applies mutate to a private copy of the record and swaps it in only
// when mutate returns nil. A non-nil error discards the copy entirely.
func (s *Store) Update(id string, mutate func(*types.Incident) error) error {
	lock, err := s.recordLock(id)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	cur, ok := s.byID[id]
	var work *types.Incident
	if ok {
		work = cur.Clone()
	}
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("update %s: %w", id, types.ErrNotFound)
	}

	if err := mutate(work); err != nil {
		return err
	}

	s.mu.Lock()
	s.byID[id] = work
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the incident.
func (s *Store) Get(id string) (*types.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inc, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, types.ErrNotFound)
	}
	return inc.Clone(), nil
}

// All returns copies of every incident, newest first.
func (s *Store) All() []*types.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Incident, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

// Len reports the number of stored incidents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) recordLock(id string) (*sync.Mutex, error) {
	s.mu.RLock()
	_, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("update %s: %w", id, types.ErrNotFound)
	}

	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock, nil
}
