package session

import (
	"encoding/json"
	"errors"
	"sync"

	pkgerrors "github.com/pkg/errors"

	"github.com/learnspace/learnspace/core"
	"github.com/learnspace/learnspace/core/identity"
)

// EventUserUpdated names the change notification emitted after every
// Write and Clear. Kept for wire/storage compatibility with the web
// client's in-page broadcast event.
const EventUserUpdated = "userUpdated"

// ErrNoRecord is returned by a Backend when no session record exists.
var ErrNoRecord = errors.New("no session record")

type (
	// Backend persists the single session record under one well-known key.
	// A Put fully replaces any prior record.
	Backend interface {
		Put(data []byte) error
		Get() ([]byte, error)
		Delete() error
		// Watch calls notify whenever the record is changed by another
		// process. The returned stop func releases the watch.
		Watch(notify func()) (stop func(), err error)
	}

	// Store is the single source of truth for "who is currently signed in".
	// It holds at most one Identity; writes are whole-record replacements.
	Store struct {
		backend Backend
		logger  core.Logger

		mu        sync.Mutex
		subs      map[int]func(event string)
		nextSubID int
		stopWatch func()
	}
)

func NewStore(backend Backend, logger core.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger,
		subs:    make(map[int]func(event string)),
	}
}

// Write persists ident, replacing any prior session, then notifies
// subscribers. The approval check is the caller's responsibility
// (the sign-in flow rejects non-approved identities before calling Write).
// Subscribers are only invoked once the record is fully committed: a
// subscriber that calls Read from its callback observes the new identity.
func (s *Store) Write(ident identity.Identity) error {
	data, err := json.Marshal(ident)
	if err != nil {
		return pkgerrors.Wrap(err, "marshalling identity")
	}
	if err := s.backend.Put(data); err != nil {
		return pkgerrors.Wrap(err, "persisting session record")
	}
	s.notify()
	return nil
}

// Read returns the persisted Identity, or ok=false when no session exists.
// A malformed record degrades to "no session"; Read never errors.
func (s *Store) Read() (identity.Identity, bool) {
	data, err := s.backend.Get()
	if err != nil {
		if !errors.Is(err, ErrNoRecord) && s.logger != nil {
			s.logger.Warn("reading session record", err)
		}
		return identity.Identity{}, false
	}

	var ident identity.Identity
	if err := json.Unmarshal(data, &ident); err != nil {
		// corrupted record; treated the same as a logged-out state
		if s.logger != nil {
			s.logger.Warn("malformed session record", err)
		}
		return identity.Identity{}, false
	}
	return ident, true
}

// Clear removes the persisted session and notifies subscribers.
// Clearing an already-empty store is a no-op success.
func (s *Store) Clear() error {
	if err := s.backend.Delete(); err != nil && !errors.Is(err, ErrNoRecord) {
		return pkgerrors.Wrap(err, "deleting session record")
	}
	s.notify()
	return nil
}

// Subscribe registers fn to run after every session change in this process.
// It returns an unsubscribe func.
func (s *Store) Subscribe(fn func(event string)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// StartWatch relays record changes made by other processes to this
// store's subscribers (the cross-tab "storage" signal of the web client).
func (s *Store) StartWatch() error {
	stop, err := s.backend.Watch(s.notify)
	if err != nil {
		return pkgerrors.Wrap(err, "watching session record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopWatch != nil {
		s.stopWatch()
	}
	s.stopWatch = stop
	return nil
}

// StopWatch releases the cross-process watch, if any.
func (s *Store) StopWatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	subs := make([]func(event string), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	// invoked outside the lock so a subscriber may call back into the store
	for _, fn := range subs {
		fn(EventUserUpdated)
	}
}
