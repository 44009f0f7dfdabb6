package state

import (
	"context"
	"sync"

	"sgu-cli/internal/logging"
	"sgu-cli/internal/model"

	"github.com/sirupsen/logrus"
)

// Lister fetches the full user collection.
type Lister interface {
	List(ctx context.Context) ([]model.User, error)
}

// ListState caches the last successfully fetched collection.
//
// The snapshot is only ever replaced wholesale by Refresh. A failed refresh keeps the
// previous snapshot (stale but available) and records the failure message.
type ListState struct {
	lister Lister
	log    logrus.FieldLogger

	mu       sync.Mutex
	users    []model.User
	loaded   bool
	inFlight int
	lastErr  string
	// issued numbers refreshes as they start; applied is the number of the refresh
	// whose result is currently visible. Older results never overwrite newer ones.
	issued  uint64
	applied uint64
}

func NewListState(lister Lister, log logrus.FieldLogger) *ListState {
	if log == nil {
		log = logging.Discard()
	}
	return &ListState{lister: lister, log: log}
}

// Refresh fetches the collection and replaces the snapshot on success.
func (s *ListState) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.inFlight++
	s.lastErr = ""
	s.mu.Unlock()

	users, err := s.lister.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--

	log := s.log.WithField("refresh", seq)
	if seq < s.applied {
		log.WithField("applied", s.applied).Debug("dropping stale refresh result")
		return err
	}
	s.applied = seq

	if err != nil {
		s.lastErr = err.Error()
		log.WithError(err).Warn("refresh failed; keeping previous snapshot")
		return err
	}
	s.users = cloneUsers(users)
	s.loaded = true
	s.lastErr = ""
	log.WithField("count", len(s.users)).Debug("snapshot replaced")
	return nil
}

// Snapshot returns a copy of the last fetched collection.
func (s *ListState) Snapshot() []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneUsers(s.users)
}

// Loading reports whether at least one refresh is in flight.
func (s *ListState) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// LastError is the message of the most recent failed refresh, or "".
func (s *ListState) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Loaded reports whether any refresh has ever succeeded.
func (s *ListState) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *ListState) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// Find looks a user up in the current snapshot.
func (s *ListState) Find(id model.ID) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}

func cloneUsers(in []model.User) []model.User {
	out := make([]model.User, len(in))
	copy(out, in)
	return out
}
