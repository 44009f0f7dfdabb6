// Package state keeps the client-side view of the users collection consistent with the
// remote service.
//
// A Session is the single coordinator: it owns the ListState (the snapshot) and the
// Selection (create vs edit mode), turns user intents into remote calls, and reconciles
// the results. Front ends read projections from it and never mutate either piece
// directly.
package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"sgu-cli/internal/logging"
	"sgu-cli/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Remote is the subset of the REST client the session needs.
type Remote interface {
	Lister
	Create(ctx context.Context, f model.Fields) error
	Update(ctx context.Context, id model.ID, f model.Fields) error
	Delete(ctx context.Context, id model.ID) error
}

var ErrUnknownConfirmation = errors.New("unknown or already resolved delete confirmation")

// PendingDelete is the token handed out by RequestDelete. The delete only happens once
// the token is passed to ConfirmDelete.
type PendingDelete struct {
	Token string
	ID    model.ID
	// User is the snapshot entry for ID when it was known at request time.
	User  model.User
	Known bool
}

// Label is a human description of the target, for confirmation prompts.
func (p PendingDelete) Label() string {
	if p.Known && strings.TrimSpace(p.User.FullName) != "" {
		return fmt.Sprintf("%s (id %s)", p.User.FullName, p.ID)
	}
	return "user " + p.ID.String()
}

// Confirmer answers a confirmation request; true means proceed.
type Confirmer func(PendingDelete) bool

type Session struct {
	remote Remote
	list   *ListState
	log    logrus.FieldLogger

	newToken func() string

	mu      sync.Mutex
	sel     Selection
	pending map[string]PendingDelete
}

type Option func(*Session)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithTokenSource overrides how confirmation tokens are generated.
func WithTokenSource(fn func() string) Option {
	return func(s *Session) {
		if fn != nil {
			s.newToken = fn
		}
	}
}

func NewSession(remote Remote, opts ...Option) *Session {
	s := &Session{
		remote:   remote,
		log:      logging.Discard(),
		newToken: uuid.NewString,
		pending:  map[string]PendingDelete{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.list = NewListState(remote, s.log.WithField("component", "list"))
	return s
}

// List exposes the snapshot projections (Snapshot, Loading, LastError).
func (s *Session) List() *ListState { return s.list }

// Refresh reloads the snapshot from the remote service.
func (s *Session) Refresh(ctx context.Context) error {
	return s.list.Refresh(ctx)
}

// Selection returns the current selection.
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// SelectForEdit loads u into the form, replacing any previous selection.
func (s *Session) SelectForEdit(u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sel.SelectForEdit(u); err != nil {
		return err
	}
	s.log.WithField("id", u.ID).Debug("selected for edit")
	return nil
}

// Cancel leaves edit mode. No-op when already creating.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sel.Mode() == Creating {
		return
	}
	s.sel.Cancel()
	s.log.Debug("edit canceled")
}

// Draft tags f with the variant implied by the current selection.
func (s *Session) Draft(f model.Fields) model.Draft {
	return s.Selection().Draft(f)
}

// Submit saves the form values: create when no user is selected, update of the
// selected user otherwise. It returns the draft that was sent.
func (s *Session) Submit(ctx context.Context, f model.Fields) (model.Draft, error) {
	d := s.Draft(f)
	return d, s.Save(ctx, d)
}

// Save performs the remote operation implied by the draft variant.
//
// On success the selection returns to Creating, even if another user was selected
// while the call was in flight, and the list is refreshed. On failure nothing changes and the error is
// returned for the caller to show. A refresh failure after a successful save is not
// returned; it is visible through List().LastError().
func (s *Session) Save(ctx context.Context, d model.Draft) error {
	f := d.Values().Normalize()
	if err := f.Validate(); err != nil {
		return err
	}

	log := s.log.WithField("kind", model.DraftKind(d))
	var err error
	switch d := d.(type) {
	case model.NewUser:
		err = s.remote.Create(ctx, f)
	case model.ExistingUser:
		log = log.WithField("id", d.ID)
		err = s.remote.Update(ctx, d.ID, f)
	default:
		err = fmt.Errorf("unsupported draft %T", d)
	}
	if err != nil {
		log.WithError(err).Warn("save failed")
		return err
	}
	log.Info("saved")

	s.mu.Lock()
	s.sel.Cancel()
	s.mu.Unlock()

	s.refreshAfterMutation(ctx)
	return nil
}

// RequestDelete starts the two-step delete protocol. No remote call is made until the
// returned token is confirmed.
func (s *Session) RequestDelete(id model.ID) (PendingDelete, error) {
	if id.IsZero() {
		return PendingDelete{}, ErrNotPersisted
	}
	u, known := s.list.Find(id)
	p := PendingDelete{Token: s.newToken(), ID: id, User: u, Known: known}

	s.mu.Lock()
	s.pending[p.Token] = p
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"id": id, "token": p.Token}).Debug("delete requested")
	return p, nil
}

// Pending looks up an unresolved confirmation.
func (s *Session) Pending(token string) (PendingDelete, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[token]
	return p, ok
}

// DeclineDelete discards the confirmation without touching list or selection.
func (s *Session) DeclineDelete(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[token]
	if !ok {
		return ErrUnknownConfirmation
	}
	delete(s.pending, token)
	s.log.WithField("id", p.ID).Debug("delete declined")
	return nil
}

// ConfirmDelete resolves the token and deletes the user.
//
// On success, a selection pointing at the deleted user is cleared and the list is
// refreshed. On failure list and selection are left untouched.
func (s *Session) ConfirmDelete(ctx context.Context, token string) error {
	s.mu.Lock()
	p, ok := s.pending[token]
	if ok {
		delete(s.pending, token)
	}
	s.mu.Unlock()
	if !ok {
		return ErrUnknownConfirmation
	}

	log := s.log.WithField("id", p.ID)
	if err := s.remote.Delete(ctx, p.ID); err != nil {
		log.WithError(err).Warn("delete failed")
		return err
	}
	log.Info("deleted")

	s.mu.Lock()
	if s.sel.IsEditing(p.ID) {
		s.sel.Cancel()
		log.Debug("cleared selection of deleted user")
	}
	s.mu.Unlock()

	s.refreshAfterMutation(ctx)
	return nil
}

// DeleteWithConfirmation runs RequestDelete, asks confirm, and then confirms or
// declines. It reports whether the delete was attempted.
func (s *Session) DeleteWithConfirmation(ctx context.Context, id model.ID, confirm Confirmer) (bool, error) {
	p, err := s.RequestDelete(id)
	if err != nil {
		return false, err
	}
	if confirm == nil || !confirm(p) {
		return false, s.DeclineDelete(p.Token)
	}
	return true, s.ConfirmDelete(ctx, p.Token)
}

func (s *Session) refreshAfterMutation(ctx context.Context) {
	if err := s.list.Refresh(ctx); err != nil {
		s.log.WithError(err).Warn("refresh after mutation failed")
	}
}
