package state

import (
	"errors"

	"sgu-cli/internal/model"
)

// Mode is the form mode driven by the selection.
type Mode int

const (
	Creating Mode = iota
	Editing
)

func (m Mode) String() string {
	switch m {
	case Creating:
		return "creating"
	case Editing:
		return "editing"
	default:
		return "unknown"
	}
}

var ErrNotPersisted = errors.New("user has no id and cannot be edited")

// Selection is the entity loaded into the form, if any.
//
// The zero value is the initial Creating state. Editing holds a copy of the user's
// field values at selection time, not a live binding to the list.
type Selection struct {
	mode Mode
	user model.User
}

func (s Selection) Mode() Mode { return s.mode }

// User returns the selected user when Editing.
func (s Selection) User() (model.User, bool) {
	if s.mode != Editing {
		return model.User{}, false
	}
	return s.user, true
}

// IsEditing reports whether the user with id is the one being edited.
func (s Selection) IsEditing(id model.ID) bool {
	return s.mode == Editing && s.user.ID == id
}

// Draft tags form values with the variant implied by the mode.
func (s Selection) Draft(f model.Fields) model.Draft {
	if s.mode == Editing {
		return model.ExistingUser{ID: s.user.ID, Fields: f}
	}
	return model.NewUser{Fields: f}
}

// SelectForEdit moves to Editing(u) from any state.
func (s *Selection) SelectForEdit(u model.User) error {
	if !u.Persisted() {
		return ErrNotPersisted
	}
	s.mode = Editing
	s.user = u
	return nil
}

// Cancel returns to Creating. It is a no-op when already Creating.
func (s *Selection) Cancel() {
	*s = Selection{}
}
