package tui

import (
	"sgu-cli/internal/model"
	"sgu-cli/internal/state"
)

type pane int

const (
	paneForm pane = iota
	paneList
)

type modalKind int

const (
	modalNone modalKind = iota
	modalConfirmDelete
	modalError
)

type confirmModalFocus int

const (
	confirmFocusConfirm confirmModalFocus = iota
	confirmFocusCancel
)

// formFocus indexes the form's focusable controls: the three inputs, then the
// buttons.
type formFocus int

const (
	focusName formFocus = iota
	focusEmail
	focusPhone
	focusSave
	focusCancel
)

type refreshDoneMsg struct{ err error }

type saveDoneMsg struct {
	draft model.Draft
	err   error
}

type deleteDoneMsg struct {
	pending state.PendingDelete
	// wasEditing records whether the form held the target when the delete was confirmed.
	wasEditing bool
	err        error
}

// noticeDoneMsg clears the success notice it was scheduled for; a newer notice bumps
// seq and outlives older ticks.
type noticeDoneMsg struct{ seq int }
