package tui

import (
	"context"

	"sgu-cli/internal/logging"
	"sgu-cli/internal/model"
	"sgu-cli/internal/state"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/sirupsen/logrus"
)

type appModel struct {
	session *state.Session
	ctx     context.Context
	log     logrus.FieldLogger
	baseURL string
	keys    keyMap

	width  int
	height int

	pane   pane
	focus  formFocus
	inputs [3]textinput.Model
	users  list.Model
	spin   spinner.Model

	// busy is set while a save or delete is in flight; further submits are ignored.
	busy bool
	// refreshing counts list reloads issued by the TUI that have not reported back.
	refreshing int

	modal        modalKind
	modalTitle   string
	modalBody    string
	confirmFocus confirmModalFocus
	pending      state.PendingDelete

	notice    string
	noticeSeq int
}

func newAppModel(s *state.Session, opts Options) appModel {
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}
	m := appModel{
		session: s,
		ctx:     context.Background(),
		log:     log,
		baseURL: opts.BaseURL,
		keys:    defaultKeyMap(),
		pane:    paneForm,
		focus:   focusName,
		// Init issues the first refresh.
		refreshing: 1,
	}

	placeholders := [3]string{"Full name", "email@example.com", "Phone number"}
	for i := range m.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = 200
		in.Prompt = ""
		m.inputs[i] = in
	}
	m.inputs[focusName].Focus()

	m.users = newUserList()

	m.spin = spinner.New()
	m.spin.Spinner = spinner.MiniDot
	return m
}

func newUserList() list.Model {
	l := list.New(nil, newUserDelegate(), 0, 0)
	l.Title = "Users"
	// Header, loading line and footer are rendered by the app.
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetKeys("q")

	up := append([]string{}, l.KeyMap.CursorUp.Keys()...)
	l.KeyMap.CursorUp.SetKeys(append(up, "ctrl+p")...)
	down := append([]string{}, l.KeyMap.CursorDown.Keys()...)
	l.KeyMap.CursorDown.SetKeys(append(down, "ctrl+n")...)
	return l
}

func (m appModel) formFields() model.Fields {
	return model.Fields{
		FullName:    m.inputs[focusName].Value(),
		Email:       m.inputs[focusEmail].Value(),
		PhoneNumber: m.inputs[focusPhone].Value(),
	}
}

func (m *appModel) setFormFields(f model.Fields) {
	m.inputs[focusName].SetValue(f.FullName)
	m.inputs[focusEmail].SetValue(f.Email)
	m.inputs[focusPhone].SetValue(f.PhoneNumber)
	for i := range m.inputs {
		m.inputs[i].CursorEnd()
	}
}

func (m appModel) editing() (model.User, bool) {
	return m.session.Selection().User()
}

// lastFocus is the last control in the form; Cancel only exists while editing.
func (m appModel) lastFocus() formFocus {
	if _, ok := m.editing(); ok {
		return focusCancel
	}
	return focusSave
}

func (m *appModel) setFocus(f formFocus) {
	if f > m.lastFocus() {
		f = focusName
	}
	if f < focusName {
		f = m.lastFocus()
	}
	m.focus = f
	for i := range m.inputs {
		if formFocus(i) == f {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

// syncList rebuilds the list items from the session snapshot, keeping the cursor on
// the same user when it still exists.
func (m *appModel) syncList() {
	var keep model.ID
	if it, ok := m.users.SelectedItem().(userItem); ok {
		keep = it.user.ID
	}
	snap := m.session.List().Snapshot()
	items := make([]list.Item, 0, len(snap))
	idx := 0
	for i, u := range snap {
		if u.ID == keep {
			idx = i
		}
		items = append(items, userItem{user: u})
	}
	m.users.SetItems(items)
	if len(items) > 0 {
		m.users.Select(idx)
	}
}

func (m *appModel) resize() {
	listW := m.listWidth()
	h := m.height - 8
	if h < 3 {
		h = 3
	}
	m.users.SetSize(listW, h)
	for i := range m.inputs {
		m.inputs[i].Width = m.formWidth() - 4
	}
}

func (m appModel) formWidth() int {
	w := m.width * 2 / 5
	if w < 30 {
		w = 30
	}
	return w
}

func (m appModel) listWidth() int {
	w := m.width - m.formWidth() - 3
	if w < 30 {
		w = 30
	}
	return w
}
