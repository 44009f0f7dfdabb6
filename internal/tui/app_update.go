package tui

import (
	"errors"
	"strings"
	"time"

	"sgu-cli/internal/model"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const noticeTTL = 2 * time.Second

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.refreshCmd())
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if !m.loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case refreshDoneMsg:
		if m.refreshing > 0 {
			m.refreshing--
		}
		m.syncList()
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("refresh failed")
		}
		return m, nil

	case saveDoneMsg:
		return m.onSaveDone(msg)

	case deleteDoneMsg:
		return m.onDeleteDone(msg)

	case noticeDoneMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m, tea.Quit
		}
		switch m.modal {
		case modalConfirmDelete:
			return m.updateConfirmDelete(msg)
		case modalError:
			if key.Matches(msg, m.keys.Select, m.keys.Cancel) {
				m.closeModal()
			}
			return m, nil
		}
		if m.pane == paneList {
			return m.updateList(msg)
		}
		return m.updateForm(msg)
	}
	return m, nil
}

func (m appModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Save):
		return m.submit()

	case key.Matches(msg, m.keys.Cancel):
		if _, ok := m.editing(); ok {
			m.cancelEdit()
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		switch m.focus {
		case focusCancel:
			m.cancelEdit()
			return m, nil
		default:
			return m.submit()
		}

	case key.Matches(msg, m.keys.FocusNext):
		if msg.String() == "tab" && m.focus == m.lastFocus() {
			m.setFocus(focusName)
			m.blurForm()
			m.pane = paneList
			return m, nil
		}
		m.setFocus(m.focus + 1)
		return m, nil

	case key.Matches(msg, m.keys.FocusPrev):
		m.setFocus(m.focus - 1)
		return m, nil
	}

	if m.focus > focusPhone {
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m appModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.NextPane):
		m.pane = paneForm
		m.setFocus(focusName)
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.refreshing++
		return m, tea.Batch(m.spin.Tick, m.refreshCmd())

	case key.Matches(msg, m.keys.New):
		m.session.Cancel()
		m.setFormFields(model.Fields{})
		m.pane = paneForm
		m.setFocus(focusName)
		return m, nil

	case key.Matches(msg, m.keys.Edit):
		u, ok := m.selectedUser()
		if !ok {
			return m, nil
		}
		if err := m.session.SelectForEdit(u); err != nil {
			m.showError("Cannot edit user", err)
			return m, nil
		}
		m.setFormFields(u.Fields())
		m.pane = paneForm
		m.setFocus(focusName)
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		u, ok := m.selectedUser()
		if !ok {
			return m, nil
		}
		p, err := m.session.RequestDelete(u.ID)
		if err != nil {
			m.showError("Cannot delete user", err)
			return m, nil
		}
		m.pending = p
		m.modal = modalConfirmDelete
		m.modalTitle = "Delete user"
		m.modalBody = "Delete " + p.Label() + "?"
		m.confirmFocus = confirmFocusCancel
		return m, nil
	}

	var cmd tea.Cmd
	m.users, cmd = m.users.Update(msg)
	return m, cmd
}

func (m appModel) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		return m.confirmDelete()
	case key.Matches(msg, m.keys.Decline):
		m.declineDelete()
		return m, nil
	case msg.String() == "tab" || msg.String() == "shift+tab" || msg.String() == "left" || msg.String() == "right":
		if m.confirmFocus == confirmFocusConfirm {
			m.confirmFocus = confirmFocusCancel
		} else {
			m.confirmFocus = confirmFocusConfirm
		}
		return m, nil
	case key.Matches(msg, m.keys.Select):
		if m.confirmFocus == confirmFocusConfirm {
			return m.confirmDelete()
		}
		m.declineDelete()
		return m, nil
	}
	return m, nil
}

func (m appModel) confirmDelete() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	p := m.pending
	wasEditing := m.session.Selection().IsEditing(p.ID)
	m.closeModal()
	m.busy = true

	s, ctx := m.session, m.ctx
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		err := s.ConfirmDelete(ctx, p.Token)
		return deleteDoneMsg{pending: p, wasEditing: wasEditing, err: err}
	})
}

func (m *appModel) declineDelete() {
	if err := m.session.DeclineDelete(m.pending.Token); err != nil {
		m.log.WithError(err).Debug("decline delete")
	}
	m.closeModal()
}

func (m appModel) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true
	s, ctx, f := m.session, m.ctx, m.formFields()
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		d, err := s.Submit(ctx, f)
		return saveDoneMsg{draft: d, err: err}
	})
}

func (m appModel) onSaveDone(msg saveDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		var ve *model.ValidationError
		if errors.As(msg.err, &ve) {
			lines := make([]string, 0, len(ve.Problems()))
			for _, p := range ve.Problems() {
				lines = append(lines, "• "+p.Error())
			}
			m.showMessage("Invalid user", strings.Join(lines, "\n"))
			return m, nil
		}
		m.showError("Save failed", msg.err)
		return m, nil
	}

	// A successful save always leaves edit mode.
	m.syncList()
	m.setFormFields(model.Fields{})
	m.setFocus(focusName)
	verb := "created"
	if _, ok := msg.draft.(model.ExistingUser); ok {
		verb = "updated"
	}
	return m, m.flash("User " + verb)
}

func (m appModel) onDeleteDone(msg deleteDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.showError("Delete failed", msg.err)
		return m, nil
	}
	m.syncList()
	if msg.wasEditing {
		if _, ok := m.editing(); !ok {
			m.setFormFields(model.Fields{})
			m.setFocus(focusName)
		}
	}
	return m, m.flash("User deleted")
}

// flash shows a success notice that clears itself after noticeTTL.
func (m *appModel) flash(text string) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	seq := m.noticeSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg { return noticeDoneMsg{seq: seq} })
}

func (m appModel) refreshCmd() tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		return refreshDoneMsg{err: s.Refresh(ctx)}
	}
}

func (m *appModel) cancelEdit() {
	m.session.Cancel()
	m.setFormFields(model.Fields{})
	m.setFocus(focusName)
}

func (m *appModel) blurForm() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

// selectedUser is the row under the cursor. Nothing is selectable while a fetch error
// hides the table.
func (m appModel) selectedUser() (model.User, bool) {
	if m.session.List().LastError() != "" {
		return model.User{}, false
	}
	it, ok := m.users.SelectedItem().(userItem)
	if !ok {
		return model.User{}, false
	}
	return it.user, true
}

func (m appModel) loading() bool {
	return m.busy || m.refreshing > 0
}

func (m *appModel) showError(title string, err error) {
	m.log.WithError(err).Debug(strings.ToLower(title))
	m.showMessage(title, err.Error())
}

func (m *appModel) showMessage(title, body string) {
	m.modal = modalError
	m.modalTitle = title
	m.modalBody = body
}

func (m *appModel) closeModal() {
	m.modal = modalNone
	m.modalTitle = ""
	m.modalBody = ""
}
