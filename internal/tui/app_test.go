package tui

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"sgu-cli/internal/model"
	"sgu-cli/internal/remote"
	"sgu-cli/internal/state"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type fakeUsers struct {
	mu      sync.Mutex
	users   []model.User
	nextID  int
	creates []model.Fields
	updates []model.ID
	deletes []model.ID

	listErr   error
	deleteErr error
}

func newFakeUsers(users ...model.User) *fakeUsers {
	return &fakeUsers{users: users, nextID: len(users)}
}

func (f *fakeUsers) List(context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.User(nil), f.users...), nil
}

func (f *fakeUsers) Create(_ context.Context, fields model.Fields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, fields)
	f.nextID++
	f.users = append(f.users, fields.User(model.ID(strconv.Itoa(f.nextID))))
	return nil
}

func (f *fakeUsers) Update(_ context.Context, id model.ID, fields model.Fields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, id)
	for i := range f.users {
		if f.users[i].ID == id {
			f.users[i] = fields.User(id)
		}
	}
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id model.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes = append(f.deletes, id)
	kept := f.users[:0]
	for _, u := range f.users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	f.users = kept
	return nil
}

var (
	ana = model.User{ID: "1", FullName: "Ana", Email: "ana@example.com", PhoneNumber: "555-0101"}
	bob = model.User{ID: "2", FullName: "Bob", Email: "bob@example.com", PhoneNumber: "555-0102"}
)

// startModel builds a sized model and runs its initial refresh.
func startModel(t *testing.T, f *fakeUsers) appModel {
	t.Helper()
	m := newAppModel(state.NewSession(f), Options{BaseURL: "http://localhost:8080/api/users"})
	m = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return drain(t, m, m.Init())
}

func send(t *testing.T, m appModel, msg tea.Msg) appModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(appModel)
}

// press delivers a key and runs whatever work it schedules.
func press(t *testing.T, m appModel, k tea.KeyMsg) appModel {
	t.Helper()
	next, cmd := m.Update(k)
	return drain(t, next.(appModel), cmd)
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func typeText(t *testing.T, m appModel, s string) appModel {
	t.Helper()
	for _, r := range s {
		m = send(t, m, runes(string(r)))
	}
	return m
}

// drain executes cmd and feeds the resulting messages back into the model. Spinner
// frames, notice expiry and slow timers (cursor blink) are dropped.
func drain(t *testing.T, m appModel, cmd tea.Cmd) appModel {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := runCmd(c)
		switch msg := msg.(type) {
		case nil, spinner.TickMsg, noticeDoneMsg, tea.QuitMsg:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		}
		next, c2 := m.Update(msg)
		m = next.(appModel)
		queue = append(queue, c2)
	}
	return m
}

func runCmd(c tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- c() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(300 * time.Millisecond):
		return nil
	}
}

func TestInit_LoadsUsersIntoList(t *testing.T) {
	m := startModel(t, newFakeUsers(ana, bob))

	if got := len(m.users.Items()); got != 2 {
		t.Fatalf("expected 2 list items, got %d", got)
	}
	if m.loading() {
		t.Fatalf("expected loading to be over after the first refresh")
	}
	out := m.View()
	for _, want := range []string{"New user", "Registered users (2)", "Ana", "bob@example.com", "555-0102"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected view to contain %q; got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Cancel") {
		t.Fatalf("expected no Cancel button while creating")
	}
}

func TestEmptyList_SaysNoUsers(t *testing.T) {
	m := startModel(t, newFakeUsers())
	if out := m.View(); !strings.Contains(out, "No users registered.") {
		t.Fatalf("expected empty hint; got:\n%s", out)
	}
}

func TestRefreshFailure_ShowsInlineError(t *testing.T) {
	f := newFakeUsers()
	f.listErr = &remote.RemoteError{Op: remote.OpList, Status: 500}
	m := startModel(t, f)

	if m.modal != modalNone {
		t.Fatalf("expected no modal for a list failure, got %v", m.modal)
	}
	if out := m.View(); !strings.Contains(out, "error 500: could not fetch the user list") {
		t.Fatalf("expected inline error; got:\n%s", out)
	}
}

func TestCreate_TypedFormIsSubmitted(t *testing.T) {
	f := newFakeUsers(ana)
	m := startModel(t, f)

	m = typeText(t, m, "Cleo")
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "cleo@example.com")
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "555-0199")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	if len(f.creates) != 1 || f.creates[0].FullName != "Cleo" || f.creates[0].PhoneNumber != "555-0199" {
		t.Fatalf("expected one create for Cleo, got %+v", f.creates)
	}
	if got := len(m.users.Items()); got != 2 {
		t.Fatalf("expected list to be refreshed to 2 users, got %d", got)
	}
	if v := m.formFields(); v != (model.Fields{}) {
		t.Fatalf("expected form to be cleared, got %+v", v)
	}
	if m.busy {
		t.Fatalf("expected busy to clear")
	}
	if out := m.View(); !strings.Contains(out, "User created") {
		t.Fatalf("expected success notice; got:\n%s", out)
	}
}

func TestCreate_InvalidFormShowsModalWithoutRequest(t *testing.T) {
	f := newFakeUsers()
	m := startModel(t, f)

	m = typeText(t, m, "Dee")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(f.creates) != 0 {
		t.Fatalf("expected no create call, got %d", len(f.creates))
	}
	if m.modal != modalError || m.modalTitle != "Invalid user" {
		t.Fatalf("expected validation modal, got %v %q", m.modal, m.modalTitle)
	}
	if !strings.Contains(m.modalBody, "email is required") || !strings.Contains(m.modalBody, "phoneNumber is required") {
		t.Fatalf("expected every problem listed; got %q", m.modalBody)
	}
	if v := m.formFields(); v.FullName != "Dee" {
		t.Fatalf("expected typed values to be kept, got %+v", v)
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.modal != modalNone {
		t.Fatalf("expected esc to dismiss the modal")
	}
}

func TestTab_CyclesFormThenList(t *testing.T) {
	m := startModel(t, newFakeUsers(ana))

	for i, want := range []formFocus{focusEmail, focusPhone, focusSave} {
		m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
		if m.pane != paneForm || m.focus != want {
			t.Fatalf("tab %d: expected form focus %v, got pane=%v focus=%v", i+1, want, m.pane, m.focus)
		}
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.pane != paneList {
		t.Fatalf("expected tab past Save to move to the list")
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.pane != paneForm || m.focus != focusName {
		t.Fatalf("expected tab in the list to return to the first field")
	}
}

func toList(t *testing.T, m appModel) appModel {
	t.Helper()
	for i := 0; i < 6 && m.pane != paneList; i++ {
		m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	}
	if m.pane != paneList {
		t.Fatalf("could not reach the list pane")
	}
	return m
}

func TestEdit_LoadsSelectedUserAndUpdates(t *testing.T) {
	f := newFakeUsers(ana, bob)
	m := toList(t, startModel(t, f))

	m = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = send(t, m, runes("e"))

	if m.pane != paneForm {
		t.Fatalf("expected edit to focus the form")
	}
	if u, ok := m.editing(); !ok || u.ID != bob.ID {
		t.Fatalf("expected Bob selected for edit, got %+v ok=%v", u, ok)
	}
	if v := m.formFields(); v != bob.Fields() {
		t.Fatalf("expected form to hold Bob, got %+v", v)
	}
	out := m.View()
	if !strings.Contains(out, "Edit user") || !strings.Contains(out, "Update") || !strings.Contains(out, "Cancel") {
		t.Fatalf("expected edit form chrome; got:\n%s", out)
	}

	m.inputs[focusName].SetValue("Robert")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	if len(f.updates) != 1 || f.updates[0] != bob.ID {
		t.Fatalf("expected one update of id 2, got %v", f.updates)
	}
	if len(f.creates) != 0 {
		t.Fatalf("expected no create, got %d", len(f.creates))
	}
	if _, ok := m.editing(); ok {
		t.Fatalf("expected selection back to creating after save")
	}
	if v := m.formFields(); v != (model.Fields{}) {
		t.Fatalf("expected form cleared after save, got %+v", v)
	}
	if u, _ := m.session.List().Find(bob.ID); u.FullName != "Robert" {
		t.Fatalf("expected refreshed snapshot to carry the new name, got %+v", u)
	}
	if out := m.View(); !strings.Contains(out, "User updated") || !strings.Contains(out, "New user") {
		t.Fatalf("expected update notice and create form; got:\n%s", out)
	}
}

func TestEdit_EscCancels(t *testing.T) {
	m := toList(t, startModel(t, newFakeUsers(ana)))
	m = send(t, m, runes("e"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	if _, ok := m.editing(); ok {
		t.Fatalf("expected esc to leave edit mode")
	}
	if v := m.formFields(); v != (model.Fields{}) {
		t.Fatalf("expected cleared form, got %+v", v)
	}
}

func TestDelete_DeclineMakesNoRequest(t *testing.T) {
	f := newFakeUsers(ana, bob)
	m := toList(t, startModel(t, f))

	m = send(t, m, runes("d"))
	if m.modal != modalConfirmDelete {
		t.Fatalf("expected confirmation modal, got %v", m.modal)
	}
	if !strings.Contains(m.modalBody, "Ana (id 1)") {
		t.Fatalf("expected target in prompt, got %q", m.modalBody)
	}
	if out := m.View(); !strings.Contains(out, "Delete user") {
		t.Fatalf("expected modal to render; got:\n%s", out)
	}

	token := m.pending.Token
	m = press(t, m, runes("n"))
	if m.modal != modalNone {
		t.Fatalf("expected modal closed")
	}
	if len(f.deletes) != 0 {
		t.Fatalf("expected no delete call, got %v", f.deletes)
	}
	if _, ok := m.session.Pending(token); ok {
		t.Fatalf("expected token to be discarded")
	}
	if got := len(m.users.Items()); got != 2 {
		t.Fatalf("expected list untouched, got %d", got)
	}
}

func TestDelete_EnterOnDefaultFocusDeclines(t *testing.T) {
	f := newFakeUsers(ana)
	m := toList(t, startModel(t, f))

	m = send(t, m, runes("d"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(f.deletes) != 0 {
		t.Fatalf("expected Cancel to be the default button")
	}

	m = send(t, m, runes("d"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(f.deletes) != 1 {
		t.Fatalf("expected delete after focusing Delete, got %v", f.deletes)
	}
}

func TestDelete_ConfirmRemovesAndClearsEditedUser(t *testing.T) {
	f := newFakeUsers(ana, bob)
	m := toList(t, startModel(t, f))

	m = send(t, m, runes("e"))
	m = toList(t, m)
	m = send(t, m, runes("d"))
	m = press(t, m, runes("y"))

	if len(f.deletes) != 1 || f.deletes[0] != ana.ID {
		t.Fatalf("expected Ana deleted, got %v", f.deletes)
	}
	if _, ok := m.editing(); ok {
		t.Fatalf("expected selection of the deleted user to be cleared")
	}
	if v := m.formFields(); v != (model.Fields{}) {
		t.Fatalf("expected form cleared, got %+v", v)
	}
	if got := len(m.users.Items()); got != 1 {
		t.Fatalf("expected 1 user left, got %d", got)
	}
	if m.notice != "User deleted" {
		t.Fatalf("expected delete notice, got %q", m.notice)
	}
}

func TestDelete_FailureShowsErrorAndKeepsList(t *testing.T) {
	f := newFakeUsers(ana)
	f.deleteErr = &remote.RemoteError{Op: remote.OpDelete, Status: 500}
	m := toList(t, startModel(t, f))

	m = send(t, m, runes("d"))
	m = press(t, m, runes("y"))

	if m.modal != modalError || m.modalTitle != "Delete failed" {
		t.Fatalf("expected error modal, got %v %q", m.modal, m.modalTitle)
	}
	if m.modalBody != "error 500: could not delete the user" {
		t.Fatalf("unexpected error text %q", m.modalBody)
	}
	if got := len(m.users.Items()); got != 1 {
		t.Fatalf("expected list untouched, got %d", got)
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.modal != modalNone {
		t.Fatalf("expected enter to acknowledge the error")
	}
}

func TestNew_FromListLeavesEditMode(t *testing.T) {
	m := toList(t, startModel(t, newFakeUsers(ana)))
	m = send(t, m, runes("e"))
	m = toList(t, m)
	m = send(t, m, runes("n"))

	if _, ok := m.editing(); ok {
		t.Fatalf("expected n to switch back to creating")
	}
	if m.pane != paneForm || m.focus != focusName {
		t.Fatalf("expected focus on the first field")
	}
}

func TestNotice_OnlyLatestTickClears(t *testing.T) {
	m := startModel(t, newFakeUsers())

	_ = m.flash("User created")
	old := m.noticeSeq
	_ = m.flash("User deleted")

	m = send(t, m, noticeDoneMsg{seq: old})
	if m.notice != "User deleted" {
		t.Fatalf("expected stale tick to be ignored, got %q", m.notice)
	}
	m = send(t, m, noticeDoneMsg{seq: m.noticeSeq})
	if m.notice != "" {
		t.Fatalf("expected notice cleared, got %q", m.notice)
	}
}

func TestQuit(t *testing.T) {
	m := startModel(t, newFakeUsers())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}

	// q is text while typing in the form.
	m = send(t, m, runes("q"))
	if m.formFields().FullName != "q" {
		t.Fatalf("expected q to be typed into the name field")
	}
}

func TestRefreshFailure_HidesTableUntilRetrySucceeds(t *testing.T) {
	f := newFakeUsers(ana)
	m := toList(t, startModel(t, f))

	f.mu.Lock()
	f.listErr = &remote.RemoteError{Op: remote.OpList, Status: 503}
	f.mu.Unlock()
	m = press(t, m, runes("r"))

	out := m.View()
	if !strings.Contains(out, "error 503: could not fetch the user list") {
		t.Fatalf("expected inline error; got:\n%s", out)
	}
	if strings.Contains(out, "ana@example.com") {
		t.Fatalf("expected rows hidden while the fetch error is shown; got:\n%s", out)
	}
	if got := m.session.List().Len(); got != 1 {
		t.Fatalf("expected previous snapshot kept, got %d users", got)
	}

	m = send(t, m, runes("d"))
	if m.modal != modalNone {
		t.Fatalf("expected no delete prompt for a hidden row")
	}

	f.mu.Lock()
	f.listErr = nil
	f.mu.Unlock()
	m = press(t, m, runes("r"))
	if out := m.View(); !strings.Contains(out, "ana@example.com") {
		t.Fatalf("expected rows back after a successful retry; got:\n%s", out)
	}
}

func TestDelete_ConfirmWaitsWhileSaveInFlight(t *testing.T) {
	f := newFakeUsers(ana)
	m := toList(t, startModel(t, f))

	m = send(t, m, runes("d"))
	m.busy = true
	m = press(t, m, runes("y"))
	if len(f.deletes) != 0 {
		t.Fatalf("expected no delete while another request is running, got %v", f.deletes)
	}
	if m.modal != modalConfirmDelete {
		t.Fatalf("expected the prompt to stay open, got %v", m.modal)
	}

	m.busy = false
	m = press(t, m, runes("y"))
	if len(f.deletes) != 1 {
		t.Fatalf("expected delete once idle, got %v", f.deletes)
	}
}
