package state

import (
	"context"
	"strconv"
	"sync"

	"sgu-cli/internal/model"
	"sgu-cli/internal/remote"
)

type call struct {
	Op     remote.Op
	ID     model.ID
	Fields model.Fields
}

// fakeRemote is an in-memory collection with injectable failures.
type fakeRemote struct {
	mu     sync.Mutex
	users  []model.User
	nextID int
	calls  []call

	listErr   error
	createErr error
	updateErr error
	deleteErr error

	// When set, Update signals updateStarted and then waits for updateGate.
	updateStarted chan struct{}
	updateGate    chan struct{}
}

func newFakeRemote(users ...model.User) *fakeRemote {
	f := &fakeRemote{users: users, nextID: 100}
	return f
}

func (f *fakeRemote) record(c call) {
	f.calls = append(f.calls, c)
}

func (f *fakeRemote) List(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(call{Op: remote.OpList})
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.User, len(f.users))
	copy(out, f.users)
	return out, nil
}

func (f *fakeRemote) Create(_ context.Context, fields model.Fields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(call{Op: remote.OpCreate, Fields: fields})
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	f.users = append(f.users, fields.User(model.ID(strconv.Itoa(f.nextID))))
	return nil
}

func (f *fakeRemote) Update(_ context.Context, id model.ID, fields model.Fields) error {
	if f.updateGate != nil {
		f.updateStarted <- struct{}{}
		<-f.updateGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(call{Op: remote.OpUpdate, ID: id, Fields: fields})
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.users {
		if f.users[i].ID == id {
			f.users[i] = fields.User(id)
			return nil
		}
	}
	return &remote.RemoteError{Op: remote.OpUpdate, Status: 404}
}

func (f *fakeRemote) Delete(_ context.Context, id model.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(call{Op: remote.OpDelete, ID: id})
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.users {
		if f.users[i].ID == id {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return nil
		}
	}
	return &remote.RemoteError{Op: remote.OpDelete, Status: 404}
}

func (f *fakeRemote) ops() []remote.Op {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]remote.Op, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Op)
	}
	return out
}

func (f *fakeRemote) lastCall() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return call{}
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeRemote) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
