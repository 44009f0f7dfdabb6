package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is the server-assigned identifier of a user.
//
// The client treats it as opaque text. The reference backend uses numeric ids, so
// decoding accepts both JSON numbers and strings, and encoding emits a number when the
// value is a canonical integer.
type ID string

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

// Int parses the numeric form used by the reference backend.
func (id ID) Int() (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(id)), 10, 64)
	return n, err == nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return []byte("null"), nil
	}
	// Only canonical integers go out bare; "007" or "+7" must round-trip as text.
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// User is the only entity managed by sgu.
type User struct {
	ID          ID     `json:"id,omitempty"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

// Persisted reports whether the user has been stored by the remote service.
func (u User) Persisted() bool { return !u.ID.IsZero() }

// Fields returns the editable values of u.
func (u User) Fields() Fields {
	return Fields{FullName: u.FullName, Email: u.Email, PhoneNumber: u.PhoneNumber}
}

// Fields holds the values a form can edit.
type Fields struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

// Normalize trims surrounding whitespace from every field.
func (f Fields) Normalize() Fields {
	return Fields{
		FullName:    strings.TrimSpace(f.FullName),
		Email:       strings.TrimSpace(f.Email),
		PhoneNumber: strings.TrimSpace(f.PhoneNumber),
	}
}

// User builds a user with the given id (which may be empty).
func (f Fields) User(id ID) User {
	return User{ID: id, FullName: f.FullName, Email: f.Email, PhoneNumber: f.PhoneNumber}
}

// Draft is the content of the user form at submit time.
//
// It is either a NewUser (never persisted, will be created) or an ExistingUser (will
// be updated by id). The variant decides the remote operation.
type Draft interface {
	Values() Fields
	isDraft()
}

type NewUser struct {
	Fields Fields
}

func (d NewUser) Values() Fields { return d.Fields }
func (NewUser) isDraft()         {}

type ExistingUser struct {
	ID     ID
	Fields Fields
}

func (d ExistingUser) Values() Fields { return d.Fields }
func (ExistingUser) isDraft()         {}

// DraftKind names the variant for logs and JSON output.
func DraftKind(d Draft) string {
	switch d.(type) {
	case NewUser:
		return "create"
	case ExistingUser:
		return "update"
	default:
		return "unknown"
	}
}
