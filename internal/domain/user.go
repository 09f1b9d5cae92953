// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const (
	MaxUserIDLen   = 64
	MaxUsernameLen = 36
)

var (
	ErrUserIDEmpty     = errors.New("user id empty")
	ErrUserIDTooLong   = errors.New("user id too long")
	ErrUsernameTooLong = errors.New("username too long")
)

type UserID string

func (id UserID) String() string { return string(id) }

// UserIdentity is who a signaling connection speaks for.
// It is fixed once the connection has joined.
type UserIdentity struct {
	ID   UserID `json:"userId"`
	Name string `json:"name"`
}

// NewUserIdentity trims and validates what the auth collaborator handed over.
// An empty name falls back to the id.
func NewUserIdentity(id, name string) (UserIdentity, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return UserIdentity{}, ErrUserIDEmpty
	}
	if len(id) > MaxUserIDLen {
		return UserIdentity{}, ErrUserIDTooLong
	}
	if len(name) > MaxUsernameLen {
		return UserIdentity{}, ErrUsernameTooLong
	}
	if name == "" {
		name = id
	}
	return UserIdentity{ID: UserID(id), Name: name}, nil
}

// UserProfile is a directory entry. It is richer than UserIdentity and never
// travels through the signaling path except as opaque call meta.
type UserProfile struct {
	ID         UserID `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email,omitempty"`
	ProfilePic string `json:"profilepic,omitempty"`
}

func (p UserProfile) Identity() UserIdentity {
	return UserIdentity{ID: p.ID, Name: p.Username}
}
