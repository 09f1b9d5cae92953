// Package auth turns the credential a client presents on join into the
// identity the signaling core works with.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/VoiceCall/internal/core"
	"github.com/dkeye/VoiceCall/internal/domain"
	"github.com/gorilla/securecookie"
)

// Credential is what a client sends in its join message.
type Credential struct {
	Token  string
	UserID string
	Name   string
}

type Resolver interface {
	Resolve(ctx context.Context, cred Credential) (domain.UserIdentity, error)
}

// TrustResolver accepts the claimed user id as is. Development only.
type TrustResolver struct{}

func (TrustResolver) Resolve(_ context.Context, cred Credential) (domain.UserIdentity, error) {
	id, err := domain.NewUserIdentity(cred.UserID, cred.Name)
	if err != nil {
		return domain.UserIdentity{}, fmt.Errorf("%w: %w", core.ErrUnauthenticated, err)
	}
	return id, nil
}

const tokenName = "voice-identity"

const DefaultTokenTTL = 24 * time.Hour

// Tokens issues and verifies signed identity tokens. The same codec backs
// both directions so a token issued on login resolves on join.
type Tokens struct {
	codec *securecookie.SecureCookie
}

// NewTokens derives a hash key from secret. Tokens expire after ttl.
func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	codec := securecookie.New([]byte(secret), nil)
	codec.MaxAge(int(ttl / time.Second))
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &Tokens{codec: codec}, nil
}

// Issue signs identity into an opaque token.
func (t *Tokens) Issue(id domain.UserIdentity) (string, error) {
	return t.codec.Encode(tokenName, id)
}

// Resolve implements Resolver. Only the token counts; a claimed user id is
// ignored.
func (t *Tokens) Resolve(_ context.Context, cred Credential) (domain.UserIdentity, error) {
	if cred.Token == "" {
		return domain.UserIdentity{}, core.ErrUnauthenticated
	}
	var id domain.UserIdentity
	if err := t.codec.Decode(tokenName, cred.Token, &id); err != nil {
		return domain.UserIdentity{}, fmt.Errorf("%w: %w", core.ErrUnauthenticated, err)
	}
	if id.ID == "" {
		return domain.UserIdentity{}, core.ErrUnauthenticated
	}
	return id, nil
}
