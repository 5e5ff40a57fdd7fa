package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	claimUserID = "uid"
	claimRole   = "role"
)

// Gate authenticates login attempts and resolves bearer tokens back to principals.
type Gate struct {
	creds  CredentialStore
	tokens *TokenService
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Principal   Principal
	AccessToken string
	ExpiresAt   time.Time
}

// NewGate wires a credential store and a token service.
func NewGate(creds CredentialStore, tokens *TokenService) *Gate {
	return &Gate{creds: creds, tokens: tokens}
}

// NormalizeEmail lowercases and trims an email used as a lookup key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Authenticate checks a password against the stored hash. Unknown, inactive and
// mismatching accounts all yield ErrInvalidCredentials.
func (g *Gate) Authenticate(ctx context.Context, email, password string) (Principal, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		burnPasswordCheck(password)
		return Principal{}, ErrInvalidCredentials
	}
	cred, err := g.creds.CredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			burnPasswordCheck(password)
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{}, fmt.Errorf("auth: load credential: %w", err)
	}
	if err := VerifyPassword(cred.PasswordHash, password); err != nil {
		return Principal{}, ErrInvalidCredentials
	}
	if !cred.Active {
		return Principal{}, ErrInvalidCredentials
	}
	return cred.Principal, nil
}

// Resolve verifies a bearer token and re-reads the principal by the token subject
// so that deactivation and role changes take effect immediately. The subject is
// the login email: after an email change old tokens resolve to
// ErrUnauthenticated.
func (g *Gate) Resolve(ctx context.Context, bearer string) (Principal, error) {
	claims, err := g.tokens.Verify(bearer)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	cred, err := g.creds.CredentialByEmail(ctx, NormalizeEmail(claims.Subject))
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			return Principal{}, fmt.Errorf("%w: principal not found", ErrUnauthenticated)
		}
		return Principal{}, fmt.Errorf("auth: load principal: %w", err)
	}
	if !cred.Active {
		return Principal{}, fmt.Errorf("%w: principal inactive", ErrUnauthenticated)
	}
	return cred.Principal, nil
}

// Login authenticates and issues an access token carrying uid and role claims.
func (g *Gate) Login(ctx context.Context, email, password string) (LoginResult, error) {
	p, err := g.Authenticate(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}
	token, exp, err := g.tokens.Issue(p.Email, map[string]any{
		claimUserID: p.ID,
		claimRole:   string(p.Role),
	}, 0)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Principal: p, AccessToken: token, ExpiresAt: exp}, nil
}
