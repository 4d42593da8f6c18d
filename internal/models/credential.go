package models

import (
	"errors"
	"time"
)

// CredentialSource names where a bearer token came from.
type CredentialSource string

const (
	// SourceCookie is the AUTH_TOKEN cookie set by the external OAuth flow.
	SourceCookie CredentialSource = "cookie"
	// SourceLocal is the token returned by email/password login.
	SourceLocal CredentialSource = "local"
)

// Credential is a persisted bearer token. There is at most one per source.
type Credential struct {
	id        string
	source    CredentialSource
	token     string
	createdAt time.Time
	updatedAt time.Time
}

// NewCredential creates a credential with timestamps set to now.
func NewCredential(source CredentialSource, token string) *Credential {
	now := time.Now()
	return &Credential{source: source, token: token, createdAt: now, updatedAt: now}
}

func (c *Credential) ID() string               { return c.id }
func (c *Credential) Source() CredentialSource { return c.source }
func (c *Credential) Token() string            { return c.token }
func (c *Credential) CreatedAt() time.Time     { return c.createdAt }
func (c *Credential) UpdatedAt() time.Time     { return c.updatedAt }
func (c *Credential) SetID(id string)          { c.id = id }
func (c *Credential) SetToken(token string)    { c.token = token }
func (c *Credential) SetCreatedAt(t time.Time) { c.createdAt = t }
func (c *Credential) SetUpdatedAt(t time.Time) { c.updatedAt = t }

// Validate checks that the credential has a known source and a non-empty token.
func (c *Credential) Validate() error {
	if c.source != SourceCookie && c.source != SourceLocal {
		return errors.New("credential source must be cookie or local")
	}
	if c.token == "" {
		return errors.New("credential token is required")
	}
	return nil
}
