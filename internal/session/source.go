package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/repositories"
)

// Source is one place a bearer token can live.
//
// Token returns "" and a nil error when the source holds nothing.
type Source interface {
	Name() string
	Token(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// CredentialStore is the persistence a [StoredSource] needs.
// [repositories.CredentialRepository] implements it.
type CredentialStore interface {
	GetBySource(source models.CredentialSource) (*models.Credential, error)
	Save(source models.CredentialSource, token string) (*models.Credential, error)
	DeleteBySource(source models.CredentialSource) error
}

// StoredSource is a [Source] backed by one credential row.
type StoredSource struct {
	source models.CredentialSource
	store  CredentialStore
}

// NewCookieSource holds the AUTH_TOKEN cookie value captured from the OAuth flow.
func NewCookieSource(store CredentialStore) *StoredSource {
	return &StoredSource{source: models.SourceCookie, store: store}
}

// NewLocalSource holds the token returned by password login.
func NewLocalSource(store CredentialStore) *StoredSource {
	return &StoredSource{source: models.SourceLocal, store: store}
}

func (s *StoredSource) Name() string { return string(s.source) }

func (s *StoredSource) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c, err := s.store.GetBySource(s.source)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s token: %w", s.source, err)
	}
	return c.Token(), nil
}

func (s *StoredSource) Save(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.store.Save(s.source, token); err != nil {
		return fmt.Errorf("save %s token: %w", s.source, err)
	}
	return nil
}

func (s *StoredSource) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.store.DeleteBySource(s.source); err != nil {
		return fmt.Errorf("clear %s token: %w", s.source, err)
	}
	return nil
}
