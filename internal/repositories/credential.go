package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/shared"
)

// CredentialRepository implements [models.Repository] for [models.Credential] persistence.
type CredentialRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Credential] = (*CredentialRepository)(nil)

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

const credentialColumns = "id, source, token, created_at, updated_at"

// Create inserts a new credential with a generated ID. Only one credential may exist per source.
func (r *CredentialRepository) Create(c *models.Credential) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()
	_, err := r.db.Exec(
		"INSERT INTO credentials ("+credentialColumns+") VALUES (?, ?, ?, ?, ?)",
		id, string(c.Source()), c.Token(), c.CreatedAt(), c.UpdatedAt(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("credential for source %s already exists: %w", c.Source(), err)
	}
	if err != nil {
		return fmt.Errorf("failed to insert credential: %w", err)
	}

	c.SetID(id)
	return nil
}

// Get retrieves a credential by ID
func (r *CredentialRepository) Get(id string) (*models.Credential, error) {
	row := r.db.QueryRow("SELECT "+credentialColumns+" FROM credentials WHERE id = ?", id)
	c, err := scanCredential(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: credential %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credential: %w", err)
	}
	return c, nil
}

// GetBySource retrieves the credential stored for source.
func (r *CredentialRepository) GetBySource(source models.CredentialSource) (*models.Credential, error) {
	row := r.db.QueryRow("SELECT "+credentialColumns+" FROM credentials WHERE source = ?", string(source))
	c, err := scanCredential(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no %s credential", ErrNotFound, source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credential: %w", err)
	}
	return c, nil
}

// Update replaces the token of an existing credential
func (r *CredentialRepository) Update(c *models.Credential) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	result, err := r.db.Exec("UPDATE credentials SET token = ?, updated_at = ? WHERE id = ?", c.Token(), now, c.ID())
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	if err := expectRows(result, c.ID()); err != nil {
		return err
	}

	c.SetUpdatedAt(now)
	return nil
}

// Save stores token for source, creating or replacing the row.
func (r *CredentialRepository) Save(source models.CredentialSource, token string) (*models.Credential, error) {
	existing, err := r.GetBySource(source)
	if errors.Is(err, ErrNotFound) {
		c := models.NewCredential(source, token)
		if err := r.Create(c); err != nil {
			return nil, err
		}
		return c, nil
	}
	if err != nil {
		return nil, err
	}

	existing.SetToken(token)
	if err := r.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete removes a credential by ID
func (r *CredentialRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM credentials WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return expectRows(result, id)
}

// DeleteBySource removes the credential stored for source. Deleting a missing source is not an error.
func (r *CredentialRepository) DeleteBySource(source models.CredentialSource) error {
	if _, err := r.db.Exec("DELETE FROM credentials WHERE source = ?", string(source)); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// List retrieves credentials, optionally filtered by "source".
func (r *CredentialRepository) List(criteria map[string]any) ([]*models.Credential, error) {
	query := "SELECT " + credentialColumns + " FROM credentials"
	args := []any{}

	switch source := criteria["source"].(type) {
	case models.CredentialSource:
		query += " WHERE source = ?"
		args = append(args, string(source))
	case string:
		if source != "" {
			query += " WHERE source = ?"
			args = append(args, source)
		}
	}
	query += " ORDER BY created_at ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	var creds []*models.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		creds = append(creds, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return creds, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(s scanner) (*models.Credential, error) {
	var (
		id, source, token    string
		createdAt, updatedAt time.Time
	)
	if err := s.Scan(&id, &source, &token, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	c := models.NewCredential(models.CredentialSource(source), token)
	c.SetID(id)
	c.SetCreatedAt(createdAt)
	c.SetUpdatedAt(updatedAt)
	return c, nil
}

func expectRows(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: credential %s", ErrNotFound, id)
	}
	return nil
}
