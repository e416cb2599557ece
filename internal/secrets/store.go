package secrets

import (
	"context"
	"strings"
	"time"
)

// CredentialRecord describes a stored credential without exposing its value.
type CredentialRecord struct {
	Service   string    `json:"service"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CredentialStore is the persistence contract for encrypted credential values.
type CredentialStore interface {
	UpsertCredential(ctx context.Context, service, encryptedValue string) error
	GetCredential(ctx context.Context, service string) (string, bool, error)
	ListCredentials(ctx context.Context) ([]CredentialRecord, error)
}

// Store reads and writes credentials, encrypting values at rest.
// Plaintext values never reach the database or the logs.
type Store struct {
	cipher *Cipher
	db     CredentialStore
}

func NewStore(cipher *Cipher, db CredentialStore) *Store {
	return &Store{cipher: cipher, db: db}
}

// Save encrypts and persists one credential. Blank values are ignored so a
// partially filled configuration form never overwrites an existing secret.
func (s *Store) Save(ctx context.Context, service, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	encrypted, err := s.cipher.Encrypt(value)
	if err != nil {
		return err
	}
	return s.db.UpsertCredential(ctx, strings.TrimSpace(service), encrypted)
}

// SaveAll persists every non-blank entry of the mapping.
func (s *Store) SaveAll(ctx context.Context, values map[string]string) error {
	for service, value := range values {
		if err := s.Save(ctx, service, value); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the decrypted credential for a service, reporting whether
// one is configured.
func (s *Store) Resolve(ctx context.Context, service string) (string, bool, error) {
	encrypted, ok, err := s.db.GetCredential(ctx, service)
	if err != nil || !ok {
		return "", ok, err
	}
	value, err := s.cipher.Decrypt(encrypted)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Configured lists the services that have a stored credential.
func (s *Store) Configured(ctx context.Context) ([]CredentialRecord, error) {
	return s.db.ListCredentials(ctx)
}

// Satisfied reports whether every service in required has a credential.
func (s *Store) Satisfied(ctx context.Context, required []string) (bool, error) {
	records, err := s.db.ListCredentials(ctx)
	if err != nil {
		return false, err
	}
	configured := make(map[string]struct{}, len(records))
	for _, r := range records {
		configured[r.Service] = struct{}{}
	}
	for _, service := range required {
		if _, ok := configured[service]; !ok {
			return false, nil
		}
	}
	return true, nil
}
