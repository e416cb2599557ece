package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCredentialStore struct {
	values map[string]string
}

func newMemCredentialStore() *memCredentialStore {
	return &memCredentialStore{values: make(map[string]string)}
}

func (m *memCredentialStore) UpsertCredential(_ context.Context, service, encryptedValue string) error {
	m.values[service] = encryptedValue
	return nil
}

func (m *memCredentialStore) GetCredential(_ context.Context, service string) (string, bool, error) {
	v, ok := m.values[service]
	return v, ok, nil
}

func (m *memCredentialStore) ListCredentials(_ context.Context) ([]CredentialRecord, error) {
	ret := make([]CredentialRecord, 0, len(m.values))
	for service := range m.values {
		ret = append(ret, CredentialRecord{Service: service, UpdatedAt: time.Now()})
	}
	return ret, nil
}

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()
	key, err := LoadOrCreateKey(filepath.Join(t.TempDir(), ".secret_key"))
	require.NoError(t, err)
	cipher, err := NewCipher(key)
	require.NoError(t, err)
	return cipher
}

func TestLoadOrCreateKey_PersistsAndRestricts(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), ".secret_key")

	first, err := LoadOrCreateKey(keyPath)
	require.NoError(t, err)
	second, err := LoadOrCreateKey(keyPath)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCipher_RoundTrip(t *testing.T) {
	cipher := newTestCipher(t)

	encrypted, err := cipher.Encrypt("sk-super-secret")
	require.NoError(t, err)
	assert.NotContains(t, encrypted, "sk-super-secret")

	decrypted, err := cipher.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "sk-super-secret", decrypted)
}

func TestCipher_RejectsTamperedValue(t *testing.T) {
	cipher := newTestCipher(t)

	encrypted, err := cipher.Encrypt("value")
	require.NoError(t, err)

	_, err = cipher.Decrypt("AAAA" + encrypted[4:])
	require.Error(t, err)
}

func TestStore_SaveIgnoresBlankValues(t *testing.T) {
	db := newMemCredentialStore()
	store := NewStore(newTestCipher(t), db)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "openai", "sk-123"))
	require.NoError(t, store.Save(ctx, "openai", "   "))

	value, ok, err := store.Resolve(ctx, "openai")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sk-123", value)
}

func TestStore_NeverStoresPlaintext(t *testing.T) {
	db := newMemCredentialStore()
	store := NewStore(newTestCipher(t), db)

	require.NoError(t, store.Save(context.Background(), "luma", "luma-key"))
	assert.NotContains(t, db.values["luma"], "luma-key")
}

func TestStore_Satisfied(t *testing.T) {
	db := newMemCredentialStore()
	store := NewStore(newTestCipher(t), db)
	ctx := context.Background()

	required := []string{"gemini", "openai", "luma"}

	ok, err := store.Satisfied(ctx, required)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SaveAll(ctx, map[string]string{
		"gemini": "g",
		"openai": "o",
		"luma":   "l",
	}))

	ok, err = store.Satisfied(ctx, required)
	require.NoError(t, err)
	assert.True(t, ok)
}
