package auth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerStoreAndRetrieve(t *testing.T) {
	store := NewMockStore()
	manager := NewManagerWithStores(store)

	err := manager.Store(&Account{
		Name:      "work",
		APIToken:  "secret-token-1234",
		AccountID: "acct1",
	})
	require.NoError(t, err)

	account, err := manager.Retrieve("work")
	require.NoError(t, err)
	assert.Equal(t, "secret-token-1234", account.APIToken)
	assert.Equal(t, "acct1", account.AccountID)
	assert.False(t, account.LastModified.IsZero(), "Store must stamp LastModified")
}

func TestManagerStoreValidation(t *testing.T) {
	manager := NewManagerWithStores(NewMockStore())

	assert.Error(t, manager.Store(nil))
	assert.Error(t, manager.Store(&Account{APIToken: "t"}), "profile name is required")
	assert.Error(t, manager.Store(&Account{Name: "work"}), "token is required")
}

func TestManagerFallsBackOnStoreFailure(t *testing.T) {
	broken := NewMockStore()
	broken.StoreErr = ErrStoreUnavailable
	working := NewMockStore()
	manager := NewManagerWithStores(broken, working)

	err := manager.Store(&Account{Name: "work", APIToken: "t"})
	require.NoError(t, err)

	assert.False(t, broken.Exists("work"))
	assert.True(t, working.Exists("work"))
}

func TestManagerRetrieveSearchesAllStores(t *testing.T) {
	first := NewMockStore()
	second := NewMockStore()
	require.NoError(t, second.Store(&Account{Name: "work", APIToken: "t"}))

	manager := NewManagerWithStores(first, second)

	account, err := manager.Retrieve("work")
	require.NoError(t, err)
	assert.Equal(t, "t", account.APIToken)

	_, err = manager.Retrieve("missing")
	assert.Error(t, err)
}

func TestManagerDelete(t *testing.T) {
	store := NewMockStore()
	require.NoError(t, store.Store(&Account{Name: "work", APIToken: "t"}))
	manager := NewManagerWithStores(store)

	require.NoError(t, manager.Delete("work"))
	assert.False(t, store.Exists("work"))

	err := manager.Delete("work")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("KVBACKUP_API_TOKEN", "env-token")
	t.Setenv("KVBACKUP_ACCOUNT_ID", "env-acct")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "default", account.Name)
	assert.Equal(t, "env-token", account.APIToken)
	assert.Equal(t, "env-acct", account.AccountID)

	// Read-only backend
	assert.ErrorIs(t, store.Store(&Account{Name: "x", APIToken: "t"}), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("default"), ErrStoreUnavailable)
}

func TestEnvironmentStoreMissingToken(t *testing.T) {
	t.Setenv("KVBACKUP_API_TOKEN", "")

	store := NewEnvironmentStore()

	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.False(t, store.Exists(""))
}

func TestEncryptedFileStoreRoundTrip(t *testing.T) {
	t.Setenv("KVBACKUP_PASSPHRASE", "test-passphrase")
	path := filepath.Join(t.TempDir(), "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Store(&Account{Name: "work", APIToken: "secret", AccountID: "acct1"}))

	// A fresh store instance with the same passphrase can decrypt the file
	reopened, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	account, err := reopened.Retrieve("work")
	require.NoError(t, err)
	assert.Equal(t, "secret", account.APIToken)

	// A wrong passphrase cannot
	t.Setenv("KVBACKUP_PASSPHRASE", "wrong-passphrase")
	locked, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	_, err = locked.Retrieve("work")
	assert.Error(t, err)
}

func TestEncryptedFileStoreDeleteLastRemovesFile(t *testing.T) {
	t.Setenv("KVBACKUP_PASSPHRASE", "test-passphrase")
	path := filepath.Join(t.TempDir(), "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Store(&Account{Name: "work", APIToken: "secret"}))
	require.NoError(t, store.Delete("work"))

	_, err = store.Retrieve("work")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	err = store.Delete("work")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestSanitizeAccount(t *testing.T) {
	account := &Account{Name: "work", APIToken: "abcdefghijklmnop", AccountID: "acct1"}

	masked := SanitizeAccount(account)
	assert.Equal(t, "abcd...mnop", masked.APIToken)
	assert.Equal(t, "work", masked.Name)

	// Original is untouched
	assert.Equal(t, "abcdefghijklmnop", account.APIToken)

	short := SanitizeAccount(&Account{Name: "x", APIToken: "tiny"})
	assert.Equal(t, "********", short.APIToken)

	assert.Nil(t, SanitizeAccount(nil))
}
