package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore over environment variables.
// Read-only; it exists so a token supplied via the environment behaves
// like any other profile.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	token := os.Getenv("KVBACKUP_API_TOKEN")
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = "default"
	}

	return &Account{
		Name:         name,
		APIToken:     token,
		AccountID:    os.Getenv("KVBACKUP_ACCOUNT_ID"),
		LastModified: time.Now(),
	}, nil
}

// List returns a single profile if environment credentials are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials are set
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv("KVBACKUP_API_TOKEN") != ""
}
