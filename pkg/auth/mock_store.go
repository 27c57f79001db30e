package auth

import "sync"

// MockStore is an in-memory CredentialStore for tests
type MockStore struct {
	mu       sync.Mutex
	accounts map[string]*Account
	// StoreErr, when set, makes every Store call fail
	StoreErr error
}

// NewMockStore creates an empty in-memory credential store
func NewMockStore() *MockStore {
	return &MockStore{accounts: make(map[string]*Account)}
}

func (m *MockStore) Store(account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.StoreErr != nil {
		return m.StoreErr
	}
	if account == nil || account.Name == "" {
		return ErrInvalidCredentials
	}

	clone := *account
	m.accounts[account.Name] = &clone
	return nil
}

func (m *MockStore) Retrieve(name string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[name]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	clone := *account
	return &clone, nil
}

func (m *MockStore) List() ([]*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var accounts []*Account
	for _, account := range m.accounts {
		clone := *account
		accounts = append(accounts, &clone)
	}
	return accounts, nil
}

func (m *MockStore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[name]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.accounts, name)
	return nil
}

func (m *MockStore) Exists(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.accounts[name]
	return ok
}
