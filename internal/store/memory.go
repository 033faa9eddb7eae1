package store

import (
	"context"
	"sync"

	"fjacquet/rent-recon/internal/models"
	"fjacquet/rent-recon/internal/template"
)

// MemoryStore is an in-process Storage for tests and dry runs.
type MemoryStore struct {
	*template.MemoryRepository

	mu       sync.RWMutex
	tenants  []models.Tenant
	deposits []models.Deposit

	// Error flags for testing error conditions
	FetchTenantsError   error
	FetchDepositsError  error
	UpsertTenantsError  error
	UpsertDepositsError error
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{MemoryRepository: template.NewMemoryRepository()}
}

// FetchTenants implements Storage.
func (m *MemoryStore) FetchTenants(_ context.Context, owner string) ([]models.Tenant, error) {
	if m.FetchTenantsError != nil {
		return nil, m.FetchTenantsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Return a copy to avoid external modifications
	return filterTenants(append([]models.Tenant(nil), m.tenants...), owner), nil
}

// FetchDeposits implements Storage.
func (m *MemoryStore) FetchDeposits(_ context.Context, owner string) ([]models.Deposit, error) {
	if m.FetchDepositsError != nil {
		return nil, m.FetchDepositsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return filterDeposits(append([]models.Deposit(nil), m.deposits...), owner), nil
}

// UpsertTenants implements Storage.
func (m *MemoryStore) UpsertTenants(_ context.Context, tenants []models.Tenant) error {
	if m.UpsertTenantsError != nil {
		return m.UpsertTenantsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range tenants {
		t, err := validateTenant(t)
		if err != nil {
			return err
		}
		replaced := false
		for i := range m.tenants {
			if m.tenants[i].PropertyID == t.PropertyID {
				m.tenants[i] = t
				replaced = true
				break
			}
		}
		if !replaced {
			m.tenants = append(m.tenants, t)
		}
	}
	return nil
}

// UpsertDeposits implements Storage.
func (m *MemoryStore) UpsertDeposits(_ context.Context, deposits []models.Deposit) error {
	if m.UpsertDepositsError != nil {
		return m.UpsertDepositsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range deposits {
		d = prepareDeposit(d)
		replaced := false
		for i := range m.deposits {
			if m.deposits[i].TransactionKey == d.TransactionKey {
				d.ID = m.deposits[i].ID
				m.deposits[i] = d
				replaced = true
				break
			}
		}
		if !replaced {
			m.deposits = append(m.deposits, d)
		}
	}
	return nil
}

// Close implements Storage.
func (m *MemoryStore) Close() error {
	return nil
}
