package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"fjacquet/rent-recon/internal/fileutils"
	"fjacquet/rent-recon/internal/logging"
	"fjacquet/rent-recon/internal/models"
	"fjacquet/rent-recon/internal/template"

	"gopkg.in/yaml.v3"
)

// Default file names inside the data directory.
const (
	TenantsFile   = "tenants.yaml"
	DepositsFile  = "deposits.yaml"
	TemplatesFile = "templates.yaml"
)

type tenantsDocument struct {
	Tenants []tenantRecord `yaml:"tenants"`
}

type depositsDocument struct {
	Deposits []depositRecord `yaml:"deposits"`
}

type templatesDocument struct {
	Templates []template.Template `yaml:"templates"`
}

// FileStore keeps every collection in a YAML file of the data directory.
// Each write rewrites the whole file.
type FileStore struct {
	Dir    string
	mu     sync.RWMutex
	logger logging.Logger
}

// NewFileStore creates a store rooted at dir, creating the directory.
func NewFileStore(dir string, logger logging.Logger) (*FileStore, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if dir == "" {
		dir = "."
	}
	if err := fileutils.EnsureDirectoryExists(dir); err != nil {
		return nil, fmt.Errorf("error creating data directory: %w", err)
	}
	return &FileStore{Dir: dir, logger: logger}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.Dir, name)
}

// load reads a YAML document; a missing file leaves out untouched.
func (s *FileStore) load(name string, out interface{}) error {
	filePath := s.path(name)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("Data file not found, starting empty", logging.F(logging.FieldFile, filePath))
			return nil
		}
		return fmt.Errorf("error reading %s: %w", filePath, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("error parsing %s: %w", filePath, err)
	}
	return nil
}

// save writes through a temporary file so readers never see a partial
// document.
func (s *FileStore) save(name string, doc interface{}) error {
	filePath := s.path(name)
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error marshaling %s: %w", name, err)
	}
	tmp := filePath + ".tmp"
	if err := fileutils.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("error writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		return fmt.Errorf("error replacing %s: %w", filePath, err)
	}
	s.logger.Debug("Saved data file", logging.F(logging.FieldFile, filePath))
	return nil
}

// FetchTenants implements Storage.
func (s *FileStore) FetchTenants(_ context.Context, owner string) ([]models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc tenantsDocument
	if err := s.load(TenantsFile, &doc); err != nil {
		return nil, err
	}
	tenants := make([]models.Tenant, 0, len(doc.Tenants))
	for _, r := range doc.Tenants {
		tenants = append(tenants, fromTenantRecord(r))
	}
	return filterTenants(tenants, owner), nil
}

// UpsertTenants implements Storage.
func (s *FileStore) UpsertTenants(_ context.Context, tenants []models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc tenantsDocument
	if err := s.load(TenantsFile, &doc); err != nil {
		return err
	}
	index := make(map[string]int, len(doc.Tenants))
	for i, r := range doc.Tenants {
		index[models.CanonicalPropertyID(r.PropertyID)] = i
	}
	for _, t := range tenants {
		t, err := validateTenant(t)
		if err != nil {
			return err
		}
		record := toTenantRecord(t)
		if i, ok := index[t.PropertyID]; ok {
			doc.Tenants[i] = record
			continue
		}
		index[t.PropertyID] = len(doc.Tenants)
		doc.Tenants = append(doc.Tenants, record)
	}
	return s.save(TenantsFile, doc)
}

// FetchDeposits implements Storage.
func (s *FileStore) FetchDeposits(_ context.Context, owner string) ([]models.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc depositsDocument
	if err := s.load(DepositsFile, &doc); err != nil {
		return nil, err
	}
	deposits := make([]models.Deposit, 0, len(doc.Deposits))
	for _, r := range doc.Deposits {
		deposits = append(deposits, fromDepositRecord(r))
	}
	return filterDeposits(deposits, owner), nil
}

// UpsertDeposits implements Storage.
func (s *FileStore) UpsertDeposits(_ context.Context, deposits []models.Deposit) error {
	if len(deposits) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc depositsDocument
	if err := s.load(DepositsFile, &doc); err != nil {
		return err
	}
	index := make(map[string]int, len(doc.Deposits))
	for i, r := range doc.Deposits {
		index[r.TransactionKey] = i
	}
	for _, d := range deposits {
		d = prepareDeposit(d)
		if i, ok := index[d.TransactionKey]; ok {
			d.ID = doc.Deposits[i].ID
			doc.Deposits[i] = toDepositRecord(d)
			continue
		}
		index[d.TransactionKey] = len(doc.Deposits)
		doc.Deposits = append(doc.Deposits, toDepositRecord(d))
	}
	return s.save(DepositsFile, doc)
}

// GetTemplate implements template.Repository.
func (s *FileStore) GetTemplate(_ context.Context, owner, headerHash string) (template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc templatesDocument
	if err := s.load(TemplatesFile, &doc); err != nil {
		return template.Template{}, err
	}
	for _, t := range doc.Templates {
		if t.Owner == owner && t.HeaderHash == headerHash {
			return t, nil
		}
	}
	return template.Template{}, ErrNotFound
}

// PutTemplate implements template.Repository.
func (s *FileStore) PutTemplate(_ context.Context, t template.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc templatesDocument
	if err := s.load(TemplatesFile, &doc); err != nil {
		return err
	}
	replaced := false
	for i, existing := range doc.Templates {
		if existing.Owner == t.Owner && existing.HeaderHash == t.HeaderHash {
			doc.Templates[i] = t
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Templates = append(doc.Templates, t)
	}
	return s.save(TemplatesFile, doc)
}

// DeleteTemplate implements template.Repository.
func (s *FileStore) DeleteTemplate(_ context.Context, owner, headerHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc templatesDocument
	if err := s.load(TemplatesFile, &doc); err != nil {
		return err
	}
	for i, t := range doc.Templates {
		if t.Owner == owner && t.HeaderHash == headerHash {
			doc.Templates = append(doc.Templates[:i], doc.Templates[i+1:]...)
			return s.save(TemplatesFile, doc)
		}
	}
	return ErrNotFound
}

// ListTemplates implements template.Repository.
func (s *FileStore) ListTemplates(_ context.Context, owner string) ([]template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc templatesDocument
	if err := s.load(TemplatesFile, &doc); err != nil {
		return nil, err
	}
	var out []template.Template
	for _, t := range doc.Templates {
		if t.Owner == owner {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HeaderHash < out[j].HeaderHash })
	return out, nil
}

// Close implements Storage.
func (s *FileStore) Close() error {
	return nil
}
