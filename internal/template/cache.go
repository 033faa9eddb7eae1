package template

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fjacquet/rent-recon/internal/logging"
	"fjacquet/rent-recon/internal/models"
)

// Cache resolves templates for a header with owner entries taking precedence
// over shared ones.
type Cache struct {
	repo   Repository
	logger logging.Logger
	now    func() time.Time
}

// NewCache creates a cache over a repository.
func NewCache(repo Repository, logger logging.Logger) *Cache {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Cache{repo: repo, logger: logger, now: time.Now}
}

// Lookup returns the mapping saved for the header layout, searching the
// owner's namespace first and the shared one second.
func (c *Cache) Lookup(ctx context.Context, owner string, columns []string) (Template, bool, error) {
	hash := models.HeaderHash(columns)

	namespaces := []string{""}
	if owner != "" {
		namespaces = []string{owner, ""}
	}

	for _, ns := range namespaces {
		t, err := c.repo.GetTemplate(ctx, ns, hash)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return Template{}, false, fmt.Errorf("failed to look up template %s: %w", hash, err)
		}
		c.logger.Debug("Template cache hit",
			logging.Field{Key: logging.FieldHeaderHash, Value: hash},
			logging.Field{Key: logging.FieldOwner, Value: ns})
		t.Mapping.Source = models.SourceTemplate
		t.Mapping.NeedsConfirmation = false
		return t, true, nil
	}
	return Template{}, false, nil
}

// Save stores a confirmed mapping for the header layout. An empty owner
// saves to the shared namespace.
func (c *Cache) Save(ctx context.Context, owner string, columns []string, mapping models.ColumnMapping, label string) (Template, error) {
	if !mapping.HasDate() || !mapping.HasAmount() {
		return Template{}, fmt.Errorf("cannot save a template without date and amount columns")
	}

	t := Template{
		HeaderHash: models.HeaderHash(columns),
		Owner:      owner,
		Label:      label,
		Columns:    append([]string(nil), columns...),
		Mapping:    mapping.Confirmed(),
		SavedAt:    c.now().UTC(),
	}
	if err := c.repo.PutTemplate(ctx, t); err != nil {
		return Template{}, fmt.Errorf("failed to save template %s: %w", t.HeaderHash, err)
	}

	c.logger.Info("Saved column mapping template",
		logging.Field{Key: logging.FieldHeaderHash, Value: t.HeaderHash},
		logging.Field{Key: logging.FieldOwner, Value: owner})
	return t, nil
}

// Delete removes the template for the header layout in one namespace, so the
// next upload of that layout goes through detection again.
func (c *Cache) Delete(ctx context.Context, owner string, columns []string) error {
	return c.DeleteByHash(ctx, owner, models.HeaderHash(columns))
}

// DeleteByHash removes a template by its header hash.
func (c *Cache) DeleteByHash(ctx context.Context, owner, hash string) error {
	if err := c.repo.DeleteTemplate(ctx, owner, hash); err != nil {
		return fmt.Errorf("failed to delete template %s: %w", hash, err)
	}
	c.logger.Info("Deleted column mapping template",
		logging.Field{Key: logging.FieldHeaderHash, Value: hash},
		logging.Field{Key: logging.FieldOwner, Value: owner})
	return nil
}

// List returns the owner's templates followed by the shared ones.
func (c *Cache) List(ctx context.Context, owner string) ([]Template, error) {
	var out []Template
	if owner != "" {
		own, err := c.repo.ListTemplates(ctx, owner)
		if err != nil {
			return nil, err
		}
		out = append(out, own...)
	}
	shared, err := c.repo.ListTemplates(ctx, "")
	if err != nil {
		return nil, err
	}
	return append(out, shared...), nil
}
