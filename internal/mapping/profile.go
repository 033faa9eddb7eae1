package mapping

import (
	"fmt"
	"os"
	"sort"

	"fjacquet/rent-recon/internal/models"

	"gopkg.in/yaml.v3"
)

// Profile is a named bank export layout. Its header is the fingerprint: a
// table with exactly that header gets the profile's mapping as is. A table
// with only the same column count gets it as a suggestion the operator must
// confirm.
type Profile struct {
	Name    string               `yaml:"name"`
	Label   string               `yaml:"label"`
	Header  []string             `yaml:"header"`
	Mapping models.ColumnMapping `yaml:"mapping"`
}

// Fingerprint is the header hash of the profile layout.
func (p Profile) Fingerprint() string {
	return models.HeaderHash(p.Header)
}

// Validate checks that the mapping refers to columns of the profile header.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	if len(p.Header) == 0 {
		return fmt.Errorf("profile %s: header is required", p.Name)
	}
	if !p.Mapping.HasDate() || !p.Mapping.HasAmount() {
		return fmt.Errorf("profile %s: date and amount must be mapped", p.Name)
	}
	for _, col := range mappedColumns(p.Mapping) {
		if indexOf(p.Header, col) < 0 {
			return fmt.Errorf("profile %s: column %q is not in the header", p.Name, col)
		}
	}
	return nil
}

// applyTo translates the profile mapping onto another header of the same
// width by column position.
func (p Profile) applyTo(header []string) models.ColumnMapping {
	translate := func(col string) string {
		if col == "" {
			return ""
		}
		i := indexOf(p.Header, col)
		if i < 0 || i >= len(header) {
			return ""
		}
		return header[i]
	}

	m := models.ColumnMapping{
		Date:          translate(p.Mapping.Date),
		Amount:        translate(p.Mapping.Amount),
		Sender:        translate(p.Mapping.Sender),
		DepositFilter: translate(p.Mapping.DepositFilter),
		Source:        models.SourceProfile,
		Profile:       p.Name,
	}
	if dp := p.Mapping.DateParts; dp != nil {
		m.DateParts = &models.DateParts{
			Year:  translate(dp.Year),
			Month: translate(dp.Month),
			Day:   translate(dp.Day),
		}
	}
	m.Confidence = confidence(m)
	return m
}

// Registry holds the known bank profiles.
type Registry struct {
	profiles []Profile
}

// NewRegistry returns a registry with the given profiles, in order.
func NewRegistry(profiles ...Profile) *Registry {
	return &Registry{profiles: append([]Profile(nil), profiles...)}
}

// DefaultRegistry returns the built-in profiles.
func DefaultRegistry() *Registry {
	return NewRegistry(BuiltinProfiles()...)
}

// BuiltinProfiles are the layouts known without configuration.
func BuiltinProfiles() []Profile {
	return []Profile{
		{
			Name:  "jp-transfer-detail",
			Label: "入出金明細 (取扱日付 年/月/日)",
			Header: []string{
				"レコード区分", "照会番号", "勘定日　年", "勘定日　月", "勘定日　日",
				"取扱日付　年", "取扱日付　月", "取扱日付　日",
				"入払区分", "取引区分", "金額", "摘要", "残高",
			},
			Mapping: models.ColumnMapping{
				DateParts:     &models.DateParts{Year: "取扱日付　年", Month: "取扱日付　月", Day: "取扱日付　日"},
				Amount:        "金額",
				Sender:        "摘要",
				DepositFilter: "取引区分",
				Confidence:    1,
			},
		},
	}
}

// Add registers a profile, replacing one with the same name.
func (r *Registry) Add(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	for i := range r.profiles {
		if r.profiles[i].Name == p.Name {
			r.profiles[i] = p
			return nil
		}
	}
	r.profiles = append(r.profiles, p)
	return nil
}

// Profiles returns the registered profiles sorted by name.
func (r *Registry) Profiles() []Profile {
	out := append([]Profile(nil), r.profiles...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MatchFingerprint returns the mapping of the profile whose header equals the
// given one.
func (r *Registry) MatchFingerprint(header []string) (models.ColumnMapping, bool) {
	if r == nil {
		return models.ColumnMapping{}, false
	}
	hash := models.HeaderHash(header)
	for _, p := range r.profiles {
		if p.Fingerprint() == hash {
			m := p.applyTo(header)
			m.Confidence = 1
			return m, true
		}
	}
	return models.ColumnMapping{}, false
}

// SuggestByShape returns the first profile with the same column count,
// translated by position and flagged for confirmation.
func (r *Registry) SuggestByShape(header []string) (models.ColumnMapping, bool) {
	if r == nil {
		return models.ColumnMapping{}, false
	}
	for _, p := range r.profiles {
		if len(p.Header) == len(header) {
			m := p.applyTo(header)
			m.NeedsConfirmation = true
			return m, true
		}
	}
	return models.ColumnMapping{}, false
}

type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadProfiles reads additional profiles from a YAML file of the form
// "profiles: [{name, label, header, mapping}]" and registers them.
func (r *Registry) LoadProfiles(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read profiles file %s: %w", path, err)
	}
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse profiles file %s: %w", path, err)
	}
	for _, p := range file.Profiles {
		if err := r.Add(p); err != nil {
			return fmt.Errorf("invalid profile in %s: %w", path, err)
		}
	}
	return nil
}

func mappedColumns(m models.ColumnMapping) []string {
	cols := []string{m.Date, m.Amount, m.Sender, m.DepositFilter}
	if m.DateParts != nil {
		cols = append(cols, m.DateParts.Year, m.DateParts.Month, m.DateParts.Day)
	}
	out := cols[:0]
	for _, c := range cols {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func indexOf(header []string, col string) int {
	for i, h := range header {
		if h == col {
			return i
		}
	}
	return -1
}

func confidence(m models.ColumnMapping) float64 {
	score := 0
	if m.HasDate() {
		score++
	}
	if m.HasAmount() {
		score++
	}
	if m.Sender != "" {
		score++
	}
	return float64(score) / 3
}
