package reconcile

import (
	"strings"

	"fjacquet/rent-recon/internal/models"
	"fjacquet/rent-recon/internal/textutils"

	"github.com/agnivade/levenshtein"
)

// Unmatched is a deposit no tenant claimed.
type Unmatched struct {
	Deposit    models.CanonicalDeposit
	Normalized string
	// HintPropertyID names the tenant whose candidate came closest, when one
	// is within the fuzzy distance. Matching never uses it.
	HintPropertyID string
	HintName       string
	HintDistance   int
}

// MatchResult is the outcome of a matching pass.
type MatchResult struct {
	Input      int
	Matched    []models.Deposit
	Duplicates int
	Unmatched  []Unmatched
}

type candidate struct {
	tenant  models.Tenant
	pattern string
}

// MatchDeposits attributes new canonical deposits to tenants. A deposit whose
// key is already in existing, or earlier in the same batch, is a duplicate.
// Otherwise the first tenant, in declaration order, whose normalized match
// name occurs in the normalized description claims it. Unmatched deposits are
// reported, never stored.
func MatchDeposits(deposits []models.CanonicalDeposit, tenants []models.Tenant, existing []models.Deposit, opts Options) MatchResult {
	seen := make(map[string]bool, len(existing)+len(deposits))
	for _, d := range existing {
		key := d.TransactionKey
		if key == "" {
			key = models.DepositKey(d.Date, d.Summary, d.Amount)
		}
		seen[key] = true
	}

	candidates := matchCandidates(tenants)
	result := MatchResult{Input: len(deposits)}

	for _, d := range deposits {
		key := d.Key()
		if seen[key] {
			result.Duplicates++
			continue
		}

		normalized := textutils.NormalizeName(d.Description)
		owner, ok := firstMatch(normalized, candidates)
		if !ok {
			result.Unmatched = append(result.Unmatched, unmatched(d, normalized, candidates, opts.FuzzyMaxDistance))
			continue
		}

		seen[key] = true
		result.Matched = append(result.Matched, models.Deposit{
			PropertyID:     owner.PropertyID,
			Date:           d.Date,
			Amount:         d.Amount,
			Summary:        d.Description,
			TransactionKey: key,
			Owner:          opts.Owner,
		})
	}
	return result
}

func matchCandidates(tenants []models.Tenant) []candidate {
	var out []candidate
	for _, t := range tenants {
		t = t.Sanitize()
		if t.SeparatelyManaged || t.PropertyID == "" {
			continue
		}
		for _, p := range t.MatchCandidates() {
			out = append(out, candidate{tenant: t, pattern: p})
		}
	}
	return out
}

func firstMatch(normalized string, candidates []candidate) (models.Tenant, bool) {
	if normalized == "" {
		return models.Tenant{}, false
	}
	for _, c := range candidates {
		if strings.Contains(normalized, c.pattern) {
			return c.tenant, true
		}
	}
	return models.Tenant{}, false
}

func unmatched(d models.CanonicalDeposit, normalized string, candidates []candidate, maxDistance int) Unmatched {
	u := Unmatched{Deposit: d, Normalized: normalized}
	if maxDistance <= 0 || normalized == "" {
		return u
	}

	best := maxDistance + 1
	for _, c := range candidates {
		dist := windowDistance(normalized, c.pattern)
		if dist < best {
			best = dist
			u.HintPropertyID = c.tenant.PropertyID
			u.HintName = c.tenant.Name
			u.HintDistance = dist
		}
	}
	return u
}

// windowDistance is the smallest edit distance between pattern and any
// substring of s with the pattern's length, or the whole of s when shorter.
func windowDistance(s, pattern string) int {
	sr, pr := []rune(s), []rune(pattern)
	if len(sr) <= len(pr) {
		return levenshtein.ComputeDistance(s, pattern)
	}
	best := len(pr)
	for i := 0; i+len(pr) <= len(sr); i++ {
		if d := levenshtein.ComputeDistance(string(sr[i:i+len(pr)]), pattern); d < best {
			best = d
		}
	}
	return best
}
