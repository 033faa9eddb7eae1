package reconcile

import (
	"fmt"
	"strings"
	"time"

	"fjacquet/rent-recon/internal/ledger"
	"fjacquet/rent-recon/internal/models"
)

// SelectionMode chooses which tenants receive an invoice.
type SelectionMode string

const (
	SelectIDs     SelectionMode = "ids"
	SelectOverdue SelectionMode = "overdue"
	SelectAll     SelectionMode = "all"
)

// Selection is the invoice selection: explicit ids, overdue tenants or all.
type Selection struct {
	Mode SelectionMode
	IDs  []string
}

// ParseSelection reads a mode name and an optional comma-separated id list.
// A non-empty id list implies SelectIDs.
func ParseSelection(mode, ids string) (Selection, error) {
	var list []string
	for _, id := range strings.Split(ids, ",") {
		if id = models.CanonicalPropertyID(id); id != "" {
			list = append(list, id)
		}
	}
	if len(list) > 0 {
		return Selection{Mode: SelectIDs, IDs: list}, nil
	}

	switch SelectionMode(strings.ToLower(strings.TrimSpace(mode))) {
	case "", SelectOverdue:
		return Selection{Mode: SelectOverdue}, nil
	case SelectAll:
		return Selection{Mode: SelectAll}, nil
	case SelectIDs:
		return Selection{}, fmt.Errorf("selection mode %q requires at least one property id", SelectIDs)
	default:
		return Selection{}, fmt.Errorf("unknown selection mode %q", mode)
	}
}

// BuildInvoices returns one invoice payload per selected tenant, in
// declaration order. Separately managed tenants never receive one. The
// overdue mode applies the same grace-aware check as ComputeStatus.
func BuildInvoices(tenants []models.Tenant, deposits []models.Deposit, evalDate time.Time, sel Selection, opts Options) []ledger.InvoiceView {
	wanted := make(map[string]bool, len(sel.IDs))
	for _, id := range sel.IDs {
		wanted[models.CanonicalPropertyID(id)] = true
	}

	grouped := GroupDeposits(deposits)
	var invoices []ledger.InvoiceView
	for _, t := range tenants {
		t = t.Sanitize()
		if t.SeparatelyManaged {
			continue
		}
		if sel.Mode == SelectIDs && !wanted[t.PropertyID] {
			continue
		}

		l := ledger.Compute(t, grouped[t.PropertyID], evalDate, opts.Ledger)
		if sel.Mode == SelectOverdue {
			if !isDelinquent(l.CurrentOverdue(), opts) || !l.BalanceDue().IsPositive() {
				continue
			}
		}
		invoices = append(invoices, l.InvoiceView())
	}
	return invoices
}
