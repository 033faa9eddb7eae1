package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fjacquet/rent-recon/internal/ledger"
	"fjacquet/rent-recon/internal/logging"
	"fjacquet/rent-recon/internal/models"
	"fjacquet/rent-recon/internal/reconcile"
	"fjacquet/rent-recon/internal/template"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakeReconciler struct {
	tenants  []models.Tenant
	deposits []models.Deposit
	err      error
	owners   []string
	dates    []time.Time
}

func (f *fakeReconciler) record(owner string, d time.Time) {
	f.owners = append(f.owners, owner)
	f.dates = append(f.dates, d)
}

func (f *fakeReconciler) Status(_ context.Context, owner string, d time.Time) ([]reconcile.StatusRow, error) {
	f.record(owner, d)
	if f.err != nil {
		return nil, f.err
	}
	return reconcile.ComputeStatus(f.tenants, f.deposits, d, reconcile.DefaultOptions()), nil
}

func (f *fakeReconciler) Invoices(_ context.Context, owner string, d time.Time, sel reconcile.Selection) ([]ledger.InvoiceView, error) {
	f.record(owner, d)
	if f.err != nil {
		return nil, f.err
	}
	return reconcile.BuildInvoices(f.tenants, f.deposits, d, sel, reconcile.DefaultOptions()), nil
}

func (f *fakeReconciler) Ledger(_ context.Context, owner, id string, d time.Time) (*ledger.Ledger, bool, error) {
	f.record(owner, d)
	if f.err != nil {
		return nil, false, f.err
	}
	l, ok := reconcile.TenantLedger(f.tenants, f.deposits, id, d, reconcile.DefaultOptions())
	return l, ok, nil
}

func newFixture(t *testing.T) (*Server, *fakeReconciler, *template.Cache) {
	t.Helper()
	recon := &fakeReconciler{
		tenants: []models.Tenant{
			models.NewTenantBuilder().
				WithPropertyID("101").
				WithName("山田太郎").
				WithRentInt(60000).
				WithMatchNames("ﾔﾏﾀﾞ").
				WithBaseline(day(2025, 12, 16), decimal.NewFromInt(24500)).
				MustBuild(),
			models.NewTenantBuilder().
				WithPropertyID("102").
				WithName("佐藤花子").
				WithRentInt(50000).
				WithMatchNames("ｻﾄｳ").
				WithBaseline(day(2025, 12, 31), decimal.Zero).
				AsCleanStart().
				MustBuild(),
		},
		deposits: []models.Deposit{
			{PropertyID: "102", Date: day(2026, 1, 10), Amount: decimal.NewFromInt(50000)},
			{PropertyID: "102", Date: day(2026, 2, 10), Amount: decimal.NewFromInt(50000)},
		},
	}
	cache := template.NewCache(template.NewMemoryRepository(), nil)
	s := New(recon, cache, "owner-a", logging.NewMockLogger())
	s.now = func() time.Time { return time.Date(2026, 2, 20, 15, 4, 5, 0, time.UTC) }
	return s, recon, cache
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s, _, _ := newFixture(t)
	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatus(t *testing.T) {
	s, recon, _ := newFixture(t)

	rec := get(t, s, "/api/status?date=2026-02-20")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "101", rows[0]["property_id"])
	assert.Equal(t, models.StatusDelinquent, rows[0]["status"])
	assert.Equal(t, models.StatusNormal, rows[1]["status"])
	assert.Equal(t, []string{"owner-a"}, recon.owners)
}

func TestStatus_DefaultsToToday(t *testing.T) {
	s, recon, _ := newFixture(t)
	rec := get(t, s, "/api/status?owner=owner-b")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, day(2026, 2, 20), recon.dates[0])
	assert.Equal(t, "owner-b", recon.owners[0])
}

func TestStatus_Errors(t *testing.T) {
	s, recon, _ := newFixture(t)

	rec := get(t, s, "/api/status?date=not-a-date")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	recon.err = errors.New("database unavailable")
	rec = get(t, s, "/api/status")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "database unavailable")
}

func TestInvoices(t *testing.T) {
	s, _, _ := newFixture(t)

	tests := []struct {
		name    string
		query   string
		code    int
		wantIDs []string
	}{
		{name: "default overdue", query: "", code: http.StatusOK, wantIDs: []string{"101"}},
		{name: "all", query: "&mode=all", code: http.StatusOK, wantIDs: []string{"101", "102"}},
		{name: "ids", query: "&ids=102", code: http.StatusOK, wantIDs: []string{"102"}},
		{name: "unknown id", query: "&ids=999", code: http.StatusOK, wantIDs: []string{}},
		{name: "bad mode", query: "&mode=some", code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, "/api/invoices?date=2026-02-20"+tt.query)
			require.Equal(t, tt.code, rec.Code)
			if tt.code != http.StatusOK {
				return
			}
			var invoices []ledger.InvoiceView
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invoices))
			ids := []string{}
			for _, inv := range invoices {
				ids = append(ids, inv.PropertyID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestTemplates(t *testing.T) {
	s, _, cache := newFixture(t)

	rec := get(t, s, "/api/templates")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String()[:2])

	_, err := cache.Save(context.Background(), "owner-a", []string{"日付", "金額", "摘要"},
		models.ColumnMapping{Date: "日付", Amount: "金額", Sender: "摘要"}, "main bank")
	require.NoError(t, err)

	rec = get(t, s, "/api/templates")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []template.Template
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "main bank", list[0].Label)
}

func TestLedger(t *testing.T) {
	s, _, _ := newFixture(t)

	rec := get(t, s, "/api/tenants/102/ledger?date=2026-02-20")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ledger.StrategyBaseline, body["strategy"])
	assert.Equal(t, "0", body["overdue"])
	assert.NotEmpty(t, body["obligations"])

	rec = get(t, s, "/api/tenants/999/ledger")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	s, _, _ := newFixture(t)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
