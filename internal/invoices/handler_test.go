package invoices

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicer/invoicer/internal/shared"
)

func newTestRouter(t *testing.T, f *fixture, userID string) http.Handler {
	t.Helper()
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), f.svc, 2)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithUserID(req.Context(), userID)))
		})
	})
	h.MountRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const createBody = `{"clientId":"` + clientA + `","issueDate":"2026-01-15","taxRate":10,
	"items":[{"description":"Design work","quantity":2,"unitPrice":100}]}`

func TestHandlerCreateAndFetch(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(t, f, userA)

	rec := do(t, router, http.MethodPost, "/invoices", createBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "INV0001", created["invoiceNumber"])
	assert.Equal(t, "DRAFT", created["status"])
	assert.Equal(t, "220", created["total"])

	rec = do(t, router, http.MethodGet, "/invoices/"+created["id"].(string), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/invoices?status=draft", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestHandlerRejectsUnknownFields(t *testing.T) {
	f := newFixture(t)
	rec := do(t, newTestRouter(t, f, userA), http.MethodPost, "/invoices", `{"clientId":"x","bogus":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestHandlerValidationProblemListsFields(t *testing.T) {
	f := newFixture(t)
	body := `{"clientId":"` + clientA + `","issueDate":"2026-01-15","taxRate":150,"items":[{"description":"x","quantity":1,"unitPrice":1}]}`
	rec := do(t, newTestRouter(t, f, userA), http.MethodPost, "/invoices", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var problem struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Contains(t, problem.Errors, "taxRate")
}

func TestHandlerStatusTransitionConflict(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(t, f, userA)
	rec := do(t, router, http.MethodPost, "/invoices", createBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(t, router, http.MethodPatch, "/invoices/"+created.ID+"/status", `{"status":"PAID"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	var problem struct {
		Context struct {
			From    string   `json:"from"`
			To      string   `json:"to"`
			Allowed []string `json:"allowed"`
		} `json:"context"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "DRAFT", problem.Context.From)
	assert.Equal(t, "PAID", problem.Context.To)
	assert.Equal(t, []string{"SENT", "CANCELLED"}, problem.Context.Allowed)

	rec = do(t, router, http.MethodPatch, "/invoices/"+created.ID+"/status", `{"status":"SENT"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPut, "/invoices/"+created.ID, createBody)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = do(t, router, http.MethodDelete, "/invoices/"+created.ID, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerPDFExport(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(t, f, userA)
	rec := do(t, router, http.MethodPost, "/invoices", createBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(t, router, http.MethodGet, "/invoices/"+created.ID+"/pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="invoice-INV0001.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF", rec.Body.String())

	// limit is two exports per minute per user
	do(t, router, http.MethodGet, "/invoices/"+created.ID+"/pdf", "")
	rec = do(t, router, http.MethodGet, "/invoices/"+created.ID+"/pdf", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHandlerNotFound(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(t, f, userA)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/invoices/not-a-uuid", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/invoices/"+clientA, "").Code)

	rec := do(t, router, http.MethodPost, "/invoices", createBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	other := newTestRouter(t, f, userB)
	assert.Equal(t, http.StatusNotFound, do(t, other, http.MethodGet, "/invoices/"+created.ID, "").Code)
}
