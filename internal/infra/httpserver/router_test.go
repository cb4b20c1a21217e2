package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appdocs "github.com/swethakommuri/GEN-AI-DEMO/internal/application/documents"
	appinsights "github.com/swethakommuri/GEN-AI-DEMO/internal/application/insights"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/application/sessions"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/ai"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/clients"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/documents"
	domain "github.com/swethakommuri/GEN-AI-DEMO/internal/domain/insights"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/roles"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/infra/extract"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/infra/knowledge"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/metrics"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/middleware"
)

var secret = []byte("0123456789abcdef0123")

type stubGenerator struct {
	mu      sync.Mutex
	pingErr error
	prompts []string
}

func (g *stubGenerator) Generate(_ context.Context, req ai.GenerateRequest) ai.Result {
	g.mu.Lock()
	g.prompts = append(g.prompts, req.Prompt)
	g.mu.Unlock()
	return ai.Success(strings.Repeat("Diversify the portfolio and review liquidity. ", 5))
}

func (g *stubGenerator) Ping(context.Context) error { return g.pingErr }

func (g *stubGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

type stubModels struct {
	models []string
	err    error
}

func (s stubModels) Models(context.Context) ([]string, error) { return s.models, s.err }

type memArchive struct {
	keys []string
}

func (a *memArchive) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	a.keys = append(a.keys, key)
	return "mem://" + key, nil
}

type fixture struct {
	handler http.Handler
	gen     *stubGenerator
	archive *memArchive
}

func newFixture(t *testing.T, withArchive bool) *fixture {
	t.Helper()
	table, err := roles.NewTable([]roles.Role{
		{
			Name:        "Chief Risk Officer",
			Permissions: []string{roles.PermViewAllClients, roles.PermUploadDocuments},
			Prompts: []roles.Prompt{
				{Kind: "risk_analysis", Template: "Risk analysis for {client_name} with ${aum}B AUM."},
				{Kind: "compliance", Template: "Compliance review for {client_name}."},
			},
		},
		{
			Name:    "Relationship Manager",
			Prompts: []roles.Prompt{{Kind: "client_relationship", Template: "Relationship health of {client_name}."}},
		},
		{
			Name:        "Compliance Officer",
			Permissions: []string{roles.PermAuditTrails},
			Prompts:     []roles.Prompt{{Kind: "compliance_review", Template: "Review {client_name}."}},
		},
	})
	require.NoError(t, err)
	catalog := clients.NewCatalog([]clients.Profile{
		{Name: "CalPERS", AUM: 450, ChurnRisk: 8},
		{Name: "Harvard", AUM: 53.2, ChurnRisk: 15},
		{Name: "Allianz", AUM: 125.8, ChurnRisk: 5},
	})
	m := metrics.New()
	gen := &stubGenerator{}
	f := &fixture{gen: gen, archive: &memArchive{}}

	var exporter *appinsights.Exporter
	if withArchive {
		exporter = appinsights.NewExporter(f.archive)
	}

	f.handler = NewRouter(Deps{
		Sessions:     sessions.NewRegistry(func() documents.Store { return knowledge.NewMemoryStore() }, nil),
		Roles:        table,
		Clients:      catalog,
		Documents:    appdocs.NewService(table, catalog, extract.NewExtractor(false, nil), m, nil),
		Insights:     appinsights.NewService(gen, nil, m),
		Models:       stubModels{models: []string{"gemma:2b", "llama2"}},
		Exporter:     exporter,
		Metrics:      m,
		JWTSecret:    secret,
		DefaultModel: "gemma:2b",
		Workers:      1,
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, session, role string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if role != "" {
		tok, err := middleware.IssueToken(secret, session, role, time.Hour, time.Now())
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func uploadBody(t *testing.T, fileName, content, client, docType string, allowed ...string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("client", client))
	require.NoError(t, mw.WriteField("document_type", docType))
	for _, r := range allowed {
		require.NoError(t, mw.WriteField("roles", r))
	}
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func TestHealthIsPublic(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodGet, "/health", "", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = f.do(t, http.MethodGet, "/v1/me", "", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClientsVisibility(t *testing.T) {
	f := newFixture(t, false)

	var all []clients.Profile
	rec := f.do(t, http.MethodGet, "/v1/clients", "s1", "Chief Risk Officer", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&all))
	assert.Len(t, all, 3)

	var some []clients.Profile
	rec = f.do(t, http.MethodGet, "/v1/clients", "s1", "Relationship Manager", nil, "")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&some))
	assert.Len(t, some, 2)
}

func TestUploadAndSearch(t *testing.T) {
	f := newFixture(t, false)

	body, ct := uploadBody(t, "q3.txt", "Quarterly liquidity stress results", "CalPERS", "Risk Analysis",
		"Chief Risk Officer")
	rec := f.do(t, http.MethodPost, "/v1/documents", "s1", "Chief Risk Officer", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var docs []documents.Document
	rec = f.do(t, http.MethodGet, "/v1/documents?q=LIQUIDITY", "s1", "Chief Risk Officer", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "q3.txt", docs[0].FileName)

	// other sessions and roles outside the allowed set see nothing
	rec = f.do(t, http.MethodGet, "/v1/documents", "s2", "Chief Risk Officer", nil, "")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&docs))
	assert.Empty(t, docs)
	rec = f.do(t, http.MethodGet, "/v1/documents", "s1", "Relationship Manager", nil, "")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&docs))
	assert.Empty(t, docs)

	rec = f.do(t, http.MethodGet, "/v1/documents/recent?limit=3", "s1", "Chief Risk Officer", nil, "")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&docs))
	assert.Len(t, docs, 1)
}

func TestUploadRejected(t *testing.T) {
	f := newFixture(t, false)

	body, ct := uploadBody(t, "notes.txt", "text", "CalPERS", "Meeting Notes")
	rec := f.do(t, http.MethodPost, "/v1/documents", "s1", "Relationship Manager", body, ct)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body, ct = uploadBody(t, "run.exe", "text", "CalPERS", "Meeting Notes")
	rec = f.do(t, http.MethodPost, "/v1/documents", "s1", "Chief Risk Officer", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = uploadBody(t, "notes.txt", "text", "CalPERS", "Gossip")
	rec = f.do(t, http.MethodPost, "/v1/documents", "s1", "Chief Risk Officer", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateInsights(t *testing.T) {
	f := newFixture(t, false)

	body := []byte(`{"client":"Harvard","kinds":["compliance"],"custom_instructions":"Focus on ESG."}`)
	rec := f.do(t, http.MethodPost, "/v1/insights", "s1", "Chief Risk Officer", body, "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var batch domain.Batch
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&batch))
	require.Len(t, batch.Insights, 1)
	assert.Equal(t, "Compliance - Harvard", batch.Insights[0].Title)
	assert.Equal(t, "gemma:2b", batch.Insights[0].Model)
	assert.Contains(t, f.gen.lastPrompt(), "Additional Instructions: Focus on ESG.")

	var history []domain.Insight
	rec = f.do(t, http.MethodGet, "/v1/insights", "s1", "Chief Risk Officer", nil, "")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&history))
	assert.Len(t, history, 1)
}

func TestGenerateErrors(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodPost, "/v1/insights", "s1", "Relationship Manager",
		[]byte(`{"client":"Allianz"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/insights", "s1", "Chief Risk Officer",
		[]byte(`{"client":"CalPERS","kinds":["astrology"]}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/insights", "s1", "Chief Risk Officer",
		[]byte(`{`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateUnavailable(t *testing.T) {
	f := newFixture(t, false)
	f.gen.pingErr = errors.New("connection refused")

	rec := f.do(t, http.MethodPost, "/v1/insights", "s1", "Chief Risk Officer",
		[]byte(`{"client":"CalPERS"}`), "application/json")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var batch domain.Batch
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&batch))
	assert.True(t, batch.Unavailable)
	assert.Empty(t, batch.Insights)
	assert.Len(t, batch.Failures, 2)
}

func TestExport(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodPost, "/v1/insights/export", "s1", "Chief Risk Officer", nil, "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	f = newFixture(t, true)
	rec = f.do(t, http.MethodPost, "/v1/insights", "s1", "Chief Risk Officer",
		[]byte(`{"client":"CalPERS"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/insights/export", "s1", "Chief Risk Officer", nil, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.archive.keys, 1)
	assert.True(t, strings.HasPrefix(f.archive.keys[0], "reports/s1/"))
}

func TestAuditRequiresPermission(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodGet, "/v1/audit", "s1", "Chief Risk Officer", nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/audit", "s1", "Compliance Officer", nil, "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestModels(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodGet, "/v1/models", "s1", "Compliance Officer", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "llama2")
}
