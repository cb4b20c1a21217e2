package insights

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/ai"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/clients"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/documents"
	domain "github.com/swethakommuri/GEN-AI-DEMO/internal/domain/insights"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/roles"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/infra/ai/prompt"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/infra/knowledge"
)

// stubGenerator answers per analysis kind, detected from the prompt text.
type stubGenerator struct {
	mu       sync.Mutex
	answers  map[string]ai.Result
	prompts  []string
	pingErr  error
	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (g *stubGenerator) Generate(_ context.Context, req ai.GenerateRequest) ai.Result {
	g.calls.Add(1)
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if g.delay > 0 {
		time.Sleep(g.delay)
	}

	g.mu.Lock()
	g.prompts = append(g.prompts, req.Prompt)
	g.mu.Unlock()
	for marker, res := range g.answers {
		if strings.Contains(req.Prompt, marker) {
			return res
		}
	}
	return ai.Success(long("default answer."))
}

func (g *stubGenerator) Ping(context.Context) error { return g.pingErr }

func long(s string) string { return strings.Repeat("x", 120) + " " + s }

var (
	benign   = clients.Profile{Name: "Allianz Global Investors", Type: "insurance", AUM: 125.8, Satisfaction: 8.9, ChurnRisk: 5}
	atRisk   = clients.Profile{Name: "Harvard Management Company", Type: "endowment", AUM: 53.2, Satisfaction: 7.8, ChurnRisk: 25}
	riskRole = roles.Role{
		Name: "Chief Risk Officer",
		Prompts: []roles.Prompt{
			{Kind: "risk_analysis", Template: "RISK for {client_name} with ${aum}B AUM."},
			{Kind: "portfolio_risk", Template: "PORTFOLIO for {client_name}."},
			{Kind: "compliance", Template: "COMPLIANCE for {client_name}."},
		},
	}
)

func TestGenerateOrderAndPriority(t *testing.T) {
	gen := &stubGenerator{answers: map[string]ai.Result{
		"PORTFOLIO": ai.Success(long("This needs URGENT attention.")),
	}}
	svc := NewService(gen, nil, nil)

	batch, err := svc.Generate(context.Background(), Request{Role: riskRole, Client: benign, Model: "gemma:2b"})
	require.NoError(t, err)

	require.Len(t, batch.Insights, 3)
	assert.Empty(t, batch.Failures)
	assert.False(t, batch.Unavailable)
	assert.Equal(t, "risk_analysis", batch.Insights[0].Kind)
	assert.Equal(t, "portfolio_risk", batch.Insights[1].Kind)
	assert.Equal(t, "compliance", batch.Insights[2].Kind)

	assert.Equal(t, domain.PriorityMedium, batch.Insights[0].Priority)
	assert.Equal(t, domain.PriorityHigh, batch.Insights[1].Priority)
	assert.Equal(t, "Risk Analysis", batch.Insights[0].Type)
	assert.Equal(t, "Risk Analysis - Allianz Global Investors", batch.Insights[0].Title)
	assert.Equal(t, "gemma:2b", batch.Insights[0].Model)
	assert.Equal(t, "Chief Risk Officer", batch.Insights[0].Role)
	assert.NotEmpty(t, batch.Insights[0].ID)
}

func TestGenerateHighChurnIsHigh(t *testing.T) {
	svc := NewService(&stubGenerator{}, nil, nil)
	batch, err := svc.Generate(context.Background(), Request{Role: riskRole, Client: atRisk})
	require.NoError(t, err)
	for _, ins := range batch.Insights {
		assert.Equal(t, domain.PriorityHigh, ins.Priority)
	}
}

func TestGenerateIsolatesFailures(t *testing.T) {
	gen := &stubGenerator{answers: map[string]ai.Result{
		"RISK for":   ai.Unavailable("timed out"),
		"COMPLIANCE": ai.Success("too short."),
	}}
	svc := NewService(gen, nil, nil)

	batch, err := svc.Generate(context.Background(), Request{Role: riskRole, Client: benign})
	require.NoError(t, err)

	require.Len(t, batch.Insights, 1)
	assert.Equal(t, "portfolio_risk", batch.Insights[0].Kind)
	require.Len(t, batch.Failures, 2)
	assert.Equal(t, domain.Failure{Kind: "risk_analysis", Reason: "timed out"}, batch.Failures[0])
	assert.Equal(t, "compliance", batch.Failures[1].Kind)
	assert.Equal(t, int32(3), gen.calls.Load())
}

func TestGenerateExactly100CharsFails(t *testing.T) {
	gen := &stubGenerator{answers: map[string]ai.Result{"": ai.Success(strings.Repeat("y", 100))}}
	batch, err := NewService(gen, nil, nil).Generate(context.Background(), Request{Role: riskRole, Client: benign})
	require.NoError(t, err)
	assert.Empty(t, batch.Insights)
	assert.Len(t, batch.Failures, 3)
}

func TestGenerateMissingFieldFailsFast(t *testing.T) {
	role := roles.Role{Name: "Broken", Prompts: []roles.Prompt{
		{Kind: "ok", Template: "{client_name}"},
		{Kind: "bad", Template: "{client_name} in {region}"},
	}}
	gen := &stubGenerator{}

	_, err := NewService(gen, nil, nil).Generate(context.Background(), Request{Role: role, Client: benign})
	require.Error(t, err)
	assert.ErrorIs(t, err, prompt.ErrMissingField)
	assert.Equal(t, int32(0), gen.calls.Load())
}

func TestGenerateOffline(t *testing.T) {
	gen := &stubGenerator{pingErr: errors.New("connection refused")}

	batch, err := NewService(gen, nil, nil).Generate(context.Background(), Request{Role: riskRole, Client: benign})
	require.NoError(t, err)
	assert.True(t, batch.Unavailable)
	assert.Empty(t, batch.Insights)
	assert.Len(t, batch.Failures, 3)
	assert.Equal(t, int32(0), gen.calls.Load())
}

func TestGenerateKindFilter(t *testing.T) {
	gen := &stubGenerator{}
	svc := NewService(gen, nil, nil)

	batch, err := svc.Generate(context.Background(), Request{Role: riskRole, Client: benign, Kinds: []string{"compliance", "risk_analysis"}})
	require.NoError(t, err)
	require.Len(t, batch.Insights, 2)
	assert.Equal(t, "risk_analysis", batch.Insights[0].Kind)
	assert.Equal(t, "compliance", batch.Insights[1].Kind)

	_, err = svc.Generate(context.Background(), Request{Role: riskRole, Client: benign, Kinds: []string{"rebalancing"}})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestGenerateUsesKnowledgeBase(t *testing.T) {
	store := knowledge.NewMemoryStore()
	_, err := store.Add(context.Background(), documents.NewDocument{
		Content:      "Quarterly risk_analysis shows elevated VaR.",
		FileName:     "q4-risk.pdf",
		Type:         "Risk Analysis",
		ClientName:   benign.Name,
		AllowedRoles: []string{riskRole.Name},
	})
	require.NoError(t, err)

	gen := &stubGenerator{}
	_, err = NewService(gen, nil, nil).Generate(context.Background(), Request{
		Role:               riskRole,
		Client:             benign,
		UseKnowledgeBase:   true,
		Knowledge:          store,
		Kinds:              []string{"risk_analysis"},
		CustomInstructions: "Focus on ESG factors.",
	})
	require.NoError(t, err)

	require.Len(t, gen.prompts, 1)
	p := gen.prompts[0]
	assert.True(t, strings.HasPrefix(p, "RELEVANT KNOWLEDGE BASE DOCUMENTS:\n\nDocument: q4-risk.pdf\n"))
	assert.Contains(t, p, "ANALYSIS REQUEST:\nRISK for Allianz Global Investors with $125.8B AUM.")
	assert.True(t, strings.HasSuffix(p, "Additional Instructions: Focus on ESG factors."))
}

func TestGenerateWithoutKnowledgeBase(t *testing.T) {
	gen := &stubGenerator{}
	_, err := NewService(gen, nil, nil).Generate(context.Background(), Request{Role: riskRole, Client: benign, Kinds: []string{"compliance"}})
	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)
	assert.True(t, strings.HasPrefix(gen.prompts[0], "\n\nANALYSIS REQUEST:\n"))
}

func TestGenerateConcurrentMatchesSequential(t *testing.T) {
	answers := map[string]ai.Result{
		"PORTFOLIO": ai.Unavailable("offline"),
		"RISK for":  ai.Success(long("urgent: rebalance.")),
	}
	seq, err := NewService(&stubGenerator{answers: answers}, nil, nil).
		Generate(context.Background(), Request{Role: riskRole, Client: benign})
	require.NoError(t, err)

	gen := &stubGenerator{answers: answers, delay: 20 * time.Millisecond}
	con, err := NewService(gen, nil, nil).
		GenerateConcurrent(context.Background(), Request{Role: riskRole, Client: benign}, 2)
	require.NoError(t, err)

	require.Len(t, con.Insights, len(seq.Insights))
	for i := range seq.Insights {
		assert.Equal(t, seq.Insights[i].Kind, con.Insights[i].Kind)
		assert.Equal(t, seq.Insights[i].Priority, con.Insights[i].Priority)
	}
	assert.Equal(t, seq.Failures, con.Failures)
	assert.LessOrEqual(t, gen.peak.Load(), int32(2))
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewService(&stubGenerator{}, nil, nil).Generate(ctx, Request{Role: riskRole, Client: benign})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, domain.PriorityHigh, Classify(clients.Profile{ChurnRisk: 25}, "all fine"))
	assert.Equal(t, domain.PriorityMedium, Classify(clients.Profile{ChurnRisk: 5}, "all fine"))
	assert.Equal(t, domain.PriorityMedium, Classify(clients.Profile{ChurnRisk: 20}, "all fine"))
	assert.Equal(t, domain.PriorityHigh, Classify(clients.Profile{ChurnRisk: 5}, "Urgently review"))
}
