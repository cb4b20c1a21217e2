package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/application"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/ai"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/clients"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/documents"
	domain "github.com/swethakommuri/GEN-AI-DEMO/internal/domain/insights"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/roles"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/infra/ai/prompt"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/metrics"
)

// minInsightLength is the length a response must exceed to count as an insight.
const minInsightLength = 100

const highChurnRisk = 20

var ErrUnknownKind = errors.New("unknown analysis kind")

// Generator produces text for a prompt. The generation client satisfies it.
type Generator interface {
	Generate(ctx context.Context, req ai.GenerateRequest) ai.Result
	Ping(ctx context.Context) error
}

// Request selects what to analyse. Knowledge is the session's document
// store and is only consulted when UseKnowledgeBase is set. Empty Kinds means
// every kind of the role.
type Request struct {
	SessionID          string
	Role               roles.Role
	Client             clients.Profile
	Model              string
	UseKnowledgeBase   bool
	Knowledge          documents.Store
	Kinds              []string
	CustomInstructions string
	MaxRetries         int
	Timeout            time.Duration
}

type Service struct {
	gen     Generator
	logger  *slog.Logger
	metrics *metrics.Metrics
	clock   application.Clock
}

func NewService(gen Generator, logger *slog.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gen: gen, logger: logger, metrics: m, clock: application.SystemClock{}}
}

// WithClock replaces the time source.
func (s *Service) WithClock(c application.Clock) *Service {
	s.clock = c
	return s
}

// job is one rendered analysis kind.
type job struct {
	kind   string
	prompt string
}

type outcome struct {
	insight *domain.Insight
	failure *domain.Failure
}

// Generate runs every analysis kind one after another. A kind that fails is
// reported in Batch.Failures and does not stop the others. Template errors
// are returned before any generation starts.
func (s *Service) Generate(ctx context.Context, req Request) (domain.Batch, error) {
	jobs, err := s.prepare(req)
	if err != nil {
		return domain.Batch{}, err
	}
	if batch, offline := s.offline(ctx, jobs); offline {
		return batch, nil
	}

	outcomes := make([]outcome, len(jobs))
	for i, j := range jobs {
		if err := ctx.Err(); err != nil {
			return s.collect(outcomes[:i]), err
		}
		outcomes[i] = s.run(ctx, req, j)
	}
	return s.collect(outcomes), nil
}

// GenerateConcurrent is Generate with up to workers kinds in flight. The
// batch keeps the same order and failure isolation as Generate.
func (s *Service) GenerateConcurrent(ctx context.Context, req Request, workers int) (domain.Batch, error) {
	if workers <= 1 {
		return s.Generate(ctx, req)
	}
	jobs, err := s.prepare(req)
	if err != nil {
		return domain.Batch{}, err
	}
	if batch, offline := s.offline(ctx, jobs); offline {
		return batch, nil
	}

	outcomes := make([]outcome, len(jobs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			outcomes[i] = s.run(ctx, req, j)
			return nil
		})
	}
	_ = g.Wait()
	return s.collect(outcomes), ctx.Err()
}

func (s *Service) prepare(req Request) ([]job, error) {
	selected := req.Role.Prompts
	if len(req.Kinds) > 0 {
		selected = make([]roles.Prompt, 0, len(req.Kinds))
		for _, p := range req.Role.Prompts {
			for _, k := range req.Kinds {
				if p.Kind == k {
					selected = append(selected, p)
					break
				}
			}
		}
		for _, k := range req.Kinds {
			if _, ok := req.Role.Prompt(k); !ok {
				return nil, fmt.Errorf("%w: %s for role %s", ErrUnknownKind, k, req.Role.Name)
			}
		}
	}

	jobs := make([]job, 0, len(selected))
	for _, p := range selected {
		text, err := prompt.RenderTemplate(p.Template, req.Client)
		if err != nil {
			return nil, fmt.Errorf("render %s template for role %s: %w", p.Kind, req.Role.Name, err)
		}
		jobs = append(jobs, job{kind: p.Kind, prompt: text})
	}
	return jobs, nil
}

// offline reports every kind as failed when the generation service does not
// answer at all.
func (s *Service) offline(ctx context.Context, jobs []job) (domain.Batch, bool) {
	err := s.gen.Ping(ctx)
	if err == nil {
		return domain.Batch{}, false
	}
	s.logger.ErrorContext(ctx, "generation service offline", "error", err)
	batch := domain.Batch{Unavailable: true, GeneratedAt: s.clock.Now(), Insights: []domain.Insight{}}
	for _, j := range jobs {
		batch.Failures = append(batch.Failures, domain.Failure{Kind: j.kind, Reason: err.Error()})
	}
	return batch, true
}

func (s *Service) run(ctx context.Context, req Request, j job) outcome {
	title := domain.KindTitle(j.kind)
	log := s.logger.With("kind", j.kind, "role", req.Role.Name, "client", req.Client.Name)
	log.InfoContext(ctx, "generating insight")

	knowledge := ""
	if req.UseKnowledgeBase {
		knowledge = prompt.NewBuilder(req.Knowledge, s.logger).BuildContext(ctx, j.kind, req.Client.Name, req.Role.Name)
	}
	final := prompt.Compose(j.prompt, knowledge, req.Role.Name)
	if req.CustomInstructions != "" {
		final += "\n\nAdditional Instructions: " + req.CustomInstructions
	}

	res := s.gen.Generate(ctx, ai.GenerateRequest{
		SessionID:  req.SessionID,
		Prompt:     final,
		Model:      req.Model,
		Role:       req.Role.Name,
		Client:     req.Client,
		MaxRetries: req.MaxRetries,
		Timeout:    req.Timeout,
	})
	if !res.OK() {
		log.WarnContext(ctx, "could not generate insight", "reason", res.Reason())
		return outcome{failure: &domain.Failure{Kind: j.kind, Reason: res.Reason()}}
	}
	if utf8.RuneCountInString(res.Text()) <= minInsightLength {
		log.WarnContext(ctx, "generated response too short", "chars", utf8.RuneCountInString(res.Text()))
		return outcome{failure: &domain.Failure{Kind: j.kind, Reason: "response too short"}}
	}

	ins := domain.Insight{
		ID:        uuid.NewString(),
		Kind:      j.kind,
		Type:      title,
		Priority:  Classify(req.Client, res.Text()),
		Title:     title + " - " + req.Client.Name,
		Content:   res.Text(),
		Client:    req.Client.Name,
		Model:     req.Model,
		Role:      req.Role.Name,
		CreatedAt: s.clock.Now(),
	}
	s.metrics.IncInsight(string(ins.Priority))
	log.InfoContext(ctx, "insight generated", "priority", ins.Priority)
	return outcome{insight: &ins}
}

func (s *Service) collect(outcomes []outcome) domain.Batch {
	batch := domain.Batch{Insights: []domain.Insight{}, GeneratedAt: s.clock.Now()}
	for _, o := range outcomes {
		switch {
		case o.insight != nil:
			batch.Insights = append(batch.Insights, *o.insight)
		case o.failure != nil:
			batch.Failures = append(batch.Failures, *o.failure)
		}
	}
	return batch
}

// Classify assigns HIGH to clients at high churn risk or to content flagged
// urgent, MEDIUM otherwise.
func Classify(c clients.Profile, content string) domain.Priority {
	if c.ChurnRisk > highChurnRisk || strings.Contains(strings.ToLower(content), "urgent") {
		return domain.PriorityHigh
	}
	return domain.PriorityMedium
}
