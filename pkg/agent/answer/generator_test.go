package answer

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"crm-analytics-be/pkg/agent/catalog"
	"crm-analytics-be/pkg/agent/retriever"
	"crm-analytics-be/pkg/agent/router"
	"crm-analytics-be/pkg/llm"
)

type fakeProvider struct {
	chatResponse     string
	generateResponse string
	err              error

	chatCalls     int
	generateCalls int
	lastPrompt    string
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.chatCalls++
	return f.chatResponse, f.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.generateCalls++
	f.lastPrompt = prompt
	return f.generateResponse, f.err
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func okRetrieval() *retriever.Result {
	return &retriever.Result{
		Products: map[string]catalog.DataProduct{
			"top10": {"items": []string{"Consulting"}},
		},
	}
}

func TestGenerateChatMode(t *testing.T) {
	provider := &fakeProvider{chatResponse: "Hello! How can I help?"}
	g := New(provider, testLogger())

	result, err := g.Generate(context.Background(), "hi", nil, router.ModeChat)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if result.Answer != "Hello! How can I help?" {
		t.Errorf("Answer = %q", result.Answer)
	}
	if result.Rationale == nil || result.KeyMetrics == nil {
		t.Error("list fields must be non-nil")
	}
	if len(result.Rationale) != 0 || len(result.KeyMetrics) != 0 {
		t.Error("chat answers carry no evidence")
	}
	if provider.chatCalls != 1 || provider.generateCalls != 0 {
		t.Errorf("chat=%d generate=%d, want 1/0", provider.chatCalls, provider.generateCalls)
	}
}

func TestGenerateDeepAnalysis(t *testing.T) {
	provider := &fakeProvider{
		generateResponse: `{"answer":"Consulting leads.","rationale":["Consulting tops the ranking"],"key_metrics":["Consulting: 42 requests"]}`,
	}
	g := New(provider, testLogger())

	result, err := g.Generate(context.Background(), "top services?", okRetrieval(), router.ModeDeepAnalysis)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if result.Answer != "Consulting leads." {
		t.Errorf("Answer = %q", result.Answer)
	}
	if len(result.Rationale) != 1 || len(result.KeyMetrics) != 1 {
		t.Errorf("Rationale/KeyMetrics = %v / %v", result.Rationale, result.KeyMetrics)
	}
	if !strings.Contains(provider.lastPrompt, `<product id="top10">`) {
		t.Error("prompt does not embed the retrieved product")
	}
}

func TestGenerateUnparsableResponse(t *testing.T) {
	provider := &fakeProvider{generateResponse: "Consulting is your top service."}
	g := New(provider, testLogger())

	result, err := g.Generate(context.Background(), "top services?", okRetrieval(), router.ModeDeepAnalysis)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.Answer != "Consulting is your top service." {
		t.Errorf("Answer = %q, want the raw response text", result.Answer)
	}
	if result.Rationale == nil || result.KeyMetrics == nil {
		t.Error("list fields must be non-nil after fallback parsing")
	}
}

func TestGenerateSurfacesRetrievalGaps(t *testing.T) {
	provider := &fakeProvider{
		generateResponse: `{"answer":"Partial picture.","rationale":["Based on revenue only"],"key_metrics":[]}`,
	}
	g := New(provider, testLogger())

	retrieved := &retriever.Result{
		Products: map[string]catalog.DataProduct{
			"revenue_trend": {"series": []float64{1}},
		},
		Failures: []retriever.Failure{
			{ProductID: "top10", Reason: "warehouse timeout"},
		},
	}

	result, err := g.Generate(context.Background(), "overview?", retrieved, router.ModeDeepAnalysis)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	found := false
	for _, line := range result.Rationale {
		if strings.Contains(line, "top10") && strings.Contains(line, "warehouse timeout") {
			found = true
		}
	}
	if !found {
		t.Errorf("rationale does not mention the failed product: %v", result.Rationale)
	}
	if strings.HasPrefix(result.Answer, degradedPreamble) {
		t.Error("partial retrieval must not trigger the degraded preamble")
	}
}

func TestGenerateFullyDegraded(t *testing.T) {
	provider := &fakeProvider{
		generateResponse: `{"answer":"I have no current figures.","rationale":[],"key_metrics":[]}`,
	}
	g := New(provider, testLogger())

	retrieved := &retriever.Result{
		Products: map[string]catalog.DataProduct{},
		Failures: []retriever.Failure{
			{ProductID: "top10", Reason: "down"},
		},
	}

	result, err := g.Generate(context.Background(), "overview?", retrieved, router.ModeDeepAnalysis)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.HasPrefix(result.Answer, degradedPreamble) {
		t.Errorf("Answer = %q, want degraded preamble prefix", result.Answer)
	}
}

func TestGenerateProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("model offline")}
	g := New(provider, testLogger())

	_, err := g.Generate(context.Background(), "hi", okRetrieval(), router.ModeDeepAnalysis)
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Errorf("error = %v, want *GenerationError", err)
	}
}
