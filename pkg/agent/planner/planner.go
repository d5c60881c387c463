package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"crm-analytics-be/pkg/agent/catalog"
	"crm-analytics-be/pkg/agent/router"
	"crm-analytics-be/pkg/llm"
)

// PlanItem is one selected data product. Plans are ordered by catalog
// declaration order. The JSON tags are the wire shape of the plan
// event payload.
type PlanItem struct {
	ProductID string `json:"productId"`
	Reason    string `json:"reason"`
}

// PlanningError signals that the planning collaborator was unreachable
// or returned an unparsable result. The emitter degrades to an empty
// plan rather than aborting the request.
type PlanningError struct {
	Err error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("planning failed: %v", e.Err)
}

func (e *PlanningError) Unwrap() error {
	return e.Err
}

// Planner selects the data products relevant to a question. Relevance
// reasoning is delegated to the LLM collaborator; merging and
// validation of its output against the catalog is local and
// deterministic.
type Planner struct {
	llmProvider llm.LLMProvider
	catalog     *catalog.Catalog
	logger      *log.Logger
}

func New(llmProvider llm.LLMProvider, cat *catalog.Catalog, logger *log.Logger) *Planner {
	return &Planner{
		llmProvider: llmProvider,
		catalog:     cat,
		logger:      logger,
	}
}

// Plan returns the ordered product selection for the question. Chat
// mode always yields an empty plan.
func (p *Planner) Plan(ctx context.Context, message string, mode router.Mode) ([]PlanItem, error) {
	if mode != router.ModeDeepAnalysis {
		return nil, nil
	}

	prompt := p.buildPrompt(message)

	response, err := p.llmProvider.Generate(ctx, prompt)
	if err != nil {
		return nil, &PlanningError{Err: fmt.Errorf("llm generation: %w", err)}
	}

	raw, err := extractPlan(response)
	if err != nil {
		return nil, &PlanningError{Err: err}
	}

	return p.sanitize(raw), nil
}

// sanitize strips product ids the model hallucinated, removes
// duplicates and orders the survivors by catalog declaration order, so
// the same selection always yields the same plan regardless of how the
// model ranked it.
func (p *Planner) sanitize(raw []PlanItem) []PlanItem {
	seen := make(map[string]struct{}, len(raw))
	items := make([]PlanItem, 0, len(raw))
	for _, item := range raw {
		id := strings.TrimSpace(item.ProductID)
		if !p.catalog.Has(id) {
			p.logger.Printf("[PLANNER] Dropping unknown product id %q", id)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		items = append(items, PlanItem{ProductID: id, Reason: strings.TrimSpace(item.Reason)})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return p.catalog.Priority(items[i].ProductID) < p.catalog.Priority(items[j].ProductID)
	})
	return items
}

func (p *Planner) buildPrompt(message string) string {
	var prompt strings.Builder

	prompt.WriteString("<system_role>\n")
	prompt.WriteString("You are a planning assistant for a CRM analytics dashboard.\n")
	prompt.WriteString("Given a user question, select which precomputed data products are needed to answer it.\n")
	prompt.WriteString("</system_role>\n\n")

	prompt.WriteString("<available_products>\n")
	for _, product := range p.catalog.Products() {
		prompt.WriteString(fmt.Sprintf("- id: %s | %s | topics: %s\n",
			product.ID, product.Label, strings.Join(product.Tags, ", ")))
	}
	prompt.WriteString("</available_products>\n\n")

	prompt.WriteString("<user_question>\n")
	prompt.WriteString(message)
	prompt.WriteString("\n</user_question>\n\n")

	prompt.WriteString("<rules>\n")
	prompt.WriteString("1. Select ONLY products from the list above, by exact id.\n")
	prompt.WriteString("2. Select nothing if no product helps answer the question.\n")
	prompt.WriteString("3. Give a short reason per selection, phrased for an end user.\n")
	prompt.WriteString("</rules>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON in this exact structure:\n")
	prompt.WriteString("{\"plan\": [{\"productId\": \"...\", \"reason\": \"...\"}]}\n")
	prompt.WriteString("No preamble, no explanation outside the JSON.\n")
	prompt.WriteString("</output_format>\n")

	return prompt.String()
}

type planEnvelope struct {
	Plan []PlanItem `json:"plan"`
}

// extractPlan parses the structured response into plan items.
func extractPlan(response string) ([]PlanItem, error) {
	jsonContent := extractJSON(response)

	var envelope planEnvelope
	if err := json.Unmarshal([]byte(jsonContent), &envelope); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	return envelope.Plan, nil
}

// extractJSON isolates JSON content from a response that may carry
// surrounding prose.
func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return response
	}

	return response[startIdx : endIdx+1]
}
