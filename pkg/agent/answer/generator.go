package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"crm-analytics-be/pkg/agent/retriever"
	"crm-analytics-be/pkg/agent/router"
	"crm-analytics-be/pkg/llm"
)

// Result is the structured answer for one request. Rationale and
// KeyMetrics are always present (possibly empty), never nil; callers
// rely on that.
type Result struct {
	Answer     string   `json:"answer"`
	Rationale  []string `json:"rationale"`
	KeyMetrics []string `json:"key_metrics"`
}

// GenerationError signals that the answer-synthesis collaborator was
// unreachable. This terminates the request; no partial answer is
// fabricated.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("answer generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Generator composes the final answer from the retrieved products.
// Prose synthesis is delegated to the LLM collaborator; the structural
// contract of Result is owned here.
type Generator struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func New(llmProvider llm.LLMProvider, logger *log.Logger) *Generator {
	return &Generator{llmProvider: llmProvider, logger: logger}
}

// Generate produces the answer for the question. In chat mode the model
// replies conversationally with no evidence; in deep analysis mode the
// reply is grounded in the retrieved products and any retrieval gaps
// are surfaced in the rationale instead of being papered over.
func (g *Generator) Generate(ctx context.Context, message string, retrieved *retriever.Result, mode router.Mode) (*Result, error) {
	if mode != router.ModeDeepAnalysis {
		reply, err := g.llmProvider.Chat(ctx, []llm.Message{
			{Role: "system", Content: chatSystemPrompt},
			{Role: "user", Content: message},
		})
		if err != nil {
			return nil, &GenerationError{Err: err}
		}
		return &Result{Answer: reply, Rationale: []string{}, KeyMetrics: []string{}}, nil
	}

	prompt := g.buildGroundedPrompt(message, retrieved)

	response, err := g.llmProvider.Generate(ctx, prompt)
	if err != nil {
		return nil, &GenerationError{Err: err}
	}

	result := parseResult(response)

	// Retrieval gaps are recorded locally so the degraded basis is
	// visible even when the model glosses over it.
	for _, failure := range retrieved.Failures {
		result.Rationale = append(result.Rationale,
			fmt.Sprintf("Evidence unavailable for %s: %s", failure.ProductID, failure.Reason))
	}
	if retrieved.Failed() {
		result.Answer = degradedPreamble + result.Answer
	}

	g.logger.Printf("[GENERATION] Answer built from %d products (%d failed)",
		len(retrieved.Products), len(retrieved.Failures))

	return result, nil
}

const chatSystemPrompt = "You are the assistant of a CRM analytics dashboard. " +
	"Answer conversationally and concisely. Do not invent metrics or figures."

const degradedPreamble = "Note: the underlying data could not be retrieved, " +
	"so this answer is not backed by current figures. "

func (g *Generator) buildGroundedPrompt(message string, retrieved *retriever.Result) string {
	var prompt strings.Builder

	prompt.WriteString("<system_role>\n")
	prompt.WriteString("You are an analytics assistant for a CRM dashboard.\n")
	prompt.WriteString("Answer the user's question using ONLY the data products below.\n")
	prompt.WriteString("</system_role>\n\n")

	prompt.WriteString("<data_products>\n")
	if len(retrieved.Products) == 0 {
		prompt.WriteString("No data products could be retrieved for this question.\n")
		prompt.WriteString("State explicitly that the answer lacks current data. Do NOT fabricate figures.\n")
	}
	for productID, payload := range retrieved.Products {
		encoded, err := json.Marshal(payload)
		if err != nil {
			continue
		}
		prompt.WriteString(fmt.Sprintf("<product id=%q>\n%s\n</product>\n", productID, encoded))
	}
	prompt.WriteString("</data_products>\n\n")

	if len(retrieved.Failures) > 0 {
		prompt.WriteString("<missing_data>\n")
		prompt.WriteString("These products failed to load; acknowledge the gap where relevant:\n")
		for _, failure := range retrieved.Failures {
			prompt.WriteString(fmt.Sprintf("- %s\n", failure.ProductID))
		}
		prompt.WriteString("</missing_data>\n\n")
	}

	prompt.WriteString("<user_question>\n")
	prompt.WriteString(message)
	prompt.WriteString("\n</user_question>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON in this exact structure:\n")
	prompt.WriteString("{\"answer\": \"...\", \"rationale\": [\"...\"], \"key_metrics\": [\"...\"]}\n")
	prompt.WriteString("rationale: ordered supporting statements. key_metrics: the concrete figures used.\n")
	prompt.WriteString("</output_format>\n")

	return prompt.String()
}

// parseResult extracts the structured answer. An unparsable response is
// demoted to a plain-text answer instead of failing the request; the
// list fields stay non-nil either way.
func parseResult(response string) *Result {
	jsonContent := extractJSON(response)

	var result Result
	if err := json.Unmarshal([]byte(jsonContent), &result); err != nil || result.Answer == "" {
		return &Result{
			Answer:     strings.TrimSpace(response),
			Rationale:  []string{},
			KeyMetrics: []string{},
		}
	}

	if result.Rationale == nil {
		result.Rationale = []string{}
	}
	if result.KeyMetrics == nil {
		result.KeyMetrics = []string{}
	}
	return &result
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return response
	}

	return response[startIdx : endIdx+1]
}
