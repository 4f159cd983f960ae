package openai

import (
	"sync"

	"github.com/conceptatlas/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ConceptOpenAIClient is an OpenAI-compatible adapter for concept and relation
// extraction. It manages separate model choices for extraction and concept
// comparison tasks.
//
// A ConceptOpenAIClient should be created using NewConceptOpenAIClient.
type ConceptOpenAIClient struct {
	extractionModel string
	comparisonModel string

	chatURL string
	chatKey string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient *openai.Client
}

// NewConceptOpenAIClientParams defines the configuration parameters for
// creating a new ConceptOpenAIClient.
//
// ExtractionModel specifies the model used for concept/relation extraction.
// ComparisonModel specifies the model used for concept-list comparison.
// ChatURL and ChatKey configure the chat/completion API endpoint; an empty
// ChatURL uses the OpenAI default.
type NewConceptOpenAIClientParams struct {
	ExtractionModel string
	ComparisonModel string

	ChatURL string
	ChatKey string
}

// NewConceptOpenAIClient creates and returns a new ConceptOpenAIClient
// configured with the provided parameters.
//
// Example:
//
//	client := openai.NewConceptOpenAIClient(openai.NewConceptOpenAIClientParams{
//		ExtractionModel: "gpt-4o-mini",
//		ComparisonModel: "gpt-4o-mini",
//		ChatKey:         os.Getenv("OPENAI_API_KEY"),
//	})
func NewConceptOpenAIClient(
	params NewConceptOpenAIClientParams,
) *ConceptOpenAIClient {
	return &ConceptOpenAIClient{
		extractionModel: params.ExtractionModel,
		comparisonModel: params.ComparisonModel,

		chatURL: params.ChatURL,
		chatKey: params.ChatKey,

		metricsLock: sync.Mutex{},
		metrics:     ai.ModelMetrics{},

		ChatClient: newOpenaiClient(params.ChatURL, params.ChatKey),
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

func (c *ConceptOpenAIClient) modifyMetrics(delta ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += delta.InputTokens
	c.metrics.OutputTokens += delta.OutputTokens
	c.metrics.TotalTokens += delta.TotalTokens
	c.metrics.DurationMs += delta.DurationMs
}

// ResetMetrics clears the accumulated usage metrics.
func (c *ConceptOpenAIClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics = ai.ModelMetrics{}
}

// GetMetrics returns a snapshot of the accumulated usage metrics.
func (c *ConceptOpenAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	return c.metrics
}
