// Package llm generates assistant answers from ranked candidates via a
// local Ollama instance.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"civic-assist/internal/models"
)

// OllamaClient calls the Ollama generate API.
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaClient creates a generation client.
func NewOllamaClient(baseURL, model string, timeout time.Duration) *OllamaClient {
	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Generate produces an answer grounded on the given candidates. An
// empty candidate list is valid: the prompt then tells the model no
// specific context is available so it answers best-effort with general
// guidance.
func (o *OllamaClient) Generate(ctx context.Context, question string, sources []models.Candidate) (string, error) {
	prompt := buildPrompt(question, sources)

	reqBody := map[string]interface{}{
		"model":  o.model,
		"prompt": prompt,
		"stream": false,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}

	return result.Response, nil
}

func buildPrompt(question string, sources []models.Candidate) string {
	var b strings.Builder

	b.WriteString("You are a civic infrastructure assistant for a municipal issue reporting service. ")
	b.WriteString("You answer citizen questions about reported issues, repair processes and report statuses.\n\n")

	if len(sources) == 0 {
		b.WriteString("No specific context is available for this question. ")
		b.WriteString("Give a brief, general best-effort answer and make clear that no matching records or guidance were found.\n")
	} else {
		b.WriteString("Context:\n")
		for i, c := range sources {
			b.WriteString(fmt.Sprintf("\nSource %d (%s): %s\n", i+1, c.Kind, c.Title))
			if c.Category != "" {
				b.WriteString(fmt.Sprintf("Category: %s\n", c.Category))
			}
			if c.Status != "" {
				b.WriteString(fmt.Sprintf("Status: %s", c.Status))
				if c.Priority != "" {
					b.WriteString(fmt.Sprintf(", Priority: %s", c.Priority))
				}
				b.WriteString("\n")
			}
			if c.Location != "" {
				b.WriteString(fmt.Sprintf("Location: %s\n", c.Location))
			}
			if !c.CreatedAt.IsZero() {
				b.WriteString(fmt.Sprintf("Created: %s\n", c.CreatedAt.Format("2 Jan 2006")))
			}
			b.WriteString(fmt.Sprintf("Content: %s\n", c.Content))
			b.WriteString("---\n")
		}
	}

	b.WriteString(fmt.Sprintf("\nQuestion: %s\n", question))
	b.WriteString("\nAnswer using only the context above when context is present. If the answer is not in the context, say so clearly.\n\nAnswer: ")

	return b.String()
}
