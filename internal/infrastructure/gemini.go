package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"agente_gateway/internal/entities"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Content is one conversation entry sent to the generative API.
type Content struct {
	Role  string `json:"role,omitempty"` // "user", "model"
	Parts []Part `json:"parts"`
}

// Part is a single content fragment: text, a tool request, or a tool result.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// FunctionCall is a tool invocation requested by the model.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// FunctionResponse feeds a structured tool result back to the model.
type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// Schema is the parameter schema of a declared tool.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// FunctionDeclaration describes one callable tool offered to the model.
type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters"`
}

// Tool groups function declarations for a generate call.
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations"`
}

// GenerationConfig tunes the response format.
type GenerationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

// GenerateRequest is the generateContent payload.
type GenerateRequest struct {
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Contents          []Content         `json:"contents"`
	Tools             []Tool            `json:"tools,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// ModelResponse is the decoded first candidate of a generate call.
type ModelResponse struct {
	Text          string
	FunctionCalls []FunctionCall
}

type generateResponse struct {
	Candidates []struct {
		Content Content `json:"content"`
	} `json:"candidates"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// GeminiClient talks to the generative-language REST API. Credentials are
// per-tenant and passed per call; every request goes through the bounded-retry
// upstream caller.
type GeminiClient struct {
	caller          *Caller
	baseURL         string
	generativeModel string
	embeddingModel  string
}

// NewGeminiClient builds the client with the configured model identifiers.
func NewGeminiClient(caller *Caller, generativeModel, embeddingModel string) *GeminiClient {
	return &GeminiClient{
		caller:          caller,
		baseURL:         defaultGeminiBaseURL,
		generativeModel: generativeModel,
		embeddingModel:  embeddingModel,
	}
}

// SetBaseURL overrides the API endpoint (tests).
func (g *GeminiClient) SetBaseURL(url string) {
	g.baseURL = strings.TrimSuffix(url, "/")
}

// Generate performs a generateContent call and decodes the first candidate.
func (g *GeminiClient) Generate(ctx context.Context, apiKey string, req GenerateRequest) (*ModelResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding generate request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.generativeModel, apiKey)
	body, err := g.caller.Do(ctx, UpstreamRequest{Method: http.MethodPost, URL: url, Body: payload})
	if err != nil {
		return nil, err
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decoding generate response: %w", entities.ErrUpstreamError, err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty candidate in generate response", entities.ErrUpstreamError)
	}

	resp := &ModelResponse{}
	for _, part := range decoded.Candidates[0].Content.Parts {
		if part.Text != "" {
			resp.Text += part.Text
		}
		if part.FunctionCall != nil {
			resp.FunctionCalls = append(resp.FunctionCalls, *part.FunctionCall)
		}
	}
	resp.Text = strings.TrimSpace(resp.Text)
	return resp, nil
}

// GenerateText is the single-prompt convenience used by the classification
// and query-rewriting steps.
func (g *GeminiClient) GenerateText(ctx context.Context, apiKey, prompt string) (string, error) {
	resp, err := g.Generate(ctx, apiKey, GenerateRequest{
		Contents: []Content{{Parts: []Part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Embed converts text into a fixed-length vector via the embedding model.
func (g *GeminiClient) Embed(ctx context.Context, apiKey, text string) ([]float32, error) {
	payload, err := json.Marshal(map[string]any{
		"model":   "models/" + g.embeddingModel,
		"content": Content{Parts: []Part{{Text: text}}},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding embed request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", g.baseURL, g.embeddingModel, apiKey)
	body, err := g.caller.Do(ctx, UpstreamRequest{Method: http.MethodPost, URL: url, Body: payload})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrEmbeddingFailure, err)
	}

	var decoded embedResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decoding embed response: %w", entities.ErrEmbeddingFailure, err)
	}
	if len(decoded.Embedding.Values) == 0 {
		return nil, fmt.Errorf("%w: empty embedding returned", entities.ErrEmbeddingFailure)
	}
	return decoded.Embedding.Values, nil
}
