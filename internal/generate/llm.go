package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/hatchwork/backend/internal/models"
)

// ErrBadEditResult is returned when the LLM's reply is not valid JSON or
// does not conform to the edit-result schema. Use errors.Is to detect it.
var ErrBadEditResult = errors.New("edit generator returned a malformed result")

// EditGenerator proposes an edit-set for the given conversation and file
// set. Implementations are expected to be stateless and safe for
// concurrent use.
type EditGenerator interface {
	ProposeEdit(ctx context.Context, messages []models.ChatMessage, files map[string]string) (*EditResult, error)
}

// LLMClient calls the hosted model endpoint and hard-validates the reply
// against the edit-result schema before handing it to the merge step: a
// model that free-styles its output shape must never corrupt a history.
type LLMClient struct {
	url        string
	apiKey     string
	schema     *jsonschema.Schema
	httpClient *http.Client
}

const editResultSchemaFile = "edit_result.v1.json"

// NewLLMClient compiles the edit-result schema from schemaDir and returns
// a ready client.
func NewLLMClient(url, apiKey, schemaDir string) (*LLMClient, error) {
	path := filepath.Join(schemaDir, editResultSchemaFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	schema, err := jsonschema.CompileString("https://hatchwork.dev/schemas/edit_result.v1", string(data))
	if err != nil {
		return nil, fmt.Errorf("compile edit result schema: %w", err)
	}
	return &LLMClient{
		url:        url,
		apiKey:     apiKey,
		schema:     schema,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

var _ EditGenerator = (*LLMClient)(nil)

type proposeRequest struct {
	Messages []models.ChatMessage `json:"messages"`
	Files    map[string]string    `json:"files"`
}

func (c *LLMClient) ProposeEdit(ctx context.Context, messages []models.ChatMessage, files map[string]string) (*EditResult, error) {
	body, err := json.Marshal(proposeRequest{Messages: messages, Files: files})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call edit generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("edit generator returned status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read edit generator response: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEditResult, err)
	}
	if err := c.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEditResult, err)
	}
	var res EditResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEditResult, err)
	}
	return &res, nil
}
