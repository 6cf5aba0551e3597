package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const schemaRegistryContentType = "application/vnd.schemaregistry.v1+json"

var errSubjectNotFound = errors.New("schema subject not found")

// SchemaRegistryClient registers JSON schemas with a Confluent-compatible
// Schema Registry.
type SchemaRegistryClient struct {
	baseURL    string
	httpClient *http.Client
}

// RegistryOption configures a SchemaRegistryClient.
type RegistryOption func(*SchemaRegistryClient)

// WithHTTPClient replaces the default client, which times out after ten
// seconds.
func WithHTTPClient(client *http.Client) RegistryOption {
	return func(c *SchemaRegistryClient) {
		c.httpClient = client
	}
}

// NewSchemaRegistryClient constructs a client for baseURL.
func NewSchemaRegistryClient(baseURL string, opts ...RegistryOption) *SchemaRegistryClient {
	c := &SchemaRegistryClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureSchema returns the id of the latest version of subject, registering
// schema when the subject does not exist yet.
func (c *SchemaRegistryClient) EnsureSchema(ctx context.Context, subject string, schema string) (int, error) {
	id, err := c.latest(ctx, subject)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, errSubjectNotFound) {
		return 0, err
	}
	return c.register(ctx, subject, schema)
}

func (c *SchemaRegistryClient) latest(ctx context.Context, subject string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.subjectURL(subject)+"/versions/latest", nil)
	if err != nil {
		return 0, err
	}
	return c.do(req)
}

func (c *SchemaRegistryClient) register(ctx context.Context, subject string, schema string) (int, error) {
	body, err := json.Marshal(map[string]any{
		"schemaType": "JSON",
		"schema":     schema,
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.subjectURL(subject)+"/versions", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", schemaRegistryContentType)
	return c.do(req)
}

func (c *SchemaRegistryClient) subjectURL(subject string) string {
	return fmt.Sprintf("%s/subjects/%s", c.baseURL, url.PathEscape(subject))
}

func (c *SchemaRegistryClient) do(req *http.Request) (int, error) {
	req.Header.Set("Accept", schemaRegistryContentType)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, errSubjectNotFound
	}
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, fmt.Errorf("schema registry %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(data))
	}

	var payload struct {
		ID int `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode schema registry response: %w", err)
	}
	return payload.ID, nil
}
