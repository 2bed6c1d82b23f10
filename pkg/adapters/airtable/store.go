// Package airtable persists completed profiles to an Airtable base
// over its REST API. It implements ports.RecordStore.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aretw0/intake/pkg/ports"
)

// DefaultBaseURL is the Airtable API endpoint.
const DefaultBaseURL = "https://api.airtable.com/v0"

// fieldColumns maps profile field names to Airtable column names.
var fieldColumns = map[string]string{
	"name":   "Name",
	"email":  "Email",
	"mobile": "Mobile",
	"age":    "Age",
	"city":   "City",
}

// Store writes records to one table of one Airtable base.
type Store struct {
	apiKey  string
	baseID  string
	table   string
	baseURL string
	client  *http.Client
}

// Option configures the Store.
type Option func(*Store)

// WithBaseURL overrides the API endpoint, used in tests.
func WithBaseURL(url string) Option {
	return func(s *Store) {
		s.baseURL = url
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Store) {
		s.client = client
	}
}

// New creates an Airtable record store.
func New(apiKey, baseID, table string, opts ...Option) (*Store, error) {
	if apiKey == "" || baseID == "" || table == "" {
		return nil, errors.New("airtable api key, base id and table are required")
	}
	s := &Store{
		apiKey:  apiKey,
		baseID:  baseID,
		table:   table,
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type createRequest struct {
	Records []recordEnvelope `json:"records"`
}

type recordEnvelope struct {
	ID     string         `json:"id,omitempty"`
	Fields map[string]any `json:"fields"`
}

type createResponse struct {
	Records []recordEnvelope `json:"records"`
}

// SaveRecord creates one Airtable record holding the profile and its
// summary, returning the record identifier Airtable assigned.
func (s *Store) SaveRecord(ctx context.Context, profile map[string]string, summary string) (string, error) {
	fields := map[string]any{"Summary": summary}
	for name, value := range profile {
		column, ok := fieldColumns[name]
		if !ok {
			column = name
		}
		fields[column] = value
	}

	body, err := json.Marshal(createRequest{Records: []recordEnvelope{{Fields: fields}}})
	if err != nil {
		return "", fmt.Errorf("failed to encode record: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s", s.baseURL, s.baseID, s.table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("airtable request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("airtable returned %d: %s", resp.StatusCode, snippet)
	}

	var parsed createResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode airtable response: %w", err)
	}
	if len(parsed.Records) == 0 || parsed.Records[0].ID == "" {
		return "", errors.New("airtable response carried no record id")
	}
	return parsed.Records[0].ID, nil
}

// Record is one stored profile row.
type Record struct {
	ID     string
	Fields map[string]any
}

// ListRecords fetches the table contents, following Airtable's offset
// pagination until exhausted.
func (s *Store) ListRecords(ctx context.Context) ([]Record, error) {
	var out []Record
	offset := ""

	for {
		url := fmt.Sprintf("%s/%s/%s", s.baseURL, s.baseID, s.table)
		if offset != "" {
			url += "?offset=" + offset
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("airtable request failed: %w", err)
		}

		var parsed struct {
			Records []recordEnvelope `json:"records"`
			Offset  string           `json:"offset"`
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, fmt.Errorf("airtable returned %d: %s", resp.StatusCode, snippet)
		}
		err = json.NewDecoder(resp.Body).Decode(&parsed)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode airtable response: %w", err)
		}

		for _, r := range parsed.Records {
			out = append(out, Record{ID: r.ID, Fields: r.Fields})
		}
		if parsed.Offset == "" {
			return out, nil
		}
		offset = parsed.Offset
	}
}

var _ ports.RecordStore = (*Store)(nil)
