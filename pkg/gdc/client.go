// Package gdc is a minimal client for the GDC files endpoint, used to
// build download manifests and pairing-ready metadata tables.
package gdc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultEndpoint = "https://api.gdc.cancer.gov/files"

// Filter is one node of the GDC filter DSL, e.g.
// {"op":"in","content":{"field":...,"value":[...]}}.
type Filter struct {
	Op      string `json:"op"`
	Content any    `json:"content"`
}

// FieldValues is the content of an "in" filter.
type FieldValues struct {
	Field string   `json:"field"`
	Value []string `json:"value"`
}

// In builds an "in" filter for one field.
func In(field string, values ...string) Filter {
	return Filter{Op: "in", Content: FieldValues{Field: field, Value: values}}
}

// And combines filters conjunctively.
func And(filters ...Filter) Filter {
	return Filter{Op: "and", Content: filters}
}

// Sample is the nested sample record on a case.
type Sample struct {
	SampleType string `json:"sample_type"`
}

// Case is the nested case record on a file hit.
type Case struct {
	CaseID      string   `json:"case_id"`
	SubmitterID string   `json:"submitter_id"`
	Samples     []Sample `json:"samples"`
}

// Analysis carries the workflow that produced a file.
type Analysis struct {
	WorkflowType string `json:"workflow_type"`
}

// FileHit is one file record returned by the files endpoint.
type FileHit struct {
	FileID   string   `json:"file_id"`
	FileName string   `json:"file_name"`
	Analysis Analysis `json:"analysis"`
	Cases    []Case   `json:"cases"`
}

type filesRequest struct {
	Filters Filter `json:"filters"`
	Fields  string `json:"fields"`
	Format  string `json:"format"`
	Size    int    `json:"size"`
}

type filesResponse struct {
	Data struct {
		Hits []FileHit `json:"hits"`
	} `json:"data"`
}

// Client queries the GDC API.
type Client struct {
	endpoint string
	client   *http.Client
}

// NewClient returns a client for the given files endpoint; "" uses the
// public GDC API.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		// The files endpoint can take a while for full-cohort queries.
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

// Files POSTs a filtered files query and returns the hits.
func (c *Client) Files(filters Filter, fields []string, size int) ([]FileHit, error) {
	payload := filesRequest{
		Filters: filters,
		Fields:  strings.Join(fields, ","),
		Format:  "JSON",
		Size:    size,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode files query: %w", err)
	}

	resp, err := c.client.Post(c.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to query GDC files endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("GDC files endpoint returned status %d: %s", resp.StatusCode, snippet)
	}

	var decoded filesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode files response: %w", err)
	}
	return decoded.Data.Hits, nil
}
