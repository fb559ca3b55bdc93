// Package documentcloud implements the document source port against the
// DocumentCloud REST API.
package documentcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/open-inbox/openinbox-cli/internal/core/domain"
	"github.com/open-inbox/openinbox-cli/internal/core/ports/driven"
	"github.com/open-inbox/openinbox-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.DocumentSource = (*Client)(nil)

// DefaultBaseURL is the public DocumentCloud API root.
const DefaultBaseURL = "https://api.www.documentcloud.org/api"

const defaultTimeout = 30 * time.Second

// maxTextBytes bounds how much raw text is read per document.
const maxTextBytes = 10 * 1024 * 1024

// Client fetches documents and their full text over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a DocumentCloud client. An empty baseURL selects the
// public API; an empty token sends unauthenticated requests, which is
// enough for public documents.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// apiDocument is the wire shape of one document.
type apiDocument struct {
	ID        json.Number         `json:"id"`
	Title     string              `json:"title"`
	Slug      string              `json:"slug"`
	CreatedAt string              `json:"created_at"`
	Source    string              `json:"source"`
	PageCount int                 `json:"page_count"`
	FileType  string              `json:"original_extension"`
	AssetURL  string              `json:"asset_url"`
	Data      map[string][]string `json:"data"`
}

type searchPage struct {
	Results []apiDocument `json:"results"`
	Next    string        `json:"next"`
}

// GetByID fetches one document and its full text.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.SourceDocument, error) {
	var doc apiDocument
	if err := c.getJSON(ctx, fmt.Sprintf("%s/documents/%s/", c.baseURL, url.PathEscape(id)), &doc); err != nil {
		return nil, err
	}
	return c.toDomain(ctx, doc)
}

// Search returns all documents matching a query, following pagination.
func (c *Client) Search(ctx context.Context, query string) ([]domain.SourceDocument, error) {
	next := fmt.Sprintf("%s/documents/search/?q=%s", c.baseURL, url.QueryEscape(query))

	var docs []domain.SourceDocument
	for next != "" {
		var page searchPage
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}
		for _, d := range page.Results {
			doc, err := c.toDomain(ctx, d)
			if err != nil {
				logger.Warn("Skipping document %s: %v", d.ID.String(), err)
				continue
			}
			docs = append(docs, *doc)
		}
		next = page.Next
	}
	return docs, nil
}

// toDomain converts a wire document, fetching its text as a second call.
func (c *Client) toDomain(ctx context.Context, d apiDocument) (*domain.SourceDocument, error) {
	text, err := c.fullText(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("fetching text for document %s: %w", d.ID.String(), err)
	}

	doc := &domain.SourceDocument{
		ID:        d.ID.String(),
		Title:     d.Title,
		RawText:   text,
		Tags:      normaliseTags(d.Data),
		Source:    d.Source,
		PageCount: d.PageCount,
		FileType:  d.FileType,
	}
	if d.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, d.CreatedAt); err == nil {
			doc.CreatedAt = t.UTC()
		}
	}
	return doc, nil
}

// fullText downloads the extracted text asset. A missing asset is not an
// error; the document simply has no text.
func (c *Client) fullText(ctx context.Context, d apiDocument) (string, error) {
	base := strings.TrimRight(d.AssetURL, "/")
	if base == "" {
		return "", nil
	}
	textURL := fmt.Sprintf("%s/documents/%s/%s.txt", base, d.ID.String(), d.Slug)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, textURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting text: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("text request returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTextBytes))
	if err != nil {
		return "", fmt.Errorf("reading text: %w", err)
	}
	return string(data), nil
}

// getJSON performs an authenticated GET and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("document source: %w", domain.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("document source: %w", domain.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("document source returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// normaliseTags flattens the API's key/value data into the canonical tag
// map: keys lower-cased and stripped of surrounding underscores, list
// values collapsed to their first element.
func normaliseTags(data map[string][]string) domain.TagMap {
	if len(data) == 0 {
		return nil
	}
	tags := make(domain.TagMap, len(data))
	for key, values := range data {
		if len(values) == 0 || values[0] == "" {
			continue
		}
		clean := strings.Trim(strings.ToLower(key), "_")
		if clean == "" {
			continue
		}
		if _, exists := tags[clean]; !exists {
			tags[clean] = values[0]
		}
	}
	return tags
}
