package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const notionAPIBase = "https://api.notion.com/v1"

// NotionClient is a minimal client for the Notion REST API, scoped to the
// page-export feature. Each user supplies their own integration token.
type NotionClient struct {
	token string
	http  *http.Client
}

// NewNotionClient builds a client for the given integration token.
func NewNotionClient(token string) *NotionClient {
	return &NotionClient{
		token: token,
		http:  &http.Client{Timeout: 15 * time.Second},
	}
}

// CreatePage creates a Notion page under the given parent with a title and
// paragraph blocks built from the body text. Returns the created page URL.
func (n *NotionClient) CreatePage(ctx context.Context, parentPageID, title, body string) (string, error) {
	children := []map[string]any{}
	for _, para := range splitParagraphs(body) {
		children = append(children, map[string]any{
			"object": "block",
			"type":   "paragraph",
			"paragraph": map[string]any{
				"rich_text": []map[string]any{
					{"type": "text", "text": map[string]any{"content": para}},
				},
			},
		})
	}

	payload := map[string]any{
		"parent": map[string]any{"page_id": parentPageID},
		"properties": map[string]any{
			"title": map[string]any{
				"title": []map[string]any{
					{"type": "text", "text": map[string]any{"content": title}},
				},
			},
		},
		"children": children,
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, notionAPIBase+"/pages", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+n.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", "2022-06-28")

	resp, err := n.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("notion create page failed: status %d: %s", resp.StatusCode, raw)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// splitParagraphs breaks text on blank lines, keeping Notion's 2000 char
// per-block limit in mind by hard-splitting oversized paragraphs.
func splitParagraphs(body string) []string {
	const maxBlock = 2000
	out := []string{}
	emit := func(s string) {
		for len(s) > maxBlock {
			out = append(out, s[:maxBlock])
			s = s[maxBlock:]
		}
		if s != "" {
			out = append(out, s)
		}
	}
	for _, para := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n\n") {
		emit(strings.TrimSpace(para))
	}
	return out
}
