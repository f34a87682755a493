// Package feed polls the external comment source and hands recognized
// commands to the command processor, deduplicating through the
// processed-comment set.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Comment is the shape the ledger depends on; transport detail stays here.
type Comment struct {
	ID      string
	Author  string
	Content string
}

// Source fetches the most recent comments, newest first.
type Source interface {
	Comments(ctx context.Context, limit int) ([]Comment, error)
}

// HTTPSource fetches comments from a JSON endpoint:
// GET {base}/comments?limit=N -> [{"id":…,"author_name":…,"content":…}].
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource returns a Source backed by the given endpoint. A nil client
// falls back to http.DefaultClient.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{baseURL: baseURL, client: client}
}

type wireComment struct {
	ID      json.Number `json:"id"`
	Author  string      `json:"author_name"`
	Content string      `json:"content"`
}

// Comments implements Source. Comment ids are string-normalized whatever
// the wire type is.
func (s *HTTPSource) Comments(ctx context.Context, limit int) ([]Comment, error) {
	url := fmt.Sprintf("%s/comments?limit=%d", s.baseURL, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("comment feed returned status %d", resp.StatusCode)
	}
	var wire []wireComment
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, err
	}
	comments := make([]Comment, 0, len(wire))
	for _, w := range wire {
		comments = append(comments, Comment{ID: w.ID.String(), Author: w.Author, Content: w.Content})
	}
	return comments, nil
}
