// Package qa is the HTTP client for the remote question-answering endpoint.
package qa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/lojasmm/askbot/internal/history"
)

const (
	DefaultURL     = "https://lbf7-hackaton.replit.app/ask"
	DefaultTimeout = 30 * time.Second

	userAgent       = "askbot"
	maxErrorMessage = 500
)

// Options configures a Client. APIKey takes precedence over Token.
type Options struct {
	URL      string
	APIKey   string
	Token    string
	Language string
	Timeout  time.Duration
}

type Client struct {
	url      string
	apiKey   string
	token    string
	language string
	timeout  time.Duration
	http     *http.Client
}

func NewClient(opts Options) *Client {
	c := &Client{
		url:      opts.URL,
		apiKey:   opts.APIKey,
		token:    opts.Token,
		language: opts.Language,
		timeout:  opts.Timeout,
		http:     &http.Client{},
	}
	if c.url == "" {
		c.url = DefaultURL
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.language == "" {
		c.language = "en"
	}
	return c
}

// --- API types ---

type askRequest struct {
	Query          string      `json:"query"`
	Filters        []string    `json:"filters"`
	PreferMarkdown bool        `json:"prefer_markdown"`
	Citations      bool        `json:"citations"`
	MaxTokens      int         `json:"max_tokens"`
	ChatHistory    []chatEntry `json:"chat_history,omitempty"`
}

type chatEntry struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// Ask sends query with the prior turns of the conversation and returns the
// response document. Failures are *Error values; Ask never retries.
func (c *Client) Ask(ctx context.Context, query string, turns []history.Turn) (gjson.Result, error) {
	body, err := json.Marshal(askRequest{
		Query:          query,
		Filters:        []string{},
		PreferMarkdown: true,
		Citations:      true,
		ChatHistory:    toChatHistory(turns),
	})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("qa: marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("qa: build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, ClassifyError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, ClassifyError(fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode >= 400 {
		return gjson.Result{}, &Error{
			Kind:    KindStructured,
			Status:  resp.StatusCode,
			Message: errorMessage(respBody),
		}
	}

	doc, err := decode(respBody, resp.Header.Get("Content-Type"))
	if err != nil {
		return gjson.Result{}, &Error{Kind: KindNetwork, Err: err}
	}
	if qe := StructuredError(doc); qe != nil {
		return gjson.Result{}, qe
	}
	return doc, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-language", c.language)
	switch {
	case c.apiKey != "":
		req.Header.Set("X-NUCLIA-SERVICEACCOUNT", "Bearer "+c.apiKey)
	case c.token != "":
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// decode parses a JSON body. Bodies that are not JSON and were not labelled
// as JSON are wrapped as {"raw": body}.
func decode(body []byte, contentType string) (gjson.Result, error) {
	if gjson.ValidBytes(body) {
		return gjson.ParseBytes(body), nil
	}
	if strings.Contains(contentType, "application/json") {
		return gjson.Result{}, fmt.Errorf("decoding response: invalid JSON")
	}
	wrapped, err := sjson.SetBytes([]byte(`{}`), "raw", string(body))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("wrapping raw response: %w", err)
	}
	return gjson.ParseBytes(wrapped), nil
}

// StructuredError reports the error object of a response body, if present.
func StructuredError(doc gjson.Result) *Error {
	e := doc.Get("error")
	if !e.Exists() || e.Type == gjson.Null {
		return nil
	}
	qe := &Error{Kind: KindStructured, Message: e.String()}
	if e.IsObject() {
		qe.Status = int(e.Get("status").Int())
		qe.Message = e.Get("message").String()
	}
	return qe
}

func errorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range []string{"detail", "message", "error.message"} {
			if v := gjson.GetBytes(body, path); v.Type == gjson.String {
				return truncate(v.Str)
			}
		}
	}
	return truncate(strings.TrimSpace(string(body)))
}

func truncate(s string) string {
	if len(s) > maxErrorMessage {
		return s[:maxErrorMessage]
	}
	return s
}

func toChatHistory(turns []history.Turn) []chatEntry {
	if len(turns) == 0 {
		return nil
	}
	entries := make([]chatEntry, 0, len(turns))
	for _, t := range turns {
		author := "USER"
		if t.Role == history.RoleAssistant {
			author = "NUCLIA"
		}
		entries = append(entries, chatEntry{Author: author, Text: t.Content})
	}
	return entries
}
