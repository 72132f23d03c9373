package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hupe1980/flowmesh/core"
	"github.com/hupe1980/flowmesh/internal/util"
)

// HTTPOptions configure an HTTPAgent.
type HTTPOptions struct {
	// Method is the HTTP method. Defaults to GET.
	Method string

	// Headers are attached to every request.
	Headers map[string]string

	// Body is an optional request body template. After rendering it is sent
	// as JSON if it parses as JSON, raw otherwise.
	Body string

	// Client overrides the HTTP client. Defaults to http.DefaultClient;
	// cancellation and timeouts arrive via the invocation context.
	Client *http.Client
}

// HTTPAgent performs a single HTTP request per invocation. It covers the
// retrieval and notification collaborators of a flow: fetch a document,
// call an enrichment API, deliver a webhook.
//
// The URL and body are Go templates rendered against the snapshot state
// (shared entries at the top level, upstream payloads under "outputs"), so
// downstream agents can address upstream results:
//
//	https://api.example.com/items/{{ .outputs.lookup.item_id }}
//
// The payload contains "status_code", "body" (decoded JSON if possible,
// string otherwise) and "headers". Responses with status >= 400 are
// reported as errors so the failure policy applies.
type HTTPAgent struct {
	BaseAgent
	url  string
	opts HTTPOptions
}

// NewHTTPAgent constructs an HTTPAgent for the given URL template.
func NewHTTPAgent(name, url string, optFns ...func(o *HTTPOptions)) *HTTPAgent {
	opts := HTTPOptions{Method: http.MethodGet}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Method == "" {
		opts.Method = http.MethodGet
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}

	a := &HTTPAgent{BaseAgent: NewBaseAgent(name), url: url, opts: opts}
	a.SetDescription(fmt.Sprintf("%s %s", opts.Method, url))
	return a
}

// Invoke implements core.Agent.
func (a *HTTPAgent) Invoke(ctx context.Context, snapshot *core.Snapshot) (map[string]any, error) {
	state := snapshot.State()

	url, err := util.RenderTemplate(a.url, state)
	if err != nil {
		return nil, fmt.Errorf("render url: %w", err)
	}

	var bodyReader io.Reader
	if a.opts.Body != "" {
		body, err := util.RenderTemplate(a.opts.Body, state)
		if err != nil {
			return nil, fmt.Errorf("render body: %w", err)
		}
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, a.opts.Method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if bodyReader != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range a.opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := a.opts.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	payload := map[string]any{
		"status_code": resp.StatusCode,
		"body":        decodeBody(raw),
		"headers":     flattenHeaders(resp.Header),
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return payload, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return payload, nil
}

// decodeBody returns parsed JSON when the body is valid JSON, the raw
// string otherwise.
func decodeBody(raw []byte) any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}

	var decoded any
	if err := json.Unmarshal(trimmed, &decoded); err == nil {
		return decoded
	}
	return string(raw)
}

// flattenHeaders keeps the first value per header key.
func flattenHeaders(h http.Header) map[string]string {
	headers := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return headers
}
