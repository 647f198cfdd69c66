package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
)

type CheckOptions struct {
	URL    string
	Body   []byte
	Labels []int
	Client *http.Client
}

// Check sends one request and requires a response object with exactly one
// field holding a non empty array whose first element is an allowed label.
// It returns the decoded labels.
func Check(ctx context.Context, opts CheckOptions) ([]int, error) {
	if len(opts.Body) == 0 {
		opts.Body = []byte(KellyBody)
	}
	if len(opts.Labels) == 0 {
		opts.Labels = []int{0, 1}
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(opts.Body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := opts.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", res.StatusCode, raw)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	if len(fields) != 1 {
		return nil, fmt.Errorf("expected 1 field in response, got %d", len(fields))
	}
	var labels []int
	for name, value := range fields {
		if err := json.Unmarshal(value, &labels); err != nil {
			return nil, fmt.Errorf("field %q is not a list of labels: %w", name, err)
		}
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("response has no predictions")
	}
	if !slices.Contains(opts.Labels, labels[0]) {
		return nil, fmt.Errorf("first prediction %d not in %v", labels[0], opts.Labels)
	}
	return labels, nil
}
