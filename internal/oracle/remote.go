package oracle

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

// RequestIDHeader carries the batch ID to the remote labeler.
const RequestIDHeader = "X-Request-ID"

// RemoteOracle sends whole batches to a sequence-labeling service.
//
// The service accepts POST {base}/v1/label with a JSON body
//
//	{"id": "...", "windows": [{"id": "0@0", "words": [...]}], "options": {...}}
//
// and answers {"results": [{"id": "0@0", "labels": "u O O."}]}.
type RemoteOracle struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type remoteRequest struct {
	ID      string   `json:"id"`
	Windows []Window `json:"windows"`
	Options Options  `json:"options"`
}

type remoteResponse struct {
	Results []Labeling `json:"results"`
}

type remoteError struct {
	Error string `json:"error"`
}

// NewRemoteOracle creates a new remote labeler client
func NewRemoteOracle(config Config) (*RemoteOracle, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("remote labeler base URL is required")
	}

	return &RemoteOracle{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		httpClient: newHTTPClient(config, 60*time.Second),
	}, nil
}

// Name returns the provider name
func (o *RemoteOracle) Name() string {
	return "remote"
}

// Label sends the whole batch in one request
func (o *RemoteOracle) Label(ctx context.Context, req Request) ([]Labeling, error) {
	body, err := json.Marshal(remoteRequest{
		ID:      req.ID,
		Windows: req.Windows,
		Options: req.Options,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/label", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.ID != "" {
		httpReq.Header.Set(RequestIDHeader, req.ID)
	}
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	httpResp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr remoteError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("labeler error (%d): %s", httpResp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("labeler error (%d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp remoteResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return resp.Results, nil
}
