package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/punctuate/internal/model"
)

// upperPunctuator upper-cases texts and fails texts containing "fail".
type upperPunctuator struct {
	err   error
	calls int
}

func (p *upperPunctuator) Punctuate(ctx context.Context, texts []string) ([]model.Result, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	results := make([]model.Result, len(texts))
	for i, t := range texts {
		results[i] = model.Result{Index: i, Text: strings.ToUpper(t), Segments: 1}
		if strings.Contains(t, "fail") {
			results[i] = model.Result{Index: i, Text: t, Error: errors.New("oracle batch 0 (1 windows): down")}
		}
	}
	return results, nil
}

func newTestServer(p Punctuator) *Server {
	return New(model.ServerConfig{Addr: ":0", MaxTexts: 3}, p, nil)
}

func post(t *testing.T, s *Server, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/punctuate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(&upperPunctuator{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestPunctuate(t *testing.T) {
	s := newTestServer(&upperPunctuator{})
	rec := post(t, s, `{"texts": ["the cat sat", "please fail", ""]}`, RequestIDHeader, "req-1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))

	var resp PunctuateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Results, 3)

	assert.Equal(t, "THE CAT SAT", resp.Results[0].Text)
	assert.Empty(t, resp.Results[0].Error)
	assert.Equal(t, "please fail", resp.Results[1].Text)
	assert.Contains(t, resp.Results[1].Error, "oracle batch 0")
	assert.Equal(t, 2, resp.Results[2].Index)
}

func TestPunctuate_BadRequests(t *testing.T) {
	p := &upperPunctuator{}
	s := newTestServer(p)

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "malformed", body: `{"texts": [`, code: http.StatusBadRequest},
		{name: "missing texts", body: `{}`, code: http.StatusBadRequest},
		{name: "wrong type", body: `{"texts": "one"}`, code: http.StatusBadRequest},
		{name: "too many", body: `{"texts": ["a", "b", "c", "d"]}`, code: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, s, tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
	assert.Zero(t, p.calls, "invalid requests must not reach the pipeline")
}

func TestPunctuate_EmptyList(t *testing.T) {
	s := newTestServer(&upperPunctuator{})
	rec := post(t, s, `{"texts": []}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp PunctuateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Results)
}

func TestPunctuate_PipelineError(t *testing.T) {
	s := newTestServer(&upperPunctuator{err: context.Canceled})
	rec := post(t, s, `{"texts": ["x"]}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "context canceled")
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := New(model.ServerConfig{Addr: "127.0.0.1:0"}, &upperPunctuator{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	assert.NoError(t, <-done)
}
