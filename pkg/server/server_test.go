package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/flowset/pkg/errors"
	"github.com/matzehuels/flowset/pkg/pipeline"
)

const doc = `
[page]
width = 100
height = 100
repeat = true

[[content]]
kind = "block"
height = 60

[[content]]
kind = "block"
height = 60
`

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	s := New(pipeline.NewRunner(nil, nil, logger), logger, opts...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, contentType, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, contentType, strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var h healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		t.Fatal(err)
	}
	if h.Status != "ok" {
		t.Errorf("status = %q", h.Status)
	}
	if _, err := uuid.Parse(resp.Header.Get("X-Request-ID")); err != nil {
		t.Errorf("X-Request-ID is not a UUID: %v", err)
	}
}

func TestRequestIDReused(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.NewString()
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set("X-Request-ID", id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != id {
		t.Errorf("X-Request-ID = %q, want %q", got, id)
	}
}

func TestLayout(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL+"/v1/layout", "application/toml", doc)
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := resp.Header.Get("X-Pages"); got != "2" {
		t.Errorf("X-Pages = %q, want 2", got)
	}

	var out struct {
		Pages []json.RawMessage `json:"pages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Pages) != 2 {
		t.Errorf("pages = %d, want 2", len(out.Pages))
	}
}

func TestLayoutMemoized(t *testing.T) {
	ts := newTestServer(t)
	first := post(t, ts.URL+"/v1/layout", "application/toml", doc)
	second := post(t, ts.URL+"/v1/render?format=dot", "application/toml", doc)
	if got := first.Header.Get("X-Cache"); got != "miss" {
		t.Errorf("first X-Cache = %q, want miss", got)
	}
	if got := second.Header.Get("X-Cache"); got != "layout" {
		t.Errorf("second X-Cache = %q, want layout", got)
	}
}

func TestRenderSVG(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL+"/v1/render?columns=2&gutter=10", "", doc)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(body), "<svg") && !strings.HasPrefix(string(body), "<?xml") {
		t.Errorf("body is not SVG: %.40q", body)
	}
}

func TestRenderJSONInput(t *testing.T) {
	ts := newTestServer(t)
	body := `{"page": {"width": 50, "height": 40}, "content": [{"kind": "block", "height": 10}]}`
	resp := post(t, ts.URL+"/v1/layout", "application/json", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

const autoPlace = `
[page]
width = 100
height = 100

[[content]]
kind = "place"
align_y = "auto"

[content.body]
height = 10
`

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   errors.Code
	}{
		{"bad toml", "/v1/layout", "[page\n", http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"no width", "/v1/layout", "[page]\nheight = 10\n", http.StatusUnprocessableEntity, errors.ErrCodeInvalidDocument},
		{"bad format", "/v1/render?format=gif", doc, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad columns", "/v1/layout?columns=two", doc, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad balance", "/v1/layout?balance=spread", doc, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"auto placement without float", "/v1/layout", autoPlace, http.StatusUnprocessableEntity, errors.ErrCodeInvalidPlacement},
	}
	ts := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+tt.path, "application/toml", tt.body)
			if resp.StatusCode != tt.status {
				body, _ := io.ReadAll(resp.Body)
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
			var e errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
				t.Fatal(err)
			}
			if e.Code != tt.code {
				t.Errorf("code = %q, want %q", e.Code, tt.code)
			}
			if e.RequestID == "" {
				t.Error("error response should carry the request ID")
			}
			if tt.code == errors.ErrCodeInvalidPlacement && len(e.Hints) == 0 {
				t.Error("placement error should carry a hint")
			}
		})
	}
}

func TestBodyLimit(t *testing.T) {
	ts := newTestServer(t, WithMaxBody(16))
	resp := post(t, ts.URL+"/v1/layout", "application/toml", doc)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[errors.Code]int{
		errors.ErrCodeRelayoutLoop: http.StatusUnprocessableEntity,
		errors.ErrCodeUnsupported:  http.StatusNotImplemented,
		errors.ErrCodeTimeout:      http.StatusGatewayTimeout,
		errors.ErrCodeRender:       http.StatusInternalServerError,
		errors.ErrCodeInvalidBreak: http.StatusUnprocessableEntity,
		errors.ErrCodeFileNotFound: http.StatusNotFound,
	}
	for code, want := range tests {
		if got := statusFor(code); got != want {
			t.Errorf("statusFor(%s) = %d, want %d", code, got, want)
		}
	}
}
