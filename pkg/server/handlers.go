package server

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/flowset/pkg/buildinfo"
	"github.com/matzehuels/flowset/pkg/document"
	"github.com/matzehuels/flowset/pkg/errors"
	"github.com/matzehuels/flowset/pkg/pipeline"
)

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatTree: "image/svg+xml",
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type errorResponse struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	Hints     []string    `json:"hints,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: buildinfo.Version})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, pipeline.FormatJSON)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	s.serve(w, r, format)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, format string) {
	ctx := r.Context()
	id := RequestID(ctx)

	opts, err := parseOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}
	opts.Logger = s.logger.With("request", id)

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}

	src := pipeline.Source{Name: id, Data: data, Format: requestFormat(r)}
	res, err := s.runner.Execute(ctx, src, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Cache", cacheStatus(res.CacheInfo))
	if res.Stats.Pages > 0 {
		w.Header().Set("X-Pages", strconv.Itoa(res.Stats.Pages))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

// parseOptions reads pipeline options from the query string.
func parseOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	var opts pipeline.Options
	var err error
	if v := q.Get("columns"); v != "" {
		if opts.Columns, err = strconv.Atoi(v); err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "columns: %q is not an integer", v)
		}
	}
	if v := q.Get("gutter"); v != "" {
		if opts.Gutter, err = strconv.ParseFloat(v, 64); err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "gutter: %q is not a number", v)
		}
	}
	if v := q.Get("scale"); v != "" {
		if opts.Scale, err = strconv.ParseFloat(v, 64); err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "scale: %q is not a number", v)
		}
	}
	opts.Balance = q.Get("balance")
	opts.Debug = queryBool(q.Get("debug"))
	opts.Tags = queryBool(q.Get("tags"))
	opts.Refresh = queryBool(q.Get("refresh"))
	return opts, nil
}

func queryBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

// requestFormat picks the document format of the request body.
func requestFormat(r *http.Request) document.Format {
	switch strings.ToLower(r.URL.Query().Get("input")) {
	case "json":
		return document.FormatJSON
	case "toml":
		return document.FormatTOML
	}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" || strings.HasSuffix(mt, "+json") {
		return document.FormatJSON
	}
	return document.FormatTOML
}

func cacheStatus(info pipeline.CacheInfo) string {
	switch {
	case info.RenderHit:
		return "hit"
	case info.LayoutHit:
		return "layout"
	}
	return "miss"
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	if code.IsLayout() {
		return http.StatusUnprocessableEntity
	}
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidDocument:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	var maxErr *http.MaxBytesError
	status := statusFor(code)
	if errors.As(err, &maxErr) {
		status = http.StatusRequestEntityTooLarge
	}
	id := RequestID(r.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", id, "error", err)
	}
	writeJSON(w, status, errorResponse{
		Code:      code,
		Message:   errors.UserMessage(err),
		Hints:     errors.Hints(err),
		RequestID: id,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
