package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/flowset/pkg/errors"
	"github.com/matzehuels/flowset/pkg/layout"
	"github.com/matzehuels/flowset/pkg/pipeline"
)

const testDoc = `
[page]
width = 100
height = 100
repeat = true

[[content]]
kind = "block"
label = "a"
height = 60

[[content]]
kind = "block"
label = "b"
height = 60
`

// runCLI executes the root command with args and an isolated cache dir.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeDoc(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "docs/a.toml", "docs/a"},
		{"out.svg", "a.toml", "out"},
		{"out.tree.svg", "a.toml", "out"},
		{"out", "a.toml", "out"},
		{"out.txt", "a.toml", "out.txt"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestParseFormats(t *testing.T) {
	if got := parseFormats(""); len(got) != 1 || got[0] != pipeline.FormatSVG {
		t.Errorf("parseFormats(\"\") = %v", got)
	}
	got := parseFormats("svg, json")
	if len(got) != 2 || got[1] != "json" {
		t.Errorf("parseFormats() = %v", got)
	}
}

func TestLayoutCommand(t *testing.T) {
	a := writeDoc(t, "a.toml", testDoc)
	b := writeDoc(t, "b.toml", testDoc)

	if _, err := runCLI(t, "layout", a, b); err != nil {
		t.Fatalf("layout: %v", err)
	}
	for _, in := range []string{a, b} {
		data, err := os.ReadFile(strings.TrimSuffix(in, ".toml") + ".layout.json")
		if err != nil {
			t.Fatalf("layout output missing: %v", err)
		}
		var out struct {
			Pages []json.RawMessage `json:"pages"`
		}
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatal(err)
		}
		if len(out.Pages) != 2 {
			t.Errorf("%s: pages = %d, want 2", in, len(out.Pages))
		}
	}
}

func TestLayoutCommandOutputNeedsSingleInput(t *testing.T) {
	a := writeDoc(t, "a.toml", testDoc)
	if _, err := runCLI(t, "layout", "-o", "x.json", a, a); err == nil {
		t.Error("expected error for --output with two inputs")
	}
}

func TestRenderCommand(t *testing.T) {
	in := writeDoc(t, "doc.toml", testDoc)
	base := filepath.Join(filepath.Dir(in), "out")

	if _, err := runCLI(t, "render", in, "-f", "svg,dot,png", "-o", base); err != nil {
		t.Fatalf("render: %v", err)
	}
	svg, err := os.ReadFile(base + ".svg")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte(`id="page-2"`)) {
		t.Error("svg should contain two pages")
	}
	for _, ext := range []string{".dot", ".png"} {
		if _, err := os.Stat(base + ext); err != nil {
			t.Errorf("%s output missing: %v", ext, err)
		}
	}
}

func TestRenderCommandInvalidFormat(t *testing.T) {
	in := writeDoc(t, "doc.toml", testDoc)
	if _, err := runCLI(t, "render", in, "-f", "gif"); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "version:") {
		t.Errorf("version output = %q", out)
	}
}

func TestCachePathCommand(t *testing.T) {
	out, err := runCLI(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(os.Getenv("XDG_CACHE_HOME"), appName); strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}
}

func TestCacheStatsAfterRender(t *testing.T) {
	in := writeDoc(t, "doc.toml", testDoc)
	if _, err := runCLI(t, "render", "-f", "svg", in); err != nil {
		t.Fatalf("render: %v", err)
	}

	// Same XDG_CACHE_HOME as the render above.
	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"cache", "stats"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	if !strings.HasPrefix(out.String(), "1 entries") {
		t.Errorf("cache stats = %q, want one artifact entry", out.String())
	}
}

func TestSummarizePagesRows(t *testing.T) {
	f := layout.NewFrame(layout.Size{X: 100, Y: 50})
	f.Push(layout.Point{X: 0, Y: 0}, layout.Box{Label: "a", Size: layout.Size{X: 100, Y: 20}, To: 20})
	f.Push(layout.Point{X: 0, Y: 20}, layout.Box{Label: "b", Size: layout.Size{X: 100, Y: 30}, From: 10, To: 40})
	f.Push(layout.Point{X: 0, Y: 20}, layout.Rule{Size: layout.Size{X: 50, Y: 1}})

	pages := summarizePages(layout.Fragment{f}, false)
	if len(pages) != 1 || len(pages[0].rows) != 3 {
		t.Fatalf("summarizePages() = %+v", pages)
	}
	if got := pages[0].rows[0][5]; got != "a" {
		t.Errorf("row 0 content = %q, want a", got)
	}
	if got := pages[0].rows[1][5]; got != "b [10.0..40.0]" {
		t.Errorf("row 1 content = %q", got)
	}
}

func TestPageListModel(t *testing.T) {
	pages := []pageSummary{
		{size: layout.Size{X: 100, Y: 100}, rows: [][]string{{"box", "0.0", "0.0", "100.0", "60.0", "a"}}},
		{size: layout.Size{X: 100, Y: 60}, rows: [][]string{{"box", "0.0", "0.0", "100.0", "60.0", "b"}}},
	}
	var m tea.Model = newPageListModel("doc", pages)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if got := m.(PageListModel).Page; got != 1 {
		t.Errorf("page after right = %d, want 1", got)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if got := m.(PageListModel).Page; got != 1 {
		t.Errorf("page should stay at the last page, got %d", got)
	}
	if view := m.View(); !strings.Contains(view, "page 2/2") {
		t.Errorf("view missing page indicator:\n%s", view)
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("q should quit")
	}
}

func TestStatsLine(t *testing.T) {
	res := &pipeline.Result{Stats: pipeline.Stats{Children: 3, Pages: 2}}
	line := statsLine(res)
	for _, want := range []string{"3 children", "2 pages", "fresh"} {
		if !strings.Contains(line, want) {
			t.Errorf("statsLine() = %q, missing %q", line, want)
		}
	}
}

func TestFormatError(t *testing.T) {
	err := fmt.Errorf("layout doc.toml: %w",
		errors.New(errors.ErrCodeInvalidBreak, "pagebreaks are not allowed inside of containers").
			WithHint("use a column break instead"))

	got := FormatError(err)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("FormatError = %q, want message and one hint line", got)
	}
	if !strings.Contains(lines[0], "INVALID_BREAK") || !strings.Contains(lines[1], "use a column break instead") {
		t.Errorf("FormatError = %q", got)
	}
}
