package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/flowset/pkg/errors"
	"github.com/matzehuels/flowset/pkg/pipeline"
)

// Palette (ANSI 256).
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleCached      = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed    = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
)

// statusKind selects the icon and colour of a status line.
type statusKind int

const (
	statusSuccess statusKind = iota
	statusError
	statusWarning
	statusInfo
)

var statusIcons = map[statusKind]struct {
	icon  string
	style lipgloss.Style
}{
	statusSuccess: {"✓", lipgloss.NewStyle().Foreground(colorGreen)},
	statusError:   {"✗", lipgloss.NewStyle().Foreground(colorRed)},
	statusWarning: {"!", lipgloss.NewStyle().Foreground(colorYellow)},
	statusInfo:    {"›", lipgloss.NewStyle().Foreground(colorGray)},
}

// stdout receives all human-readable command output.
var stdout io.Writer = os.Stdout

func status(kind statusKind, msg string) {
	s := statusIcons[kind]
	if kind == statusWarning {
		msg = StyleWarning.Render(msg)
	}
	fmt.Fprintln(stdout, s.style.Render(s.icon)+" "+msg)
}

func printSuccess(format string, args ...any) { status(statusSuccess, fmt.Sprintf(format, args...)) }
func printError(format string, args ...any)   { status(statusError, fmt.Sprintf(format, args...)) }
func printWarning(format string, args ...any) { status(statusWarning, fmt.Sprintf(format, args...)) }
func printInfo(format string, args ...any)    { status(statusInfo, fmt.Sprintf(format, args...)) }

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render("→")+" "+StyleValue.Render(path))
}

func printStats(res *pipeline.Result) {
	fmt.Fprintln(stdout, "  "+statsLine(res))
}

// statsLine summarizes a result: child and page counts, warnings and
// where the output came from.
func statsLine(res *pipeline.Result) string {
	parts := []string{fmt.Sprintf("%d children", res.Stats.Children)}
	if res.Stats.Pages > 0 {
		parts = append(parts, fmt.Sprintf("%d pages", res.Stats.Pages))
	}
	if n := len(res.Warnings); n > 0 {
		parts = append(parts, fmt.Sprintf("%d warnings", n))
	}
	switch {
	case res.CacheInfo.RenderHit:
		parts = append(parts, styleCached.Render("cached"))
	case res.CacheInfo.LayoutHit:
		parts = append(parts, styleCached.Render("memoized"))
	default:
		parts = append(parts, styleComputed.Render("fresh"))
	}
	for i, p := range parts {
		parts[i] = StyleDim.Render(p)
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() { fmt.Fprintln(stdout) }

// FormatError renders err for the terminal: the message on the first line
// and one dimmed line per hint.
func FormatError(err error) string {
	var b strings.Builder
	s := statusIcons[statusError]
	b.WriteString(s.style.Render(s.icon) + " " + err.Error())
	for _, h := range errors.Hints(err) {
		b.WriteString("\n  " + StyleDim.Render("hint: "+h))
	}
	return b.String()
}
