package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/flowset/pkg/layout"
)

var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
	headerStyle  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// PageListModel - Interactive page browser
// =============================================================================

// pageSummary is the flattened content of one page.
type pageSummary struct {
	size layout.Size
	rows [][]string
}

// summarizePages flattens every frame of frag into table rows.
func summarizePages(frag layout.Fragment, tags bool) []pageSummary {
	pages := make([]pageSummary, len(frag))
	for i, f := range frag {
		p := pageSummary{size: f.Size()}
		f.Walk(func(pos layout.Point, it layout.Item) {
			if row := itemRow(pos, it, tags); row != nil {
				p.rows = append(p.rows, row)
			}
		})
		pages[i] = p
	}
	return pages
}

func itemRow(pos layout.Point, it layout.Item, tags bool) []string {
	x, y := fmtPt(pos.X), fmtPt(pos.Y)
	switch v := it.(type) {
	case layout.Box:
		label := v.Label
		if v.From > 0 || !v.To.Approx(v.Size.Y) {
			label += fmt.Sprintf(" [%s..%s]", fmtPt(v.From), fmtPt(v.To))
		}
		return []string{"box", x, y, fmtPt(v.Size.X), fmtPt(v.Size.Y), label}
	case layout.TextRun:
		return []string{"text", x, y, fmtPt(v.Width), fmtPt(v.FontSize), truncate(v.Text, 40)}
	case layout.Rule:
		return []string{"rule", x, y, fmtPt(v.Size.X), fmtPt(v.Size.Y), ""}
	case layout.TagItem:
		if !tags {
			return nil
		}
		kind := "start"
		if v.Tag.Kind == layout.TagEnd {
			kind = "end"
		}
		return []string{"tag", x, y, "", "", fmt.Sprintf("%s %T", kind, v.Tag.Elem)}
	}
	return nil
}

func fmtPt(a layout.Abs) string {
	return fmt.Sprintf("%.1f", a.Pt())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// PageListModel is the bubbletea model for browsing laid-out pages.
type PageListModel struct {
	Title  string
	Pages  []pageSummary
	Page   int
	Offset int
	Height int
}

// newPageListModel creates a page browser.
func newPageListModel(title string, pages []pageSummary) PageListModel {
	return PageListModel{Title: title, Pages: pages, Height: 15}
}

func (m PageListModel) Init() tea.Cmd {
	return nil
}

func (m PageListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "right", "l", "n", "pgdown":
			if m.Page < len(m.Pages)-1 {
				m.Page++
				m.Offset = 0
			}
		case "left", "h", "p", "pgup":
			if m.Page > 0 {
				m.Page--
				m.Offset = 0
			}
		case "down", "j":
			if m.Offset+m.Height < m.rowCount() {
				m.Offset++
			}
		case "up", "k":
			if m.Offset > 0 {
				m.Offset--
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-9, 5)
	}
	return m, nil
}

func (m PageListModel) rowCount() int {
	if len(m.Pages) == 0 {
		return 0
	}
	return len(m.Pages[m.Page].rows)
}

func (m PageListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ page  ↑/↓ scroll  q quit"))
	b.WriteString("\n\n")

	if len(m.Pages) == 0 {
		b.WriteString(listDimStyle.Render("  no pages"))
		return b.String()
	}

	page := m.Pages[m.Page]
	end := min(m.Offset+m.Height, len(page.rows))

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Kind", "X", "Y", "W", "H", "Content").
		Rows(page.rows[m.Offset:end]...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(page.rows) {
				return lipgloss.NewStyle()
			}
			switch page.rows[idx][0] {
			case "box":
				return lipgloss.NewStyle().Foreground(colorGreen)
			case "tag":
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  page %d/%d  %s × %s  %d items",
		m.Page+1, len(m.Pages), page.size.X, page.size.Y, len(page.rows))))

	return b.String()
}
