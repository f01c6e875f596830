package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/melonchart/pkg/melon"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success, rank up
	colorYellow = lipgloss.Color("220") // Amber - warnings, new entries
	colorRed    = lipgloss.Color("167") // Soft red - errors, rank down
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber  = lipgloss.NewStyle().Foreground(colorCyan)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleUp   = lipgloss.NewStyle().Foreground(colorGreen)
	styleDown = lipgloss.NewStyle().Foreground(colorRed)
	styleNew  = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

// printError writes an error status line to w, usually stderr.
func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// =============================================================================
// Chart Table
// =============================================================================

// rankChange describes how an entry moved since the previous chart:
// "NEW", "▲3", "▼1" or "-".
func rankChange(e melon.Entry) string {
	switch {
	case e.IsNew || e.LastPos == 0:
		return "NEW"
	case e.LastPos > e.Rank:
		return "▲" + strconv.Itoa(e.LastPos-e.Rank)
	case e.LastPos < e.Rank:
		return "▼" + strconv.Itoa(e.Rank-e.LastPos)
	default:
		return "-"
	}
}

// renderChart renders the header line and a table of at most limit entries
// (all entries when limit <= 0).
func renderChart(ch *melon.Chart, limit int) string {
	entries := ch.Entries()
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		title := e.Title
		if title == "" {
			title = "—"
		}
		rows = append(rows, []string{strconv.Itoa(e.Rank), rankChange(e), title, e.Artist})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "", "Title", "Artist").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			switch col {
			case 0:
				return base.Inherit(StyleNumber).Align(lipgloss.Right)
			case 1:
				switch change := rows[row][1]; {
				case change == "NEW":
					return base.Inherit(styleNew)
				case strings.HasPrefix(change, "▲"):
					return base.Inherit(styleUp)
				case strings.HasPrefix(change, "▼"):
					return base.Inherit(styleDown)
				}
				return base.Inherit(StyleDim)
			case 3:
				return base.Foreground(colorGray)
			}
			return base
		})

	header := StyleTitle.Render(ch.Name)
	if !ch.Date.IsZero() {
		header += " " + StyleDim.Render(ch.Date.Format("2006-01-02 15:04 MST"))
	}
	return header + "\n" + t.Render()
}
