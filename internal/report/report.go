// Package report renders a terminal cost breakdown using lipgloss,
// mirroring the styled-table pattern other CLI token counters in the
// corpus use for their human-readable (non-JSON, non-FOCUS) output.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"

	"github.com/llm-cost/llm-cost/internal/catalog"
	"github.com/llm-cost/llm-cost/internal/cost"
)

// SetNoColor disables lipgloss styling, for non-interactive or
// redirected output.
func SetNoColor(noColor bool) {
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

func styles() (title, section, label lipgloss.Style) {
	purple := lipgloss.Color("99")
	dim := lipgloss.Color("245")

	title = lipgloss.NewStyle().Bold(true).Foreground(purple)
	section = lipgloss.NewStyle().Bold(true).Foreground(purple)
	label = lipgloss.NewStyle().Foreground(dim)
	return
}

// Estimate renders a single-prompt cost estimate.
func Estimate(w io.Writer, modelName string, pd catalog.PriceDef, inputTokens, outputTokens int64, result cost.Result, staleness catalog.Staleness) {
	titleStyle, sectionStyle, labelStyle := styles()

	fmt.Fprintln(w, titleStyle.Render("Cost Estimate: "+modelName))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Input tokens:"), formatInt(inputTokens))
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Output tokens:"), formatInt(outputTokens))
	fmt.Fprintln(w)

	fmt.Fprintln(w, sectionStyle.Render("Cost Breakdown"))

	purple := lipgloss.Color("99")
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(purple).Align(lipgloss.Center)
	cellStyle := lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
	amountCellStyle := cellStyle.Align(lipgloss.Right)

	rows := make([][]string, 0, len(result.Components))
	for _, c := range result.Components {
		rows = append(rows, []string{c.Kind.String(), formatInt(c.Tokens), fmt.Sprintf("$%.6f", c.USD)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(purple)).
		Headers("Component", "Tokens", "Cost").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 || col == 2 {
				return amountCellStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s $%.6f\n", sectionStyle.Render("Total:"), result.TotalUSD)

	if staleness != catalog.Fresh {
		fmt.Fprintln(w)
		warnStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
		fmt.Fprintf(w, "  %s pricing catalogue is %s\n", warnStyle.Render("Warning:"), strings.ToLower(staleness.String()))
	}
}

func formatInt(n int64) string {
	if n < 0 {
		return "-" + formatInt(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		b.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
