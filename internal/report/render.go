package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/steamvalue/internal/logging"
)

// Column widths of the results table.
const (
	nameWidth     = 60
	playtimeWidth = 12
	sizeWidth     = 40
	summaryWidth  = 100
)

// Render writes the plain-text report: a header, one row per game, the
// weighted average and the best and worst games.
func Render(w io.Writer, r *Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", header(r))
	for _, e := range r.Entries {
		b.WriteString(row(e))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n%s\n\n", averageLine(r))
	fmt.Fprintf(&b, "%s\n", bestLine(r))
	fmt.Fprintf(&b, "%s\n", worstLine(r))

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderStyled writes the report with colour and a boxed summary. The worst
// game's ratio is highlighted red and the best game's green.
func RenderStyled(w io.Writer, r *Report) error {
	renderer := lipgloss.NewRenderer(w)

	titleStyle := renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	worstStyle := renderer.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	bestStyle := renderer.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	mutedStyle := renderer.NewStyle().Foreground(lipgloss.Color("245"))
	boxStyle := renderer.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(summaryWidth)

	var b strings.Builder
	b.WriteString(titleStyle.Render(header(r)))
	b.WriteString("\n\n")

	last := len(r.Entries) - 1
	for i, e := range r.Entries {
		cells := fmt.Sprintf("%-*s| %-*s | %-*s | ",
			nameWidth, e.Name, playtimeWidth, FormatPlaytime(e.Minutes), sizeWidth, formatSize(e.SizeGB(), e.SizeBytes))
		ratio := FormatRatio(e.Ratio()) + " GB/hr"

		switch i {
		case 0:
			ratio = worstStyle.Render(ratio)
		case last:
			ratio = bestStyle.Render(ratio)
		default:
			ratio = mutedStyle.Render(ratio)
		}
		b.WriteString(cells)
		b.WriteString(ratio)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	summary := strings.Join([]string{
		averageLine(r),
		bestStyle.Render(bestLine(r)),
		worstStyle.Render(worstLine(r)),
	}, "\n")
	b.WriteString(boxStyle.Render(summary))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// Write stores the plain report at path, mirrors it to console and names the
// absolute results path on the last console line. The returned path is absolute.
func Write(ctx context.Context, path string, r *Report, console io.Writer, styled bool) (string, error) {
	log := logging.FromContext(ctx)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving results path: %w", err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, r); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	if err := os.WriteFile(absPath, buf.Bytes(), 0o600); err != nil {
		return "", fmt.Errorf("writing results file: %w", err)
	}
	log.Debug().Str("path", absPath).Int("games", r.Len()).Msg("results written")

	if styled {
		err = RenderStyled(console, r)
	} else {
		_, err = console.Write(buf.Bytes())
	}
	if err != nil {
		return absPath, fmt.Errorf("writing report to console: %w", err)
	}

	if _, err := fmt.Fprintf(console, "The above output has also been written to %s.\n", absPath); err != nil {
		return absPath, fmt.Errorf("writing report to console: %w", err)
	}
	return absPath, nil
}

func header(r *Report) string {
	return fmt.Sprintf("%d games installed and played:", r.Len())
}

func row(e Entry) string {
	return fmt.Sprintf("%-*s| %-*s | %-*s | %s GB/hr",
		nameWidth, e.Name,
		playtimeWidth, FormatPlaytime(e.Minutes),
		sizeWidth, formatSize(e.SizeGB(), e.SizeBytes),
		FormatRatio(e.Ratio()))
}

func averageLine(r *Report) string {
	return fmt.Sprintf("The average game size in GB for one hour of your time is %s GB.", FormatRatio(r.Average()))
}

func bestLine(r *Report) string {
	best := r.Best()
	return fmt.Sprintf("The best value (least GB) per hour played of your games is %s (%s GB/hr).",
		best.Name, FormatRatio(best.Ratio()))
}

func worstLine(r *Report) string {
	worst := r.Worst()
	return fmt.Sprintf("The worst value (most GB) per hour played of your games is %s (%s GB/hr).",
		worst.Name, FormatRatio(worst.Ratio()))
}
