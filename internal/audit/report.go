package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Report is the complete result of one audit run.
type Report struct {
	Root         string    `json:"root"`
	GeneratedAt  time.Time `json:"generatedAt"`
	Snapshot     Snapshot  `json:"snapshot"`
	Stats        Stats     `json:"stats"`
	PackageNames []string  `json:"packageNames"`
	Findings     []Finding `json:"findings"`
}

// Passed reports whether the run produced no findings at all.
func (r *Report) Passed() bool {
	return r != nil && len(r.Findings) == 0
}

// FindingGroup is the findings of one category.
type FindingGroup struct {
	Category Category
	Findings []Finding
}

// Groups returns the non-empty finding groups in fixed category order.
func (r *Report) Groups() []FindingGroup {
	byCategory := make(map[Category][]Finding)
	for _, f := range r.Findings {
		byCategory[f.Category] = append(byCategory[f.Category], f)
	}
	groups := make([]FindingGroup, 0, len(byCategory))
	for _, category := range categoryOrder {
		if findings := byCategory[category]; len(findings) > 0 {
			groups = append(groups, FindingGroup{Category: category, Findings: findings})
		}
	}
	return groups
}

// SortedComponents orders components by statement count descending, then
// path ascending.
func SortedComponents(s Snapshot) []Component {
	sorted := append([]Component(nil), s.Components...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StatementCount != sorted[j].StatementCount {
			return sorted[i].StatementCount > sorted[j].StatementCount
		}
		return sorted[i].Path < sorted[j].Path
	})
	return sorted
}

// MarshalSummary encodes the path -> statement count mapping as an indented
// JSON object whose keys follow SortedComponents.
func MarshalSummary(s Snapshot) ([]byte, error) {
	components := SortedComponents(s)
	if len(components) == 0 {
		return []byte("{}\n"), nil
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, c := range components {
		key, err := json.Marshal(c.Path)
		if err != nil {
			return nil, fmt.Errorf("encode component path: %w", err)
		}
		fmt.Fprintf(&buf, "  %s: %d", key, c.StatementCount)
		if i < len(components)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// WriteSummary replaces the summary file at path atomically.
func WriteSummary(path string, s Snapshot) error {
	data, err := MarshalSummary(s)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	passStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
)

// WriteWarnings prints one line per finding, grouped by category. Styling
// is applied only when styled is true.
func WriteWarnings(w io.Writer, r *Report, styled bool) error {
	render := func(style lipgloss.Style, s string) string {
		if !styled {
			return s
		}
		return style.Render(s)
	}

	if r.Passed() {
		_, err := fmt.Fprintln(w, render(passStyle, fmt.Sprintf("PASS: %d components, %d statements, no findings",
			len(r.Snapshot.Components), r.Snapshot.StatementCount)))
		return err
	}

	for _, group := range r.Groups() {
		if _, err := fmt.Fprintln(w, render(headingStyle, fmt.Sprintf("%s (%d)", group.Category, len(group.Findings)))); err != nil {
			return err
		}
		for _, f := range group.Findings {
			if _, err := fmt.Fprintf(w, "  [%s] %s: %s\n", f.Category, strings.Join(f.Paths, ", "), f.Message); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, render(headingStyle, fmt.Sprintf("FAIL: %d findings", len(r.Findings))))
	return err
}

const markdownTemplate = `# Architecture report

Generated: {{.GeneratedAt.UTC.Format "2006-01-02 15:04:05 UTC"}}
Status: {{if .Passed}}PASS{{else}}FAIL ({{len .Findings}} findings){{end}}

## Components

Mean {{printf "%.2f" .Stats.Mean}} statements, sample stddev {{printf "%.2f" .Stats.StdDev}}.

| Component | Statements | Files |
|-----------|------------|-------|
{{- range sorted .Snapshot}}
| {{.Path}} | {{.StatementCount}} | {{len .Files}} |
{{- end}}
{{range .Groups}}
## {{.Category}}
{{range .Findings}}
- {{.Message}}
{{- end}}
{{end}}`

// RenderMarkdown renders the report as a markdown document.
func RenderMarkdown(r *Report) (string, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"sorted": SortedComponents,
	}).Parse(markdownTemplate)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, r); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return sb.String(), nil
}
