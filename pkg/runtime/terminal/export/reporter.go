package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/de-tools/impact-atlas/pkg/models/domain"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatTable      Format = "table"
	FormatYAML       Format = "yaml"
	FormatJSON       Format = "json"
	FormatPrometheus Format = "prometheus"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatYAML, FormatJSON, FormatPrometheus:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (table, yaml, json, prometheus)", s)
	}
}

// ContentType is the media type used when a rendered report is uploaded.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatJSON:
		return "application/json"
	case FormatPrometheus:
		return "text/plain; version=0.0.4"
	default:
		return "text/plain"
	}
}

func (f Format) Extension() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	case FormatPrometheus:
		return "prom"
	default:
		return "txt"
	}
}

type TableConfig struct {
	DatetimeWidth int
	ValueWidth    int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		DatetimeWidth: 26,
		ValueWidth:    18,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
	format Format
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
		format: FormatTable,
	}
}

func (c *Reporter) SetFormat(format Format) {
	c.format = format
}

func (c *Reporter) Format() Format {
	return c.format
}

func (c *Reporter) Handle(report *domain.Report) error {
	out, err := c.Render(report)
	if err != nil {
		return err
	}
	_, err = c.writer.Write(out)
	return err
}

// Render encodes report in the reporter's current format.
func (c *Reporter) Render(report *domain.Report) ([]byte, error) {
	switch c.format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return nil, fmt.Errorf("failed to encode yaml report: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode yaml report: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode json report: %w", err)
		}
		return append(out, '\n'), nil
	case FormatPrometheus:
		return renderPrometheus(report)
	default:
		return c.renderTable(report)
	}
}

func (c *Reporter) renderTable(report *domain.Report) ([]byte, error) {
	funcMap := template.FuncMap{
		"formatRow": func(datetime interface{}, duration, energy, embodied interface{}) string {
			return fmt.Sprintf("| %-*v | %-*v | %-*v | %-*v |",
				c.config.DatetimeWidth, datetime,
				c.config.ValueWidth, duration,
				c.config.ValueWidth, energy,
				c.config.ValueWidth, embodied)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.DatetimeWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2))
		},
		"sortedKeys": sortedKeys,
	}

	tmpl := `
{{.Title}}{{if .Node}} for {{.Node}} ({{.Model}}){{end}}
Generated: {{.GeneratedAt.Format "2006-01-02 15:04:05"}}
{{if .Rows}}
{{separator}}
{{formatRow "Datetime" "Duration (s)" "Energy (kWh)" "Embodied (gCO2eq)"}}
{{separator}}
{{range .Rows}}{{formatRow .Datetime .Duration .Energy .Embodied}}
{{end}}{{separator}}
{{end}}
=== Totals ===
{{$totals := .Totals}}{{range sortedKeys .Totals}}{{.}}: {{index $totals .}}
{{end}}`

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, report); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

func sortedKeys(m domain.AggregationResult) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
