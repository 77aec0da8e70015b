package output

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"yaml", FormatYAML},
		{"yml", FormatYAML},
		{"toon", FormatTOON},
		{"mermaid", FormatMermaid},
		{"", FormatText},
		{"invalid", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatterStdout(t *testing.T) {
	f, err := NewFormatter(FormatJSON, "", true)
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}
	defer f.Close()

	if f.Writer() != os.Stdout {
		t.Error("empty output should write to stdout")
	}
	if !f.Colored() {
		t.Error("Colored() should be true for stdout when requested")
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	f, err := NewFormatter(FormatJSON, path, true)
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}
	if f.Colored() {
		t.Error("file output should never be colored")
	}
	if err := f.Output(map[string]int{"unused": 1}); err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"unused": 1`) {
		t.Errorf("file content = %q", data)
	}
}

func TestNewFormatterInvalidPath(t *testing.T) {
	_, err := NewFormatter(FormatText, filepath.Join(t.TempDir(), "missing", "dir", "out.txt"), false)
	if err == nil {
		t.Error("NewFormatter() should fail for an unwritable path")
	}
}

func sampleTable() *Table {
	return NewTable(
		"Template References",
		[]string{"Template", "URLs", "Includes"},
		[][]string{
			{"base.html", "home", "nav.html"},
			{"blog/list.html", "blog:detail", ""},
		},
		[]string{"2 templates", "", ""},
		nil,
	)
}

func TestTableRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleTable().RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Template References", "===", "base.html", "blog:detail", "2 templates"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderText() missing %q in:\n%s", want, out)
		}
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	table := NewTable("Edges", []string{"From", "To"}, [][]string{{"a|b.html", "c.html"}}, nil, nil)

	var buf bytes.Buffer
	if err := table.RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error = %v", err)
	}

	want := "## Edges\n\n| From | To |\n| --- | --- |\n| a\\|b.html | c.html |\n\n"
	if buf.String() != want {
		t.Errorf("RenderMarkdown() = %q, want %q", buf.String(), want)
	}
}

func TestTableRenderData(t *testing.T) {
	rows, ok := sampleTable().RenderData().([]map[string]string)
	if !ok {
		t.Fatalf("RenderData() type = %T", sampleTable().RenderData())
	}
	if len(rows) != 2 || rows[0]["Template"] != "base.html" || rows[1]["URLs"] != "blog:detail" {
		t.Errorf("RenderData() = %v", rows)
	}

	withData := NewTable("", nil, nil, nil, []string{"x"})
	if got, ok := withData.RenderData().([]string); !ok || got[0] != "x" {
		t.Errorf("RenderData() should prefer Data, got %v", withData.RenderData())
	}
}

func TestSectionRender(t *testing.T) {
	s := &Section{
		Title:   "Unused routes",
		Content: "admin",
		Sections: []Section{
			{Title: "Undefined", Content: "ghost"},
		},
	}

	var text bytes.Buffer
	if err := s.RenderText(&text, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text.String(), "Unused routes\n=============\nadmin\n\nUndefined\n---------\nghost\n") {
		t.Errorf("RenderText() = %q", text.String())
	}

	var md bytes.Buffer
	if err := s.RenderMarkdown(&md); err != nil {
		t.Fatal(err)
	}
	if md.String() != "## Unused routes\n\nadmin\n\n### Undefined\n\nghost\n\n" {
		t.Errorf("RenderMarkdown() = %q", md.String())
	}
}

func TestReportRender(t *testing.T) {
	r := &Report{
		Title:    "deadroute",
		Sections: []Renderable{&Section{Title: "Summary", Content: "1 unused"}, sampleTable()},
	}

	var text bytes.Buffer
	if err := r.RenderText(&text, false); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text.String(), "deadroute\n=========\n\nSummary") {
		t.Errorf("RenderText() = %q", text.String())
	}

	var md bytes.Buffer
	if err := r.RenderMarkdown(&md); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(md.String(), "# deadroute\n\n## Summary") {
		t.Errorf("RenderMarkdown() = %q", md.String())
	}

	data, ok := r.RenderData().(map[string]any)
	if !ok || data["title"] != "deadroute" {
		t.Errorf("RenderData() = %v", r.RenderData())
	}
}

type summary struct {
	Unused []string `json:"unused" yaml:"unused" toon:"unused"`
}

func TestFormatterOutputFormats(t *testing.T) {
	data := summary{Unused: []string{"admin", "legacy"}}
	r := &Report{Title: "deadroute", Data: data}

	tests := []struct {
		format Format
		check  func(t *testing.T, out string)
	}{
		{FormatJSON, func(t *testing.T, out string) {
			var got summary
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("invalid JSON %q: %v", out, err)
			}
			if len(got.Unused) != 2 {
				t.Errorf("decoded = %v", got)
			}
		}},
		{FormatYAML, func(t *testing.T, out string) {
			var got summary
			if err := yaml.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("invalid YAML %q: %v", out, err)
			}
			if len(got.Unused) != 2 || got.Unused[1] != "legacy" {
				t.Errorf("decoded = %v", got)
			}
		}},
		{FormatTOON, func(t *testing.T, out string) {
			if !strings.Contains(out, "unused") || !strings.Contains(out, "admin") {
				t.Errorf("TOON output = %q", out)
			}
		}},
		{FormatMarkdown, func(t *testing.T, out string) {
			if !strings.HasPrefix(out, "# deadroute") {
				t.Errorf("markdown output = %q", out)
			}
		}},
		{FormatText, func(t *testing.T, out string) {
			if !strings.HasPrefix(out, "deadroute\n") {
				t.Errorf("text output = %q", out)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewWriterFormatter(tt.format, &buf, false).Output(r); err != nil {
				t.Fatalf("Output() error = %v", err)
			}
			tt.check(t, buf.String())
		})
	}
}

func TestFormatterOutputRaw(t *testing.T) {
	data := map[string]string{"template": "base.html"}

	var js bytes.Buffer
	if err := NewWriterFormatter(FormatText, &js, false).Output(data); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(js.String(), `"template": "base.html"`) {
		t.Errorf("raw text output should fall back to JSON, got %q", js.String())
	}

	var md bytes.Buffer
	if err := NewWriterFormatter(FormatMarkdown, &md, false).Output(data); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(md.String(), "```json\n") || !strings.HasSuffix(md.String(), "```\n") {
		t.Errorf("raw markdown output = %q", md.String())
	}
}

type edges struct{ Report }

func (e *edges) RenderMermaid(w io.Writer) error {
	_, err := io.WriteString(w, "graph LR\n")
	return err
}

func TestFormatterMermaid(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatMermaid, &buf, false)

	if err := f.Output(&edges{}); err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	if buf.String() != "graph LR\n" {
		t.Errorf("mermaid output = %q", buf.String())
	}

	if err := f.Output(sampleTable()); err == nil {
		t.Error("mermaid should be rejected for non-graph output")
	}
}

func TestFormatterMessageMethods(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatText, &buf, false)

	f.Success("found %d templates", 3)
	f.Warning("no templates under %s", "site")
	f.Error("cannot read %s", "x.html")
	f.Info("analyzing")

	want := "found 3 templates\nWARNING: no templates under site\nERROR: cannot read x.html\nanalyzing\n"
	if buf.String() != want {
		t.Errorf("messages = %q, want %q", buf.String(), want)
	}
}

func TestFormatterStatusWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	f, err := NewFormatter(FormatText, path, false)
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}

	var status bytes.Buffer
	f.SetStatus(&status)
	f.Warning("%d templates could not be analyzed", 2)
	if err := f.Output(&Section{Title: "Summary", Content: "ok"}); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	if status.String() != "WARNING: 2 templates could not be analyzed\n" {
		t.Errorf("status = %q", status.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "WARNING") {
		t.Errorf("status messages leaked into the report file: %q", data)
	}

	f.SetStatus(nil)
	f.Info("silenced")
}

func TestCountColor(t *testing.T) {
	if !strings.Contains(CountColor(0), "0") || !strings.Contains(CountColor(4), "4") {
		t.Error("CountColor() should keep the number")
	}
}
