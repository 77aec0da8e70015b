package templates

import (
	"sort"
	"time"
)

// TemplateSummary is one template's references in list form.
type TemplateSummary struct {
	Template string   `json:"template" yaml:"template" toon:"template"`
	URLs     []string `json:"urls" yaml:"urls" toon:"urls"`
	Includes []string `json:"includes" yaml:"includes" toon:"includes"`
	Extends  []string `json:"extends" yaml:"extends" toon:"extends"`
	Hrefs    []string `json:"hrefs" yaml:"hrefs" toon:"hrefs"`
	Error    string   `json:"error,omitempty" yaml:"error,omitempty" toon:"error,omitempty"`
}

// FailedTemplate is a template that could not be read or decoded.
type FailedTemplate struct {
	Template string `json:"template" yaml:"template" toon:"template"`
	Error    string `json:"error" yaml:"error" toon:"error"`
}

// Report summarizes an analysis against a set of defined route names.
type Report struct {
	TemplatesAnalyzed int              `json:"templates_analyzed" yaml:"templates_analyzed" toon:"templates_analyzed"`
	DefinedRoutes     int              `json:"defined_routes" yaml:"defined_routes" toon:"defined_routes"`
	Referenced        []string         `json:"referenced" yaml:"referenced" toon:"referenced"`
	Unused            []string         `json:"unused" yaml:"unused" toon:"unused"`
	Undefined         []string         `json:"undefined,omitempty" yaml:"undefined,omitempty" toon:"undefined,omitempty"`
	InternalLinks     []string         `json:"internal_links" yaml:"internal_links" toon:"internal_links"`
	Failed            []FailedTemplate `json:"failed,omitempty" yaml:"failed,omitempty" toon:"failed,omitempty"`
	GeneratedAt       time.Time        `json:"generated_at" yaml:"generated_at" toon:"generated_at"`
}

// Summaries returns every analyzed template in identity order.
func (a *Analyzer) Summaries() []TemplateSummary {
	records := a.Records()

	out := make([]TemplateSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, TemplateSummary{
			Template: rec.Template,
			URLs:     rec.URLs.Sorted(),
			Includes: rec.Includes.Sorted(),
			Extends:  rec.Extends.Sorted(),
			Hrefs:    rec.Hrefs.Sorted(),
			Error:    rec.Error,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Template < out[j].Template })
	return out
}

// Report builds a summary of the current state against defined.
// Undefined lists names referenced by templates but absent from defined;
// it is informational and never part of Unused. With no defined names
// Undefined is left empty.
func (a *Analyzer) Report(defined Set) *Report {
	referenced := a.AllReferencedURLNames()

	r := &Report{
		TemplatesAnalyzed: a.Len(),
		DefinedRoutes:     defined.Len(),
		Referenced:        referenced.Sorted(),
		Unused:            a.UnusedURLNames(defined).Sorted(),
		InternalLinks:     a.InternalLinks().Sorted(),
		GeneratedAt:       time.Now().UTC(),
	}
	if defined.Len() > 0 {
		r.Undefined = referenced.Difference(defined).Sorted()
	}
	for _, rec := range a.Failed() {
		r.Failed = append(r.Failed, FailedTemplate{Template: rec.Template, Error: rec.Error})
	}
	return r
}
