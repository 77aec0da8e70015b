package watch

import "github.com/panbanda/deadroute/pkg/analyzer/templates"

// Apply brings a up to date with ev. A removed template is dropped from the
// state and nil is returned; otherwise the template is re-analyzed and its
// new record returned, replacing the old one.
func Apply(a *templates.Analyzer, ev Event) *templates.Record {
	if ev.Removed {
		a.Remove(ev.Path)
		return nil
	}
	return a.AnalyzeFile(ev.Path)
}
