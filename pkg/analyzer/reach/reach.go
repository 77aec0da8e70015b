// Package reach computes which templates can be rendered starting from a set
// of entry-point templates, following include and extends edges.
//
// Templates that no entry point reaches are candidates for removal, and
// route names referenced only from such templates are effectively unused
// even though a template still mentions them.
package reach

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/panbanda/deadroute/pkg/analyzer/templates"
)

// ErrNoEntryPoints is returned when reachability is requested without any
// entry-point template.
var ErrNoEntryPoints = errors.New("no entry-point templates configured")

// Edge kinds.
const (
	KindInclude = "include"
	KindExtends = "extends"
)

// Reference is an include or extends name that matched no analyzed template.
type Reference struct {
	From string `json:"from" yaml:"from" toon:"from"`
	Name string `json:"name" yaml:"name" toon:"name"`
	Kind string `json:"kind" yaml:"kind" toon:"kind"`
}

// Result is the outcome of a reachability analysis.
type Result struct {
	EntryPoints    []string    `json:"entry_points" yaml:"entry_points" toon:"entry_points"`
	MissingEntries []string    `json:"missing_entries,omitempty" yaml:"missing_entries,omitempty" toon:"missing_entries,omitempty"`
	Reachable      []string    `json:"reachable" yaml:"reachable" toon:"reachable"`
	Unreachable    []string    `json:"unreachable" yaml:"unreachable" toon:"unreachable"`
	Unresolved     []Reference `json:"unresolved,omitempty" yaml:"unresolved,omitempty" toon:"unresolved,omitempty"`
	Cycles         [][]string  `json:"cycles,omitempty" yaml:"cycles,omitempty" toon:"cycles,omitempty"`
	// Shadowed route names are defined and referenced, but only from
	// unreachable templates.
	Shadowed []string `json:"shadowed,omitempty" yaml:"shadowed,omitempty" toon:"shadowed,omitempty"`
}

// Analyzer computes template reachability.
type Analyzer struct {
	entryPoints []string
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithEntryPoints sets the templates rendered directly by views. Names are
// resolved the same way as include and extends names.
func WithEntryPoints(names ...string) Option {
	return func(a *Analyzer) {
		a.entryPoints = append(a.entryPoints, names...)
	}
}

// New creates a reachability analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze walks the template graph of t from the configured entry points.
// defined may be nil, in which case Shadowed is left empty.
func (a *Analyzer) Analyze(t *templates.Analyzer, defined templates.Set) (*Result, error) {
	return a.AnalyzeGraph(t.Relationships(), t.ReferencesByTemplate(), defined)
}

// AnalyzeGraph is Analyze over already-extracted relationships and
// per-template route references.
func (a *Analyzer) AnalyzeGraph(rels templates.Relationships, refs map[string]templates.Set, defined templates.Set) (*Result, error) {
	if len(a.entryPoints) == 0 {
		return nil, ErrNoEntryPoints
	}

	tg := build(rels)
	result := &Result{
		EntryPoints: append([]string(nil), a.entryPoints...),
		Unresolved:  tg.unresolved,
		Cycles:      tg.cycles(),
	}

	reached := roaring.New()
	bf := traverse.BreadthFirst{
		Visit: func(n graph.Node) {
			reached.Add(uint32(n.ID()))
		},
	}
	for _, name := range a.entryPoints {
		id, ok := tg.resolve(name)
		if !ok {
			result.MissingEntries = append(result.MissingEntries, name)
			continue
		}
		bf.Walk(tg.g, tg.g.Node(id), nil)
	}

	for id, identity := range tg.ids {
		if reached.Contains(uint32(id)) {
			result.Reachable = append(result.Reachable, identity)
		} else {
			result.Unreachable = append(result.Unreachable, identity)
		}
	}

	result.Shadowed = shadowed(refs, defined, func(identity string) bool {
		id, ok := tg.index[identity]
		return ok && reached.Contains(uint32(id))
	})

	return result, nil
}

// shadowed returns the defined names whose every referencing template is
// unreachable.
func shadowed(refs map[string]templates.Set, defined templates.Set, reachable func(string) bool) []string {
	if defined.Len() == 0 {
		return nil
	}

	live := make(templates.Set)
	dead := make(templates.Set)
	for identity, names := range refs {
		target := dead
		if reachable(identity) {
			target = live
		}
		for name := range names {
			if defined.Has(name) {
				target.Add(name)
			}
		}
	}

	out := dead.Difference(live).Sorted()
	if len(out) == 0 {
		return nil
	}
	return out
}

// templateGraph is the gonum form of the include/extends relationships.
// Node IDs index ids, which is sorted by identity.
type templateGraph struct {
	g          *simple.DirectedGraph
	ids        []string
	index      map[string]int64
	slashed    []string
	selfLoops  []string
	unresolved []Reference
}

func build(rels templates.Relationships) *templateGraph {
	seen := make(templates.Set)
	for identity := range rels.Includes {
		seen.Add(identity)
	}
	for identity := range rels.Extends {
		seen.Add(identity)
	}

	tg := &templateGraph{
		g:     simple.NewDirectedGraph(),
		ids:   seen.Sorted(),
		index: make(map[string]int64, len(seen)),
	}
	tg.slashed = make([]string, len(tg.ids))
	for i, identity := range tg.ids {
		tg.index[identity] = int64(i)
		tg.slashed[i] = filepath.ToSlash(identity)
		tg.g.AddNode(simple.Node(i))
	}

	selfLoops := make(templates.Set)
	for i, identity := range tg.ids {
		from := int64(i)
		for _, edge := range []struct {
			kind  string
			names templates.Set
		}{
			{KindExtends, rels.Extends[identity]},
			{KindInclude, rels.Includes[identity]},
		} {
			for _, name := range edge.names.Sorted() {
				to, ok := tg.resolve(name)
				if !ok {
					tg.unresolved = append(tg.unresolved, Reference{From: identity, Name: name, Kind: edge.kind})
					continue
				}
				// Simple graphs reject self edges.
				if to == from {
					selfLoops.Add(identity)
					continue
				}
				tg.g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
			}
		}
	}
	tg.selfLoops = selfLoops.Sorted()
	return tg
}

// resolve maps a template name to a node: an exact identity match first,
// then the shortest identity ending in "/"+name, ties broken lexically.
func (tg *templateGraph) resolve(name string) (int64, bool) {
	if id, ok := tg.index[name]; ok {
		return id, true
	}

	suffix := "/" + strings.TrimPrefix(filepath.ToSlash(name), "/")
	best := int64(-1)
	for i, s := range tg.slashed {
		if !strings.HasSuffix(s, suffix) {
			continue
		}
		if best < 0 || len(s) < len(tg.slashed[best]) {
			best = int64(i)
		}
	}
	return best, best >= 0
}

// cycles returns include/extends cycles, each sorted, in identity order.
func (tg *templateGraph) cycles() [][]string {
	var out [][]string
	for _, identity := range tg.selfLoops {
		out = append(out, []string{identity})
	}
	for _, scc := range topo.TarjanSCC(tg.g) {
		if len(scc) < 2 {
			continue
		}
		cycle := make([]string, 0, len(scc))
		for _, n := range scc {
			cycle = append(cycle, tg.ids[n.ID()])
		}
		sort.Strings(cycle)
		out = append(out, cycle)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}
