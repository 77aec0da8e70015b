// Package templates extracts route references, internal links and
// include/extends relationships from template files and reports route
// names that no template references.
package templates

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/panbanda/deadroute/internal/cache"
	"github.com/panbanda/deadroute/internal/fileproc"
	"github.com/panbanda/deadroute/internal/scanner"
	"github.com/panbanda/deadroute/pkg/analyzer"
	"github.com/panbanda/deadroute/pkg/config"
	"github.com/panbanda/deadroute/pkg/source"
)

// Discoverer lists the template files under a root directory.
type Discoverer interface {
	ScanDir(root string) ([]string, error)
}

// Analyzer owns the accumulated analysis state for one template tree.
// It is safe for concurrent use; separate Analyzers share nothing.
type Analyzer struct {
	discoverer Discoverer
	workers    int
	cache      *cache.Cache

	mu       sync.RWMutex
	records  map[string]*Record
	urlRefs  map[string]Set
	includes map[string]Set
	extends  map[string]Set
}

// Compile-time check that Analyzer implements SourceAnalyzer.
var _ analyzer.SourceAnalyzer[map[string]*Record] = (*Analyzer)(nil)

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithConfig discovers templates with the configured extensions and
// exclusions and extracts with the configured worker count.
func WithConfig(cfg *config.Config) Option {
	return func(a *Analyzer) {
		a.discoverer = scanner.NewScanner(cfg)
		a.workers = cfg.Analysis.Workers
	}
}

// WithDiscoverer replaces template discovery.
func WithDiscoverer(d Discoverer) Option {
	return func(a *Analyzer) {
		a.discoverer = d
	}
}

// WithWorkers sets the extraction worker count (<= 0 means 2x NumCPU).
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.workers = n
	}
}

// WithCache reuses extraction results for templates whose content hash
// is unchanged.
func WithCache(c *cache.Cache) Option {
	return func(a *Analyzer) {
		a.cache = c
	}
}

// New creates an analyzer with empty state.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		discoverer: scanner.NewScanner(nil),
		records:    make(map[string]*Record),
		urlRefs:    make(map[string]Set),
		includes:   make(map[string]Set),
		extends:    make(map[string]Set),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeAll discovers every template under root and analyzes it,
// returning the full identity -> record map accumulated so far.
//
// Per-template read and decode failures are recorded on the records.
// Only a discovery failure (for example a missing root) is returned as an
// error, and in that case the state is left untouched.
func (a *Analyzer) AnalyzeAll(ctx context.Context, root string) (map[string]*Record, error) {
	files, err := a.discoverer.ScanDir(root)
	if err != nil {
		return nil, err
	}
	if _, err := a.Analyze(ctx, files, source.NewFilesystem()); err != nil {
		return nil, err
	}
	return a.Records(), nil
}

// Analyze extracts every file read through src and merges the records
// into the state. It returns the records of this batch only.
//
// Extraction runs in parallel; the merge applies records in identity
// order under one lock, so the final state does not depend on scheduling.
// A cancelled context leaves the state untouched.
func (a *Analyzer) Analyze(ctx context.Context, files []string, src analyzer.ContentSource) (map[string]*Record, error) {
	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.Add(len(files))
	}

	var onProgress fileproc.ProgressFunc
	if tracker != nil {
		onProgress = tracker.Tick
	}

	records, err := fileproc.Map(ctx, files, a.workers, func(path string) (*Record, error) {
		data, err := src.Read(path)
		if err != nil {
			return failedRecord(path, &ReadError{Path: path, Err: err}), nil
		}
		return a.extract(path, data), nil
	}, onProgress)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Template < records[j].Template
	})

	batch := make(map[string]*Record, len(records))
	a.mu.Lock()
	for _, rec := range records {
		a.storeLocked(rec)
		batch[rec.Template] = rec.clone()
	}
	a.mu.Unlock()

	return batch, nil
}

// AnalyzeFile reads and analyzes one template, replacing any earlier
// record for the same path.
func (a *Analyzer) AnalyzeFile(path string) *Record {
	data, err := os.ReadFile(path)
	if err != nil {
		return a.store(failedRecord(path, &ReadError{Path: path, Err: err}))
	}
	return a.store(a.extract(path, data))
}

// AnalyzeBytes analyzes raw template bytes under the given identity.
func (a *Analyzer) AnalyzeBytes(identity string, data []byte) *Record {
	return a.store(a.extract(identity, data))
}

// AnalyzeContent analyzes template text under the given identity.
func (a *Analyzer) AnalyzeContent(identity, content string) *Record {
	return a.AnalyzeBytes(identity, []byte(content))
}

// extract builds a record from raw bytes without touching the state.
func (a *Analyzer) extract(identity string, data []byte) *Record {
	hash := cache.HashBytes(data)

	if rec, ok := a.cached(identity, hash); ok {
		return rec
	}

	if !utf8.Valid(data) {
		rec := failedRecord(identity, &DecodeError{Path: identity, Offset: invalidUTF8Offset(data)})
		rec.Hash = hash
		return rec
	}

	rec := newRecord(identity, Extract(string(data)))
	rec.Hash = hash
	a.remember(rec)
	return rec
}

func (a *Analyzer) cached(identity, hash string) (*Record, bool) {
	if !a.cache.Enabled() {
		return nil, false
	}
	data, ok := a.cache.GetWithHash(identity, hash)
	if !ok {
		return nil, false
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil || rec.Failed() {
		return nil, false
	}
	rec.Template = identity
	rec.Hash = hash
	for _, s := range []*Set{&rec.URLs, &rec.Hrefs, &rec.Includes, &rec.Extends} {
		if *s == nil {
			*s = make(Set)
		}
	}
	return &rec, true
}

// remember stores a successful record in the cache. Cache write failures
// only cost a future re-extraction.
func (a *Analyzer) remember(rec *Record) {
	if !a.cache.Enabled() {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	_ = a.cache.SetWithHash(rec.Template, rec.Hash, data)
}

func invalidUTF8Offset(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(data)
}

func (a *Analyzer) store(rec *Record) *Record {
	a.mu.Lock()
	a.storeLocked(rec)
	a.mu.Unlock()
	return rec.clone()
}

// Remove drops every view of identity, for a template that no longer
// exists. It reports whether a record was present.
func (a *Analyzer) Remove(identity string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.records[identity]; !ok {
		return false
	}
	delete(a.records, identity)
	delete(a.urlRefs, identity)
	delete(a.includes, identity)
	delete(a.extends, identity)
	return true
}

// storeLocked replaces every view of rec.Template. Callers hold a.mu.
func (a *Analyzer) storeLocked(rec *Record) {
	a.records[rec.Template] = rec
	a.urlRefs[rec.Template] = rec.URLs
	a.includes[rec.Template] = rec.Includes
	a.extends[rec.Template] = rec.Extends
}

// Len returns the number of analyzed templates.
func (a *Analyzer) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.records)
}

// Records returns a copy of every record, keyed by template identity.
func (a *Analyzer) Records() map[string]*Record {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[string]*Record, len(a.records))
	for id, rec := range a.records {
		out[id] = rec.clone()
	}
	return out
}

// Record returns a copy of the record for identity.
func (a *Analyzer) Record(identity string) (*Record, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	rec, ok := a.records[identity]
	if !ok {
		return nil, false
	}
	return rec.clone(), true
}

// Failed returns the records that carry an error, sorted by identity.
func (a *Analyzer) Failed() []*Record {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []*Record
	for _, rec := range a.records {
		if rec.Failed() {
			out = append(out, rec.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Template < out[j].Template })
	return out
}

// ReferencesByTemplate returns each template's route-reference set.
func (a *Analyzer) ReferencesByTemplate() map[string]Set {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return cloneGraph(a.urlRefs)
}

// Relationships returns the include and extends graphs.
func (a *Analyzer) Relationships() Relationships {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Relationships{
		Includes: cloneGraph(a.includes),
		Extends:  cloneGraph(a.extends),
	}
}

// AllReferencedURLNames returns the union of every template's route references.
func (a *Analyzer) AllReferencedURLNames() Set {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(Set)
	for _, refs := range a.urlRefs {
		out.AddAll(refs)
	}
	return out
}

// UnusedURLNames returns the defined names no analyzed template references.
// Referenced names missing from defined are never reported. defined is not
// modified.
func (a *Analyzer) UnusedURLNames(defined Set) Set {
	return defined.Difference(a.AllReferencedURLNames())
}

// InternalLinks returns the union of every template's internal links.
func (a *Analyzer) InternalLinks() Set {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(Set)
	for _, rec := range a.records {
		out.AddAll(rec.Hrefs)
	}
	return out
}

func cloneGraph(g map[string]Set) map[string]Set {
	out := make(map[string]Set, len(g))
	for k, v := range g {
		out[k] = v.Clone()
	}
	return out
}
