package templates

import "fmt"

// Record is the analysis result for exactly one template file.
// Either the four reference sets are populated or Error is set, never both.
type Record struct {
	Template string `json:"template" yaml:"template"`
	URLs     Set    `json:"urls" yaml:"urls"`
	Hrefs    Set    `json:"hrefs" yaml:"hrefs"`
	Includes Set    `json:"includes" yaml:"includes"`
	Extends  Set    `json:"extends" yaml:"extends"`
	Hash     string `json:"hash,omitempty" yaml:"hash,omitempty"` // BLAKE3 of the file bytes
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the template could not be read or decoded.
func (r *Record) Failed() bool {
	return r.Error != ""
}

func (r *Record) clone() *Record {
	return &Record{
		Template: r.Template,
		URLs:     r.URLs.Clone(),
		Hrefs:    r.Hrefs.Clone(),
		Includes: r.Includes.Clone(),
		Extends:  r.Extends.Clone(),
		Hash:     r.Hash,
		Error:    r.Error,
	}
}

func newRecord(identity string, ext Extraction) *Record {
	return &Record{
		Template: identity,
		URLs:     ext.URLs,
		Hrefs:    ext.Hrefs,
		Includes: ext.Includes,
		Extends:  ext.Extends,
	}
}

func failedRecord(identity string, err error) *Record {
	rec := newRecord(identity, emptyExtraction())
	rec.Error = err.Error()
	return rec
}

// Relationships holds the include and extends graphs, keyed by template identity.
type Relationships struct {
	Includes map[string]Set `json:"includes" yaml:"includes"`
	Extends  map[string]Set `json:"extends" yaml:"extends"`
}

// ReadError indicates a template file could not be opened or read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read template %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// DecodeError indicates a template's bytes are not valid UTF-8.
type DecodeError struct {
	Path   string
	Offset int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode template %s: invalid UTF-8 at byte offset %d", e.Path, e.Offset)
}
