package templates

import (
	"regexp"
	"strings"
)

// Extraction holds the references found in one template's text.
type Extraction struct {
	URLs     Set
	Hrefs    Set
	Includes Set
	Extends  Set
}

func emptyExtraction() Extraction {
	return Extraction{
		URLs:     make(Set),
		Hrefs:    make(Set),
		Includes: make(Set),
		Extends:  make(Set),
	}
}

var (
	urlTagPattern  = regexp.MustCompile(`\{%\s*(?i:url)\s+["']([^"']+)["']`)
	includePattern = regexp.MustCompile(`\{%\s*(?i:include)\s+["']([^"']+)["']`)
	extendsPattern = regexp.MustCompile(`\{%\s*(?i:extends)\s+["']([^"']+)["']`)
	hrefPattern    = regexp.MustCompile(`(?i)href=["']([^"']*)["']`)
)

type rule struct {
	regex *regexp.Regexp
	keep  func(string) bool
	into  func(*Extraction) Set
}

// Rules run independently over the full text, so a directive on the same
// line as another is still matched by both.
var rules = []rule{
	{urlTagPattern, nil, func(e *Extraction) Set { return e.URLs }},
	{hrefPattern, isInternalLink, func(e *Extraction) Set { return e.Hrefs }},
	{includePattern, nil, func(e *Extraction) Set { return e.Includes }},
	{extendsPattern, nil, func(e *Extraction) Set { return e.Extends }},
}

// Extract pulls route references, internal links, includes and extends
// out of template text. Repeated references collapse to one entry.
func Extract(content string) Extraction {
	ext := emptyExtraction()
	for _, r := range rules {
		dst := r.into(&ext)
		for _, m := range r.regex.FindAllStringSubmatch(content, -1) {
			if r.keep != nil && !r.keep(m[1]) {
				continue
			}
			dst.Add(m[1])
		}
	}
	return ext
}

// isInternalLink keeps root-relative targets. Protocol-relative values
// ("//host") and absolute URLs are external. Values like "/\host" are
// kept as written.
func isInternalLink(href string) bool {
	return strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//")
}
