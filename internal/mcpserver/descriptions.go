package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// and how to read the result.

func describeTemplateReferences() string {
	return `Lists, per template file, the route names, internal links, included templates and extended templates it references.

USE WHEN:
- Finding which templates link to a given route name
- Checking what a template pulls in through {% include %} and {% extends %}
- Auditing hard-coded internal links (href="/...") that bypass route names

INTERPRETING RESULTS:
- urls are names from {% url "name" %} tags, including namespaced names like "blog:detail"
- hrefs are literal site-relative links; protocol-relative links (//host) are never listed
- A template with an error could not be read or was not valid UTF-8; its sets are empty
- Extraction is textual: references inside comments or untaken branches still count

METRICS RETURNED:
- Per-template: template, urls, includes, extends, hrefs, error`
}

func describeUnusedRoutes() string {
	return `Reports defined route names that no template references, the dead-route candidates.

USE WHEN:
- Cleaning up URL configuration after removing pages
- Reviewing a change that deletes templates
- Finding names referenced by templates but never defined (typos, removed routes)

INTERPRETING RESULTS:
- unused = defined names minus every name referenced by any template
- A name can still be used from Python code (reverse(), redirect()); verify before deleting
- undefined lists referenced names missing from the defined set; it is informational only
- failed templates contributed nothing; an unreadable template can hide a reference

METRICS RETURNED:
- templates_analyzed, defined_routes
- referenced, unused, undefined, internal_links
- failed: templates that could not be read or decoded`
}

func describeTemplateGraph() string {
	return `Returns the template relationship graph built from {% include %} and {% extends %} tags.

USE WHEN:
- Understanding template inheritance before editing a base layout
- Estimating the impact of changing a shared partial
- Finding templates nothing includes or extends

INTERPRETING RESULTS:
- Each edge goes from the referencing template to the referenced template name
- Targets are names as written in the tag, not resolved file paths
- Only templates with at least one include or extends appear as edge sources

METRICS RETURNED:
- templates: number of analyzed templates
- edges: from, to, kind (include or extends)`
}

func describeTemplateReach() string {
	return `Walks include and extends edges from entry-point templates and reports templates no entry point reaches.

USE WHEN:
- Finding orphaned templates that no view can render
- Finding route names that are only referenced from orphaned templates
- Detecting include or extends cycles

INTERPRETING RESULTS:
- Entry points are the templates views render directly (for example render(request, "home.html"))
- unreachable templates are removal candidates when the entry-point list is complete
- shadowed route names are defined and referenced, but only from unreachable templates
- unresolved references name templates that were not found in the analyzed paths
- missing_entries are entry points that matched no analyzed template

METRICS RETURNED:
- entry_points, missing_entries, reachable, unreachable
- unresolved: from, name, kind
- cycles, shadowed`
}
