package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_URLTag(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"double quotes", `{% url "home" %}`, []string{"home"}},
		{"single quotes", `{% url 'home' %}`, []string{"home"}},
		{"repeated tag deduplicates", `{% url "home" %}<p>{% url "home" %}</p>`, []string{"home"}},
		{"namespaced name", `{% url "blog:post_detail" post.pk %}`, []string{"blog:post_detail"}},
		{"extra arguments ignored", `{% url 'archive' 2024 month="05" as archive_url %}`, []string{"archive"}},
		{"no whitespace after brace", `{%url "tight" %}`, []string{"tight"}},
		{"extra inner whitespace", "{%   url\t  \"spaced\"   %}", []string{"spaced"}},
		{"keyword case-insensitive", `{% URL "upper" %}{% Url "mixed" %}`, []string{"mixed", "upper"}},
		{"multiple names", `{% url "a" %}{% url "b" %}`, []string{"a", "b"}},
		{"spans lines", "{% url\n  \"wrapped\" %}", []string{"wrapped"}},
		{"unquoted variable not captured", `{% url view_name %}`, []string{}},
		{"not a url tag", `{% urlize text %}{% load url_tags %}`, []string{}},
		{"empty name not captured", `{% url "" %}`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.content)
			assert.Equal(t, tt.want, got.URLs.Sorted())
		})
	}
}

func TestExtract_Href(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"root-relative", `<a href="/a/b">`, []string{"/a/b"}},
		{"single quotes", `<a href='/contact'>`, []string{"/contact"}},
		{"uppercase attribute", `<a HREF="/a/b">`, []string{"/a/b"}},
		{"mixed-case attribute", `<link hRef="/static/site.css">`, []string{"/static/site.css"}},
		{"protocol-relative excluded", `<a href="//evil.com">`, []string{}},
		{"absolute URL excluded", `<a href="http://x.com">`, []string{}},
		{"https URL excluded", `<a href="https://x.com/path">`, []string{}},
		{"relative path excluded", `<a href="about/">`, []string{}},
		{"fragment excluded", `<a href="#top">`, []string{}},
		{"mailto excluded", `<a href="mailto:a@b.c">`, []string{}},
		{"empty excluded", `<a href="">`, []string{}},
		{"unquoted not matched", `<a href=/bare>`, []string{}},
		{"spaces around equals not matched", `<a href = "/spaced">`, []string{}},
		{"root only", `<a href="/">`, []string{"/"}},
		{"query kept verbatim", `<a href="/search?q=1">`, []string{"/search?q=1"}},
		{"backslash kept literally", `<a href="/\evil.com">`, []string{`/\evil.com`}},
		{"deduplicated", `<a href="/x"><a href='/x'>`, []string{"/x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.content)
			assert.Equal(t, tt.want, got.Hrefs.Sorted())
		})
	}
}

func TestExtract_IncludeAndExtends(t *testing.T) {
	content := `{% extends "layouts/base.html" %}
{% include 'partials/nav.html' %}
{% include "partials/nav.html" with active="home" %}
{% include "partials/footer.html" only %}
{% INCLUDE "partials/ads.html" %}
{% include template_name %}`

	got := Extract(content)

	assert.Equal(t, []string{"layouts/base.html"}, got.Extends.Sorted())
	assert.Equal(t, []string{"partials/ads.html", "partials/footer.html", "partials/nav.html"}, got.Includes.Sorted())
}

func TestExtract_MalformedMultipleExtends(t *testing.T) {
	got := Extract(`{% extends "a.html" %}{% extends 'b.html' %}`)
	assert.Equal(t, []string{"a.html", "b.html"}, got.Extends.Sorted())
}

func TestExtract_CombinedTemplate(t *testing.T) {
	content := `{% extends "base.html" %}{% include "nav.html" %}{% url "home" %}<a href="/contact">`

	got := Extract(content)

	assert.Equal(t, []string{"base.html"}, got.Extends.Sorted())
	assert.Equal(t, []string{"nav.html"}, got.Includes.Sorted())
	assert.Equal(t, []string{"home"}, got.URLs.Sorted())
	assert.Equal(t, []string{"/contact"}, got.Hrefs.Sorted())
}

func TestExtract_OverlappingRules(t *testing.T) {
	// One anchor carries both a url tag and a literal href.
	content := `<a href="{% url 'profile' %}">me</a><a href="/profile/">me</a>`

	got := Extract(content)

	assert.Equal(t, []string{"profile"}, got.URLs.Sorted())
	assert.Equal(t, []string{"/profile/"}, got.Hrefs.Sorted())
}

func TestExtract_ConditionalBlocksStillCounted(t *testing.T) {
	content := `{% if user.is_staff %}<a href="{% url 'admin:index' %}">admin</a>{% endif %}
{% comment %}{% url "legacy" %}{% endcomment %}`

	got := Extract(content)
	assert.Equal(t, []string{"admin:index", "legacy"}, got.URLs.Sorted())
}

func TestExtract_Empty(t *testing.T) {
	got := Extract("")
	assert.Equal(t, 0, got.URLs.Len())
	assert.Equal(t, 0, got.Hrefs.Len())
	assert.Equal(t, 0, got.Includes.Len())
	assert.Equal(t, 0, got.Extends.Len())
}

func TestIsInternalLink(t *testing.T) {
	assert.True(t, isInternalLink("/"))
	assert.True(t, isInternalLink("/a"))
	assert.True(t, isInternalLink(`/\evil.com`))
	assert.False(t, isInternalLink("//cdn.example.com/x.js"))
	assert.False(t, isInternalLink("https://example.com"))
	assert.False(t, isInternalLink(""))
}
