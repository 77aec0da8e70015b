package mcpserver

import (
	"bytes"
	"context"
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.md
var promptFiles embed.FS

// prompt is one embedded workflow prompt. The file name without .md is
// the prompt name.
type prompt struct {
	Name        string
	Description string `yaml:"description"`
	Body        string
}

var frontmatterFence = []byte("---\n")

// loadPrompts reads every embedded prompt in name order. Unreadable files
// are skipped.
func loadPrompts(fsys fs.FS) []prompt {
	matches, err := fs.Glob(fsys, "prompts/*.md")
	if err != nil {
		return nil
	}
	sort.Strings(matches)

	prompts := make([]prompt, 0, len(matches))
	for _, file := range matches {
		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			continue
		}
		p := parsePrompt(content)
		p.Name = strings.TrimSuffix(path.Base(file), ".md")
		prompts = append(prompts, p)
	}
	return prompts
}

// parsePrompt splits optional YAML frontmatter from the prompt body.
// Content with missing or malformed frontmatter is returned whole as the body.
func parsePrompt(content []byte) prompt {
	whole := prompt{Body: string(content)}
	if !bytes.HasPrefix(content, frontmatterFence) {
		return whole
	}

	rest := content[len(frontmatterFence):]
	header, body, ok := bytes.Cut(rest, append([]byte("\n"), frontmatterFence...))
	if !ok {
		return whole
	}

	var p prompt
	if err := yaml.Unmarshal(header, &p); err != nil {
		return whole
	}
	p.Body = string(bytes.TrimPrefix(body, []byte("\n")))
	return p
}

func (s *Server) registerPrompts() {
	for _, p := range loadPrompts(promptFiles) {
		s.server.AddPrompt(&mcp.Prompt{
			Name:        p.Name,
			Description: p.Description,
		}, p.handler())
	}
}

func (p prompt) handler() mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return &mcp.GetPromptResult{
			Description: p.Description,
			Messages: []*mcp.PromptMessage{
				{Role: "user", Content: &mcp.TextContent{Text: p.Body}},
			},
		}, nil
	}
}
