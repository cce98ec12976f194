// Package markdown provides a Normaliser for Markdown documents.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".md", ".markdown", ".mdx"}
}

// Normalise strips Markdown syntax and takes the first heading as title.
// Code stays in the text; only the fences and backticks are removed.
func (n *Normaliser) Normalise(_ context.Context, raw []byte) (*domain.NormalisedText, error) {
	content := strings.ToValidUTF8(string(raw), "")
	content = frontMatter.ReplaceAllString(content, "")
	return &domain.NormalisedText{
		Title: extractTitle(content),
		Text:  stripMarkdown(content),
	}, nil
}

var (
	frontMatter  = regexp.MustCompile(`(?s)\A---\n.*?\n---\n`)
	heading      = regexp.MustCompile(`^(#{1,6})[ \t]+(.+?)[ \t]*#*[ \t]*$`)
	fence        = regexp.MustCompile("(?m)^[ \t]*(```|~~~).*$")
	inlineCode   = regexp.MustCompile("`([^`\n]+)`")
	image        = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	link         = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	refLink      = regexp.MustCompile(`(?m)^[ \t]*\[[^\]]+\]:[ \t]+\S+.*$`)
	strong       = regexp.MustCompile(`(\*\*|__)(\S(?:.*?\S)?)(\*\*|__)`)
	emphasis     = regexp.MustCompile(`(^|[\s(])[*_](\S(?:[^*_\n]*\S)?)[*_]`)
	headingMark  = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	blockquote   = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	rule         = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	listMarker   = regexp.MustCompile(`(?m)^([ \t]*)([-*+]|\d+[.)])[ \t]+`)
	htmlComment  = regexp.MustCompile(`(?s)<!--.*?-->`)
	excessBlanks = regexp.MustCompile(`\n{3,}`)
)

// extractTitle returns the text of the first level-one heading, or of the
// first heading of any level when there is no level-one heading.
func extractTitle(content string) string {
	first := ""
	inFence := false
	for _, line := range strings.Split(content, "\n") {
		if fence.MatchString(line) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		m := heading.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := strings.TrimSpace(stripInline(m[2]))
		if len(m[1]) == 1 {
			return text
		}
		if first == "" {
			first = text
		}
	}
	return first
}

func stripInline(s string) string {
	s = image.ReplaceAllString(s, "$1")
	s = link.ReplaceAllString(s, "$1")
	s = inlineCode.ReplaceAllString(s, "$1")
	s = strong.ReplaceAllString(s, "$2")
	s = emphasis.ReplaceAllString(s, "$1$2")
	return s
}

// stripMarkdown removes common Markdown formatting, keeping the words.
func stripMarkdown(content string) string {
	content = htmlComment.ReplaceAllString(content, "")
	content = fence.ReplaceAllString(content, "")
	content = refLink.ReplaceAllString(content, "")
	content = rule.ReplaceAllString(content, "")
	content = headingMark.ReplaceAllString(content, "")
	content = blockquote.ReplaceAllString(content, "")
	content = listMarker.ReplaceAllString(content, "$1")
	content = stripInline(content)
	content = excessBlanks.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
