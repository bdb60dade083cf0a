// Package extract turns raw LLM markdown into structured code-block records.
//
// Model output is untrusted, loosely structured text, so this is a tolerant
// regex scanner with best-effort fallbacks rather than a strict markdown
// parser. Nested triple-backtick sequences inside a fence are not supported;
// the scan is non-recursive.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/codeseed-ai/codeseed/internal/models"
)

const detailsWindow = 1000

var (
	fenceRe = regexp.MustCompile("(?s)```(\\w+)?\\n(.*?)```")

	commentRe    = regexp.MustCompile(`(?i)(?://|/\*)\s*(?:Component|Component Name):\s*([^\n*]+)`)
	identifierRe = regexp.MustCompile(`(?:class|function|const)\s+([A-Za-z_][A-Za-z0-9_]*)\s*(?:extends|=|\()`)
	titleRe      = regexp.MustCompile(`(?i)<h1[^>]*>([^<]+)</h1>|title[=:]\s*['"]+([^'"]+)['"]`)

	bulletRe   = regexp.MustCompile(`(?m)^[ \t]*[-•*][ \t]+(.+)$`)
	numberedRe = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+(.+)$`)
	sentenceRe = regexp.MustCompile(`[^.!?\n]+[.!?]`)
)

// CodeBlocks scans content for fenced code segments and returns them in
// document order. A fence without a language tag defaults to "text"; an
// unterminated fence is simply not matched; an empty body still yields a
// block.
func CodeBlocks(content string) []models.CodeBlock {
	matches := fenceRe.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil
	}

	blocks := make([]models.CodeBlock, 0, len(matches))
	componentIndex := 0

	for i, m := range matches {
		language := "text"
		if m[2] >= 0 {
			language = content[m[2]:m[3]]
		}
		code := strings.TrimSpace(content[m[4]:m[5]])

		description := describe(code)
		if description == "" {
			componentIndex++
			description = "Component " + strconv.Itoa(componentIndex)
		}

		start := m[0] - detailsWindow
		if start < 0 {
			start = 0
		}
		before := content[start:m[0]]

		// Text between this fence and the next one (or end of content).
		afterEnd := len(content)
		if i+1 < len(matches) {
			afterEnd = matches[i+1][0]
		}
		after := content[m[1]:afterEnd]

		blocks = append(blocks, models.CodeBlock{
			Language:    language,
			Code:        code,
			Description: description,
			Details:     details(before, after),
		})
	}

	return blocks
}

// describe labels a block from its own code: an explicit Component comment,
// then a class/function/const identifier, then an h1 or title attribute.
// Returns "" when nothing matches.
func describe(code string) string {
	if m := commentRe.FindStringSubmatch(code); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := identifierRe.FindStringSubmatch(code); m != nil {
		return m[1]
	}
	if m := titleRe.FindStringSubmatch(code); m != nil {
		if m[1] != "" {
			return m[1]
		}
		return m[2]
	}
	return ""
}

// details prefers bullet or numbered lines before the fence, then the same
// scan on the text after it, then the trailing one or two sentences before
// the fence when they look like a description.
func details(before, after string) string {
	lines := listLines(before)
	if len(lines) == 0 {
		lines = listLines(after)
	}
	if len(lines) > 0 {
		return strings.Join(lines, "\n")
	}

	sentences := sentenceRe.FindAllString(before, -1)
	if len(sentences) > 0 {
		if len(sentences) > 2 {
			sentences = sentences[len(sentences)-2:]
		}
		for i := range sentences {
			sentences[i] = strings.TrimSpace(sentences[i])
		}
		joined := strings.Join(sentences, " ")
		if len(joined) > 10 && len(joined) < 300 {
			return joined
		}
	}
	return ""
}

func listLines(text string) []string {
	var out []string
	for _, re := range []*regexp.Regexp{bulletRe, numberedRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			line := strings.TrimSpace(m[1])
			if line != "" && !strings.HasPrefix(line, "```") {
				out = append(out, line)
			}
		}
	}
	return out
}
