package artifact

import (
	"fmt"
	"strings"

	"github.com/codeseed-ai/codeseed/internal/models"
)

// SandboxAttrs is the sandbox policy for the preview inline frame: scripts
// and same-origin allowed, no navigation.
const SandboxAttrs = "allow-scripts allow-same-origin"

// BuildPreviewDoc produces the document rendered into the sandboxed preview
// frame. HTML (or anything containing markup) renders as-is; CSS and
// JavaScript are wrapped in a minimal shell. ok is false for languages with
// no sensible preview, where the viewer should point at the Code tab instead.
func BuildPreviewDoc(block models.CodeBlock) (doc string, ok bool) {
	lang := strings.ToLower(block.Language)

	if lang == "html" || strings.Contains(block.Code, "<") {
		return block.Code, true
	}

	switch lang {
	case "css":
		return fmt.Sprintf("<!DOCTYPE html><html><head><style>\n%s\n</style></head><body></body></html>", block.Code), true
	case "js", "javascript":
		return fmt.Sprintf("<!DOCTYPE html><html><body><script>\n%s\n</script></body></html>", block.Code), true
	}
	return "", false
}
