// Package artifact derives displayable artifacts from assistant messages and
// drives the preview/code panel: selection state, tabbed viewing, clipboard
// copy and ZIP export.
//
// Artifacts are never persisted. They are rebuilt from a message's code
// blocks on every read, and their version labels ("v1", "v2", ...) reflect a
// block's position within its message, not a revision history.
package artifact

import (
	"fmt"
	"strings"

	"github.com/codeseed-ai/codeseed/internal/models"
)

// TypeInteractive is the display type for every generated artifact.
const TypeInteractive = "Interactive Artifact"

// Assemble turns an assistant message into one artifact per code block.
// User messages and codeless assistant messages yield nothing; such messages
// render as plain markdown instead. Every artifact carries the entire sibling
// block slice so the Files tab can switch between the blocks of one message.
func Assemble(msgIndex int, msg models.ChatMessage) []models.Artifact {
	if msg.Role != "assistant" || len(msg.CodeBlocks) == 0 {
		return nil
	}

	out := make([]models.Artifact, 0, len(msg.CodeBlocks))
	for i, block := range msg.CodeBlocks {
		title := strings.TrimSpace(block.Description)
		if title == "" {
			title = fmt.Sprintf("Component %d", i+1)
		}
		out = append(out, models.Artifact{
			ID:         fmt.Sprintf("%d-%d", msgIndex, i),
			Title:      title,
			Type:       TypeInteractive,
			Version:    fmt.Sprintf("v%d", i+1),
			CodeBlocks: msg.CodeBlocks,
			Language:   block.Language,
			Details:    block.Details,
			Block:      block,
		})
	}
	return out
}
