package artifact

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/codeseed-ai/codeseed/internal/models"
)

var fileExtensions = map[string]string{
	"html":       "html",
	"jsx":        "jsx",
	"css":        "css",
	"js":         "js",
	"javascript": "js",
	"typescript": "ts",
	"python":     "py",
	"json":       "json",
	"xml":        "xml",
	"vue":        "vue",
}

// FileExtension maps a fence language tag to a file extension, defaulting to
// txt for anything unrecognized.
func FileExtension(language string) string {
	if ext, ok := fileExtensions[strings.ToLower(language)]; ok {
		return ext
	}
	return "txt"
}

// ArchiveName builds the download name for an exported artifact: the title
// with whitespace runs collapsed to underscores, plus the current date.
func ArchiveName(title string, now time.Time) string {
	base := strings.Join(strings.Fields(title), "_")
	if base == "" {
		base = "artifact"
	}
	return fmt.Sprintf("%s_%s.zip", base, now.Format("2006-01-02"))
}

// ExportZip bundles every sibling code block of the artifact into a zip
// archive, one entry per block, named by inferred extension.
func ExportZip(a models.Artifact, now time.Time) (data []byte, filename string, err error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	blocks := a.CodeBlocks
	if len(blocks) == 0 {
		blocks = []models.CodeBlock{a.Block}
	}
	for i, block := range blocks {
		name := fmt.Sprintf("file_%d.%s", i+1, FileExtension(block.Language))
		w, werr := zw.Create(name)
		if werr != nil {
			return nil, "", fmt.Errorf("zip entry %s: %w", name, werr)
		}
		if _, werr := w.Write([]byte(block.Code)); werr != nil {
			return nil, "", fmt.Errorf("zip write %s: %w", name, werr)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, "", fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), ArchiveName(a.Title, now), nil
}
