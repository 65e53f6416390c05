package api

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// stageAttachment copies src into a temp file whose name ends in the upload's
// base name, so signal-cli can infer the content type from the extension.
// cleanup removes the file.
func stageAttachment(dir, filename string, src io.Reader) (path string, cleanup func(), err error) {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "." || base == string(filepath.Separator) {
		base = "attachment"
	}
	// CreateTemp treats '*' as the random-part marker.
	base = strings.ReplaceAll(base, "*", "_")

	f, err := os.CreateTemp(dir, "courier-*-"+base)
	if err != nil {
		return "", nil, fmt.Errorf("stage attachment: %w", err)
	}
	remove := func() { _ = os.Remove(f.Name()) }

	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		remove()
		return "", nil, fmt.Errorf("write attachment: %w", err)
	}
	if err := f.Close(); err != nil {
		remove()
		return "", nil, fmt.Errorf("close attachment: %w", err)
	}
	return f.Name(), remove, nil
}
