// Package export packages a project's current snapshot as a zip archive,
// for download and for deployment uploads.
package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"

	"github.com/hatchwork/backend/internal/models"
)

// Archive builds a zip of the snapshot's files. Output is byte-identical
// for a given snapshot: entries are sorted by path and timestamps are
// zeroed, so re-exporting an unchanged project yields the same bytes.
func Archive(state models.AppState) ([]byte, error) {
	paths := make([]string, 0, len(state.Files))
	for p := range state.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range paths {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: p, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("add %q: %w", p, err)
		}
		if _, err := w.Write([]byte(state.Files[p])); err != nil {
			return nil, fmt.Errorf("write %q: %w", p, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
