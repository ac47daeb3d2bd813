// Package export writes rating snapshots to files.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/okian/fightelo/internal/adapters/repository"
)

// FileMode is the permission of exported files.
const FileMode os.FileMode = 0o644

// Header is the first CSV row.
var Header = []string{"Fighter", "Elo", "PeakElo", "Matches"}

// WriteCSV writes one row per standing, in the order given.
func WriteCSV(w io.Writer, standings []repository.Standing) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, s := range standings {
		row := []string{
			s.ID,
			formatRating(s.Rating),
			formatRating(s.PeakRating),
			strconv.Itoa(s.MatchCount),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %q: %w", s.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// SnapshotToFile writes the store's current ranking to path. The file is
// written next to its destination and renamed into place, so readers never
// see a partial export.
func SnapshotToFile(ctx context.Context, store repository.Reader, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := WriteCSV(tmp, store.Snapshot(ctx)); err != nil {
		_ = tmp.Close()
		return err
	}
	// CreateTemp opens files as 0600.
	if err := tmp.Chmod(FileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod export file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish export file: %w", err)
	}
	return nil
}

func formatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}
