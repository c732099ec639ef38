package download

import (
	"os"

	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

// renameInto applies the NNN_ filename discipline to a freshly
// downloaded file. Rename rather than copy: source and destination are
// always on work_dir's filesystem.
func renameInto(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return xerrors.New(err).
			Category(xerrors.CategoryFileIO).
			Component("download").
			FileContext(src, 0).
			Build()
	}
	return nil
}
