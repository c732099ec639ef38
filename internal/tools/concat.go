package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

// writeConcatFile writes an ffmpeg concat-demuxer list file naming
// paths in order, for the stream-copy concat recipes (§4.F: video+video,
// audio+audio, and the cut recipe's reassembly step).
func writeConcatFile(dir, name string, paths []string) (string, error) {
	listPath := filepath.Join(dir, name)
	var b strings.Builder
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		abs = strings.ReplaceAll(abs, `\`, `/`)
		fmt.Fprintf(&b, "file '%s'\n", abs)
	}
	if err := os.WriteFile(listPath, []byte(b.String()), 0o644); err != nil {
		return "", xerrors.New(err).Category(xerrors.CategoryFileIO).Component("tools").FileContext(listPath, 0).Build()
	}
	return listPath, nil
}
