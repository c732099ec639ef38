package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

const splitChunkBytes = 8 * 1024 * 1024

// SplitFile splits path into sequential maxBytes-sized parts under a
// sibling "<name>_parts" directory, returning their paths in order. A
// file already at or under maxBytes is returned unsplit as its own
// single-element slice.
func SplitFile(path string, maxBytes int64) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, xerrors.New(err).Category(xerrors.CategoryFileIO).Component("upload").FileContext(path, 0).Build()
	}
	if info.Size() <= maxBytes {
		return []string{path}, nil
	}

	baseName := filepath.Base(path)
	splitDir := filepath.Join(filepath.Dir(path), baseName+"_parts")
	if err := os.MkdirAll(splitDir, 0o755); err != nil {
		return nil, xerrors.New(err).Category(xerrors.CategoryFileIO).Component("upload").Build()
	}

	src, err := os.Open(path)
	if err != nil {
		return nil, xerrors.New(err).Category(xerrors.CategoryFileIO).Component("upload").FileContext(path, 0).Build()
	}
	defer src.Close()

	var parts []string
	buf := make([]byte, splitChunkBytes)
	for partNum := 1; ; partNum++ {
		partPath := filepath.Join(splitDir, fmt.Sprintf("%s.part%02d", baseName, partNum))
		written, err := writePart(src, partPath, maxBytes, buf)
		if err != nil {
			return nil, err
		}
		if written == 0 {
			os.Remove(partPath)
			break
		}
		parts = append(parts, partPath)
		if written < maxBytes {
			break
		}
	}
	return parts, nil
}

func writePart(src io.Reader, partPath string, maxBytes int64, buf []byte) (int64, error) {
	out, err := os.Create(partPath)
	if err != nil {
		return 0, xerrors.New(err).Category(xerrors.CategoryFileIO).Component("upload").FileContext(partPath, 0).Build()
	}
	defer out.Close()

	var written int64
	for remaining := maxBytes; remaining > 0; {
		chunkSize := int64(len(buf))
		if remaining < chunkSize {
			chunkSize = remaining
		}
		n, readErr := src.Read(buf[:chunkSize])
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return written, xerrors.New(writeErr).Category(xerrors.CategoryFileIO).Component("upload").FileContext(partPath, 0).Build()
			}
			written += int64(n)
			remaining -= int64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return written, xerrors.New(readErr).Category(xerrors.CategoryFileIO).Component("upload").FileContext(partPath, 0).Build()
		}
	}
	return written, nil
}
