package tools

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/f2lnk/f2lnk-go/internal/subproc"
	"github.com/f2lnk/f2lnk-go/internal/task"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

// maxArchiveMemberBytes mirrors the reference bot's per-member upload
// cap: a zip entry heavier than this can never be uploaded back out, so
// unzipRecipe skips it rather than producing an Output nobody can send.
const maxArchiveMemberBytes = int64(1_950_000_000)

var sevenZipExtractable = map[string]bool{
	".rar": true, ".7z": true, ".tar": true, ".gz": true, ".bz2": true, ".xz": true, ".tgz": true,
}

// zipRecipe implements §4.F's Zip tool: compress every collected input
// into a single .zip, stored with just its base name (no path prefix).
func zipRecipe(ctx context.Context, t *task.Task, downloaded []task.Downloaded, sink StatusSink) ([]Output, error) {
	if len(downloaded) == 0 {
		return nil, xerrors.Newf("zip requires at least 1 input").
			Category(xerrors.CategoryValidation).Component("tools").Build()
	}

	outName := forceExtension(t.OutputName, ".zip")
	outPath := filepath.Join(t.WorkDir, outName)

	f, err := os.Create(outPath)
	if err != nil {
		return nil, xerrors.New(err).Category(xerrors.CategoryFileIO).Component("tools").FileContext(outPath, 0).Build()
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for i, d := range downloaded {
		if err := checkCancel(t); err != nil {
			zw.Close()
			return nil, err
		}
		sink(fmt.Sprintf("adding file %d/%d to archive", i+1, len(downloaded)))
		if err := addZipMember(zw, d.Path); err != nil {
			zw.Close()
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, xerrors.New(err).Category(xerrors.CategoryFileIO).Component("tools").FileContext(outPath, 0).Build()
	}
	return []Output{{Path: outPath}}, nil
}

func addZipMember(zw *zip.Writer, srcPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return xerrors.New(err).Category(xerrors.CategoryFileIO).Component("tools").FileContext(srcPath, 0).Build()
	}
	defer src.Close()

	w, err := zw.Create(filepath.Base(srcPath))
	if err != nil {
		return xerrors.New(err).Category(xerrors.CategoryFileIO).Component("tools").FileContext(srcPath, 0).Build()
	}
	if _, err := io.Copy(w, src); err != nil {
		return xerrors.New(err).Category(xerrors.CategoryFileIO).Component("tools").FileContext(srcPath, 0).Build()
	}
	return nil
}

// unzipRecipe implements §4.F's Unzip tool: extract the single supplied
// archive and return every extracted member as its own Output. Native
// .zip archives use archive/zip directly; every other container format
// (rar/7z/tar/gz/...) shells out to 7z, matching the reference bot's
// fallback behaviour for anything zipfile can't read.
func unzipRecipe(ctx context.Context, t *task.Task, downloaded []task.Downloaded, sink StatusSink) ([]Output, error) {
	if len(downloaded) != 1 {
		return nil, xerrors.Newf("unzip requires exactly 1 archive input, got %d", len(downloaded)).
			Category(xerrors.CategoryValidation).Component("tools").Build()
	}
	archivePath := downloaded[0].Path
	extractDir := filepath.Join(t.WorkDir, "extracted")
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return nil, xerrors.New(err).Category(xerrors.CategoryFileIO).Component("tools").Build()
	}

	ext := strings.ToLower(extOf(archivePath))
	sink("extracting archive")

	if ext == ".zip" {
		if err := extractZipNative(archivePath, extractDir); err != nil {
			return nil, err
		}
	} else {
		if err := extractWithSevenZip(ctx, t, archivePath, extractDir); err != nil {
			return nil, err
		}
	}

	var outputs []Output
	err := filepath.Walk(extractDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if info.Size() == 0 || info.Size() > maxArchiveMemberBytes {
			logger.Warn("skipping extracted member", "path", path, "size", info.Size())
			return nil
		}
		outputs = append(outputs, Output{Path: path})
		return nil
	})
	if err != nil {
		return nil, xerrors.New(err).Category(xerrors.CategoryFileIO).Component("tools").Build()
	}
	if len(outputs) == 0 {
		return nil, xerrors.Newf("archive is empty or extraction produced no usable files").
			Category(xerrors.CategoryTask).Component("tools").Build()
	}
	return outputs, nil
}

func extractZipNative(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return xerrors.New(err).Category(xerrors.CategoryTask).Component("tools").FileContext(archivePath, 0).Build()
	}
	defer r.Close()

	for _, f := range r.File {
		target := filepath.Join(destDir, filepath.Clean(f.Name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return xerrors.Newf("zip member %q escapes extraction directory", f.Name).
				Category(xerrors.CategoryValidation).Component("tools").Build()
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return xerrors.New(err).Category(xerrors.CategoryFileIO).Component("tools").Build()
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return xerrors.New(err).Category(xerrors.CategoryFileIO).Component("tools").Build()
		}
		if err := copyZipEntry(f, target); err != nil {
			return err
		}
	}
	return nil
}

func copyZipEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return xerrors.New(err).Category(xerrors.CategoryFileIO).Component("tools").FileContext(target, 0).Build()
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return xerrors.New(err).Category(xerrors.CategoryFileIO).Component("tools").FileContext(target, 0).Build()
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return xerrors.New(err).Category(xerrors.CategoryFileIO).Component("tools").FileContext(target, 0).Build()
	}
	return nil
}

func extractWithSevenZip(ctx context.Context, t *task.Task, archivePath, destDir string) error {
	args := []string{"x", archivePath, "-o" + destDir, "-y"}
	proc, resultCh := subproc.RunAsync(ctx, "7z", args, subproc.Options{})
	t.RegisterChild(proc)
	asyncRes := <-resultCh
	res, err := asyncRes.Get()
	if err != nil {
		stderrTail := ""
		if res != nil {
			stderrTail = string(res.Stderr)
		}
		return xerrors.Wrap(err).Category(xerrors.CategorySubprocess).Component("tools").
			Context("archive", archivePath).Context("stderr_tail", stderrTail).Build()
	}
	return nil
}
