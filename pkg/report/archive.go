package report

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ArchiveExt is the extension of archived reports.
const ArchiveExt = ".zip"

// ArchiveName returns the archive name for a report file: same base name, ArchiveExt.
func ArchiveName(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName)) + ArchiveExt
}

// Archive compresses dir/fileName into a single-entry zip next to it and returns
// the archive path. A partially written archive is removed on failure.
func Archive(fileName, dir string) (path string, err error) {
	src, err := os.Open(filepath.Join(dir, fileName))
	if err != nil {
		return "", errors.Wrap(err, "opening report for archiving")
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return "", errors.Wrap(err, "inspecting report")
	}

	path = filepath.Join(dir, ArchiveName(fileName))
	out, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "creating archive %s", path)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "closing archive %s", path)
		}
		if err != nil {
			_ = os.Remove(path)
			path = ""
		}
	}()

	zw := zip.NewWriter(out)
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return "", errors.Wrap(err, "building archive entry")
	}
	hdr.Name = fileName
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return "", errors.Wrap(err, "adding archive entry")
	}
	if _, err := io.Copy(w, src); err != nil {
		return "", errors.Wrap(err, "compressing report")
	}
	if err := zw.Close(); err != nil {
		return "", errors.Wrap(err, "finalizing archive")
	}
	return path, nil
}
