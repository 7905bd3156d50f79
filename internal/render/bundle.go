package render

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrNothingToBundle is returned when none of the PDFs exist.
var ErrNothingToBundle = errors.New("no documents to bundle")

// Bundle writes <base>.zip holding whichever of the given files exist and
// returns its path.
func (r *Renderer) Bundle(meta Meta, files ...string) (string, error) {
	var present []string
	for _, f := range files {
		if f == "" {
			continue
		}
		if st, err := os.Stat(f); err == nil && !st.IsDir() {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return "", ErrNothingToBundle
	}

	path := filepath.Join(r.RunDir(meta), r.Base(meta)+".zip")
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create bundle: %w", err)
	}

	zw := zip.NewWriter(out)
	for _, f := range present {
		if err := addFile(zw, f); err != nil {
			zw.Close()
			out.Close()
			return "", err
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return "", fmt.Errorf("finish bundle: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close bundle: %w", err)
	}
	return path, nil
}

func addFile(zw *zip.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = filepath.Base(path)
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("add %s: %w", hdr.Name, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("copy %s: %w", hdr.Name, err)
	}
	return nil
}
