package cache

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// pack writes paths (relative to base) into w as a gzipped tarball. Entry
// names are slash-separated and relative to base so the archive restores
// anywhere.
func pack(w io.Writer, base string, paths []string) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	for _, p := range paths {
		full := filepath.Join(base, p)
		info, err := os.Lstat(full)
		if err != nil {
			return fmt.Errorf("failed to archive %q: %w", p, err)
		}
		if !info.IsDir() {
			if err := packEntry(tw, full, filepath.ToSlash(p), info); err != nil {
				return err
			}
			continue
		}
		err = filepath.WalkDir(full, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(base, path)
			if err != nil {
				return err
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			return packEntry(tw, path, filepath.ToSlash(rel), info)
		})
		if err != nil {
			return fmt.Errorf("failed to archive %q: %w", p, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

func packEntry(tw *tar.Writer, path, name string, info fs.FileInfo) error {
	link := ""
	if info.Mode()&fs.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			return fmt.Errorf("failed to archive symlink %q: %w", name, err)
		}
		link = target
	} else if !info.Mode().IsRegular() && !info.IsDir() {
		// sockets, devices and friends have no place in a cache archive
		return nil
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return fmt.Errorf("failed to archive %q: %w", name, err)
	}
	hdr.Name = name
	if info.IsDir() {
		hdr.Name += "/"
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("failed to archive %q: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to archive %q: %w", name, err)
	}
	defer f.Close()
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("failed to archive %q: %w", name, err)
	}
	return nil
}

// unpack extracts a gzipped tarball under dest. Entries that would escape
// dest are rejected rather than sanitized.
func unpack(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read archive: %w", err)
		}

		name := filepath.FromSlash(hdr.Name)
		if !filepath.IsLocal(name) {
			return fmt.Errorf("archive entry %q escapes the restore directory", hdr.Name)
		}
		target := filepath.Join(dest, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, fs.FileMode(hdr.Mode)&fs.ModePerm|0700); err != nil {
				return fmt.Errorf("failed to restore %q: %w", hdr.Name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("failed to restore %q: %w", hdr.Name, err)
			}
			if err := writeEntry(target, tr, fs.FileMode(hdr.Mode)&fs.ModePerm); err != nil {
				return fmt.Errorf("failed to restore %q: %w", hdr.Name, err)
			}
		case tar.TypeSymlink:
			if !filepath.IsLocal(filepath.FromSlash(hdr.Linkname)) {
				return fmt.Errorf("archive symlink %q escapes the restore directory", hdr.Name)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("failed to restore %q: %w", hdr.Name, err)
			}
			os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return fmt.Errorf("failed to restore %q: %w", hdr.Name, err)
			}
		default:
			// skip anything exotic
		}
	}
}

func writeEntry(target string, r io.Reader, mode fs.FileMode) error {
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, r)
	return err
}
