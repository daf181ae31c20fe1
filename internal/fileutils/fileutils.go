// Package fileutils provides the filesystem primitives shared by the
// reconciler, the staging commands and the report writers.
package fileutils

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"fjacquet/invoice-reconciler/internal/apperror"
)

// FileExists checks if a file exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DirectoryExists checks if a directory exists.
func DirectoryExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Exists reports whether anything (file, directory or link) occupies path.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// EnsureDirectoryExists creates a directory and its parents if needed.
func EnsureDirectoryExists(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// RequireDirectory returns a NotFoundError unless path is a directory.
func RequireDirectory(path string) error {
	if !DirectoryExists(path) {
		return &apperror.NotFoundError{Path: path, Kind: "directory"}
	}
	return nil
}

// ListFilesWithExtension walks dir recursively and returns files whose
// extension matches ext case-insensitively, sorted. An empty ext matches all files.
func ListFilesWithExtension(dir, ext string) ([]string, error) {
	if err := RequireDirectory(dir); err != nil {
		return nil, err
	}
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && (ext == "" || strings.EqualFold(filepath.Ext(path), ext)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files under %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// AtomicWrite writes data to a temp file in the target directory and renames
// it over path, so readers never observe a partial file.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := EnsureDirectoryExists(dir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Move moves a file or directory tree to dest, creating dest's parents.
// It refuses with a CollisionError if dest already exists. When src and dest
// live on different filesystems the entity is copied and then removed.
func Move(src, dest string) error {
	if !Exists(src) {
		return &apperror.NotFoundError{Path: src}
	}
	if Exists(dest) {
		return &apperror.CollisionError{Path: dest}
	}
	if err := EnsureDirectoryExists(filepath.Dir(dest)); err != nil {
		return err
	}

	err := os.Rename(src, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}

	if err := Copy(src, dest, false); err != nil {
		_ = os.RemoveAll(dest)
		return fmt.Errorf("cross-device copy of %s failed: %w", src, err)
	}
	return os.RemoveAll(src)
}

// Copy copies a file or directory tree. With merge set, an existing directory
// at dest is merged into and existing files are overwritten; otherwise dest
// must not exist.
func Copy(src, dest string, merge bool) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !merge && Exists(dest) {
		return &apperror.CollisionError{Path: dest}
	}
	if !info.IsDir() {
		return copyFile(src, dest, info.Mode())
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, fi.Mode())
	})
}

func copyFile(src, dest string, mode fs.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if err := EnsureDirectoryExists(filepath.Dir(dest)); err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(out, in)
	return err
}

// FilterExtension keeps the paths whose extension matches ext
// case-insensitively, in order.
func FilterExtension(paths []string, ext string) []string {
	var out []string
	for _, p := range paths {
		if strings.EqualFold(filepath.Ext(p), ext) {
			out = append(out, p)
		}
	}
	return out
}

// Stem returns the base name without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
