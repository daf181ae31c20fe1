// Package drive downloads invoice folders and documents that are missing
// locally from a shared Google Drive.
package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/invoice-reconciler/internal/fileutils"
	"fjacquet/invoice-reconciler/internal/logging"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	folderMime     = "application/vnd.google-apps.folder"
	googleAppsMime = "application/vnd.google-apps."
	partSuffix     = ".part"
)

// Summary counts the outcome of a sync.
type Summary struct {
	Downloaded int
	Skipped    int
	Failed     int
	NotFound   []string
	Errors     []string
}

func (s *Summary) fail(format string, args ...interface{}) {
	s.Failed++
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

func (s *Summary) merge(o Summary) {
	s.Downloaded += o.Downloaded
	s.Skipped += o.Skipped
	s.Failed += o.Failed
	s.NotFound = append(s.NotFound, o.NotFound...)
	s.Errors = append(s.Errors, o.Errors...)
}

// NewService builds a read-only Drive client from a service account key file.
// Extra options are applied last, so tests can redirect the endpoint.
func NewService(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*drive.Service, error) {
	base := []option.ClientOption{option.WithScopes(drive.DriveReadonlyScope)}
	if credentialsFile != "" {
		if !fileutils.FileExists(credentialsFile) {
			return nil, fmt.Errorf("drive credentials not found: %s", credentialsFile)
		}
		base = append(base, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := drive.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	return svc, nil
}

// Fetcher mirrors remote folders and files into a local tree. Existing local
// files are never overwritten.
type Fetcher struct {
	svc    *drive.Service
	logger logging.Logger
}

// NewFetcher wraps a Drive client.
func NewFetcher(svc *drive.Service, logger logging.Logger) *Fetcher {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Fetcher{svc: svc, logger: logger.WithField(logging.FieldComponent, "drive")}
}

// escapeQuery quotes a value for a Drive query string literal.
func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

// FindFoldersByName returns non-trashed folders whose name contains name.
func (f *Fetcher) FindFoldersByName(ctx context.Context, name string) ([]*drive.File, error) {
	q := fmt.Sprintf("name contains '%s' and mimeType = '%s' and trashed = false", escapeQuery(name), folderMime)
	var out []*drive.File
	err := f.svc.Files.List().Q(q).Fields("nextPageToken, files(id, name, parents)").PageSize(100).
		Pages(ctx, func(page *drive.FileList) error {
			out = append(out, page.Files...)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("folder search for %s failed: %w", name, err)
	}
	return out, nil
}

// FindFileByName returns the first non-folder entry named exactly name.
func (f *Fetcher) FindFileByName(ctx context.Context, name string) (*drive.File, error) {
	q := fmt.Sprintf("name = '%s' and mimeType != '%s' and trashed = false", escapeQuery(name), folderMime)
	res, err := f.svc.Files.List().Q(q).Fields("files(id, name, mimeType)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("file search for %s failed: %w", name, err)
	}
	if len(res.Files) == 0 {
		return nil, nil
	}
	return res.Files[0], nil
}

func (f *Fetcher) children(ctx context.Context, folderID string) ([]*drive.File, error) {
	q := fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(folderID))
	var out []*drive.File
	err := f.svc.Files.List().Q(q).Fields("nextPageToken, files(id, name, mimeType)").PageSize(200).
		Pages(ctx, func(page *drive.FileList) error {
			out = append(out, page.Files...)
			return nil
		})
	return out, err
}

// DownloadFile saves one remote file as localDir/name. A file already present
// locally is skipped.
func (f *Fetcher) DownloadFile(ctx context.Context, fileID, name, localDir string) (bool, error) {
	dest := filepath.Join(localDir, name)
	if fileutils.Exists(dest) {
		f.logger.Debug("Already present", logging.F(logging.FieldFile, dest))
		return false, nil
	}
	if err := fileutils.EnsureDirectoryExists(localDir); err != nil {
		return false, err
	}

	resp, err := f.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return false, fmt.Errorf("download of %s failed: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	part := dest + partSuffix
	out, err := os.Create(part)
	if err != nil {
		return false, err
	}
	_, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(part)
		if copyErr != nil {
			return false, fmt.Errorf("download of %s interrupted: %w", name, copyErr)
		}
		return false, closeErr
	}
	if err := fileutils.Move(part, dest); err != nil {
		_ = os.Remove(part)
		return false, err
	}
	f.logger.Info("Downloaded", logging.F(logging.FieldFile, dest))
	return true, nil
}

// DownloadRecursive mirrors a remote folder into localPath. Google Docs
// native files have no binary content and are skipped.
func (f *Fetcher) DownloadRecursive(ctx context.Context, folderID, localPath string) Summary {
	var s Summary
	items, err := f.children(ctx, folderID)
	if err != nil {
		s.fail("Listing %s failed: %v", localPath, err)
		return s
	}
	if err := fileutils.EnsureDirectoryExists(localPath); err != nil {
		s.fail("%v", err)
		return s
	}
	for _, it := range items {
		switch {
		case it.MimeType == folderMime:
			s.merge(f.DownloadRecursive(ctx, it.Id, filepath.Join(localPath, it.Name)))
		case strings.HasPrefix(it.MimeType, googleAppsMime):
			f.logger.Info("Skipping Google Docs file", logging.F(logging.FieldFile, it.Name))
			s.Skipped++
		default:
			ok, err := f.DownloadFile(ctx, it.Id, it.Name, localPath)
			switch {
			case err != nil:
				f.logger.WithError(err).Error("Download failed", logging.F(logging.FieldFile, it.Name))
				s.fail("Download failed: %s", it.Name)
			case ok:
				s.Downloaded++
			default:
				s.Skipped++
			}
		}
	}
	return s
}

// SyncMissingFolders searches Drive for each folder name and mirrors every
// match under localRoot.
func (f *Fetcher) SyncMissingFolders(ctx context.Context, names []string, localRoot string) Summary {
	var s Summary
	for _, name := range names {
		f.logger.Info("Searching Drive", logging.F(logging.FieldFolder, name))
		found, err := f.FindFoldersByName(ctx, name)
		if err != nil {
			s.fail("%v", err)
			continue
		}
		if len(found) == 0 {
			f.logger.Warn("Folder not found on Drive", logging.F(logging.FieldFolder, name))
			s.NotFound = append(s.NotFound, name)
			continue
		}
		for _, folder := range found {
			s.merge(f.DownloadRecursive(ctx, folder.Id, filepath.Join(localRoot, folder.Name)))
		}
	}
	return s
}

// SyncSpecificFiles downloads files by exact name into localRoot.
func (f *Fetcher) SyncSpecificFiles(ctx context.Context, names []string, localRoot string) Summary {
	var s Summary
	for _, name := range names {
		file, err := f.FindFileByName(ctx, name)
		if err != nil {
			s.fail("%v", err)
			continue
		}
		if file == nil {
			s.NotFound = append(s.NotFound, name)
			continue
		}
		ok, err := f.DownloadFile(ctx, file.Id, file.Name, localRoot)
		switch {
		case err != nil:
			s.fail("Download failed: %s: %v", name, err)
		case ok:
			s.Downloaded++
		default:
			s.Skipped++
		}
	}
	return s
}
