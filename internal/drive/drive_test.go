package drive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"fjacquet/invoice-reconciler/internal/logging"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maxPage = 2

type remoteFile struct {
	ID, Name, Mime, Parent, Content string
}

// fakeDrive serves the subset of the Drive v3 files API the fetcher uses.
func fakeDrive(t *testing.T, files []remoteFile) *Fetcher {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		var out []map[string]string
		for _, f := range files {
			match := false
			switch {
			case strings.Contains(q, "' in parents"):
				match = strings.HasPrefix(q, "'"+f.Parent+"' in parents")
			case strings.HasPrefix(q, "name contains"):
				_, rest, _ := strings.Cut(q, "name contains '")
				needle, _, _ := strings.Cut(rest, "'")
				match = f.Mime == folderMime && strings.Contains(f.Name, needle)
			case strings.HasPrefix(q, "name = "):
				match = f.Mime != folderMime && strings.Contains(q, "'"+f.Name+"'")
			}
			if match {
				out = append(out, map[string]string{"id": f.ID, "name": f.Name, "mimeType": f.Mime})
			}
		}
		// Pages hold at most maxPage entries whatever the client asks for.
		size := maxPage
		if n, err := strconv.Atoi(r.URL.Query().Get("pageSize")); err == nil && n < size {
			size = n
		}
		start, _ := strconv.Atoi(r.URL.Query().Get("pageToken"))
		end := start + size
		resp := map[string]interface{}{}
		if end < len(out) {
			resp["nextPageToken"] = strconv.Itoa(end)
		} else {
			end = len(out)
		}
		if start > end {
			start = end
		}
		resp["files"] = out[start:end]
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/files/")
		for _, f := range files {
			if f.ID == id {
				_, _ = w.Write([]byte(f.Content))
				return
			}
		}
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	svc, err := drive.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewFetcher(svc, logging.NewMockLogger())
}

func tree() []remoteFile {
	return []remoteFile{
		{ID: "d1", Name: "HSL000001", Mime: folderMime},
		{ID: "f1", Name: "FEV_1_HSL000001.pdf", Mime: "application/pdf", Parent: "d1", Content: "pdf-1"},
		{ID: "g1", Name: "notes", Mime: "application/vnd.google-apps.document", Parent: "d1"},
		{ID: "d2", Name: "anexos", Mime: folderMime, Parent: "d1"},
		{ID: "f2", Name: "EPI_1_HSL000001.pdf", Mime: "application/pdf", Parent: "d2", Content: "pdf-2"},
		{ID: "f3", Name: "loose.pdf", Mime: "application/pdf", Content: "loose"},
	}
}

func TestSyncMissingFolders(t *testing.T) {
	f := fakeDrive(t, tree())
	root := t.TempDir()

	s := f.SyncMissingFolders(context.Background(), []string{"HSL000001", "HSL000404"}, root)
	assert.Equal(t, 2, s.Downloaded)
	assert.Equal(t, 1, s.Skipped)
	assert.Zero(t, s.Failed)
	assert.Equal(t, []string{"HSL000404"}, s.NotFound)

	data, err := os.ReadFile(filepath.Join(root, "HSL000001", "anexos", "EPI_1_HSL000001.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "pdf-2", string(data))
	assert.NoFileExists(t, filepath.Join(root, "HSL000001", "notes"))
}

func TestFindFoldersByName_FollowsPages(t *testing.T) {
	files := []remoteFile{{ID: "x", Name: "other", Mime: folderMime}}
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		files = append(files, remoteFile{ID: "d" + id, Name: "HSL00000" + id + "_LOTE", Mime: folderMime})
	}
	f := fakeDrive(t, files)

	found, err := f.FindFoldersByName(context.Background(), "HSL")
	require.NoError(t, err)
	require.Len(t, found, 5)
	assert.Equal(t, "d5", found[4].Id)
}

func TestSyncSpecificFiles_NeverOverwrites(t *testing.T) {
	f := fakeDrive(t, tree())
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "FEV_1_HSL000001.pdf"), []byte("local"), 0644))

	s := f.SyncSpecificFiles(context.Background(), []string{"loose.pdf", "FEV_1_HSL000001.pdf", "ghost.pdf"}, root)
	assert.Equal(t, 1, s.Downloaded)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, []string{"ghost.pdf"}, s.NotFound)

	data, _ := os.ReadFile(filepath.Join(root, "FEV_1_HSL000001.pdf"))
	assert.Equal(t, "local", string(data))
	assert.FileExists(t, filepath.Join(root, "loose.pdf"))
	assert.NoFileExists(t, filepath.Join(root, "loose.pdf"+partSuffix))
}

func TestEscapeQuery(t *testing.T) {
	assert.Equal(t, `O\'Brien \\ co`, escapeQuery(`O'Brien \ co`))
}

func TestNewService_MissingCredentials(t *testing.T) {
	_, err := NewService(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
