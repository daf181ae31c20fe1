package reconciler

import (
	"os"
	"path/filepath"
	"testing"

	"fjacquet/invoice-reconciler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id, admin, contract string) models.InvoiceRecord {
	return models.InvoiceRecord{InvoiceID: id, Administrator: admin, Contract: contract}
}

func TestRelocate(t *testing.T) {
	base := t.TempDir()
	r, logger := newReconciler(t, base)
	src := touch(t, filepath.Join(base, "a", "f.pdf"))
	dest := filepath.Join(base, "deep", "er", "f.pdf")

	assert.True(t, r.Relocate(src, dest))
	assert.FileExists(t, dest)
	assert.NoFileExists(t, src)

	assert.False(t, r.Relocate(src, dest), "missing source")
	other := touch(t, filepath.Join(base, "b", "f.pdf"))
	assert.False(t, r.Relocate(other, dest), "never overwrite")
	assert.FileExists(t, other)
	assert.Len(t, logger.EntriesByLevel("ERROR"), 2)
}

func TestOrganize(t *testing.T) {
	staging := t.TempDir()
	final := t.TempDir()
	touch(t, filepath.Join(staging, "HSL000001", "FEV.pdf"))
	mkdirs(t, staging, "HSL000002_REV")
	idx, err := IndexDirectory(staging, Dirs)
	require.NoError(t, err)
	r, _ := newReconciler(t, staging)

	records := []models.InvoiceRecord{
		record("HSL000001", "NUEVA EPS", "CAPITA"),
		record("HSL000002", "SANITAS", ""),
		record("HSL000003", "SANITAS", "EVENTO"),
	}
	summary := r.Organize(records, idx, final, false)

	assert.Equal(t, 2, summary.Moved)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, summary.NotFound)
	assert.Equal(t, []string{"HSL000003"}, summary.NotFoundIDs)
	assert.Equal(t, len(records), summary.Total())
	assert.FileExists(t, filepath.Join(final, "NUEVA EPS", "CAPITA", "HSL000001", "FEV.pdf"))
	assert.DirExists(t, filepath.Join(final, "SANITAS", "HSL000002"))
	assert.NoDirExists(t, filepath.Join(staging, "HSL000001"))
}

func TestOrganize_DryRunMovesNothing(t *testing.T) {
	staging := t.TempDir()
	final := t.TempDir()
	mkdirs(t, staging, "HSL000001", "HSL000002")
	mkdirs(t, final, filepath.Join("A", "C", "HSL000002"))
	idx, err := IndexDirectory(staging, Dirs)
	require.NoError(t, err)
	r, _ := newReconciler(t, staging)

	summary := r.Organize([]models.InvoiceRecord{
		record("HSL000001", "A", "C"),
		record("HSL000002", "A", "C"),
	}, idx, final, true)

	assert.Equal(t, 1, summary.Moved)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Errors[0], "HSL000002")
	assert.DirExists(t, filepath.Join(staging, "HSL000001"))
	assert.NoDirExists(t, filepath.Join(final, "A", "C", "HSL000001"))
}

func TestOrganize_CollisionLeavesSource(t *testing.T) {
	staging := t.TempDir()
	final := t.TempDir()
	touch(t, filepath.Join(staging, "HSL000001", "new.pdf"))
	touch(t, filepath.Join(final, "A", "HSL000001", "old.pdf"))
	idx, err := IndexDirectory(staging, Dirs)
	require.NoError(t, err)
	r, _ := newReconciler(t, staging)

	summary := r.Organize([]models.InvoiceRecord{record("HSL000001", "A", "")}, idx, final, false)
	dest := filepath.Join(final, "A", "HSL000001")
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "Move failed: HSL000001")
	assert.Contains(t, summary.Errors[0], dest)
	assert.FileExists(t, filepath.Join(staging, "HSL000001", "new.pdf"))
	assert.FileExists(t, filepath.Join(dest, "old.pdf"))
	assert.NoFileExists(t, filepath.Join(dest, "new.pdf"))

	dry := r.Organize([]models.InvoiceRecord{record("HSL000001", "A", "")}, idx, final, true)
	assert.Equal(t, summary.Errors, dry.Errors, "dry run reports the same failure")
}

func TestOrganize_AmbiguousPrefersExactName(t *testing.T) {
	staging := t.TempDir()
	final := t.TempDir()
	mkdirs(t, staging, "HSL000001", "HSL000001_COPY", "AHSL000001")
	idx, err := IndexDirectory(staging, Dirs)
	require.NoError(t, err)
	r, logger := newReconciler(t, staging)

	summary := r.Organize([]models.InvoiceRecord{record("HSL000001", "A", "")}, idx, final, false)
	assert.Equal(t, 1, summary.Moved)
	assert.DirExists(t, filepath.Join(staging, "HSL000001_COPY"))
	assert.DirExists(t, filepath.Join(staging, "AHSL000001"))
	assert.True(t, logger.HasEntry("WARN", "Several staging folders match invoice, using first"))
}

func TestOrganize_SameFolderClaimedTwice(t *testing.T) {
	staging := t.TempDir()
	final := t.TempDir()
	mkdirs(t, staging, "HSL000001_HSL000002")
	idx, err := IndexDirectory(staging, Dirs)
	require.NoError(t, err)
	r, _ := newReconciler(t, staging)

	summary := r.Organize([]models.InvoiceRecord{
		record("HSL000001", "A", ""),
		record("HSL000002", "A", ""),
	}, idx, final, true)
	assert.Equal(t, 1, summary.Moved)
	assert.Equal(t, 1, summary.Failed)
}

func TestCopyOrMoveFolders(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	touch(t, filepath.Join(src, "HSL000001", "a.pdf"))
	touch(t, filepath.Join(src, "HSL000002", "b.pdf"))
	r, _ := newReconciler(t, src)

	summary, err := r.CopyOrMoveFolders([]string{"HSL000001", "HSL000009", ""}, src, dst, ActionCopy)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Moved)
	assert.Equal(t, 1, summary.NotFound)
	assert.Contains(t, summary.Errors, "Not found: HSL000009")
	assert.FileExists(t, filepath.Join(src, "HSL000001", "a.pdf"))
	assert.FileExists(t, filepath.Join(dst, "HSL000001", "a.pdf"))

	summary, err = r.CopyOrMoveFolders([]string{"HSL000001", "HSL000002"}, src, dst, ActionMove)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Moved)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Errors, "Destination exists: HSL000001")
	assert.NoDirExists(t, filepath.Join(src, "HSL000002"))

	_, err = r.CopyOrMoveFolders(nil, src, dst, "rename")
	assert.Error(t, err)
}

func TestMoveFilesToFolders(t *testing.T) {
	base := t.TempDir()
	loose := t.TempDir()
	mkdirs(t, base, "HSL000001")
	touch(t, filepath.Join(loose, "FEV_"+nit+"_HSL000001.pdf"))
	touch(t, filepath.Join(loose, "FEV_"+nit+"_HSL000002.pdf"))
	touch(t, filepath.Join(loose, "scan.pdf"))
	r, _ := newReconciler(t, base)

	summary, err := r.MoveFilesToFolders(loose)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Moved)
	assert.Equal(t, 1, summary.NotFound)
	assert.Equal(t, 1, summary.Failed)
	assert.FileExists(t, filepath.Join(base, "HSL000001", "FEV_"+nit+"_HSL000001.pdf"))

	_, err = os.Stat(filepath.Join(loose, "FEV_"+nit+"_HSL000002.pdf"))
	assert.NoError(t, err)
}
