package normalizer

import (
	"os"
	"path/filepath"
	"testing"

	"fjacquet/invoice-reconciler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nit = "890701078"

func testProfile(corrections map[string]string) models.HospitalProfile {
	return models.HospitalProfile{
		Name:          "TEST",
		NIT:           nit,
		InvoicePrefix: "HSL",
		DocumentStandards: map[string]models.PrefixSet{
			"FACTURA":  {"FEV"},
			"FIRMA":    {"CRC"},
			"HISTORIA": {"EPI", "HEV"},
		},
		PrefixCorrections: corrections,
	}
}

func newNormalizer(t *testing.T, corrections map[string]string) *Normalizer {
	t.Helper()
	n, err := New(testProfile(corrections), nil)
	require.NoError(t, err)
	return n
}

func touch(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestNormalize_RoundTrip(t *testing.T) {
	n := newNormalizer(t, map[string]string{})
	folder := filepath.Join(t.TempDir(), "HSL354753")
	src := touch(t, folder, "fev_354753.pdf", "x")

	r := n.Normalize(src)
	assert.Equal(t, models.StatusSuccess, r.Status)
	assert.Equal(t, "FEV_"+nit+"_HSL354753.pdf", r.NewName)
	assert.FileExists(t, filepath.Join(folder, r.NewName))
	assert.NoFileExists(t, src)
}

func TestNormalize_Idempotent(t *testing.T) {
	n := newNormalizer(t, nil)
	folder := filepath.Join(t.TempDir(), "HSL354753")
	src := touch(t, folder, "FEV_"+nit+"_HSL354753.pdf", "x")

	r := n.Normalize(src)
	assert.Equal(t, models.StatusSkipped, r.Status)
	assert.Equal(t, models.ReasonAlreadyCorrect, r.Reason)
	assert.FileExists(t, src)

	again := n.Normalize(src)
	assert.Equal(t, r, again)
}

func TestNormalize_NeverOverwrites(t *testing.T) {
	n := newNormalizer(t, nil)
	folder := filepath.Join(t.TempDir(), "HSL000777")
	first := touch(t, folder, "fev a.pdf", "first")
	second := touch(t, folder, "fev b.pdf", "second")

	reports := n.Run([]string{first, second})
	require.Len(t, reports, 2)
	assert.Equal(t, models.StatusSuccess, reports[0].Status)
	assert.Equal(t, models.StatusRejected, reports[1].Status)
	assert.Equal(t, models.ReasonDestinationExists, reports[1].Reason)

	data, err := os.ReadFile(filepath.Join(folder, "FEV_"+nit+"_HSL000777.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
	assert.FileExists(t, second)
}

func TestNormalize_Rejections(t *testing.T) {
	n := newNormalizer(t, nil)
	root := t.TempDir()

	noID := touch(t, filepath.Join(root, "misc"), "fev.pdf", "x")
	r := n.Normalize(noID)
	assert.Equal(t, models.StatusRejected, r.Status)
	assert.Equal(t, models.ReasonNoIdentifier, r.Reason)
	assert.Equal(t, models.NotApplicable, r.NewName)

	badPrefix := touch(t, filepath.Join(root, "HSL000001"), "xyz.pdf", "x")
	r = n.Normalize(badPrefix)
	assert.Equal(t, models.StatusRejected, r.Status)
	assert.Contains(t, r.Reason, models.ReasonUnrecognizedPrefix)
	assert.FileExists(t, badPrefix)

	digitsFirst := touch(t, filepath.Join(root, "HSL000001"), "123.pdf", "x")
	r = n.Normalize(digitsFirst)
	assert.Equal(t, models.StatusRejected, r.Status)
}

func TestNormalize_AppliesCorrections(t *testing.T) {
	n := newNormalizer(t, map[string]string{"FVE": "FEV", "fepi": "epi"})
	folder := filepath.Join(t.TempDir(), "HSL_123456 revisar")

	r := n.Normalize(touch(t, folder, "fve-123456.pdf", "x"))
	assert.Equal(t, models.StatusSuccess, r.Status)
	assert.Equal(t, "FEV_"+nit+"_HSL123456.pdf", r.NewName)

	r = n.Normalize(touch(t, folder, "FEPI.pdf", "x"))
	assert.Equal(t, "EPI_"+nit+"_HSL123456.pdf", r.NewName)
}

func TestNormalize_NotARegularFile(t *testing.T) {
	n := newNormalizer(t, nil)
	dir := filepath.Join(t.TempDir(), "HSL000001")
	require.NoError(t, os.MkdirAll(dir, 0755))

	r := n.Normalize(dir)
	assert.Equal(t, models.StatusSkipped, r.Status)
	assert.Equal(t, models.ReasonNotAFile, r.Reason)
}

func TestNormalize_MissingFileIsError(t *testing.T) {
	n := newNormalizer(t, nil)
	r := n.Normalize(filepath.Join(t.TempDir(), "HSL000001", "fev.pdf"))
	assert.Equal(t, models.StatusError, r.Status)
}

func TestRun_ContinuesPastFailures(t *testing.T) {
	n := newNormalizer(t, nil)
	root := t.TempDir()
	good := touch(t, filepath.Join(root, "HSL000002"), "crc.pdf", "x")

	reports := n.Run([]string{filepath.Join(root, "gone.pdf"), good})
	require.Len(t, reports, 2)
	assert.Equal(t, models.StatusError, reports[0].Status)
	assert.Equal(t, models.StatusSuccess, reports[1].Status)
}

func TestExtractIdentifier(t *testing.T) {
	n := newNormalizer(t, nil)
	tests := []struct {
		name string
		path string
		want string
		ok   bool
	}{
		{"folder wins", filepath.Join("HSL354753", "fev_HSL999999.pdf"), "354753", true},
		{"folder separator", filepath.Join("hsl-354753 extra", "a.pdf"), "354753", true},
		{"folder with seven digits falls back to file", filepath.Join("HSL3547531", "fev_hsl12345.pdf"), "012345", true},
		{"file five digits padded", filepath.Join("x", "fev_hsl 12345.pdf"), "012345", true},
		{"file seven digits truncated", filepath.Join("x", "FEVHSL1234567.pdf"), "123456", true},
		{"none", filepath.Join("x", "fev.pdf"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.ExtractIdentifier(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsCanonical(t *testing.T) {
	n := newNormalizer(t, nil)
	assert.True(t, n.IsCanonical("FEV_"+nit+"_HSL354753.pdf"))
	assert.True(t, n.IsCanonical("fev_"+nit+"_hsl354753.PDF"))
	assert.False(t, n.IsCanonical("FEV_"+nit+"_HSL35475.pdf"))
	assert.False(t, n.IsCanonical("XXX_"+nit+"_HSL354753.pdf"))
	assert.False(t, n.IsCanonical("FEV_123_HSL354753.pdf"))
}

func TestNew_RejectsIncompleteProfile(t *testing.T) {
	_, err := New(models.HospitalProfile{Name: "X"}, nil)
	assert.Error(t, err)
}
