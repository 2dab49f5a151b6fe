package store_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/auditpipe/auditpipe/api/schemas"
	"github.com/auditpipe/auditpipe/internal/store"
)

func sampleRecord(scanID string) *schemas.ScanRecord {
	return &schemas.ScanRecord{
		ScanID:         scanID,
		Timestamp:      "2026-09-01T10:30:00Z",
		RepositoryPath: "/tmp/pulled/demo-app",
		SectorHint:     "healthcare",
		PlanUsed:       "full",
		RepositoryInfo: schemas.RepositoryInfo{
			Readme:   "# Demo App\nA test fixture.",
			Policies: map[string]string{"SECURITY.md": "Report issues privately."},
			Dependencies: map[string]schemas.DependencyFile{
				"requirements.txt": {Language: "python", Content: "flask==2.0"},
			},
		},
		Findings: []schemas.Finding{
			{
				ShortformKeyword: "hardcoded_secret",
				Title:            "Hardcoded Secret",
				Severity:         schemas.SeverityHigh,
				FilePath:         "config.py",
				LineNumber:       12,
				Compliance:       []string{"PCI-DSS 3.5"},
			},
			{ShortformKeyword: "weak_hash"},
		},
		Summary: schemas.Summary{
			TotalFindings: 2,
			SeverityBreakdown: map[schemas.Severity]int{
				schemas.SeverityHigh:    1,
				schemas.SeverityUnknown: 1,
			},
		},
	}
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	record := sampleRecord(uuid.New().String())
	require.NoError(t, fs.Save(context.Background(), record))

	loaded, err := fs.Load(context.Background(), record.ScanID)
	require.NoError(t, err)

	if diff := cmp.Diff(record, loaded); diff != "" {
		t.Errorf("loaded record differs from saved (-want +got):\n%s", diff)
	}
}

func TestFileStore_LoadUnknownID(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	_, err = fs.Load(context.Background(), uuid.New().String())

	var nfe *schemas.NotFoundError
	require.ErrorAs(t, err, &nfe)
	assert.Equal(t, "scan record", nfe.Kind)
}

func TestFileStore_SaveRejectsMissingID(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	var ve *schemas.ValidationError
	assert.ErrorAs(t, fs.Save(context.Background(), &schemas.ScanRecord{}), &ve)
	assert.ErrorAs(t, fs.Save(context.Background(), nil), &ve)
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	for _, id := range []string{"../escape", "a/b", `a\b`, ""} {
		_, err := fs.Load(context.Background(), id)
		var ve *schemas.ValidationError
		assert.ErrorAs(t, err, &ve, "id %q must be rejected", id)
	}
}

func TestFileStore_NoTempFilesLeftBehind(t *testing.T) {
	dataDir := t.TempDir()
	fs, err := store.NewFileStore(dataDir, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, fs.Save(context.Background(), sampleRecord(uuid.New().String())))

	entries, err := os.ReadDir(filepath.Join(dataDir, "scanned_results"))
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.Contains(entry.Name(), ".tmp-"),
			"publish must not leave temp files: %s", entry.Name())
		assert.True(t, strings.HasSuffix(entry.Name(), ".json"))
	}
}

func TestFileStore_DistinctIDsDoNotCollide(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	first := sampleRecord(uuid.New().String())
	second := sampleRecord(uuid.New().String())
	second.SectorHint = "finance"

	require.NoError(t, fs.Save(context.Background(), first))
	require.NoError(t, fs.Save(context.Background(), second))

	gotFirst, err := fs.Load(context.Background(), first.ScanID)
	require.NoError(t, err)
	gotSecond, err := fs.Load(context.Background(), second.ScanID)
	require.NoError(t, err)

	assert.Equal(t, "healthcare", gotFirst.SectorHint)
	assert.Equal(t, "finance", gotSecond.SectorHint)
}
