// Package store persists scan records keyed by scan id. Two backends share
// the RecordStore contract: a per-id JSON file store and a Postgres store.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/auditpipe/auditpipe/api/schemas"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const resultsSubdir = "scanned_results"

// FileStore keeps one JSON document per scan id under
// <dataDir>/scanned_results/. Writes publish atomically (temp file, then
// rename), so a record is either fully retrievable or absent; concurrent
// saves with distinct ids cannot corrupt each other.
type FileStore struct {
	dir string
	log *zap.Logger
}

// Compile-time interface check.
var _ schemas.RecordStore = (*FileStore)(nil)

// NewFileStore creates the results directory if needed and returns the store.
func NewFileStore(dataDir string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := filepath.Join(dataDir, resultsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir, log: logger.Named("file_store")}, nil
}

// Save writes the whole record under its scan id. The caller must have
// generated a fresh id; overwriting an existing id is not supported usage.
func (s *FileStore) Save(ctx context.Context, record *schemas.ScanRecord) error {
	if record == nil || record.ScanID == "" {
		return &schemas.ValidationError{Field: "scan record", Reason: "missing scan_id"}
	}
	if err := validateID(record.ScanID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode scan record: %w", err)
	}

	final := s.path(record.ScanID)
	tmp, err := os.CreateTemp(s.dir, record.ScanID+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write scan record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Rename is the publish point; readers never observe a partial record.
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to publish scan record: %w", err)
	}

	s.log.Info("Scan record saved",
		zap.String("scan_id", record.ScanID),
		zap.String("path", final),
		zap.Int("findings", len(record.Findings)),
	)
	return nil
}

// Load retrieves a record by scan id, failing with *schemas.NotFoundError
// when no such record exists.
func (s *FileStore) Load(ctx context.Context, scanID string) (*schemas.ScanRecord, error) {
	if err := validateID(scanID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(scanID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &schemas.NotFoundError{Kind: "scan record", ID: scanID}
		}
		return nil, fmt.Errorf("failed to read scan record %s: %w", scanID, err)
	}

	var record schemas.ScanRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode scan record %s: %w", scanID, err)
	}
	return &record, nil
}

func (s *FileStore) path(scanID string) string {
	return filepath.Join(s.dir, scanID+".json")
}

// validateID rejects ids that could escape the results directory. Scan ids
// are UUIDs in practice, so anything with separators or dots is hostile.
func validateID(scanID string) error {
	if scanID == "" || strings.ContainsAny(scanID, `/\`) || strings.Contains(scanID, "..") {
		return &schemas.ValidationError{Field: "scan_id", Reason: fmt.Sprintf("illegal value %q", scanID)}
	}
	return nil
}
