package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileStore keeps the ledger as a single JSON array on disk, indented so
// operators can read and hand-edit it.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads all records. A missing file is initialized to an empty ledger
// so the first Save never races a partially created store.
func (s *FileStore) Load(_ context.Context) ([]Record, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("ledger read %s: %w", s.Path, err)
		}
		if err := os.WriteFile(s.Path, []byte("[]\n"), 0o644); err != nil {
			return nil, fmt.Errorf("ledger init %s: %w", s.Path, err)
		}
		return nil, nil
	}

	var recs []Record
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, fmt.Errorf("ledger decode %s: %w", s.Path, err)
	}
	return recs, nil
}

// Save rewrites the whole file. The write goes through a temp file and
// rename so a crash mid-save cannot corrupt the previous ledger.
func (s *FileStore) Save(_ context.Context, recs []Record) error {
	if recs == nil {
		recs = []Record{}
	}
	b, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger encode: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("ledger write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("ledger rename %s: %w", s.Path, err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
