package ledger

import "context"

// Store persists the ledger wholesale: Save always rewrites the entire
// record set, and Load always reads all of it back.
type Store interface {
	Load(ctx context.Context) ([]Record, error)
	Save(ctx context.Context, recs []Record) error
}
