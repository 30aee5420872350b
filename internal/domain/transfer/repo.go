package transfer

import "context"

// Repository snapshots and restores the whole store. Restore runs in one
// transaction: children deleted first, parents inserted first, sequences
// realigned to the restored IDs.
type Repository interface {
	Snapshot(ctx context.Context) (*Dataset, error)
	Restore(ctx context.Context, ds *Dataset) error
}
