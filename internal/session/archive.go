package session

import "context"

// Archive holds encoded sessions that are not live. [records.SQLite] and
// [records.Memory] implement it.
type Archive interface {
	SaveSession(ctx context.Context, id string, data []byte) error
	LoadSession(ctx context.Context, id string) ([]byte, bool, error)
	DeleteSession(ctx context.Context, id string) error
}
