package ports

import "context"

// AccountLocker serialises the read-modify-persist sequence per account.
// Lock acquires every id in ascending order and returns a release func that
// frees all of them. Waiting stops when ctx is done.
type AccountLocker interface {
	Lock(ctx context.Context, ids ...int64) (release func(), err error)
}
