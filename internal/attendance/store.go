package attendance

import "context"

// Store is the capability shared by the primary backends and the fallback.
type Store interface {
	// Add persists rec and returns it. A non-zero rec.ID is stored as given; a zero id
	// is assigned by the store.
	Add(ctx context.Context, rec Record) (Record, error)
	// ListAll returns every record, newest first.
	ListAll(ctx context.Context) ([]Record, error)
	// ListByDate returns the records of one calendar day, newest first.
	ListByDate(ctx context.Context, day Day) ([]Record, error)
}

// Pinger is implemented by stores that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MaxIDReader is implemented by stores that can report the highest id they hold.
type MaxIDReader interface {
	MaxID(ctx context.Context) (int64, error)
}

// Unavailable is a primary that always fails; used when no primary backend is configured.
type Unavailable struct{}

func (Unavailable) Add(context.Context, Record) (Record, error) {
	return Record{}, ErrPrimaryUnavailable
}

func (Unavailable) ListAll(context.Context) ([]Record, error) {
	return nil, ErrPrimaryUnavailable
}

func (Unavailable) ListByDate(context.Context, Day) ([]Record, error) {
	return nil, ErrPrimaryUnavailable
}

func (Unavailable) Ping(context.Context) error { return ErrPrimaryUnavailable }
