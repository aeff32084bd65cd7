package flowstate

import "time"

// PendingAuth tracks one outstanding consent redirect, keyed by its state
// parameter, so the callback can reject replayed or forged states.
type PendingAuth struct {
	CreatedAt time.Time
}

type Repo interface {
	Upsert(state string, pending *PendingAuth) error
	Get(state string) (*PendingAuth, error)
	Delete(state string) error
}
