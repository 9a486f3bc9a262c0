package storage

import "reel/internal/ports"

// Store is the storage contract used across the API and the sweeper.
// It is an alias to ports.ObjectStore to keep call-sites simple.
type Store = ports.ObjectStore
