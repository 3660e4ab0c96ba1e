package domain

import "time"

// Cache item sources, recorded for logging and the hit-ratio metrics.
const (
	SourceRemote = "remote"
	SourceLocal  = "local"
	SourceLoader = "loader"
)

// CacheItem is the result of a tiered read. Found=false is a normal
// outcome, never an error; "not cached" is not a failure.
type CacheItem struct {
	Key    string
	Value  []byte
	Found  bool
	Source string
	TTL    time.Duration
}

// CacheEntry is a value bound for a tier write. The local tier clamps TTL
// to its ceiling; the remote tier stores it as given.
type CacheEntry struct {
	Key   string
	Value []byte
	TTL   time.Duration
}
