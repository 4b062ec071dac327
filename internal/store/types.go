package store

import "time"

type File struct {
	ID          int64
	Path        string
	Hash        string
	LastIndexed time.Time
}

// Stats summarises the cache contents.
type Stats struct {
	Files        int
	Declarations int
	// Kinds counts declarations per kind: class, function, constant.
	Kinds map[string]int
}
