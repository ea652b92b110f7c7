package store

import "context"

var _ LookupStore = NoopStore{}

// NoopStore discards history. It is used when no database path is configured.
type NoopStore struct{}

func (NoopStore) RecordLookup(context.Context, Lookup) error { return nil }

func (NoopStore) RecentLookups(context.Context, string, int) ([]Lookup, error) { return nil, nil }

func (NoopStore) Close() error { return nil }
