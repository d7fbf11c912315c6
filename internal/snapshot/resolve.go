package snapshot

import (
	"context"
	"errors"
	"fmt"
)

// Source is one named place a snapshot may live.
type Source struct {
	Name string
	Load func(ctx context.Context) ([]byte, error)
}

// Resolve consults sources in order and returns the first non-empty value
// together with the name of the source that supplied it. A source that is
// empty or reports ErrNoValue just passes to the next one; any other error
// aborts resolution. When every source is empty, ErrNoValue is returned.
func Resolve(ctx context.Context, sources []Source) ([]byte, string, error) {
	for _, src := range sources {
		data, err := src.Load(ctx)
		if errors.Is(err, ErrNoValue) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("loading snapshot from %s: %w", src.Name, err)
		}
		if len(data) == 0 {
			continue
		}
		return data, src.Name, nil
	}
	return nil, "", ErrNoValue
}
