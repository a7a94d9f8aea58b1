package tmdb

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
)

// ResolveGenreIDs maps genre names to provider ids for a media type, matching
// case-insensitively. Names with no match are dropped without error so a
// single unknown genre never fails the caller's query.
func (c *Client) ResolveGenreIDs(ctx context.Context, mediaType string, names []string) ([]int, error) {
	if len(names) == 0 {
		return nil, nil
	}
	list, err := c.Genres(ctx, mediaType)
	if err != nil {
		return nil, err
	}

	// A Caser carries state; build one per call.
	fold := cases.Fold()
	lookup := make(map[string]int, len(list.Genres))
	for _, genre := range list.Genres {
		lookup[fold.String(strings.TrimSpace(genre.Name))] = genre.ID
	}

	ids := make([]int, 0, len(names))
	seen := make(map[int]struct{}, len(names))
	for _, name := range names {
		id, ok := lookup[fold.String(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
