// Package search holds the storage-independent half of vacancy search: the
// filter model, the hybrid rank merge and the explicit-order re-projection.
package search

import (
	"sort"

	"github.com/google/uuid"
)

// Scored is one member of the fuzzy set: a vacancy whose title is
// trigram-similar to the query, with its full-text rank.
type Scored struct {
	ID         uuid.UUID
	Similarity float64
	Rank       float64
}

// Merge combines the substring set and the fuzzy set into one deduplicated
// order. Fuzzy members come first, by similarity then full-text rank, both
// descending. Substring-only members follow in the order given.
func Merge(exact []uuid.UUID, fuzzy []Scored) []uuid.UUID {
	ranked := make([]Scored, len(fuzzy))
	copy(ranked, fuzzy)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Similarity != ranked[j].Similarity {
			return ranked[i].Similarity > ranked[j].Similarity
		}
		return ranked[i].Rank > ranked[j].Rank
	})

	out := make([]uuid.UUID, 0, len(ranked)+len(exact))
	seen := make(map[uuid.UUID]struct{}, len(ranked)+len(exact))
	for _, s := range ranked {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s.ID)
	}
	for _, id := range exact {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Reproject keeps the ids of candidates that appear in order, arranged in
// the order of order. Ids missing from candidates are dropped, and so are
// candidates missing from order.
func Reproject(candidates, order []uuid.UUID) []uuid.UUID {
	in := make(map[uuid.UUID]struct{}, len(candidates))
	for _, id := range candidates {
		in[id] = struct{}{}
	}
	out := make([]uuid.UUID, 0, len(order))
	for _, id := range order {
		if _, ok := in[id]; !ok {
			continue
		}
		delete(in, id)
		out = append(out, id)
	}
	return out
}

// Page returns the [offset, offset+limit) window of ids.
func Page(ids []uuid.UUID, limit, offset int) []uuid.UUID {
	if offset >= len(ids) {
		return nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	return ids[offset:end]
}
