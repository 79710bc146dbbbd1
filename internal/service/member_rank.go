package service

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/noah-isme/member-console/internal/models"
)

// Rank orders members by how closely their name or member id fuzzy-matches
// term. Members that do not match are left out; a blank term keeps buffer order.
func Rank(members []models.Member, term string) []models.RankedMember {
	term = strings.TrimSpace(term)
	if term == "" {
		out := make([]models.RankedMember, len(members))
		for i, m := range members {
			out[i] = models.RankedMember{Member: m}
		}
		return out
	}

	names := make([]string, len(members))
	ids := make([]string, len(members))
	for i, m := range members {
		names[i] = m.FullName()
		ids[i] = m.MemberID
	}

	best := map[int]int{}
	consider := func(ranks fuzzy.Ranks) {
		for _, r := range ranks {
			if d, ok := best[r.OriginalIndex]; !ok || r.Distance < d {
				best[r.OriginalIndex] = r.Distance
			}
		}
	}
	consider(fuzzy.RankFindNormalizedFold(term, names))
	consider(fuzzy.RankFindNormalizedFold(term, ids))

	indexes := make([]int, 0, len(best))
	for i := range best {
		indexes = append(indexes, i)
	}
	sort.Slice(indexes, func(a, b int) bool {
		da, db := best[indexes[a]], best[indexes[b]]
		if da != db {
			return da < db
		}
		return indexes[a] < indexes[b]
	})

	out := make([]models.RankedMember, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, models.RankedMember{Member: members[i], Distance: best[i]})
	}
	return out
}
