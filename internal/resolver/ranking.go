package resolver

import (
	"slices"

	"github.com/roach88/tesseract/internal/request"
)

// ResolveRanking turns the ranking directive into a measure to direction map.
//
//   - RankingNone: empty map
//   - RankingAll(dir): every requested measure gets dir
//   - RankingPerMeasure: the map as given, provided every key is a requested
//     measure; otherwise all offending keys are reported, sorted, in a single
//     MissingMeasures("ranking", ...) error
func ResolveRanking(r request.Ranking, requested []string) (map[string]request.Direction, error) {
	out := make(map[string]request.Direction)

	switch r.Mode() {
	case request.RankingModeAll:
		for _, name := range requested {
			out[name] = r.Direction()
		}
	case request.RankingModePerMeasure:
		var missing []string
		for name, dir := range r.PerMeasure() {
			if !slices.Contains(requested, name) {
				missing = append(missing, name)
				continue
			}
			out[name] = dir
		}
		if len(missing) > 0 {
			slices.Sort(missing)
			return nil, NewMissingMeasures("ranking", missing)
		}
	}
	return out, nil
}
