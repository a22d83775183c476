package frecency

import "sort"

// recencyWeight converts elapsed milliseconds into score points: one
// frequency point trades against one day of staleness. The raw frequency
// and the decay term are deliberately not normalized; ranking depends on
// this exact formula.
const recencyWeight = 1.0 / (24 * 60 * 60 * 1000)

// Score computes the frecency score for a record at the given time.
// A path without a record scores 0.
func Score(record Record, ok bool, nowMs int64) float64 {
	if !ok {
		return 0
	}
	return float64(record.Frequency) + recencyWeight*float64(nowMs-record.LastAccessMs)
}

// TopN orders paths by descending frecency score and truncates to limit.
// The sort is stable, so equal scores keep their input order; paths with no
// usage record score 0 and land after any positive score, but are never
// excluded. Limit <= 0 means no truncation.
func TopN(paths []string, records map[string]Record, nowMs int64, limit int) []string {
	scored := make([]string, len(paths))
	copy(scored, paths)

	scores := make(map[string]float64, len(scored))
	for _, path := range scored {
		record, ok := records[path]
		scores[path] = Score(record, ok, nowMs)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scores[scored[i]] > scores[scored[j]]
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
