package domain

import "slices"

// BuildTimeline returns the sorted distinct valid times of the given records.
// It is called with the precipitation subset, which defines the payload keys.
func BuildTimeline(precipitation []Record) []string {
	seen := make(map[string]struct{})
	times := make([]string, 0)
	for _, r := range precipitation {
		if _, ok := seen[r.TimeValid]; ok {
			continue
		}
		seen[r.TimeValid] = struct{}{}
		times = append(times, r.TimeValid)
	}
	slices.Sort(times)
	return times
}

// groupByTime buckets records by valid time, preserving table order inside
// each bucket.
func groupByTime(records []Record) map[string][]Record {
	groups := make(map[string][]Record)
	for _, r := range records {
		groups[r.TimeValid] = append(groups[r.TimeValid], r)
	}
	return groups
}
