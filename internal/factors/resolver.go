package factors

import (
	"sort"
	"strings"
)

// Filter keeps factors matching the requested region and year.
//
// Region matching is case-insensitive and GlobalRegion records always
// qualify, so a request for "us" falls back to global factors when no
// us-specific factor exists. Year-agnostic records (nil Year) always
// qualify. An empty region or nil year disables that filter.
func Filter(records []Record, region string, year *int) []Record {
	region = NormalizeKey(region)

	kept := make([]Record, 0, len(records))
	for _, r := range records {
		if region != "" {
			candidate := NormalizeKey(r.Region)
			if candidate != region && candidate != GlobalRegion {
				continue
			}
		}
		if year != nil && r.Year != nil && *r.Year != *year {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// sourcePriority ranks factor sources for tie-breaking: sources whose
// label contains "ipcc" (any position, case-insensitive) rank below
// everything else, so locally curated overrides beat generic defaults.
//
// This is a substring heuristic: any source string containing "ipcc"
// anywhere is deprioritized, including labels that merely mention it.
func sourcePriority(source string) int {
	if strings.Contains(strings.ToLower(source), "ipcc") {
		return 0
	}
	return 1
}

// yearRank orders validity years ascending with nil (year-agnostic)
// treated as lowest, so a concrete year wins over an unset one when
// the last candidate is kept.
func yearRank(year *int) int {
	if year == nil {
		return -1 << 30
	}
	return *year
}

// Dedupe keeps exactly one factor per (activity, unit) key. Candidates
// are sorted by (activity, unit, year ascending with unset lowest,
// source priority, last-updated ascending) and the last row per key
// wins: prefer a concrete year, prefer non-IPCC sources, and break
// remaining ties by most recent update.
func Dedupe(records []Record) []Record {
	sorted := make([]Record, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Activity != b.Activity {
			return a.Activity < b.Activity
		}
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}
		if yearRank(a.Year) != yearRank(b.Year) {
			return yearRank(a.Year) < yearRank(b.Year)
		}
		if sourcePriority(a.Source) != sourcePriority(b.Source) {
			return sourcePriority(a.Source) < sourcePriority(b.Source)
		}
		return a.UpdatedAt.Before(b.UpdatedAt)
	})

	type key struct{ activity, unit string }
	last := make(map[key]Record, len(sorted))
	order := make([]key, 0, len(sorted))
	for _, r := range sorted {
		k := key{NormalizeKey(r.Activity), NormalizeKey(r.Unit)}
		if _, seen := last[k]; !seen {
			order = append(order, k)
		}
		last[k] = r
	}

	deduped := make([]Record, 0, len(order))
	for _, k := range order {
		deduped = append(deduped, last[k])
	}
	return deduped
}

// Lookup is a deduplicated (activity, unit) index over factor records.
type Lookup map[lookupKey]Record

type lookupKey struct{ activity, unit string }

// BuildLookup indexes records by normalized (activity, unit). Pass the
// output of Dedupe; with duplicates present the last record wins.
func BuildLookup(records []Record) Lookup {
	index := make(Lookup, len(records))
	for _, r := range records {
		index[lookupKey{NormalizeKey(r.Activity), NormalizeKey(r.Unit)}] = r
	}
	return index
}

// Find returns the factor for an activity and unit, normalizing both.
func (l Lookup) Find(activity, unit string) (Record, bool) {
	r, ok := l[lookupKey{NormalizeKey(activity), NormalizeKey(unit)}]
	return r, ok
}

// Prepare runs the full resolution pipeline over a factor library:
// region/year filtering followed by tie-break deduplication. The
// result is ready for BuildLookup.
func Prepare(records []Record, region string, year *int) []Record {
	return Dedupe(Filter(records, region, year))
}
