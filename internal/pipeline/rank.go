package pipeline

import (
	"sort"
	"time"

	"github.com/theirongolddev/tutstat/internal/model"
)

// rankKey identifies one (day, label) group. A group with resolved=false
// collects sessions whose label could not be resolved through the join.
type rankKey struct {
	day      time.Time
	label    string
	resolved bool
}

func tagLabel(js model.JoinedSession) (string, bool) {
	if js.Tag == nil {
		return "", false
	}
	return js.Tag.Name, true
}

func tutorialLabel(js model.JoinedSession) (string, bool) {
	if js.Tutorial == nil {
		return "", false
	}
	return js.Tutorial.Title, true
}

// DailyTopTags returns, for each UTC day, the topN tags by session count
// over sessions ending within [start, end].
func DailyTopTags(ds *model.Dataset, start, end time.Time, topN int) []model.RankEntry {
	return RankDaily(Join(ds, SelectRange(ds.Sessions(), start, end)), tagLabel, topN)
}

// DailyTopTutorials returns, for each UTC day, the topN tutorials by
// session count over sessions ending within [start, end].
func DailyTopTutorials(ds *model.Dataset, start, end time.Time, topN int) []model.RankEntry {
	return RankDaily(Join(ds, SelectRange(ds.Sessions(), start, end)), tutorialLabel, topN)
}

// DailyTopRankings computes both rankings from a single selection and join.
func DailyTopRankings(ds *model.Dataset, start, end time.Time, topN int) (tags, tutorials []model.RankEntry) {
	joined := Join(ds, SelectRange(ds.Sessions(), start, end))
	return RankDaily(joined, tagLabel, topN), RankDaily(joined, tutorialLabel, topN)
}

// TopTagsFor ranks tags over already joined sessions.
func TopTagsFor(joined []model.JoinedSession, topN int) []model.RankEntry {
	return RankDaily(joined, tagLabel, topN)
}

// TopTutorialsFor ranks tutorials over already joined sessions.
func TopTutorialsFor(joined []model.JoinedSession, topN int) []model.RankEntry {
	return RankDaily(joined, tutorialLabel, topN)
}

// RankDaily groups joined sessions by (UTC end day, label), counts each
// group and keeps the topN largest groups per day. Days are ascending.
// Within a day, groups start in label order with the unresolved group
// last, then are stably sorted by count descending, so equal counts keep
// label order. A topN of zero or less yields no entries.
func RankDaily(joined []model.JoinedSession, label func(model.JoinedSession) (string, bool), topN int) []model.RankEntry {
	result := make([]model.RankEntry, 0)
	if topN <= 0 || len(joined) == 0 {
		return result
	}

	counts := make(map[rankKey]int)
	for _, js := range joined {
		name, ok := label(js)
		counts[rankKey{day: dayOf(js.EndAt), label: name, resolved: ok}]++
	}

	byDay := make(map[time.Time][]model.RankEntry)
	for k, n := range counts {
		byDay[k.day] = append(byDay[k.day], model.RankEntry{
			Date:       k.day,
			Name:       k.label,
			Unresolved: !k.resolved,
			Count:      n,
		})
	}

	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	for _, d := range days {
		entries := byDay[d]
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Unresolved != entries[j].Unresolved {
				return !entries[i].Unresolved
			}
			return entries[i].Name < entries[j].Name
		})
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Count > entries[j].Count
		})
		if len(entries) > topN {
			entries = entries[:topN]
		}
		result = append(result, entries...)
	}

	return result
}
