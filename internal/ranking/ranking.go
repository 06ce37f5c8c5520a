// Package ranking orders inventory records by fuzzy match against a query.
package ranking

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"winseek/internal/inventory"
)

// Ranked is a record with its score and the rune positions of the title that
// matched the query.
type Ranked struct {
	inventory.Record
	Score          int
	MatchedIndexes []int
}

// Score returns the fuzzy match score of query against title. Matching is
// case-insensitive. A match is always at least 1; no match and an empty query
// score 0.
func Score(query, title string) int {
	score, _ := match(query, title)
	return score
}

// Rank returns records ordered by descending score. Ties keep input order and
// the input slice is not modified.
func Rank(query string, records []inventory.Record) []inventory.Record {
	ranked := RankDetailed(query, records)
	out := make([]inventory.Record, len(ranked))
	for i, r := range ranked {
		out[i] = r.Record
	}
	return out
}

// RankDetailed is Rank with scores and matched positions.
func RankDetailed(query string, records []inventory.Record) []Ranked {
	out := make([]Ranked, len(records))
	for i, rec := range records {
		score, idx := match(query, rec.Title)
		out[i] = Ranked{Record: rec, Score: score, MatchedIndexes: idx}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Top returns the best match, or false when records is empty.
func Top(query string, records []inventory.Record) (inventory.Record, bool) {
	ranked := RankDetailed(query, records)
	if len(ranked) == 0 {
		return inventory.Record{}, false
	}
	return ranked[0].Record, true
}

func match(query, title string) (int, []int) {
	if query == "" || title == "" {
		return 0, nil
	}
	matches := fuzzy.Find(foldCase(query), []string{foldCase(title)})
	if len(matches) == 0 {
		return 0, nil
	}
	m := matches[0]
	score := m.Score
	if score < 1 {
		score = 1
	}
	return score, runeIndexes(m.Str, m.MatchedIndexes)
}

// foldCase maps s to a form shared by all of its case variants. Lower-casing
// alone is not enough: 'ı' and 'ſ' upper-case to ASCII and would then lower
// to a different rune than the one they started as.
func foldCase(s string) string {
	return strings.ToLower(strings.ToUpper(s))
}

// runeIndexes converts the library's byte offsets into rune positions.
// Case folding maps rune to rune, so positions carry over to the original
// title.
func runeIndexes(s string, byteIdx []int) []int {
	if len(byteIdx) == 0 {
		return nil
	}
	out := make([]int, 0, len(byteIdx))
	next := 0
	runePos := 0
	for b := range s {
		if next < len(byteIdx) && byteIdx[next] == b {
			out = append(out, runePos)
			next++
		}
		runePos++
	}
	return out
}
