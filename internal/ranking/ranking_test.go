package ranking

import (
	"reflect"
	"strings"
	"testing"

	"winseek/internal/inventory"
	"winseek/internal/winsys"
)

func records(titles ...string) []inventory.Record {
	out := make([]inventory.Record, len(titles))
	for i, title := range titles {
		out[i] = inventory.Record{Handle: 0x10 + winsys.Handle(i), Title: title}
	}
	return out
}

func titlesOf(recs []inventory.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Title
	}
	return out
}

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		title     string
		wantMatch bool
	}{
		{name: "subsequence", query: "cod", title: "Visual Studio Code", wantMatch: true},
		{name: "prefix", query: "sla", title: "Slack", wantMatch: true},
		{name: "exact", query: "slack", title: "Slack", wantMatch: true},
		{name: "out of order", query: "doc", title: "Code", wantMatch: false},
		{name: "missing rune", query: "cod", title: "Google Chrome", wantMatch: false},
		{name: "empty query", query: "", title: "Slack", wantMatch: false},
		{name: "empty title", query: "a", title: "", wantMatch: false},
		{name: "late match", query: "z", title: "abcdefghijklmnopqrstuvwxyz", wantMatch: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.query, tt.title)
			if tt.wantMatch && got < 1 {
				t.Fatalf("Score(%q, %q) = %d, want >= 1", tt.query, tt.title, got)
			}
			if !tt.wantMatch && got != 0 {
				t.Fatalf("Score(%q, %q) = %d, want 0", tt.query, tt.title, got)
			}
		})
	}
}

func TestScoreIgnoresCase(t *testing.T) {
	pairs := [][2]string{
		{"cod", "Visual Studio Code"},
		{"vsc", "visualStudioCode"},
		{"chr", "Google Chrome"},
		{"x", "Slack"},
		{"ter", "Windows Terminal"},
		{"ı", "Dıscord"},
		{"ſ", "ſlack"},
		{"dis", "Dıscord"},
		{"kel", "\u212Aelvin Monitor"},
		{"stra", "Straße Maps"},
		{"ωσ", "ΩΣ Viewer"},
	}
	for _, p := range pairs {
		q, title := p[0], p[1]
		base := Score(q, title)
		if got := Score(q, strings.ToUpper(title)); got != base {
			t.Errorf("Score(%q, upper(%q)) = %d, want %d", q, title, got, base)
		}
		if got := Score(strings.ToUpper(q), title); got != base {
			t.Errorf("Score(upper(%q), %q) = %d, want %d", q, title, got, base)
		}
	}
}

func TestScoreFoldsSpecialCaseRunes(t *testing.T) {
	tests := []struct {
		name  string
		query string
		title string
	}{
		{name: "dotless i", query: "ı", title: "Dıscord"},
		{name: "dotless i matches ascii", query: "i", title: "Dıscord"},
		{name: "long s", query: "ſ", title: "ſlack"},
		{name: "long s matches ascii", query: "s", title: "ſlack"},
		{name: "kelvin sign", query: "k", title: "\u212Aelvin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Score(tt.query, tt.title)
			if score < 1 {
				t.Fatalf("Score(%q, %q) = %d, want a match", tt.query, tt.title, score)
			}
			ranked := RankDetailed(tt.query, records(tt.title))
			if !reflect.DeepEqual(ranked[0].MatchedIndexes, []int{firstRuneMatch(tt.title)}) {
				t.Fatalf("MatchedIndexes = %v, want [%d]", ranked[0].MatchedIndexes, firstRuneMatch(tt.title))
			}
		})
	}
}

// firstRuneMatch is the rune position every single-rune query above hits.
func firstRuneMatch(title string) int {
	if strings.HasPrefix(title, "D") {
		return 1
	}
	return 0
}

func TestRankCodScenario(t *testing.T) {
	in := records("Google Chrome", "Slack", "Visual Studio Code")
	got := Rank("cod", in)
	if got[0].Title != "Visual Studio Code" {
		t.Fatalf("top = %q, want Visual Studio Code (order %q)", got[0].Title, titlesOf(got))
	}
	if !reflect.DeepEqual(titlesOf(in), []string{"Google Chrome", "Slack", "Visual Studio Code"}) {
		t.Fatalf("input was reordered: %q", titlesOf(in))
	}
}

func TestRankEmptyQueryKeepsOrder(t *testing.T) {
	in := records("Visual Studio Code", "Google Chrome", "Slack")
	got := RankDetailed("", in)
	for i, r := range got {
		if r.Score != 0 {
			t.Fatalf("score[%d] = %d, want 0", i, r.Score)
		}
		if r.Title != in[i].Title {
			t.Fatalf("order changed at %d: %q != %q", i, r.Title, in[i].Title)
		}
	}
}

func TestRankIsStableForTies(t *testing.T) {
	in := records("Notes A", "Slack", "Notes A", "Mail", "Notes A")
	got := RankDetailed("notes", in)

	var handles []winsys.Handle
	for _, r := range got {
		if r.Title == "Notes A" {
			handles = append(handles, r.Handle)
		}
	}
	want := []winsys.Handle{0x10, 0x12, 0x14}
	if !reflect.DeepEqual(handles, want) {
		t.Fatalf("tied handles = %#x, want %#x", handles, want)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Score < got[i].Score {
			t.Fatalf("scores not descending at %d: %d < %d", i, got[i-1].Score, got[i].Score)
		}
	}
	// Non-matches keep their relative order behind the matches.
	if got[3].Title != "Slack" || got[4].Title != "Mail" {
		t.Fatalf("non-match order = %q", titlesOf(Rank("notes", in)))
	}
}

func TestRankDetailedMatchedIndexes(t *testing.T) {
	got := RankDetailed("cod", records("Visual Studio Code"))
	if len(got) != 1 {
		t.Fatalf("len = %d", len(got))
	}
	idx := got[0].MatchedIndexes
	if len(idx) != 3 {
		t.Fatalf("MatchedIndexes = %v, want 3 positions", idx)
	}
	runes := []rune("Visual Studio Code")
	var matched strings.Builder
	for _, i := range idx {
		matched.WriteRune(runes[i])
	}
	if !strings.EqualFold(matched.String(), "cod") {
		t.Fatalf("matched runes = %q, want cod", matched.String())
	}
}

func TestRuneIndexesWithMultibyteTitle(t *testing.T) {
	got := RankDetailed("mo", records("Größe Monitor"))
	want := []int{6, 7}
	if !reflect.DeepEqual(got[0].MatchedIndexes, want) {
		t.Fatalf("MatchedIndexes = %v, want %v", got[0].MatchedIndexes, want)
	}
}

func TestTop(t *testing.T) {
	if _, ok := Top("x", nil); ok {
		t.Fatal("Top on empty input reported a record")
	}
	rec, ok := Top("sl", records("Google Chrome", "Slack"))
	if !ok || rec.Title != "Slack" {
		t.Fatalf("Top = %q, %v", rec.Title, ok)
	}
	rec, ok = Top("", records("Google Chrome", "Slack"))
	if !ok || rec.Title != "Google Chrome" {
		t.Fatalf("Top with empty query = %q, %v", rec.Title, ok)
	}
}
