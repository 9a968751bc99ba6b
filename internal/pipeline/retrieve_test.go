package pipeline

import (
	"reflect"
	"testing"

	"github.com/supportai/triage-pipeline/internal/ticket"
)

func TestFilterRankedFloorSortTruncate(t *testing.T) {
	docs := []ticket.CandidateDocument{
		{DocID: "a", Score: 0.31},
		{DocID: "b", Score: 0.29}, // below floor
		{DocID: "c", Score: 0.9},
		{DocID: "d", Score: 0.9}, // tied with c, retains retrieval order
		{DocID: "e", Score: 0.5},
		{DocID: "f", Score: 0.4},
	}
	got := FilterRanked(docs, 4)
	ids := make([]string, len(got))
	for i, d := range got {
		ids[i] = d.DocID
	}
	want := []string{"c", "d", "e", "f"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("order = %v, want %v", ids, want)
	}
}

func TestFilterRankedFloorIsInclusive(t *testing.T) {
	got := FilterRanked([]ticket.CandidateDocument{{DocID: "edge", Score: 0.3}}, 3)
	if len(got) != 1 {
		t.Fatalf("score at the floor must survive: %v", got)
	}
}

func TestFilterRankedEmpty(t *testing.T) {
	if got := FilterRanked(nil, 3); len(got) != 0 {
		t.Fatalf("got %v, want empty", got)
	}
}
