package fleet

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/yusukeinoue-jpg/lime-tool/internal/models"
)

func ts(t time.Time) *time.Time { return &t }

func TestFilter(t *testing.T) {
	records := []models.FleetRecord{
		{ID: "1", OperationalState: "needs_retrieval"},
		{ID: "2", OperationalState: "available"},
		{ID: "3", OperationalState: "Needs_Retrieval"},
		{ID: "4", OperationalState: " NEEDS_RETRIEVAL "},
		{ID: "5", OperationalState: ""},
	}

	got := Filter(records, DefaultSentinel)
	var ids []string
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	want := []string{"1", "3", "4"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("Filter() ids = %v, want %v", ids, want)
	}
}

func TestFilter_Idempotent(t *testing.T) {
	records := []models.FleetRecord{
		{ID: "1", OperationalState: "needs_retrieval"},
		{ID: "2", OperationalState: "on_trip"},
		{ID: "3", OperationalState: "NEEDS_RETRIEVAL"},
	}

	once := Filter(records, DefaultSentinel)
	twice := Filter(once, DefaultSentinel)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Filter() not idempotent: %v vs %v", once, twice)
	}
}

func TestAnnotate(t *testing.T) {
	now := time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC)
	records := []models.FleetRecord{
		{ID: "five", LastActivity: ts(now.Add(-5 * time.Hour))},
		{ID: "none"},
		{ID: "ninety minutes", LastActivity: ts(now.Add(-90 * time.Minute))},
	}

	Annotate(records, now)

	if math.Abs(records[0].ElapsedHours-5) > 1e-9 {
		t.Errorf("ElapsedHours = %v, want 5", records[0].ElapsedHours)
	}
	if records[0].WholeHours() != 5 {
		t.Errorf("WholeHours() = %d, want 5", records[0].WholeHours())
	}
	if records[1].ElapsedHours != 0 {
		t.Errorf("ElapsedHours without timestamp = %v, want 0", records[1].ElapsedHours)
	}
	if records[2].WholeHours() != 1 {
		t.Errorf("WholeHours() for 1.5h = %d, want 1 (truncated)", records[2].WholeHours())
	}
}

func TestSelectCandidates_SortedDescending(t *testing.T) {
	now := time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC)
	records := []models.FleetRecord{
		{ID: "a", OperationalState: "needs_retrieval", LastActivity: ts(now.Add(-2 * time.Hour))},
		{ID: "b", OperationalState: "available", LastActivity: ts(now.Add(-100 * time.Hour))},
		{ID: "c", OperationalState: "needs_retrieval"},
		{ID: "d", OperationalState: "needs_retrieval", LastActivity: ts(now.Add(-30 * time.Hour))},
		{ID: "e", OperationalState: "needs_retrieval"},
		{ID: "f", OperationalState: "needs_retrieval", LastActivity: ts(now.Add(-2 * time.Hour))},
	}

	got := SelectCandidates(records, DefaultSentinel, now)

	var ids []string
	for i, r := range got {
		ids = append(ids, r.ID)
		if i > 0 && got[i-1].ElapsedHours < r.ElapsedHours {
			t.Errorf("ElapsedHours increases at %d: %v < %v", i, got[i-1].ElapsedHours, r.ElapsedHours)
		}
	}
	// Ties keep upload order
	want := []string{"d", "a", "f", "c", "e"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("SelectCandidates() order = %v, want %v", ids, want)
	}

	// The input slice is not modified
	if records[0].ElapsedHours != 0 {
		t.Error("SelectCandidates() mutated its input")
	}
}

func TestSelectCandidates_Empty(t *testing.T) {
	records := []models.FleetRecord{
		{ID: "1", OperationalState: "available"},
		{ID: "2", OperationalState: "charging"},
	}
	if got := SelectCandidates(records, DefaultSentinel, time.Now()); len(got) != 0 {
		t.Errorf("SelectCandidates() = %v, want empty", got)
	}
}

func TestLoadThenSelect_MissingLastRide(t *testing.T) {
	input := "id,plate number,operational state,last ride,latitude,longitude\nv1,P1,needs_retrieval,???,35.68,139.76\n"

	records, err := Load(strings.NewReader(input), time.UTC)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got := SelectCandidates(records, DefaultSentinel, time.Now())
	if len(got) != 1 {
		t.Fatalf("SelectCandidates() returned %d, want 1", len(got))
	}
	if got[0].ElapsedHours != 0 || got[0].WholeHours() != 0 {
		t.Errorf("ElapsedHours = %v, want 0", got[0].ElapsedHours)
	}
}
