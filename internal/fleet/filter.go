package fleet

import (
	"sort"
	"strings"
	"time"

	"github.com/yusukeinoue-jpg/lime-tool/internal/models"
)

// DefaultSentinel is the operational state marking a vehicle for retrieval
const DefaultSentinel = "needs_retrieval"

// Filter keeps the records whose operational state equals sentinel, ignoring case.
// Surrounding whitespace is ignored too, so " needs_retrieval " matches.
// Input order is preserved.
func Filter(records []models.FleetRecord, sentinel string) []models.FleetRecord {
	want := strings.ToLower(strings.TrimSpace(sentinel))

	var out []models.FleetRecord
	for _, r := range records {
		if strings.ToLower(strings.TrimSpace(r.OperationalState)) == want {
			out = append(out, r)
		}
	}
	return out
}

// Annotate sets ElapsedHours on each record relative to now (0 when LastActivity is nil)
func Annotate(records []models.FleetRecord, now time.Time) {
	for i := range records {
		if records[i].LastActivity == nil {
			records[i].ElapsedHours = 0
			continue
		}
		records[i].ElapsedHours = now.Sub(*records[i].LastActivity).Hours()
	}
}

// SortByElapsed orders records longest-idle first. Equal values keep their order.
func SortByElapsed(records []models.FleetRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ElapsedHours > records[j].ElapsedHours
	})
}

// SelectCandidates filters, annotates and sorts in one step.
// An empty result is not an error.
func SelectCandidates(records []models.FleetRecord, sentinel string, now time.Time) []models.FleetRecord {
	candidates := Filter(records, sentinel)
	if len(candidates) == 0 {
		return nil
	}
	Annotate(candidates, now)
	SortByElapsed(candidates)
	return candidates
}
