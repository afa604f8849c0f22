package audience

import (
	"strings"

	"github.com/bobotcho/wacommerce/internal/model"
)

// Segment is a closed set of audience-selection rules.
type Segment string

const (
	SegmentAll         Segment = "all"
	SegmentActive30d   Segment = "active_30d"
	SegmentInactive30d Segment = "inactive_30d"
	SegmentNew7d       Segment = "new_7d"
)

func (s Segment) String() string { return string(s) }

func (s Segment) Valid() bool {
	switch s {
	case SegmentAll, SegmentActive30d, SegmentInactive30d, SegmentNew7d:
		return true
	}
	return false
}

// ParseSegment normalizes input; empty => all.
// Returns (value, true) if valid; otherwise (all, false).
func ParseSegment(s string) (Segment, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return SegmentAll, true
	case "active_30d":
		return SegmentActive30d, true
	case "inactive_30d":
		return SegmentInactive30d, true
	case "new_7d":
		return SegmentNew7d, true
	default:
		return SegmentAll, false
	}
}

// SegmentForTrigger maps an automation trigger to the audience it targets.
var segmentForTrigger = map[model.TriggerType]Segment{
	model.TriggerNewCustomer:   SegmentNew7d,
	model.TriggerInactive30d:   SegmentInactive30d,
	model.TriggerCartAbandoned: SegmentActive30d,
	model.TriggerOrderCreated:  SegmentAll,
	model.TriggerPostPurchase:  SegmentActive30d,
}

func SegmentForTrigger(t model.TriggerType) Segment {
	if s, ok := segmentForTrigger[t]; ok {
		return s
	}
	return SegmentAll
}
