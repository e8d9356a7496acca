package calendar

import (
	"strings"

	"alcyxob/workout-tracker/internal/domain"
)

// DayTargetPrefix prefixes the drop target ID of every calendar day cell.
// The rendering layer depends on this exact form.
const DayTargetPrefix = "day-"

// DropTargetID returns the drop target ID for a schedule date key.
func DropTargetID(dateKey string) string {
	return DayTargetPrefix + dateKey
}

// ParseDropTarget extracts the date key from a day drop target ID.
// ok is false for anything that is not "day-<ISO date>".
func ParseDropTarget(targetID string) (dateKey string, ok bool) {
	if !strings.HasPrefix(targetID, DayTargetPrefix) {
		return "", false
	}
	dateKey = strings.TrimPrefix(targetID, DayTargetPrefix)
	if !domain.ValidDateKey(dateKey) {
		return "", false
	}
	return dateKey, true
}
