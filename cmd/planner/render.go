package main

import (
	"alcyxob/workout-tracker/internal/calendar"
	"alcyxob/workout-tracker/internal/domain"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// renderCalendar prints the plan list followed by days starting at from.
func renderCalendar(w io.Writer, cal domain.CalendarData, from time.Time, days int) {
	fmt.Fprintln(w, "Plans:")
	if len(cal.Plans) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, p := range cal.Plans {
		line := fmt.Sprintf("  %-12s %s [%s] %d exercises", p.ID, p.Name, p.Color, len(p.Exercises))
		if p.Duration != nil {
			line += fmt.Sprintf(", %d min", *p.Duration)
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w, "Schedule:")
	for i := 0; i < days; i++ {
		day := from.AddDate(0, 0, i)
		key := domain.DateKey(day)

		var names []string
		for _, id := range cal.ScheduledWorkouts[key] {
			if p, ok := cal.PlanByID(id); ok {
				names = append(names, p.Name)
			} else {
				names = append(names, "? "+id)
			}
		}
		entry := "-"
		if len(names) > 0 {
			entry = strings.Join(names, ", ")
		}
		fmt.Fprintf(w, "  %s %s  %s\n", day.Format("Mon"), key, entry)
	}
}

// gesture is a drag performed from the command line.
type gesture struct {
	planID   string
	device   calendar.Device
	distance float64 // pointer travel; 0 means the activation distance
	targetID string
}

// simulateDrag replays a gesture on ctrl. A touch gesture holds still for the
// touch delay before moving.
func simulateDrag(ctrl *calendar.Controller, sensors calendar.Sensors, g gesture, sleep func(time.Duration)) calendar.DropResult {
	if !ctrl.Start(g.planID, g.device) {
		return calendar.DropResult{Outcome: calendar.OutcomeIgnored, PlanID: g.planID}
	}
	distance := g.distance
	if distance == 0 {
		distance = sensors.PointerDistance
	}

	if g.device == calendar.DeviceTouch {
		sleep(sensors.TouchDelay)
		ctrl.Move(0, 0)
	}
	ctrl.Move(distance, 0)
	return ctrl.End(g.targetID)
}

func describeDrop(res calendar.DropResult) string {
	switch res.Outcome {
	case calendar.OutcomeDropped:
		if res.Changed {
			return fmt.Sprintf("Scheduled %s on %s", res.PlanID, res.DateKey)
		}
		return fmt.Sprintf("%s is already on %s", res.PlanID, res.DateKey)
	case calendar.OutcomeDiscarded:
		return fmt.Sprintf("Drag of %s discarded: it never activated or missed the calendar", res.PlanID)
	default:
		return fmt.Sprintf("Drag of %s %s", res.PlanID, res.Outcome)
	}
}

// runRestTimer counts down d, one tick per second, and rings the bell at zero.
// It returns ctx.Err() when interrupted.
func runRestTimer(ctx context.Context, w io.Writer, d time.Duration, tick <-chan time.Time) error {
	remaining := d
	for remaining > 0 {
		fmt.Fprintf(w, "\rRest %s ", formatClock(remaining))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			remaining -= time.Second
		}
	}
	fmt.Fprintf(w, "\rRest %s \a\nGo!\n", formatClock(0))
	return nil
}

func formatClock(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
