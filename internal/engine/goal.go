package engine

import (
	"math"
	"time"

	"finguard/internal/core"
)

// GoalSchedule is the derived payment plan for one savings goal.
type GoalSchedule struct {
	Goal            core.Goal `json:"goal"`
	MonthsRemaining int       `json:"monthsRemaining"` // floored at 1
	Remaining       float64   `json:"remaining"`       // max(target-saved, 0)
	Monthly         int64     `json:"monthly"`         // ceil(remaining/months)
	Progress        int64     `json:"progress"`        // rounded percent, clamped
}

// MonthsBetween returns the whole-month difference between two dates,
// floored at 1 so contribution math never divides by zero or a negative.
func MonthsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	months := int(to.Month()) - int(from.Month())
	total := years*12 + months
	if total <= 0 {
		return 1
	}
	return total
}

// ComputeGoalSchedule derives the schedule for a single goal as of today.
// A goal carries either a target date (converted to a month count) or a
// direct month count; both are floored at 1.
func ComputeGoalSchedule(g core.Goal, today time.Time) GoalSchedule {
	s := GoalSchedule{Goal: g, MonthsRemaining: 1}
	if !g.TargetDate.IsZero() {
		s.MonthsRemaining = MonthsBetween(today, g.TargetDate.Time)
	} else if g.Months > 0 {
		s.MonthsRemaining = g.Months
	}

	s.Remaining = g.Target - g.Saved
	if s.Remaining < 0 {
		s.Remaining = 0
	}
	// Users are never told to save less than strictly required.
	s.Monthly = int64(math.Ceil(s.Remaining / float64(s.MonthsRemaining)))

	if g.Target > 0 {
		percent := g.Saved / g.Target * 100
		if percent > 100 {
			percent = 100
		}
		s.Progress = core.RoundHalfUp(percent)
	}
	return s
}

// ComputeGoalSchedules derives schedules for every goal, preserving input
// order.
func ComputeGoalSchedules(goals []core.Goal, today time.Time) []GoalSchedule {
	out := make([]GoalSchedule, 0, len(goals))
	for _, g := range goals {
		out = append(out, ComputeGoalSchedule(g, today))
	}
	return out
}

// NearestGoal returns the schedule with the fewest months remaining, or
// false when there are no goals.
func NearestGoal(goals []core.Goal, today time.Time) (GoalSchedule, bool) {
	schedules := ComputeGoalSchedules(goals, today)
	if len(schedules) == 0 {
		return GoalSchedule{}, false
	}
	nearest := schedules[0]
	for _, s := range schedules[1:] {
		if s.MonthsRemaining < nearest.MonthsRemaining {
			nearest = s
		}
	}
	return nearest, true
}
