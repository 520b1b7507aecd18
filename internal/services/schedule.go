// Package services implements the ledger engine: account lifecycle, atomic
// posting, budgets, recurring automation, and read-only analysis. Every
// mutation is one storage unit of work; balances are derived, never written.
package services

import (
	"financeflow/internal/core"
)

// FirstOccurrence computes a rule's initial due date: the first date on or
// after start that matches the frequency's day parameter. Monthly anchors
// clamp to the end of short months while keeping the anchor day.
func FirstOccurrence(freq core.Frequency, day int, start core.Date) core.Date {
	switch freq {
	case core.Daily:
		return start
	case core.Weekly:
		d := start
		for int(d.Weekday()) != day {
			d = d.AddDays(1)
		}
		return d
	case core.Monthly:
		target := day
		if last := core.DaysInMonth(start.Year(), start.Month()); target > last {
			target = last
		}
		candidate := core.NewDate(start.Year(), start.Month(), target)
		if candidate.Before(start) {
			return candidate.AddMonthsClamped(1, day)
		}
		return candidate
	}
	return start
}

// NextOccurrence advances one period past current. The monthly step clamps
// to month end but re-anchors on the rule's day, so a day-31 rule posts on
// Feb 28 and is back on Mar 31.
func NextOccurrence(freq core.Frequency, day int, current core.Date) core.Date {
	switch freq {
	case core.Daily:
		return current.AddDays(1)
	case core.Weekly:
		return current.AddDays(7)
	case core.Monthly:
		return current.AddMonthsClamped(1, day)
	}
	return current
}
