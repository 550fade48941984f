package repository

import "time"

// Period represents how much daily history to fetch for a symbol.
type Period string

const (
	Period1Mo Period = "1mo"
	Period3Mo Period = "3mo"
	Period6Mo Period = "6mo"
	Period1Y  Period = "1y"
	Period2Y  Period = "2y"
)

// IsValidPeriod returns true if p is a supported history period.
func IsValidPeriod(p Period) bool {
	switch p {
	case Period1Mo, Period3Mo, Period6Mo, Period1Y, Period2Y:
		return true
	default:
		return false
	}
}

// DefaultPeriod returns the default history period.
func DefaultPeriod() Period { return Period1Y }

// NormalizePeriod converts a raw string to a valid period (or default).
func NormalizePeriod(s string) Period {
	if s == "" {
		return DefaultPeriod()
	}
	p := Period(s)
	if IsValidPeriod(p) {
		return p
	}
	return DefaultPeriod()
}

// Duration converts a period to a calendar duration, used to compute the
// from-timestamp of a provider request.
func (p Period) Duration() time.Duration {
	const day = 24 * time.Hour
	switch p {
	case Period1Mo:
		return 31 * day
	case Period3Mo:
		return 92 * day
	case Period6Mo:
		return 183 * day
	case Period2Y:
		return 2 * 365 * day
	default:
		return 365 * day
	}
}
