package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// UnsupportedFrequencyError is returned for resampling frequencies the
// in-process resampler cannot bin.
type UnsupportedFrequencyError struct {
	Frequency string
}

func (e *UnsupportedFrequencyError) Error() string {
	return fmt.Sprintf("unsupported resampling frequency %q", e.Frequency)
}

type freqUnit int

const (
	unitSecond freqUnit = iota + 1
	unitMinute
	unitHour
	unitDay
	unitWeek
	unitMonthStart
	unitMonthEnd
	unitYearStart
	unitYearEnd
)

var (
	frequencyPattern = regexp.MustCompile(`^([0-9]*)(S|s|T|min|H|h|D|d|W-(?:MON|TUE|WED|THU|FRI|SAT|SUN)|W|MS|ME|M|AS|YS|YE|A|Y)$`)

	weekdays = map[string]time.Weekday{
		"SUN": time.Sunday, "MON": time.Monday, "TUE": time.Tuesday, "WED": time.Wednesday,
		"THU": time.Thursday, "FRI": time.Friday, "SAT": time.Saturday,
	}
)

// Frequency is a parsed resampling frequency in the pandas offset-alias
// style: 30S, 15T or 15min, 2H, D, W or W-MON, MS, M, AS or YS, A or Y.
//
// Fixed frequencies label a bin with its left edge. Weekly, month-end and
// year-end frequencies label a bin with its right edge, the anchor date.
type Frequency struct {
	raw    string
	step   int
	unit   freqUnit
	anchor time.Weekday
}

// ParseFrequency validates a frequency string.
func ParseFrequency(s string) (Frequency, error) {
	m := frequencyPattern.FindStringSubmatch(s)
	if m == nil {
		return Frequency{}, &UnsupportedFrequencyError{Frequency: s}
	}
	f := Frequency{raw: s, step: 1}
	if m[1] != "" {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return Frequency{}, &UnsupportedFrequencyError{Frequency: s}
		}
		f.step = n
	}

	switch alias := m[2]; alias {
	case "S", "s":
		f.unit = unitSecond
	case "T", "min":
		f.unit = unitMinute
	case "H", "h":
		f.unit = unitHour
	case "D", "d":
		f.unit = unitDay
	case "W":
		f.unit, f.anchor = unitWeek, time.Sunday
	case "MS":
		f.unit = unitMonthStart
	case "M", "ME":
		f.unit = unitMonthEnd
	case "AS", "YS":
		f.unit = unitYearStart
	case "A", "Y", "YE":
		f.unit = unitYearEnd
	default:
		f.unit, f.anchor = unitWeek, weekdays[alias[2:]]
	}

	if f.step != 1 && f.unit >= unitWeek {
		return Frequency{}, &UnsupportedFrequencyError{Frequency: s}
	}
	return f, nil
}

func (f Frequency) String() string { return f.raw }

func (f Frequency) fixed() (time.Duration, bool) {
	switch f.unit {
	case unitSecond:
		return time.Duration(f.step) * time.Second, true
	case unitMinute:
		return time.Duration(f.step) * time.Minute, true
	case unitHour:
		return time.Duration(f.step) * time.Hour, true
	case unitDay:
		return time.Duration(f.step) * 24 * time.Hour, true
	}
	return 0, false
}

// Bin returns the label of the bin holding t, with fixed-width bins
// anchored at the midnight of t's own day.
func (f Frequency) Bin(t time.Time) time.Time {
	return f.BinFrom(StartDay(t), t)
}

// BinFrom returns the label of the bin holding t. Fixed-width bins are
// laid out from origin; calendar bins ignore it.
func (f Frequency) BinFrom(origin, t time.Time) time.Time {
	if size, ok := f.fixed(); ok {
		elapsed := t.Sub(origin)
		n := elapsed / size
		if elapsed < 0 && elapsed%size != 0 {
			n--
		}
		return origin.Add(n * size)
	}

	loc := t.Location()
	y, mo, _ := t.Date()
	switch f.unit {
	case unitWeek:
		midnight := StartDay(t)
		delta := (int(f.anchor) - int(midnight.Weekday()) + 7) % 7
		return midnight.AddDate(0, 0, delta)
	case unitMonthStart:
		return time.Date(y, mo, 1, 0, 0, 0, 0, loc)
	case unitMonthEnd:
		return time.Date(y, mo+1, 0, 0, 0, 0, 0, loc)
	case unitYearStart:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, time.December, 31, 0, 0, 0, 0, loc)
	}
}

// StartDay returns the midnight opening t's day.
func StartDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}
