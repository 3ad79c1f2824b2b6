package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidWeekdaySymbols is returned when a custom symbol list does not
// hold exactly seven entries. The header cannot render without them.
var ErrInvalidWeekdaySymbols = errors.New("calendar: custom weekday symbols must contain exactly 7 entries")

// SymbolStyle selects the weekday labels shown above the grid.
type SymbolStyle int

const (
	SymbolsVeryShort SymbolStyle = iota
	SymbolsShort
	SymbolsRegular
	SymbolsCustom
)

func (s SymbolStyle) String() string {
	switch s {
	case SymbolsVeryShort:
		return "very_short"
	case SymbolsShort:
		return "short"
	case SymbolsRegular:
		return "regular"
	case SymbolsCustom:
		return "custom"
	default:
		return fmt.Sprintf("symbols(%d)", int(s))
	}
}

// ParseSymbolStyle maps a config value to a SymbolStyle.
func ParseSymbolStyle(s string) (SymbolStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "very_short", "":
		return SymbolsVeryShort, nil
	case "short":
		return SymbolsShort, nil
	case "regular":
		return SymbolsRegular, nil
	case "custom":
		return SymbolsCustom, nil
	default:
		return SymbolsVeryShort, fmt.Errorf("calendar: unknown weekday symbol style %q", s)
	}
}

// WeekdaySymbols returns the seven header labels in display order, i.e.
// rotated so the first label belongs to firstWeekday. custom is indexed
// Sunday-first, like time.Weekday, and is only read for SymbolsCustom.
func WeekdaySymbols(style SymbolStyle, firstWeekday time.Weekday, custom []string) ([]string, error) {
	base := make([]string, 7)
	switch style {
	case SymbolsCustom:
		if len(custom) != 7 {
			return nil, fmt.Errorf("%w: got %d", ErrInvalidWeekdaySymbols, len(custom))
		}
		copy(base, custom)
	default:
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			name := wd.String()
			switch style {
			case SymbolsShort:
				name = name[:3]
			case SymbolsVeryShort:
				name = name[:1]
			}
			base[wd] = name
		}
	}
	return rotate(base, int(firstWeekday%7)), nil
}

// rotate shifts s left by n positions.
func rotate(s []string, n int) []string {
	out := make([]string, 0, len(s))
	out = append(out, s[n:]...)
	out = append(out, s[:n]...)
	return out
}
