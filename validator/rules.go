package validator

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire layout of date condition values.
const DateLayout = time.RFC3339

type atLeastOneValue struct{ base }

func (v *atLeastOneValue) Validate(values []string) Result {
	switch len(values) {
	case 0:
		return v.invalid("")
	case 1:
		if values[0] == "" {
			return v.invalid("")
		}
	}
	return Valid
}

// indexExists requires values[index] to be present and non-empty.
type indexExists struct {
	base
	index int
}

func (v *indexExists) Validate(values []string) Result {
	if len(values) <= v.index || values[v.index] == "" {
		return v.invalid("")
	}
	return Valid
}

type minLessThanMax struct{ base }

func (v *minLessThanMax) Validate(values []string) Result {
	minValue, maxValue := at(values, 0), at(values, 1)
	lower, okLower := ParseNumber(minValue)
	upper, okUpper := ParseNumber(maxValue)
	if !okLower || !okUpper || lower > upper {
		return v.invalid(minValue)
	}
	return Valid
}

type lowerBound struct {
	base
	bound *float64
}

func (v *lowerBound) Validate(values []string) Result {
	if v.bound == nil {
		return Valid
	}
	for _, value := range values {
		if value == "" {
			continue
		}
		n, ok := ParseNumber(value)
		if !ok || n < *v.bound {
			return v.invalid(value)
		}
	}
	return Valid
}

type upperBound struct {
	base
	bound *float64
}

func (v *upperBound) Validate(values []string) Result {
	if v.bound == nil {
		return Valid
	}
	for _, value := range values {
		if value == "" {
			continue
		}
		n, ok := ParseNumber(value)
		if !ok || n > *v.bound {
			return v.invalid(value)
		}
	}
	return Valid
}

type numberFormat struct{ base }

func (v *numberFormat) Validate(values []string) Result {
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := ParseNumber(value); !ok {
			return v.invalid(value)
		}
	}
	return Valid
}

type dateFormat struct{ base }

func (v *dateFormat) Validate(values []string) Result {
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, value); err != nil {
			return v.invalid(value)
		}
	}
	return Valid
}

type minBeforeMax struct{ base }

func (v *minBeforeMax) Validate(values []string) Result {
	minValue, maxValue := at(values, 0), at(values, 1)
	from, errFrom := time.Parse(DateLayout, minValue)
	to, errTo := time.Parse(DateLayout, maxValue)
	if errFrom != nil || errTo != nil || from.After(to) {
		return v.invalid(minValue)
	}
	return Valid
}

// validPattern compiles values with Go's RE2 syntax. Patterns are matched by
// postgres `~`, whose ARE flavor differs: lookahead and backreferences pass
// postgres but fail here, and a few RE2 forms such as `(?P<name>...)` pass
// here but are rejected by postgres at query time.
type validPattern struct{ base }

func (v *validPattern) Validate(values []string) Result {
	for _, value := range values {
		if _, err := regexp.Compile(value); err != nil {
			return v.invalid(value)
		}
	}
	return Valid
}

// ParseNumber parses a decimal value, rejecting NaN and infinities.
func ParseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
