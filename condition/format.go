package condition

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/theplant/casefilter/validator"
)

// ErrMissingFormatter indicates a render group without a formatter. It is a configuration error.
var ErrMissingFormatter = errors.New("missing formatter")

// DisplayDateLayout is how dates are rendered by the default formatters.
const DisplayDateLayout = "2006-01-02 15:04"

// Formatter renders a condition as a human readable string.
type Formatter func(displayName string, values []string) string

// Formatters maps render groups to their formatter.
type Formatters map[RenderGroup]Formatter

// DefaultFormatters renders every render group.
var DefaultFormatters = Formatters{
	GroupText:         formatSingle,
	GroupNumeric:      formatSingle,
	GroupDate:         formatSingleDate,
	GroupRangeText:    formatRange,
	GroupRangeNumeric: formatRange,
	GroupRangeDate:    formatDateRange,
	GroupIn:           formatList,
	GroupIsTrue:       formatBoolean,
}

// AsText renders the condition with the formatter of its render group.
// It panics if the formatter table has no entry for the group.
func (c *Common) AsText() string {
	format, ok := c.formatters[c.Group]
	if !ok {
		panic(errors.Wrapf(ErrMissingFormatter, "condition %s (group %s)", c.ID, c.Group))
	}
	return format(c.DisplayName, c.Values)
}

func formatSingle(displayName string, values []string) string {
	return fmt.Sprintf("%s (%s)", displayName, first(values))
}

func formatSingleDate(displayName string, values []string) string {
	return fmt.Sprintf("%s (%s)", displayName, displayDate(first(values)))
}

func formatRange(displayName string, values []string) string {
	return fmt.Sprintf("%s (%s - %s)", displayName, first(values), second(values))
}

func formatDateRange(displayName string, values []string) string {
	return fmt.Sprintf("%s (%s - %s)", displayName, displayDate(first(values)), displayDate(second(values)))
}

func formatList(displayName string, values []string) string {
	return fmt.Sprintf("%s (%s)", displayName, strings.Join(values, ", "))
}

func formatBoolean(_ string, values []string) string {
	if first(values) == "true" {
		return "Yes"
	}
	return "No"
}

func displayDate(value string) string {
	t, err := time.Parse(validator.DateLayout, value)
	if err != nil {
		return value
	}
	return t.Format(DisplayDateLayout)
}

func first(values []string) string {
	if len(values) > 0 {
		return values[0]
	}
	return ""
}

func second(values []string) string {
	if len(values) > 1 {
		return values[1]
	}
	return ""
}
