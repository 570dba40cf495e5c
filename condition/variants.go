package condition

import (
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/theplant/casefilter/validator"
)

// FormatDate renders t in the local timezone using the wire date layout.
func FormatDate(t time.Time) string {
	return t.In(time.Local).Format(validator.DateLayout)
}

// Text is a single free-text value (CONTAINS, REGEXP, ...).
type Text struct{ Common }

// SetValue replaces the text.
func (c *Text) SetValue(value string) {
	c.Values = []string{value}
}

func (c *Text) Value() string {
	return c.at(0)
}

// Numeric is a single number compared against the field (EQUAL, GREATER, ...).
type Numeric struct{ Common }

// SetValue replaces the number, kept as entered.
func (c *Numeric) SetValue(value string) {
	c.Values = []string{value}
}

func (c *Numeric) Value() string {
	return c.at(0)
}

// Date is a single point in time.
type Date struct{ Common }

// SetValue stores t in the local timezone.
func (c *Date) SetValue(t time.Time) {
	c.Values = []string{FormatDate(t)}
}

// Value parses the stored date.
func (c *Date) Value() (time.Time, error) {
	return time.Parse(validator.DateLayout, c.at(0))
}

// Boolean holds "true" or "false" and is always valid.
type Boolean struct{ Common }

// SetValue stores value as "true" or "false".
func (c *Boolean) SetValue(value bool) {
	c.Values = []string{strconv.FormatBool(value)}
}

// Value reports the stored flag; anything unparsable reads as false.
func (c *Boolean) Value() bool {
	v, _ := strconv.ParseBool(c.at(0))
	return v
}

// TextRange is a lexical range; index 0 is the minimum, index 1 the maximum.
type TextRange struct{ Common }

func (c *TextRange) SetMinimalValue(value string) {
	c.setAt(0, value)
}

func (c *TextRange) SetMaximalValue(value string) {
	c.setAt(1, value)
}

func (c *TextRange) MinimalValue() string { return c.at(0) }
func (c *TextRange) MaximalValue() string { return c.at(1) }

// NumericRange is a numeric range; index 0 is the minimum, index 1 the maximum.
type NumericRange struct{ Common }

func (c *NumericRange) SetMinimalValue(value string) {
	c.setAt(0, value)
}

func (c *NumericRange) SetMaximalValue(value string) {
	c.setAt(1, value)
}

func (c *NumericRange) MinimalValue() string { return c.at(0) }
func (c *NumericRange) MaximalValue() string { return c.at(1) }

// DateRange is a date range; index 0 is the start, index 1 the end.
type DateRange struct{ Common }

func (c *DateRange) SetMinimalValue(t time.Time) {
	c.setAt(0, FormatDate(t))
}

func (c *DateRange) SetMaximalValue(t time.Time) {
	c.setAt(1, FormatDate(t))
}

func (c *DateRange) MinimalValue() string { return c.at(0) }
func (c *DateRange) MaximalValue() string { return c.at(1) }

// Membership is a list of accepted values (IN, NOT_IN).
type Membership struct{ Common }

// SetValue appends value unless it is already in the list.
func (c *Membership) SetValue(value string) {
	if lo.Contains(c.Values, value) {
		return
	}
	c.Values = append(c.Values, value)
}

// SetValues replaces the whole list.
func (c *Membership) SetValues(values []string) {
	c.Values = cloneValues(values)
}

// RemoveValue drops value from the list if present.
func (c *Membership) RemoveValue(value string) {
	c.Values = lo.Without(c.Values, value)
}

var variantValidators = map[RenderGroup][]validator.Kind{
	GroupText:    {validator.KindAtLeastOneValue},
	GroupNumeric: {validator.KindAtLeastOneValue, validator.KindNumberFormat, validator.KindLowerBoundConstraint, validator.KindUpperBoundConstraint},
	GroupDate:    {validator.KindAtLeastOneValue, validator.KindDateFormat},
	GroupIsTrue:  {},
	GroupRangeText: {
		validator.KindMinExists,
		validator.KindMaxExists,
	},
	GroupRangeNumeric: {
		validator.KindMinExists,
		validator.KindMaxExists,
		validator.KindMinLessThanMax,
		validator.KindLowerBoundConstraint,
		validator.KindUpperBoundConstraint,
	},
	GroupRangeDate: {
		validator.KindMinExists,
		validator.KindMaxExists,
		validator.KindDateFormat,
		validator.KindMinBeforeMax,
	},
	GroupIn: {validator.KindAtLeastOneValue},
}

// tagValidators are appended to the variant validators of specific tags.
var tagValidators = map[Tag][]validator.Kind{
	Regexp:    {validator.KindValidPattern},
	NotRegexp: {validator.KindValidPattern},
}

func validatorKinds(tag Tag, group RenderGroup) []validator.Kind {
	kinds := make([]validator.Kind, 0, len(variantValidators[group])+len(tagValidators[tag]))
	kinds = append(kinds, variantValidators[group]...)
	return append(kinds, tagValidators[tag]...)
}

func defaultValues(group RenderGroup, now time.Time) []string {
	switch group {
	case GroupText:
		return []string{""}
	case GroupNumeric:
		return []string{"0"}
	case GroupDate:
		return []string{FormatDate(now)}
	case GroupIsTrue:
		return []string{"true"}
	case GroupRangeText:
		return []string{"", ""}
	case GroupRangeNumeric:
		return []string{"0", "0"}
	case GroupRangeDate:
		return []string{FormatDate(now), FormatDate(now)}
	default:
		return []string{}
	}
}
