package condition

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ErrUnmappedCondition indicates a tag with no render group. It is a configuration error.
var ErrUnmappedCondition = errors.New("unmapped condition")

// Tag names one acceptable condition a filter field may offer.
type Tag string

const (
	Contains       Tag = "CONTAINS"
	NotContains    Tag = "NOT_CONTAINS"
	StartsWith     Tag = "STARTS_WITH"
	EndsWith       Tag = "ENDS_WITH"
	EqualText      Tag = "EQUAL_TEXT"
	NotEqualText   Tag = "NOT_EQUAL_TEXT"
	Regexp         Tag = "REGEXP"
	NotRegexp      Tag = "NOT_REGEXP"
	Equal          Tag = "EQUAL"
	NotEqual       Tag = "NOT_EQUAL"
	Greater        Tag = "GREATER"
	GreaterOrEqual Tag = "GREATER_OR_EQUAL"
	Less           Tag = "LESS"
	LessOrEqual    Tag = "LESS_OR_EQUAL"
	BeforeDate     Tag = "BEFORE_DATE"
	AfterDate      Tag = "AFTER_DATE"
	EqualDate      Tag = "EQUAL_DATE"
	BetweenText    Tag = "BETWEEN_TEXT"
	Between        Tag = "BETWEEN"
	NotBetween     Tag = "NOT_BETWEEN"
	BetweenDate    Tag = "BETWEEN_DATE"
	NotBetweenDate Tag = "NOT_BETWEEN_DATE"
	In             Tag = "IN"
	NotIn          Tag = "NOT_IN"
	IsTrue         Tag = "IS_TRUE"
)

var displayNames = map[Tag]string{
	Contains:       "Contains",
	NotContains:    "Does not contain",
	StartsWith:     "Starts with",
	EndsWith:       "Ends with",
	EqualText:      "Equals",
	NotEqualText:   "Does not equal",
	Regexp:         "Matches pattern",
	NotRegexp:      "Does not match pattern",
	Equal:          "Equal",
	NotEqual:       "Not equal",
	Greater:        "Greater",
	GreaterOrEqual: "Greater or equal",
	Less:           "Less",
	LessOrEqual:    "Less or equal",
	BeforeDate:     "Before",
	AfterDate:      "After",
	EqualDate:      "On date",
	BetweenText:    "In range",
	Between:        "Between",
	NotBetween:     "Not between",
	BetweenDate:    "Between dates",
	NotBetweenDate: "Not between dates",
	In:             "In",
	NotIn:          "Not in",
	IsTrue:         "Is true",
}

// DisplayName is the human label of the tag, falling back to the raw tag.
func (t Tag) DisplayName() string {
	if name, ok := displayNames[t]; ok {
		return name
	}
	return string(t)
}

// RenderGroup is the structural category of a tag. It selects the Condition variant.
type RenderGroup string

const (
	GroupText         RenderGroup = "TEXT"
	GroupNumeric      RenderGroup = "NUMERIC"
	GroupDate         RenderGroup = "DATE"
	GroupRangeText    RenderGroup = "RANGE_TEXT"
	GroupRangeNumeric RenderGroup = "RANGE_NUMERIC"
	GroupRangeDate    RenderGroup = "RANGE_DATE"
	GroupIn           RenderGroup = "IN"
	GroupIsTrue       RenderGroup = "IS_TRUE"
)

// Groups maps every tag to its render group.
type Groups map[Tag]RenderGroup

// DefaultGroups is the complete tag table.
var DefaultGroups = Groups{
	Contains:       GroupText,
	NotContains:    GroupText,
	StartsWith:     GroupText,
	EndsWith:       GroupText,
	EqualText:      GroupText,
	NotEqualText:   GroupText,
	Regexp:         GroupText,
	NotRegexp:      GroupText,
	Equal:          GroupNumeric,
	NotEqual:       GroupNumeric,
	Greater:        GroupNumeric,
	GreaterOrEqual: GroupNumeric,
	Less:           GroupNumeric,
	LessOrEqual:    GroupNumeric,
	BeforeDate:     GroupDate,
	AfterDate:      GroupDate,
	EqualDate:      GroupDate,
	BetweenText:    GroupRangeText,
	Between:        GroupRangeNumeric,
	NotBetween:     GroupRangeNumeric,
	BetweenDate:    GroupRangeDate,
	NotBetweenDate: GroupRangeDate,
	In:             GroupIn,
	NotIn:          GroupIn,
	IsTrue:         GroupIsTrue,
}

// Group returns the render group of tag or an ErrUnmappedCondition error.
func (g Groups) Group(tag Tag) (RenderGroup, error) {
	group, ok := g[tag]
	if !ok {
		return "", errors.Wrapf(ErrUnmappedCondition, "tag %q", tag)
	}
	return group, nil
}

// MustGroup is like Group but panics on unmapped tags.
func (g Groups) MustGroup(tag Tag) RenderGroup {
	group, err := g.Group(tag)
	if err != nil {
		panic(err)
	}
	return group
}

// Tags returns the mapped tags in lexical order.
func (g Groups) Tags() []Tag {
	tags := lo.Keys(g)
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
