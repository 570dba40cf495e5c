package condition

import (
	"github.com/theplant/casefilter/validator"
)

// Condition is one predicate a filter field offers. The set of implementations
// is closed: *Text, *Numeric, *Date, *Boolean, *TextRange, *NumericRange,
// *DateRange and *Membership, one per render group.
//
// Validity is not recomputed automatically; call Validate after every mutation.
type Condition interface {
	Base() *Common
	Validate() []validator.Result
	AsText() string
	ToDTO(fieldID string) DTO
	Reset()

	sealed()
}

// Common holds the state shared by every condition variant.
type Common struct {
	ID              Tag
	Group           RenderGroup
	DisplayName     string
	Values          []string
	Constraints     *Constraints
	IsConditionUsed bool
	IsValid         bool
	IsDisabled      bool
	OrderSortIndex  int

	validators []validator.Validator
	formatters Formatters
	defaults   []string
}

// Base exposes the shared state of any variant.
func (c *Common) Base() *Common {
	return c
}

func (c *Common) sealed() {}

// Validate runs the variant validators against the current values, stores the
// outcome in IsValid and returns the failing results.
func (c *Common) Validate() []validator.Result {
	ok, results := validator.Run(c.validators, c.Values)
	c.IsValid = ok
	return results
}

// ValidatorKinds lists the kinds of the validators bound at construction.
func (c *Common) ValidatorKinds() []validator.Kind {
	kinds := make([]validator.Kind, 0, len(c.validators))
	for _, v := range c.validators {
		kinds = append(kinds, v.Kind())
	}
	return kinds
}

// SetIsConditionUsed marks the condition as selected for its field. Fields
// keep at most one used condition; prefer the FilterField operations.
func (c *Common) SetIsConditionUsed(used bool) {
	c.IsConditionUsed = used
}

// SetOrderSortIndex sets the display position among the used conditions of a filter.
func (c *Common) SetOrderSortIndex(index int) {
	c.OrderSortIndex = index
}

// SetDisabled greys the condition out. Disabled conditions cannot be activated.
func (c *Common) SetDisabled(disabled bool) {
	c.IsDisabled = disabled
}

// Reset returns the condition to its freshly created state: unused, invalid,
// enabled, first in order and holding its default values.
func (c *Common) Reset() {
	c.IsConditionUsed = false
	c.IsValid = false
	c.IsDisabled = false
	c.OrderSortIndex = 0
	c.Values = cloneValues(c.defaults)
}

// ToDTO returns the wire form of the condition for fieldID. Values are copied.
func (c *Common) ToDTO(fieldID string) DTO {
	return DTO{
		Field:     fieldID,
		Condition: c.ID,
		Values:    cloneValues(c.Values),
	}
}

func (c *Common) setAt(i int, value string) {
	for len(c.Values) <= i {
		c.Values = append(c.Values, "")
	}
	c.Values[i] = value
}

func (c *Common) at(i int) string {
	if i < len(c.Values) {
		return c.Values[i]
	}
	return ""
}

func cloneValues(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// valuesShape is the number of values a variant holds, -1 for any number.
func valuesShape(c Condition) int {
	switch c.(type) {
	case *Text, *Numeric, *Date, *Boolean:
		return 1
	case *TextRange, *NumericRange, *DateRange:
		return 2
	case *Membership:
		return -1
	default:
		panic("unknown condition variant")
	}
}
