package condition

import "github.com/pkg/errors"

// ErrTagMismatch is returned when a DTO is applied to a condition of another tag.
var ErrTagMismatch = errors.New("condition tag mismatch")

// ErrValuesShape is returned when a DTO carries a number of values its variant cannot hold.
var ErrValuesShape = errors.New("values do not match condition shape")

// DTO is the wire form of a used condition, exchanged with the backend query API.
type DTO struct {
	Field     string   `json:"field"`
	Condition Tag      `json:"condition"`
	Values    []string `json:"values"`
}

func checkShape(c Condition, values []string) error {
	want := valuesShape(c)
	if want >= 0 && len(values) != want {
		return errors.Wrapf(ErrValuesShape, "condition %s expects %d values, got %d", c.Base().ID, want, len(values))
	}
	return nil
}

// Apply copies the values of dto into c. The DTO must name the condition's tag
// and carry as many values as the variant holds. Validity and used state are
// left to the caller.
func Apply(c Condition, dto DTO) error {
	base := c.Base()
	if dto.Condition != base.ID {
		return errors.Wrapf(ErrTagMismatch, "dto condition %s, condition %s", dto.Condition, base.ID)
	}
	if err := checkShape(c, dto.Values); err != nil {
		return err
	}
	base.Values = cloneValues(dto.Values)
	return nil
}
