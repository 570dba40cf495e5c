package condition

import (
	"github.com/pkg/errors"

	"github.com/theplant/casefilter/validator"
)

// ErrInvalidConstraints indicates bounds that are not numbers or are out of order.
var ErrInvalidConstraints = errors.New("invalid constraints")

// Constraints are the optional bounds a filter field imposes on its conditions.
// An empty or nil bound is not enforced.
type Constraints struct {
	LowerBound *string `json:"lowerBound,omitempty" yaml:"lower_bound,omitempty" mapstructure:"lower_bound"`
	UpperBound *string `json:"upperBound,omitempty" yaml:"upper_bound,omitempty" mapstructure:"upper_bound"`
}

// Bounds parses the configured bounds for the bound validators.
func (c *Constraints) Bounds() (validator.Bounds, error) {
	var bounds validator.Bounds
	if c == nil {
		return bounds, nil
	}
	if c.LowerBound != nil && *c.LowerBound != "" {
		n, ok := validator.ParseNumber(*c.LowerBound)
		if !ok {
			return bounds, errors.Wrapf(ErrInvalidConstraints, "lower bound %q is not a number", *c.LowerBound)
		}
		bounds.Lower = &n
	}
	if c.UpperBound != nil && *c.UpperBound != "" {
		n, ok := validator.ParseNumber(*c.UpperBound)
		if !ok {
			return bounds, errors.Wrapf(ErrInvalidConstraints, "upper bound %q is not a number", *c.UpperBound)
		}
		bounds.Upper = &n
	}
	if bounds.Lower != nil && bounds.Upper != nil && *bounds.Lower > *bounds.Upper {
		return bounds, errors.Wrapf(ErrInvalidConstraints, "lower bound %v is greater than upper bound %v", *bounds.Lower, *bounds.Upper)
	}
	return bounds, nil
}

// Validate reports whether the constraints can be used to build validators.
func (c *Constraints) Validate() error {
	_, err := c.Bounds()
	return err
}
