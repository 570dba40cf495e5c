package casefilter

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/theplant/casefilter/condition"
)

// Limits bounds the size of a committed filter.
// A value of 0 means no limit for that metric.
type Limits struct {
	MaxFields      int `json:"maxFields" yaml:"max_fields" mapstructure:"max_fields"`             // Maximum number of distinct fields
	MaxConditions  int `json:"maxConditions" yaml:"max_conditions" mapstructure:"max_conditions"` // Maximum number of DTOs
	MaxListValues  int `json:"maxListValues" yaml:"max_list_values" mapstructure:"max_list_values"`
	MaxValueLength int `json:"maxValueLength" yaml:"max_value_length" mapstructure:"max_value_length"`
}

// Usage contains the measured size of a list of DTOs.
type Usage struct {
	Fields         int
	Conditions     int
	ListValues     int // Largest number of values in one DTO
	MaxValueLength int // Longest single value in bytes
}

var (
	// DefaultLimits fits the dashboard search screens.
	DefaultLimits = &Limits{
		MaxFields:      20,
		MaxConditions:  20,
		MaxListValues:  100,
		MaxValueLength: 256,
	}

	// StrictLimits is meant for filters received from untrusted callers.
	StrictLimits = &Limits{
		MaxFields:      10,
		MaxConditions:  10,
		MaxListValues:  25,
		MaxValueLength: 128,
	}

	// RelaxedLimits is meant for internal tooling.
	RelaxedLimits = &Limits{
		MaxFields:      50,
		MaxConditions:  50,
		MaxListValues:  1000,
		MaxValueLength: 1024,
	}
)

// MeasureUsage calculates the size metrics of dtos.
func MeasureUsage(dtos []condition.DTO) *Usage {
	usage := &Usage{
		Fields: len(lo.UniqBy(dtos, func(dto condition.DTO) string {
			return dto.Field
		})),
		Conditions: len(dtos),
	}
	for _, dto := range dtos {
		usage.ListValues = max(usage.ListValues, len(dto.Values))
		for _, v := range dto.Values {
			usage.MaxValueLength = max(usage.MaxValueLength, len(v))
		}
	}
	return usage
}

// CheckLimits returns an error describing which limit dtos exceed, or nil.
// If limits is nil, no validation is performed.
func CheckLimits(dtos []condition.DTO, limits *Limits) error {
	if limits == nil {
		return nil
	}

	usage := MeasureUsage(dtos)

	if limits.MaxFields > 0 && usage.Fields > limits.MaxFields {
		return errors.Errorf("filter field count %d exceeds limit %d", usage.Fields, limits.MaxFields)
	}
	if limits.MaxConditions > 0 && usage.Conditions > limits.MaxConditions {
		return errors.Errorf("filter condition count %d exceeds limit %d", usage.Conditions, limits.MaxConditions)
	}
	if limits.MaxListValues > 0 && usage.ListValues > limits.MaxListValues {
		return errors.Errorf("filter list value count %d exceeds limit %d", usage.ListValues, limits.MaxListValues)
	}
	if limits.MaxValueLength > 0 && usage.MaxValueLength > limits.MaxValueLength {
		return errors.Errorf("filter value length %d exceeds limit %d", usage.MaxValueLength, limits.MaxValueLength)
	}

	return nil
}
