package validator

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var (
	// ErrUnknownKind is returned when a validator is requested for a kind this package does not implement.
	ErrUnknownKind = errors.New("unknown validator kind")

	// ErrMissingMessage is returned when the message table has no entry for a kind.
	ErrMissingMessage = errors.New("missing validator message")
)

// Result is the outcome of a single validator run.
type Result struct {
	IsValid      bool   `json:"isValid"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	Value        string `json:"value,omitempty"`
}

// Valid is the result returned by every validator that accepts its input.
var Valid = Result{IsValid: true}

// Kind names a validator.
type Kind string

const (
	KindAtLeastOneValue      Kind = "AT_LEAST_ONE_VALUE"
	KindMinExists            Kind = "MIN_EXISTS"
	KindMaxExists            Kind = "MAX_EXISTS"
	KindMinLessThanMax       Kind = "MIN_LESS_THAN_MAX"
	KindLowerBoundConstraint Kind = "LOWER_BOUND_CONSTRAINT"
	KindUpperBoundConstraint Kind = "UPPER_BOUND_CONSTRAINT"
	KindNumberFormat         Kind = "NUMBER_FORMAT"
	KindDateFormat           Kind = "DATE_FORMAT"
	KindMinBeforeMax         Kind = "MIN_BEFORE_MAX"
	KindValidPattern         Kind = "VALID_PATTERN" // RE2 syntax, not the postgres regex flavor
)

// Kinds lists every kind New accepts.
func Kinds() []Kind {
	return []Kind{
		KindAtLeastOneValue,
		KindMinExists,
		KindMaxExists,
		KindMinLessThanMax,
		KindLowerBoundConstraint,
		KindUpperBoundConstraint,
		KindNumberFormat,
		KindDateFormat,
		KindMinBeforeMax,
		KindValidPattern,
	}
}

// Messages maps a validator kind to the error message reported when it fails.
type Messages map[Kind]string

// DefaultMessages holds the English message of every kind.
var DefaultMessages = Messages{
	KindAtLeastOneValue:      "At least one value is required",
	KindMinExists:            "Minimal value is required",
	KindMaxExists:            "Maximal value is required",
	KindMinLessThanMax:       "Minimal value must be less than or equal to maximal value",
	KindLowerBoundConstraint: "Value is below the allowed lower bound",
	KindUpperBoundConstraint: "Value is above the allowed upper bound",
	KindNumberFormat:         "Value must be a number",
	KindDateFormat:           "Value must be a valid date",
	KindMinBeforeMax:         "Start date must not be after end date",
	KindValidPattern:         "Value must be a valid regular expression",
}

// Bounds are the numeric limits used by the bound constraint validators.
// A nil bound is not enforced.
type Bounds struct {
	Lower *float64
	Upper *float64
}

// Validator checks candidate condition values. Implementations are stateless
// apart from their kind, message and bounds, and never modify values.
type Validator interface {
	Kind() Kind
	Validate(values []string) Result
}

// New builds the validator for kind, taking its message from messages.
func New(kind Kind, bounds Bounds, messages Messages) (Validator, error) {
	message, ok := messages[kind]
	if !ok {
		return nil, errors.Wrapf(ErrMissingMessage, "kind %s", kind)
	}
	b := base{kind: kind, message: message}
	switch kind {
	case KindAtLeastOneValue:
		return &atLeastOneValue{base: b}, nil
	case KindMinExists:
		return &indexExists{base: b, index: 0}, nil
	case KindMaxExists:
		return &indexExists{base: b, index: 1}, nil
	case KindMinLessThanMax:
		return &minLessThanMax{base: b}, nil
	case KindLowerBoundConstraint:
		return &lowerBound{base: b, bound: bounds.Lower}, nil
	case KindUpperBoundConstraint:
		return &upperBound{base: b, bound: bounds.Upper}, nil
	case KindNumberFormat:
		return &numberFormat{base: b}, nil
	case KindDateFormat:
		return &dateFormat{base: b}, nil
	case KindMinBeforeMax:
		return &minBeforeMax{base: b}, nil
	case KindValidPattern:
		return &validPattern{base: b}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownKind, "kind %s", kind)
	}
}

// NewAll builds one validator per kind, in order.
func NewAll(kinds []Kind, bounds Bounds, messages Messages) ([]Validator, error) {
	validators := make([]Validator, 0, len(kinds))
	for _, kind := range kinds {
		v, err := New(kind, bounds, messages)
		if err != nil {
			return nil, err
		}
		validators = append(validators, v)
	}
	return validators, nil
}

// Run applies every validator to values and returns the failing results.
func Run(validators []Validator, values []string) (bool, []Result) {
	results := lo.FilterMap(validators, func(v Validator, _ int) (Result, bool) {
		r := v.Validate(values)
		return r, !r.IsValid
	})
	if results == nil {
		results = []Result{}
	}
	return len(results) == 0, results
}

type base struct {
	kind    Kind
	message string
}

func (b base) Kind() Kind {
	return b.kind
}

func (b base) invalid(value string) Result {
	return Result{
		IsValid:      false,
		ErrorMessage: b.message,
		Value:        value,
	}
}
