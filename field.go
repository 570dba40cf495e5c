package casefilter

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/theplant/casefilter/condition"
	"github.com/theplant/casefilter/validator"
)

var (
	// ErrConditionNotFound is returned when a field does not offer the requested condition.
	ErrConditionNotFound = errors.New("condition not found")

	// ErrFieldInUse is returned when a second condition is activated on a field that already has one.
	ErrFieldInUse = errors.New("field already has a used condition")

	// ErrConditionDisabled is returned when a disabled condition is activated.
	ErrConditionDisabled = errors.New("condition is disabled")
)

// MutationType is the editing state of a filter field.
type MutationType string

const (
	MutationNone   MutationType = ""
	MutationCreate MutationType = "CREATE"
	MutationUpdate MutationType = "UPDATE"
)

// FieldConfig is the static description of a filterable field, as provided by settings.
type FieldConfig struct {
	ID                   string          `json:"id" yaml:"id" mapstructure:"id"`
	DisplayName          string          `json:"displayName" yaml:"display_name" mapstructure:"display_name"`
	Category             string          `json:"category" yaml:"category" mapstructure:"category"`
	Description          string          `json:"description" yaml:"description" mapstructure:"description"`
	AcceptableConditions []condition.Tag `json:"acceptableConditions" yaml:"acceptable_conditions" mapstructure:"acceptable_conditions"`
	LowerBound           *string         `json:"lowerBound,omitempty" yaml:"lower_bound,omitempty" mapstructure:"lower_bound"`
	UpperBound           *string         `json:"upperBound,omitempty" yaml:"upper_bound,omitempty" mapstructure:"upper_bound"`
}

// FilterField owns every condition one field offers and tracks which of them is used.
// At most one condition is used at a time.
type FilterField struct {
	ID                   string
	Category             string
	DisplayName          string
	Description          string
	AcceptableConditions []condition.Tag
	Conditions           []condition.Condition
	LowerBound           *string
	UpperBound           *string
	MutationType         MutationType

	logger zerolog.Logger
}

// FieldOption configures a FilterField.
type FieldOption func(f *FilterField)

// WithLogger sets the logger receiving lifecycle events at debug level.
func WithLogger(logger zerolog.Logger) FieldOption {
	return func(f *FilterField) {
		f.logger = logger
	}
}

// WithMutationType sets whether the field is being created or updated.
func WithMutationType(mutationType MutationType) FieldOption {
	return func(f *FilterField) {
		f.MutationType = mutationType
	}
}

// NewFilterField returns an unpopulated field; call CreateConditions to populate it.
func NewFilterField(cfg FieldConfig, opts ...FieldOption) *FilterField {
	f := &FilterField{
		ID:                   cfg.ID,
		Category:             cfg.Category,
		DisplayName:          cfg.DisplayName,
		Description:          cfg.Description,
		AcceptableConditions: append([]condition.Tag{}, cfg.AcceptableConditions...),
		Conditions:           []condition.Condition{},
		LowerBound:           cfg.LowerBound,
		UpperBound:           cfg.UpperBound,
		logger:               zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Config returns the static description the field was built from.
func (f *FilterField) Config() FieldConfig {
	return FieldConfig{
		ID:                   f.ID,
		DisplayName:          f.DisplayName,
		Category:             f.Category,
		Description:          f.Description,
		AcceptableConditions: append([]condition.Tag{}, f.AcceptableConditions...),
		LowerBound:           f.LowerBound,
		UpperBound:           f.UpperBound,
	}
}

// Constraints returns the numeric bounds of the field, or nil when it has none.
func (f *FilterField) Constraints() *condition.Constraints {
	return &condition.Constraints{
		LowerBound: f.LowerBound,
		UpperBound: f.UpperBound,
	}
}

// CreateConditions instantiates one condition per acceptable tag, orders them by
// display name and activates the first enabled one at position 0.
func (f *FilterField) CreateConditions(factory *condition.Factory) error {
	constraints := f.Constraints()
	tags := lo.Uniq(f.AcceptableConditions)
	conditions := make([]condition.Condition, 0, len(tags))
	for _, tag := range tags {
		c, err := factory.CreateCondition(tag, constraints)
		if err != nil {
			return errors.Wrapf(err, "field %s", f.ID)
		}
		conditions = append(conditions, c)
	}

	sort.SliceStable(conditions, func(i, j int) bool {
		return conditions[i].Base().DisplayName < conditions[j].Base().DisplayName
	})
	if first, ok := lo.Find(conditions, func(c condition.Condition) bool {
		return !c.Base().IsDisabled
	}); ok {
		first.Base().SetIsConditionUsed(true)
		first.Base().SetOrderSortIndex(0)
	}
	f.Conditions = conditions

	f.logger.Debug().
		Str("field", f.ID).
		Int("conditions", len(conditions)).
		Msg("filter field populated")
	return nil
}

// Condition returns the condition with the given tag, or nil.
func (f *FilterField) Condition(tag condition.Tag) condition.Condition {
	c, _ := lo.Find(f.Conditions, func(c condition.Condition) bool {
		return c.Base().ID == tag
	})
	return c
}

// UsedCondition returns the used condition, or nil.
func (f *FilterField) UsedCondition() condition.Condition {
	c, _ := lo.Find(f.Conditions, isUsed)
	return c
}

// UsedConditions returns the used conditions in display order.
func (f *FilterField) UsedConditions() []condition.Condition {
	used := lo.Filter(f.Conditions, func(c condition.Condition, _ int) bool {
		return isUsed(c)
	})
	sort.SliceStable(used, func(i, j int) bool {
		a, b := used[i].Base(), used[j].Base()
		if a.OrderSortIndex != b.OrderSortIndex {
			return a.OrderSortIndex < b.OrderSortIndex
		}
		return a.DisplayName < b.DisplayName
	})
	return used
}

// IsFilterUsed reports whether any condition of the field is used.
func (f *FilterField) IsFilterUsed() bool {
	return lo.SomeBy(f.Conditions, isUsed)
}

// ChangeUsedCondition makes tag the used condition. The previously used
// condition is deactivated and its display position handed over. Disabled
// conditions cannot be selected.
func (f *FilterField) ChangeUsedCondition(tag condition.Tag) error {
	next := f.Condition(tag)
	if next == nil {
		return errors.Wrapf(ErrConditionNotFound, "field %s condition %s", f.ID, tag)
	}

	order := 0
	if prev := f.UsedCondition(); prev != nil {
		if prev == next {
			return nil
		}
		order = prev.Base().OrderSortIndex
	}
	if next.Base().IsDisabled {
		return errors.Wrapf(ErrConditionDisabled, "field %s condition %s", f.ID, tag)
	}
	for _, c := range f.Conditions {
		c.Base().SetIsConditionUsed(false)
	}
	next.Base().SetIsConditionUsed(true)
	next.Base().SetOrderSortIndex(order)

	f.logger.Debug().
		Str("field", f.ID).
		Str("condition", string(tag)).
		Int("order", order).
		Msg("used condition changed")
	return nil
}

// AddCondition activates tag at the given display position on a field with no used condition.
func (f *FilterField) AddCondition(tag condition.Tag, orderSortIndex int) error {
	c := f.Condition(tag)
	if c == nil {
		return errors.Wrapf(ErrConditionNotFound, "field %s condition %s", f.ID, tag)
	}
	if c.Base().IsDisabled {
		return errors.Wrapf(ErrConditionDisabled, "field %s condition %s", f.ID, tag)
	}
	if used := f.UsedCondition(); used != nil {
		return errors.Wrapf(ErrFieldInUse, "field %s condition %s", f.ID, used.Base().ID)
	}
	c.Base().SetIsConditionUsed(true)
	c.Base().SetOrderSortIndex(orderSortIndex)
	return nil
}

// RemoveCondition returns the condition to its unused default state.
func (f *FilterField) RemoveCondition(tag condition.Tag) error {
	c := f.Condition(tag)
	if c == nil {
		return errors.Wrapf(ErrConditionNotFound, "field %s condition %s", f.ID, tag)
	}
	c.Reset()

	f.logger.Debug().
		Str("field", f.ID).
		Str("condition", string(tag)).
		Msg("condition removed")
	return nil
}

// Validate revalidates every used condition and returns the failures by tag.
func (f *FilterField) Validate() map[condition.Tag][]validator.Result {
	results := make(map[condition.Tag][]validator.Result)
	for _, c := range f.UsedConditions() {
		if failures := c.Validate(); len(failures) > 0 {
			results[c.Base().ID] = failures
		}
	}
	return results
}

// IsFilterUsedConditionsAreValid reports whether every used condition is valid
// as of its last Validate call. A field without used conditions is valid unless
// it is being created.
func (f *FilterField) IsFilterUsedConditionsAreValid() bool {
	used := f.UsedConditions()
	if len(used) == 0 {
		return f.MutationType != MutationCreate
	}
	return lo.EveryBy(used, func(c condition.Condition) bool {
		return c.Base().IsValid
	})
}

// FilterConditionsToDTOs emits one DTO per used and valid condition.
func (f *FilterField) FilterConditionsToDTOs() []condition.DTO {
	dtos := []condition.DTO{}
	for _, c := range f.UsedConditions() {
		if !c.Base().IsValid {
			f.logger.Debug().
				Str("field", f.ID).
				Str("condition", string(c.Base().ID)).
				Msg("skipping invalid condition")
			continue
		}
		dtos = append(dtos, c.ToDTO(f.ID))
	}
	return dtos
}

// FromOld rebuilds a field from a previously committed one. Values, selection
// state and order are kept; every condition gets fresh validators and is revalidated.
func FromOld(old *FilterField, factory *condition.Factory) (*FilterField, error) {
	f := NewFilterField(old.Config(), WithMutationType(old.MutationType), WithLogger(old.logger))
	conditions := make([]condition.Condition, 0, len(old.Conditions))
	for _, oc := range old.Conditions {
		c, err := factory.Recreate(oc)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", old.ID)
		}
		conditions = append(conditions, c)
	}
	f.Conditions = conditions
	return f, nil
}

// FromDTOs populates a field for editing (UPDATE) from committed DTOs. DTOs of
// other fields are ignored; each DTO for this field is applied, marked used at
// its position in dtos and validated.
func FromDTOs(cfg FieldConfig, dtos []condition.DTO, factory *condition.Factory, opts ...FieldOption) (*FilterField, error) {
	f := NewFilterField(cfg, append([]FieldOption{WithMutationType(MutationUpdate)}, opts...)...)
	if err := f.CreateConditions(factory); err != nil {
		return nil, err
	}
	for _, c := range f.Conditions {
		c.Base().SetIsConditionUsed(false)
	}
	for i, dto := range dtos {
		if dto.Field != f.ID {
			continue
		}
		if err := f.applyDTO(dto, i); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *FilterField) applyDTO(dto condition.DTO, orderSortIndex int) error {
	c := f.Condition(dto.Condition)
	if c == nil {
		return errors.Wrapf(ErrConditionNotFound, "field %s condition %s", f.ID, dto.Condition)
	}
	if err := f.AddCondition(dto.Condition, orderSortIndex); err != nil {
		return err
	}
	if err := condition.Apply(c, dto); err != nil {
		return errors.Wrapf(err, "field %s", f.ID)
	}
	c.Validate()
	return nil
}

func isUsed(c condition.Condition) bool {
	return c.Base().IsConditionUsed
}
