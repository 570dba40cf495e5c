package condition

import (
	"time"

	"github.com/pkg/errors"

	"github.com/theplant/casefilter/internal/hook"
	"github.com/theplant/casefilter/validator"
)

// CreateInput describes the condition to be built by a CreateFunc.
type CreateInput struct {
	Tag         Tag
	Group       RenderGroup
	Constraints *Constraints
}

// CreateFunc builds a condition. Hooks wrap it to decorate or replace creation.
type CreateFunc func(input *CreateInput) (Condition, error)

// Factory maps tags to condition variants, binding validators, formatters and constraints.
type Factory struct {
	groups     Groups
	messages   validator.Messages
	formatters Formatters
	now        func() time.Time
	createHook func(next CreateFunc) CreateFunc
}

// FactoryOption configures a Factory.
type FactoryOption func(f *Factory)

// WithGroups replaces the tag to render group table.
func WithGroups(groups Groups) FactoryOption {
	return func(f *Factory) {
		f.groups = groups
	}
}

// WithMessages replaces the validator message table.
func WithMessages(messages validator.Messages) FactoryOption {
	return func(f *Factory) {
		f.messages = messages
	}
}

// WithFormatters replaces the render group formatter table.
func WithFormatters(formatters Formatters) FactoryOption {
	return func(f *Factory) {
		f.formatters = formatters
	}
}

// WithNow sets the clock used for the default values of date conditions.
func WithNow(now func() time.Time) FactoryOption {
	return func(f *Factory) {
		f.now = now
	}
}

// WithCreateHook adds hooks around condition creation.
// Hooks are applied in the order they are added.
func WithCreateHook(hooks ...func(next CreateFunc) CreateFunc) FactoryOption {
	return func(f *Factory) {
		f.createHook = hook.Append(f.createHook, hooks...)
	}
}

// NewFactory returns a factory using DefaultGroups, DefaultMessages and
// DefaultFormatters unless overridden by opts.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		groups:     DefaultGroups,
		messages:   validator.DefaultMessages,
		formatters: DefaultFormatters,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Groups returns the tag table the factory dispatches on.
func (f *Factory) Groups() Groups {
	return f.groups
}

// CreateCondition builds the variant for tag with its default values.
// Unmapped tags and unusable constraints are configuration errors.
func (f *Factory) CreateCondition(tag Tag, constraints *Constraints) (Condition, error) {
	group, err := f.groups.Group(tag)
	if err != nil {
		return nil, err
	}
	if err := constraints.Validate(); err != nil {
		return nil, errors.Wrapf(err, "condition %s", tag)
	}

	create := f.create
	if f.createHook != nil {
		create = f.createHook(create)
	}
	c, err := create(&CreateInput{
		Tag:         tag,
		Group:       group,
		Constraints: constraints,
	})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.Errorf("condition %s: create returned nil", tag)
	}
	return c, nil
}

// MustCreateCondition is like CreateCondition but panics on error.
func (f *Factory) MustCreateCondition(tag Tag, constraints *Constraints) Condition {
	c, err := f.CreateCondition(tag, constraints)
	if err != nil {
		panic(err)
	}
	return c
}

// FromDTO builds the condition named by dto and copies its values verbatim.
// The result is neither validated nor marked as used.
func (f *Factory) FromDTO(dto DTO, constraints *Constraints) (Condition, error) {
	c, err := f.CreateCondition(dto.Condition, constraints)
	if err != nil {
		return nil, err
	}
	if err := Apply(c, dto); err != nil {
		return nil, err
	}
	return c, nil
}

// Recreate builds a fresh condition of the same tag carrying over the values and
// selection state of old, then validates it.
func (f *Factory) Recreate(old Condition) (Condition, error) {
	prev := old.Base()
	c, err := f.CreateCondition(prev.ID, prev.Constraints)
	if err != nil {
		return nil, err
	}
	base := c.Base()
	base.Values = cloneValues(prev.Values)
	base.IsConditionUsed = prev.IsConditionUsed
	base.IsDisabled = prev.IsDisabled
	base.OrderSortIndex = prev.OrderSortIndex
	c.Validate()
	return c, nil
}

func (f *Factory) create(input *CreateInput) (Condition, error) {
	bounds, err := input.Constraints.Bounds()
	if err != nil {
		return nil, errors.Wrapf(err, "condition %s", input.Tag)
	}
	validators, err := validator.NewAll(validatorKinds(input.Tag, input.Group), bounds, f.messages)
	if err != nil {
		return nil, errors.Wrapf(err, "condition %s", input.Tag)
	}

	defaults := defaultValues(input.Group, f.now())
	common := Common{
		ID:          input.Tag,
		Group:       input.Group,
		DisplayName: input.Tag.DisplayName(),
		Values:      cloneValues(defaults),
		Constraints: input.Constraints,
		validators:  validators,
		formatters:  f.formatters,
		defaults:    defaults,
	}

	switch input.Group {
	case GroupText:
		return &Text{Common: common}, nil
	case GroupNumeric:
		return &Numeric{Common: common}, nil
	case GroupDate:
		return &Date{Common: common}, nil
	case GroupIsTrue:
		return &Boolean{Common: common}, nil
	case GroupRangeText:
		return &TextRange{Common: common}, nil
	case GroupRangeNumeric:
		return &NumericRange{Common: common}, nil
	case GroupRangeDate:
		return &DateRange{Common: common}, nil
	case GroupIn:
		return &Membership{Common: common}, nil
	default:
		return nil, errors.Wrapf(ErrUnmappedCondition, "tag %s has unknown render group %q", input.Tag, input.Group)
	}
}
