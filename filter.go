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
	// ErrFieldNotFound is returned for field ids missing from the settings.
	ErrFieldNotFound = errors.New("field not found")

	// ErrFieldExists is returned when a field is added to a filter twice.
	ErrFieldExists = errors.New("field already in filter")

	// ErrInvalidFilter is returned when committing a filter with invalid fields.
	ErrInvalidFilter = errors.New("invalid filter")
)

// Filter is the set of fields a user has added to one search, in the order
// they were added.
type Filter struct {
	Fields []*FilterField

	configs map[string]FieldConfig
	factory *condition.Factory
	limits  *Limits
	logger  zerolog.Logger
}

// FilterOption configures a Filter.
type FilterOption func(f *Filter)

// WithLimits bounds the number of fields and the size of committed DTOs.
func WithLimits(limits *Limits) FilterOption {
	return func(f *Filter) {
		f.limits = limits
	}
}

// WithFilterLogger sets the logger of the filter and of every field it creates.
func WithFilterLogger(logger zerolog.Logger) FilterOption {
	return func(f *Filter) {
		f.logger = logger
	}
}

// NewFilter returns an empty filter whose fields can be any of configs.
func NewFilter(configs []FieldConfig, factory *condition.Factory, opts ...FilterOption) (*Filter, error) {
	if factory == nil {
		panic("factory must be set")
	}
	dups := lo.FindDuplicatesBy(configs, func(cfg FieldConfig) string {
		return cfg.ID
	})
	if len(dups) > 0 {
		return nil, errors.Errorf("duplicated field ids %v", lo.Map(dups, func(cfg FieldConfig, _ int) string {
			return cfg.ID
		}))
	}

	f := &Filter{
		Fields: []*FilterField{},
		configs: lo.SliceToMap(configs, func(cfg FieldConfig) (string, FieldConfig) {
			return cfg.ID, cfg
		}),
		factory: factory,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Filter) fieldOptions(mutationType MutationType) []FieldOption {
	return []FieldOption{WithMutationType(mutationType), WithLogger(f.logger)}
}

// AddField populates the configured field for creation and appends it at the end
// of the display order.
func (f *Filter) AddField(id string) (*FilterField, error) {
	cfg, ok := f.configs[id]
	if !ok {
		return nil, errors.Wrapf(ErrFieldNotFound, "field %s", id)
	}
	if f.Field(id) != nil {
		return nil, errors.Wrapf(ErrFieldExists, "field %s", id)
	}
	if f.limits != nil && f.limits.MaxFields > 0 && len(f.Fields) >= f.limits.MaxFields {
		return nil, errors.Errorf("filter field count %d exceeds limit %d", len(f.Fields)+1, f.limits.MaxFields)
	}

	field := NewFilterField(cfg, f.fieldOptions(MutationCreate)...)
	if err := field.CreateConditions(f.factory); err != nil {
		return nil, err
	}
	if used := field.UsedCondition(); used != nil {
		used.Base().SetOrderSortIndex(f.nextOrder())
	}
	f.Fields = append(f.Fields, field)
	return field, nil
}

// RemoveField drops the field from the filter. It reports whether the field was present.
func (f *Filter) RemoveField(id string) bool {
	before := len(f.Fields)
	f.Fields = lo.Reject(f.Fields, func(field *FilterField, _ int) bool {
		return field.ID == id
	})
	return len(f.Fields) != before
}

// Field returns the field with the given id, or nil.
func (f *Filter) Field(id string) *FilterField {
	field, _ := lo.Find(f.Fields, func(field *FilterField) bool {
		return field.ID == id
	})
	return field
}

// Validate revalidates every field and returns the failures by field id.
func (f *Filter) Validate() map[string]map[condition.Tag][]validator.Result {
	results := make(map[string]map[condition.Tag][]validator.Result)
	for _, field := range f.Fields {
		if failures := field.Validate(); len(failures) > 0 {
			results[field.ID] = failures
		}
	}
	return results
}

// IsValid reports whether every field's used conditions are valid.
func (f *Filter) IsValid() bool {
	return lo.EveryBy(f.Fields, func(field *FilterField) bool {
		return field.IsFilterUsedConditionsAreValid()
	})
}

// DTOs collects the DTOs of every field, ordered by display position.
func (f *Filter) DTOs() []condition.DTO {
	type ordered struct {
		order int
		dto   condition.DTO
	}
	var all []ordered
	for _, field := range f.Fields {
		for _, c := range field.UsedConditions() {
			if !c.Base().IsValid {
				continue
			}
			all = append(all, ordered{order: c.Base().OrderSortIndex, dto: c.ToDTO(field.ID)})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].order < all[j].order
	})
	return lo.Map(all, func(o ordered, _ int) condition.DTO {
		return o.dto
	})
}

// Commit revalidates the filter and returns its DTOs. It fails if any field is
// invalid or the DTOs exceed the configured limits.
func (f *Filter) Commit() ([]condition.DTO, error) {
	if failures := f.Validate(); len(failures) > 0 || !f.IsValid() {
		invalid := lo.FilterMap(f.Fields, func(field *FilterField, _ int) (string, bool) {
			return field.ID, !field.IsFilterUsedConditionsAreValid()
		})
		return nil, errors.Wrapf(ErrInvalidFilter, "fields %v", invalid)
	}
	dtos := f.DTOs()
	if err := CheckLimits(dtos, f.limits); err != nil {
		return nil, err
	}
	return dtos, nil
}

// Rebuild replaces every field with a fresh copy built by FromOld.
func (f *Filter) Rebuild() error {
	fields := make([]*FilterField, 0, len(f.Fields))
	for _, old := range f.Fields {
		field, err := FromOld(old, f.factory)
		if err != nil {
			return err
		}
		fields = append(fields, field)
	}
	f.Fields = fields
	return nil
}

func (f *Filter) nextOrder() int {
	next := 0
	for _, field := range f.Fields {
		for _, c := range field.UsedConditions() {
			next = max(next, c.Base().OrderSortIndex+1)
		}
	}
	return next
}

// FilterFromDTOs rebuilds a filter for editing from committed DTOs. Only fields
// named by a DTO are added, in the order they first appear.
func FilterFromDTOs(configs []FieldConfig, dtos []condition.DTO, factory *condition.Factory, opts ...FilterOption) (*Filter, error) {
	f, err := NewFilter(configs, factory, opts...)
	if err != nil {
		return nil, err
	}
	if err := CheckLimits(dtos, f.limits); err != nil {
		return nil, err
	}
	for _, id := range lo.Uniq(lo.Map(dtos, func(dto condition.DTO, _ int) string { return dto.Field })) {
		cfg, ok := f.configs[id]
		if !ok {
			return nil, errors.Wrapf(ErrFieldNotFound, "field %s", id)
		}
		field, err := FromDTOs(cfg, dtos, factory, WithLogger(f.logger))
		if err != nil {
			return nil, err
		}
		f.Fields = append(f.Fields, field)
	}

	f.logger.Debug().
		Int("fields", len(f.Fields)).
		Int("dtos", len(dtos)).
		Msg("filter rehydrated")
	return f, nil
}
