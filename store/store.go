package store

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/theplant/casefilter"
	"github.com/theplant/casefilter/condition"
)

// ErrNotFound is returned when no saved filter matches.
var ErrNotFound = errors.New("saved filter not found")

// SavedFilter is a committed filter stored under a name for its owner.
type SavedFilter struct {
	gorm.Model

	Owner      string                              `gorm:"not null;uniqueIndex:idx_saved_filters_owner_name,priority:1" json:"owner"`
	Name       string                              `gorm:"not null;uniqueIndex:idx_saved_filters_owner_name,priority:2" json:"name"`
	Conditions datatypes.JSONType[[]condition.DTO] `gorm:"not null;default:'[]'" json:"conditions"`
}

// DTOs returns a copy of the stored conditions.
func (f *SavedFilter) DTOs() []condition.DTO {
	dtos := f.Conditions.Data()
	out := make([]condition.DTO, 0, len(dtos))
	for _, dto := range dtos {
		dto.Values = append([]string{}, dto.Values...)
		out = append(out, dto)
	}
	return out
}

// Store persists saved filters in a gorm database.
type Store struct {
	db     *gorm.DB
	limits *casefilter.Limits
	logger zerolog.Logger
}

// Option configures a Store.
type Option func(s *Store)

// WithLimits bounds the filters accepted by Save.
// By default, casefilter.DefaultLimits is used. Pass nil to disable checking.
func WithLimits(limits *casefilter.Limits) Option {
	return func(s *Store) {
		s.limits = limits
	}
}

// WithLogger sets the logger used for saves and loaded filters.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New returns a store on db. Call Migrate before first use.
func New(db *gorm.DB, opts ...Option) *Store {
	if db == nil {
		panic("db must be set")
	}
	s := &Store{
		db:     db,
		limits: casefilter.DefaultLimits,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates or updates the saved_filters table and its (owner, name) unique index.
func (s *Store) Migrate(ctx context.Context) error {
	return errors.Wrap(s.db.WithContext(ctx).AutoMigrate(&SavedFilter{}), "migrate saved filters")
}

// Save stores dtos under name, replacing the conditions of an existing filter
// with the same owner and name. Owner and name are unique together, so
// concurrent saves of one name converge on a single row.
func (s *Store) Save(ctx context.Context, owner, name string, dtos []condition.DTO) (*SavedFilter, error) {
	if owner == "" || name == "" {
		return nil, errors.New("owner and name must be set")
	}
	if err := casefilter.CheckLimits(dtos, s.limits); err != nil {
		return nil, err
	}
	if dtos == nil {
		dtos = []condition.DTO{}
	}

	saved := &SavedFilter{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := &SavedFilter{
			Owner:      owner,
			Name:       name,
			Conditions: datatypes.NewJSONType(dtos),
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"conditions", "updated_at", "deleted_at"}),
		}).Create(row).Error
		if err != nil {
			return errors.Wrap(err, "upsert saved filter")
		}
		return errors.Wrap(tx.Where("owner = ? AND name = ?", owner, name).First(saved).Error, "find saved filter")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("owner", owner).
		Str("name", name).
		Int("conditions", len(dtos)).
		Msg("filter saved")
	return saved, nil
}

// Get returns the filter saved by owner under name, or ErrNotFound.
func (s *Store) Get(ctx context.Context, owner, name string) (*SavedFilter, error) {
	saved := &SavedFilter{}
	err := s.db.WithContext(ctx).Where("owner = ? AND name = ?", owner, name).First(saved).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "owner %s name %s", owner, name)
	}
	if err != nil {
		return nil, errors.Wrap(err, "find saved filter")
	}
	return saved, nil
}

// List returns the filters of owner ordered by name.
func (s *Store) List(ctx context.Context, owner string) ([]*SavedFilter, error) {
	var saved []*SavedFilter
	if err := s.db.WithContext(ctx).Where("owner = ?", owner).Order("name").Find(&saved).Error; err != nil {
		return nil, errors.Wrap(err, "list saved filters")
	}
	return saved, nil
}

// Delete removes the filter permanently so the name can be reused.
// It returns ErrNotFound when nothing matched.
func (s *Store) Delete(ctx context.Context, owner, name string) error {
	result := s.db.WithContext(ctx).Unscoped().Where("owner = ? AND name = ?", owner, name).Delete(&SavedFilter{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "delete saved filter")
	}
	if result.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "owner %s name %s", owner, name)
	}
	return nil
}

// Load rehydrates a saved filter for editing.
func (s *Store) Load(ctx context.Context, owner, name string, configs []casefilter.FieldConfig, factory *condition.Factory) (*casefilter.Filter, error) {
	saved, err := s.Get(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	return casefilter.FilterFromDTOs(configs, saved.DTOs(), factory,
		casefilter.WithFilterLogger(s.logger),
		casefilter.WithLimits(s.limits),
	)
}
