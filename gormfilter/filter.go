package gormfilter

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/theplant/casefilter/condition"
	"github.com/theplant/casefilter/internal/hook"
	"github.com/theplant/casefilter/validator"
)

// FieldColumnInput describes the column being resolved for one DTO.
type FieldColumnInput struct {
	Statement *gorm.Statement
	FieldName string
	Tag       condition.Tag
	Fold      bool
}

// FieldColumnOutput carries the column, or any clause expression, a DTO field compares against.
type FieldColumnOutput struct {
	Column any
}

// FieldColumnFunc resolves the column expression a DTO field compares against.
type FieldColumnFunc func(input *FieldColumnInput) (*FieldColumnOutput, error)

type options struct {
	groups          condition.Groups
	fold            bool
	fieldColumnHook func(next FieldColumnFunc) FieldColumnFunc
}

// Option configures Scope and BuildExpr.
type Option func(o *options)

// WithGroups replaces the tag to render group table used to type DTO values.
func WithGroups(groups condition.Groups) Option {
	return func(o *options) {
		o.groups = groups
	}
}

// WithFold makes text comparisons case-insensitive.
func WithFold() Option {
	return func(o *options) {
		o.fold = true
	}
}

// WithFieldColumnHook adds hooks around column resolution, for example to map a
// field to a computed column.
func WithFieldColumnHook(hooks ...func(next FieldColumnFunc) FieldColumnFunc) Option {
	return func(o *options) {
		o.fieldColumnHook = hook.Append(o.fieldColumnHook, hooks...)
	}
}

func newOptions(opts []Option) *options {
	o := &options{groups: condition.DefaultGroups}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Scope returns a gorm scope restricting the query to rows matching every DTO.
func Scope(dtos []condition.DTO, opts ...Option) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if db == nil {
			return nil
		}
		fdb, err := addFilter(db, dtos, opts...)
		if err != nil {
			db.AddError(err)
			return db
		}
		return fdb
	}
}

func addFilter(db *gorm.DB, dtos []condition.DTO, opts ...Option) (*gorm.DB, error) {
	if len(dtos) == 0 {
		return db, nil
	}

	model := cmp.Or(db.Statement.Model, db.Statement.Dest)
	if model == nil {
		return nil, errors.New("model is nil")
	}
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, errors.Wrap(err, "parse schema with db")
	}

	expr, err := BuildExpr(stmt, dtos, opts...)
	if err != nil {
		return nil, err
	}
	if expr != nil {
		db = db.Where(expr)
	}
	return db, nil
}

// BuildExpr translates dtos into a single expression against the parsed
// statement schema. The expressions of all DTOs are joined with AND.
func BuildExpr(stmt *gorm.Statement, dtos []condition.DTO, opts ...Option) (clause.Expression, error) {
	o := newOptions(opts)

	resolve := defaultFieldColumn
	if o.fieldColumnHook != nil {
		resolve = o.fieldColumnHook(resolve)
	}

	exprs := make([]clause.Expression, 0, len(dtos))
	for _, dto := range dtos {
		expr, err := buildConditionExpr(stmt, dto, o, resolve)
		if err != nil {
			return nil, err
		}
		if expr != nil {
			exprs = append(exprs, expr)
		}
	}
	return combineExprs(exprs...)
}

func defaultFieldColumn(input *FieldColumnInput) (*FieldColumnOutput, error) {
	stmt := input.Statement
	if stmt.Schema == nil {
		return nil, errors.New("statement schema is nil")
	}
	field := stmt.Schema.LookUpField(input.FieldName)
	if field == nil || field.DBName == "" {
		return nil, errors.Errorf("missing field %q in schema", input.FieldName)
	}

	var column any = clause.Column{Table: stmt.Table, Name: field.DBName}
	if input.Fold {
		column = clause.Expr{SQL: fmt.Sprintf(`LOWER(%s)`, stmt.Quote(column))}
	}
	return &FieldColumnOutput{Column: column}, nil
}

func isTextGroup(group condition.RenderGroup) bool {
	switch group {
	case condition.GroupText, condition.GroupRangeText, condition.GroupIn:
		return true
	}
	return false
}

func buildConditionExpr(stmt *gorm.Statement, dto condition.DTO, o *options, resolve FieldColumnFunc) (clause.Expression, error) {
	group, err := o.groups.Group(dto.Condition)
	if err != nil {
		return nil, errors.Wrapf(err, "field %q", dto.Field)
	}

	fold := o.fold && isTextGroup(group)
	foldRegexp := o.fold && (dto.Condition == condition.Regexp || dto.Condition == condition.NotRegexp)
	output, err := resolve(&FieldColumnInput{
		Statement: stmt,
		FieldName: dto.Field,
		Tag:       dto.Condition,
		Fold:      fold && !foldRegexp,
	})
	if err != nil {
		return nil, err
	}
	column := output.Column

	values, err := typedValues(group, dto)
	if err != nil {
		return nil, err
	}
	if fold && !foldRegexp {
		values = foldValues(values)
	}

	switch dto.Condition {
	case condition.Contains:
		return clause.Like{Column: column, Value: "%" + values[0].(string) + "%"}, nil
	case condition.NotContains:
		return ClauseNot(clause.Like{Column: column, Value: "%" + values[0].(string) + "%"}), nil
	case condition.StartsWith:
		return clause.Like{Column: column, Value: values[0].(string) + "%"}, nil
	case condition.EndsWith:
		return clause.Like{Column: column, Value: "%" + values[0].(string)}, nil
	case condition.Regexp, condition.NotRegexp:
		op := "~"
		if dto.Condition == condition.NotRegexp {
			op = "!~"
		}
		if foldRegexp {
			op += "*"
		}
		return clause.Expr{SQL: "? " + op + " ?", Vars: []any{column, values[0]}}, nil
	case condition.EqualDate:
		if t, ok := values[0].(time.Time); ok {
			return sameDay(column, t), nil
		}
		return clause.Eq{Column: column, Value: values[0]}, nil
	case condition.EqualText, condition.Equal, condition.IsTrue:
		return clause.Eq{Column: column, Value: values[0]}, nil
	case condition.NotEqualText, condition.NotEqual:
		return clause.Neq{Column: column, Value: values[0]}, nil
	case condition.Greater, condition.AfterDate:
		return clause.Gt{Column: column, Value: values[0]}, nil
	case condition.GreaterOrEqual:
		return clause.Gte{Column: column, Value: values[0]}, nil
	case condition.Less, condition.BeforeDate:
		return clause.Lt{Column: column, Value: values[0]}, nil
	case condition.LessOrEqual:
		return clause.Lte{Column: column, Value: values[0]}, nil
	case condition.BetweenText, condition.Between, condition.BetweenDate:
		return between(column, values), nil
	case condition.NotBetween, condition.NotBetweenDate:
		return ClauseNot(between(column, values)), nil
	case condition.In:
		return clause.IN{Column: column, Values: values}, nil
	case condition.NotIn:
		return ClauseNot(clause.IN{Column: column, Values: values}), nil
	}

	// Custom tags mapped onto a built-in group.
	switch group {
	case condition.GroupText, condition.GroupNumeric, condition.GroupDate, condition.GroupIsTrue:
		return clause.Eq{Column: column, Value: values[0]}, nil
	case condition.GroupRangeText, condition.GroupRangeNumeric, condition.GroupRangeDate:
		return between(column, values), nil
	case condition.GroupIn:
		return clause.IN{Column: column, Values: values}, nil
	}
	return nil, errors.Errorf("unknown condition %s for field %q", dto.Condition, dto.Field)
}

func between(column any, values []any) clause.Expression {
	return clause.And(
		clause.Gte{Column: column, Value: values[0]},
		clause.Lte{Column: column, Value: values[1]},
	)
}

// typedValues converts the string values of dto to the Go types the driver
// binds for its render group, checking the number of values on the way.
func typedValues(group condition.RenderGroup, dto condition.DTO) ([]any, error) {
	want := 1
	switch group {
	case condition.GroupRangeText, condition.GroupRangeNumeric, condition.GroupRangeDate:
		want = 2
	case condition.GroupIn:
		want = -1
	}
	if want >= 0 && len(dto.Values) != want {
		return nil, errors.Wrapf(condition.ErrValuesShape, "condition %s on field %q expects %d values, got %d", dto.Condition, dto.Field, want, len(dto.Values))
	}

	values := make([]any, 0, len(dto.Values))
	for _, value := range dto.Values {
		var v any
		switch group {
		case condition.GroupNumeric, condition.GroupRangeNumeric:
			n, ok := validator.ParseNumber(value)
			if !ok {
				return nil, errors.Errorf("invalid number %q for condition %s on field %q", value, dto.Condition, dto.Field)
			}
			v = n
		case condition.GroupDate, condition.GroupRangeDate:
			t, err := time.Parse(validator.DateLayout, value)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid date for condition %s on field %q", dto.Condition, dto.Field)
			}
			v = t
		case condition.GroupIsTrue:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid boolean for condition %s on field %q", dto.Condition, dto.Field)
			}
			v = b
		default:
			v = value
		}
		values = append(values, v)
	}
	return values, nil
}

func foldValues(values []any) []any {
	return lo.Map(values, func(v any, _ int) any {
		if str, ok := v.(string); ok {
			return strings.ToLower(str)
		}
		return v
	})
}

// combineExprs combines multiple expressions into a single expression
func combineExprs(exprs ...clause.Expression) (clause.Expression, error) {
	switch len(exprs) {
	case 0:
		return nil, nil
	case 1:
		return exprs[0], nil
	default:
		return clause.And(exprs...), nil
	}
}

// sameDay matches the calendar day of t, in t's location, as [midnight, next midnight).
func sameDay(column any, t time.Time) clause.Expression {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return clause.And(
		clause.Gte{Column: column, Value: start},
		clause.Lt{Column: column, Value: start.AddDate(0, 0, 1)},
	)
}
