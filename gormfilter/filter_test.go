package gormfilter_test

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/theplant/casefilter/condition"
	"github.com/theplant/casefilter/gormfilter"
)

type Case struct {
	ID        string            `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time         `gorm:"index;not null" json:"createdAt"`
	DeletedAt gorm.DeletedAt    `gorm:"index" json:"deletedAt"`
	Subject   string            `gorm:"not null" json:"subject"`
	Amount    float64           `gorm:"not null" json:"amount"`
	Country   string            `gorm:"not null" json:"country"`
	Escalated bool              `gorm:"not null" json:"escalated"`
	OpenedAt  time.Time         `gorm:"not null" json:"openedAt"`
	Details   datatypes.JSONMap `json:"details"`
}

var db *gorm.DB

func TestMain(m *testing.M) {
	var err error
	db, err = gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=casefilter dbname=casefilter sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		panic(err)
	}
	m.Run()
}

func TestScope(t *testing.T) {
	tests := []struct {
		name       string
		dtos       []condition.DTO
		opts       []gormfilter.Option
		wantSQL    string
		wantVars   []any
		wantErrMsg string
	}{
		{
			name:     "no dtos",
			dtos:     nil,
			wantSQL:  `SELECT * FROM "cases" WHERE "cases"."deleted_at" IS NULL`,
			wantVars: nil,
		},
		{
			name:     "contains",
			dtos:     []condition.DTO{{Field: "subject", Condition: condition.Contains, Values: []string{"refund"}}},
			wantSQL:  `SELECT * FROM "cases" WHERE "cases"."subject" LIKE $1 AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{"%refund%"},
		},
		{
			name:     "not contains",
			dtos:     []condition.DTO{{Field: "subject", Condition: condition.NotContains, Values: []string{"refund"}}},
			wantSQL:  `SELECT * FROM "cases" WHERE "cases"."subject" NOT LIKE $1 AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{"%refund%"},
		},
		{
			name:     "starts with",
			dtos:     []condition.DTO{{Field: "subject", Condition: condition.StartsWith, Values: []string{"Re:"}}},
			wantSQL:  `SELECT * FROM "cases" WHERE "cases"."subject" LIKE $1 AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{"Re:%"},
		},
		{
			name:     "ends with by struct field name",
			dtos:     []condition.DTO{{Field: "Subject", Condition: condition.EndsWith, Values: []string{"urgent"}}},
			wantSQL:  `SELECT * FROM "cases" WHERE "cases"."subject" LIKE $1 AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{"%urgent"},
		},
		{
			name:     "regexp",
			dtos:     []condition.DTO{{Field: "subject", Condition: condition.Regexp, Values: []string{"^re"}}},
			wantSQL:  `SELECT * FROM "cases" WHERE "cases"."subject" ~ $1 AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{"^re"},
		},
		{
			name:     "not regexp with fold",
			dtos:     []condition.DTO{{Field: "subject", Condition: condition.NotRegexp, Values: []string{"^Re"}}},
			opts:     []gormfilter.Option{gormfilter.WithFold()},
			wantSQL:  `SELECT * FROM "cases" WHERE "cases"."subject" !~* $1 AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{"^Re"},
		},
		{
			name:     "equal text with fold",
			dtos:     []condition.DTO{{Field: "subject", Condition: condition.EqualText, Values: []string{"Refund"}}},
			opts:     []gormfilter.Option{gormfilter.WithFold()},
			wantSQL:  `SELECT * FROM "cases" WHERE LOWER("cases"."subject") = $1 AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{"refund"},
		},
		{
			name:     "fold leaves numbers alone",
			dtos:     []condition.DTO{{Field: "amount", Condition: condition.NotEqual, Values: []string{"7"}}},
			opts:     []gormfilter.Option{gormfilter.WithFold()},
			wantSQL:  `SELECT * FROM "cases" WHERE "cases"."amount" <> $1 AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{float64(7)},
		},
		{
			name:     "greater",
			dtos:     []condition.DTO{{Field: "amount", Condition: condition.Greater, Values: []string{"100"}}},
			wantSQL:  `SELECT * FROM "cases" WHERE "cases"."amount" > $1 AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{float64(100)},
		},
		{
			name:     "less or equal",
			dtos:     []condition.DTO{{Field: "amount", Condition: condition.LessOrEqual, Values: []string{"2.5"}}},
			wantSQL:  `SELECT * FROM "cases" WHERE "cases"."amount" <= $1 AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{float64(2.5)},
		},
		{
			name:     "between",
			dtos:     []condition.DTO{{Field: "amount", Condition: condition.Between, Values: []string{"5", "10"}}},
			wantSQL:  `SELECT * FROM "cases" WHERE ("cases"."amount" >= $1 AND "cases"."amount" <= $2) AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{float64(5), float64(10)},
		},
		{
			name:     "not between",
			dtos:     []condition.DTO{{Field: "amount", Condition: condition.NotBetween, Values: []string{"5", "10"}}},
			wantSQL:  `SELECT * FROM "cases" WHERE ("cases"."amount" < $1 OR "cases"."amount" > $2) AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{float64(5), float64(10)},
		},
		{
			name:     "between text",
			dtos:     []condition.DTO{{Field: "subject", Condition: condition.BetweenText, Values: []string{"a", "m"}}},
			wantSQL:  `SELECT * FROM "cases" WHERE ("cases"."subject" >= $1 AND "cases"."subject" <= $2) AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{"a", "m"},
		},
		{
			name:     "before date",
			dtos:     []condition.DTO{{Field: "opened_at", Condition: condition.BeforeDate, Values: []string{"2024-01-02T00:00:00Z"}}},
			wantSQL:  `SELECT * FROM "cases" WHERE "cases"."opened_at" < $1 AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		},
		{
			name:     "on date matches the whole day",
			dtos:     []condition.DTO{{Field: "opened_at", Condition: condition.EqualDate, Values: []string{"2024-01-02T15:04:00Z"}}},
			wantSQL:  `SELECT * FROM "cases" WHERE ("cases"."opened_at" >= $1 AND "cases"."opened_at" < $2) AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
		},
		{
			name: "not between dates",
			dtos: []condition.DTO{{Field: "opened_at", Condition: condition.NotBetweenDate, Values: []string{
				"2024-01-01T00:00:00Z", "2024-02-01T00:00:00Z",
			}}},
			wantSQL: `SELECT * FROM "cases" WHERE ("cases"."opened_at" < $1 OR "cases"."opened_at" > $2) AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{
				time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:     "in",
			dtos:     []condition.DTO{{Field: "country", Condition: condition.In, Values: []string{"US", "CA"}}},
			wantSQL:  `SELECT * FROM "cases" WHERE "cases"."country" IN ($1,$2) AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{"US", "CA"},
		},
		{
			name:     "not in",
			dtos:     []condition.DTO{{Field: "country", Condition: condition.NotIn, Values: []string{"US", "CA"}}},
			wantSQL:  `SELECT * FROM "cases" WHERE "cases"."country" NOT IN ($1,$2) AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{"US", "CA"},
		},
		{
			name:     "in with fold",
			dtos:     []condition.DTO{{Field: "country", Condition: condition.In, Values: []string{"US", "CA"}}},
			opts:     []gormfilter.Option{gormfilter.WithFold()},
			wantSQL:  `SELECT * FROM "cases" WHERE LOWER("cases"."country") IN ($1,$2) AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{"us", "ca"},
		},
		{
			name:     "is true",
			dtos:     []condition.DTO{{Field: "escalated", Condition: condition.IsTrue, Values: []string{"false"}}},
			wantSQL:  `SELECT * FROM "cases" WHERE "cases"."escalated" = $1 AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{false},
		},
		{
			name: "multiple dtos",
			dtos: []condition.DTO{
				{Field: "amount", Condition: condition.Greater, Values: []string{"100"}},
				{Field: "country", Condition: condition.In, Values: []string{"US", "CA"}},
				{Field: "subject", Condition: condition.NotContains, Values: []string{"spam"}},
			},
			wantSQL:  `SELECT * FROM "cases" WHERE ("cases"."amount" > $1 AND "cases"."country" IN ($2,$3) AND "cases"."subject" NOT LIKE $4) AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{float64(100), "US", "CA", "%spam%"},
		},
		{
			name: "custom tag mapped onto a group",
			dtos: []condition.DTO{{Field: "subject", Condition: "SOUNDS_LIKE", Values: []string{"refund"}}},
			opts: []gormfilter.Option{gormfilter.WithGroups(lo.Assign(condition.DefaultGroups, condition.Groups{
				"SOUNDS_LIKE": condition.GroupText,
			}))},
			wantSQL:  `SELECT * FROM "cases" WHERE "cases"."subject" = $1 AND "cases"."deleted_at" IS NULL`,
			wantVars: []any{"refund"},
		},
		{
			name:       "unknown field",
			dtos:       []condition.DTO{{Field: "priority", Condition: condition.EqualText, Values: []string{"high"}}},
			wantErrMsg: `missing field "priority" in schema`,
		},
		{
			name:       "unmapped tag",
			dtos:       []condition.DTO{{Field: "subject", Condition: "SOUNDS_LIKE", Values: []string{"refund"}}},
			wantErrMsg: "unmapped condition",
		},
		{
			name:       "invalid number",
			dtos:       []condition.DTO{{Field: "amount", Condition: condition.Greater, Values: []string{"abc"}}},
			wantErrMsg: `invalid number "abc" for condition GREATER on field "amount"`,
		},
		{
			name:       "invalid date",
			dtos:       []condition.DTO{{Field: "opened_at", Condition: condition.AfterDate, Values: []string{"yesterday"}}},
			wantErrMsg: `invalid date for condition AFTER_DATE on field "opened_at"`,
		},
		{
			name:       "wrong number of values",
			dtos:       []condition.DTO{{Field: "amount", Condition: condition.Between, Values: []string{"5"}}},
			wantErrMsg: "condition BETWEEN on field \"amount\" expects 2 values, got 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := db.Model(&Case{}).
				Scopes(gormfilter.Scope(tt.dtos, tt.opts...)).
				Session(&gorm.Session{DryRun: true}).
				Find(&[]Case{})

			if tt.wantErrMsg != "" {
				require.ErrorContains(t, stmt.Error, tt.wantErrMsg)
				return
			}

			require.NoError(t, stmt.Error)
			require.Equal(t, tt.wantSQL, stmt.Statement.SQL.String())
			require.Equal(t, tt.wantVars, stmt.Statement.Vars)
		})
	}
}

func TestEqualDateKeepsOffset(t *testing.T) {
	stmt := db.Model(&Case{}).
		Scopes(gormfilter.Scope([]condition.DTO{
			{Field: "opened_at", Condition: condition.EqualDate, Values: []string{"2024-01-02T23:30:00+09:00"}},
		})).
		Session(&gorm.Session{DryRun: true}).
		Find(&[]Case{})
	require.NoError(t, stmt.Error)
	require.Len(t, stmt.Statement.Vars, 2)

	tokyo := time.FixedZone("", 9*60*60)
	start, ok := stmt.Statement.Vars[0].(time.Time)
	require.True(t, ok)
	end, ok := stmt.Statement.Vars[1].(time.Time)
	require.True(t, ok)
	require.True(t, start.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, tokyo)), start.String())
	require.True(t, end.Equal(time.Date(2024, 1, 3, 0, 0, 0, 0, tokyo)), end.String())
}

func TestBuildExpr(t *testing.T) {
	stmt := &gorm.Statement{DB: db}
	require.NoError(t, stmt.Parse(&Case{}))

	expr, err := gormfilter.BuildExpr(stmt, nil)
	require.NoError(t, err)
	require.Nil(t, expr)

	expr, err = gormfilter.BuildExpr(stmt, []condition.DTO{
		{Field: "amount", Condition: condition.Equal, Values: []string{"3"}},
	})
	require.NoError(t, err)
	require.Equal(t, clause.Eq{
		Column: clause.Column{Table: "cases", Name: "amount"},
		Value:  float64(3),
	}, expr)
}

func TestFieldColumnHook(t *testing.T) {
	detailsColumns := map[string]string{
		"priority": `"cases"."details"->>'priority'`,
		"channel":  `"cases"."details"->>'channel'`,
	}
	detailsHook := func(next gormfilter.FieldColumnFunc) gormfilter.FieldColumnFunc {
		return func(input *gormfilter.FieldColumnInput) (*gormfilter.FieldColumnOutput, error) {
			if col, ok := detailsColumns[input.FieldName]; ok {
				var column any = clause.Column{Name: col, Raw: true}
				if input.Fold {
					column = clause.Expr{SQL: "LOWER(?)", Vars: []any{column}}
				}
				return &gormfilter.FieldColumnOutput{Column: column}, nil
			}
			return next(input)
		}
	}

	var seen []condition.Tag
	recordHook := func(next gormfilter.FieldColumnFunc) gormfilter.FieldColumnFunc {
		return func(input *gormfilter.FieldColumnInput) (*gormfilter.FieldColumnOutput, error) {
			seen = append(seen, input.Tag)
			return next(input)
		}
	}

	stmt := db.Model(&Case{}).
		Scopes(gormfilter.Scope([]condition.DTO{
			{Field: "priority", Condition: condition.In, Values: []string{"high", "urgent"}},
			{Field: "amount", Condition: condition.GreaterOrEqual, Values: []string{"10"}},
		}, gormfilter.WithFieldColumnHook(recordHook, detailsHook))).
		Session(&gorm.Session{DryRun: true}).
		Find(&[]Case{})
	require.NoError(t, stmt.Error)
	require.Equal(t,
		`SELECT * FROM "cases" WHERE ("cases"."details"->>'priority' IN ($1,$2) AND "cases"."amount" >= $3) AND "cases"."deleted_at" IS NULL`,
		stmt.Statement.SQL.String(),
	)
	require.Equal(t, []any{"high", "urgent", float64(10)}, stmt.Statement.Vars)
	require.Equal(t, []condition.Tag{condition.In, condition.GreaterOrEqual}, seen)
}
