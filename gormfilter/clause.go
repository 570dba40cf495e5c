package gormfilter

import (
	"github.com/samber/lo"
	"gorm.io/gorm/clause"
)

// ClauseNot negates exprs, which are implicitly joined with AND.
// When every expression can negate itself the result follows De Morgan's laws,
// so NOT (a >= x AND a <= y) is written as (a < x OR a > y) and NOT a IN (...)
// as a NOT IN (...).
func ClauseNot(exprs ...clause.Expression) clause.Expression {
	if len(exprs) == 0 {
		return nil
	}
	if len(exprs) == 1 {
		if and, ok := exprs[0].(clause.AndConditions); ok {
			exprs = and.Exprs
		}
	}
	return NotConditions{Exprs: exprs}
}

// NotConditions is the negation of the AND of Exprs.
type NotConditions struct {
	Exprs []clause.Expression
}

func (not NotConditions) Build(builder clause.Builder) {
	negatable := lo.EveryBy(not.Exprs, func(expr clause.Expression) bool {
		_, ok := expr.(clause.NegationExpressionBuilder)
		return ok
	})

	if !negatable {
		_, _ = builder.WriteString("NOT (")
		for idx, expr := range not.Exprs {
			if idx > 0 {
				_, _ = builder.WriteString(clause.AndWithSpace)
			}
			expr.Build(builder)
		}
		_ = builder.WriteByte(')')
		return
	}

	if len(not.Exprs) > 1 {
		_ = builder.WriteByte('(')
	}
	for idx, expr := range not.Exprs {
		if idx > 0 {
			_, _ = builder.WriteString(clause.OrWithSpace)
		}
		expr.(clause.NegationExpressionBuilder).NegationBuild(builder)
	}
	if len(not.Exprs) > 1 {
		_ = builder.WriteByte(')')
	}
}
