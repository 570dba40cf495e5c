package casefilter_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theplant/casefilter"
	"github.com/theplant/casefilter/condition"
)

func fieldConfigs() []casefilter.FieldConfig {
	return []casefilter.FieldConfig{amountConfig(), countryConfig()}
}

func newFilter(t *testing.T, opts ...casefilter.FilterOption) *casefilter.Filter {
	t.Helper()
	f, err := casefilter.NewFilter(fieldConfigs(), condition.NewFactory(), opts...)
	require.NoError(t, err)
	return f
}

func TestNewFilter(t *testing.T) {
	_, err := casefilter.NewFilter(append(fieldConfigs(), amountConfig()), condition.NewFactory())
	require.ErrorContains(t, err, "duplicated field ids [amount]")

	require.PanicsWithValue(t, "factory must be set", func() {
		_, _ = casefilter.NewFilter(fieldConfigs(), nil)
	})

	f := newFilter(t)
	require.Empty(t, f.Fields)
	require.True(t, f.IsValid())
	require.Empty(t, f.DTOs())
}

func TestFilterAddField(t *testing.T) {
	f := newFilter(t)

	amount, err := f.AddField("amount")
	require.NoError(t, err)
	require.Equal(t, casefilter.MutationCreate, amount.MutationType)
	require.Equal(t, condition.Between, amount.UsedCondition().Base().ID)
	require.Equal(t, 0, amount.UsedCondition().Base().OrderSortIndex)

	country, err := f.AddField("country")
	require.NoError(t, err)
	require.Equal(t, condition.In, country.UsedCondition().Base().ID)
	require.Equal(t, 1, country.UsedCondition().Base().OrderSortIndex)
	require.Same(t, country, f.Field("country"))

	_, err = f.AddField("amount")
	require.ErrorIs(t, err, casefilter.ErrFieldExists)

	_, err = f.AddField("status")
	require.ErrorIs(t, err, casefilter.ErrFieldNotFound)

	require.True(t, f.RemoveField("amount"))
	require.False(t, f.RemoveField("amount"))
	require.Nil(t, f.Field("amount"))
	require.Len(t, f.Fields, 1)

	amount, err = f.AddField("amount")
	require.NoError(t, err)
	require.Equal(t, 2, amount.UsedCondition().Base().OrderSortIndex)

	t.Run("field limit", func(t *testing.T) {
		f := newFilter(t, casefilter.WithLimits(&casefilter.Limits{MaxFields: 1}))
		_, err := f.AddField("amount")
		require.NoError(t, err)
		_, err = f.AddField("country")
		require.ErrorContains(t, err, "filter field count 2 exceeds limit 1")
	})
}

func populate(t *testing.T, f *casefilter.Filter) {
	t.Helper()
	amount, err := f.AddField("amount")
	require.NoError(t, err)
	between := amount.UsedCondition().(*condition.NumericRange)
	between.SetMinimalValue("5")
	between.SetMaximalValue("10")

	country, err := f.AddField("country")
	require.NoError(t, err)
	in := country.UsedCondition().(*condition.Membership)
	in.SetValue("US")
	in.SetValue("CA")
}

func TestFilterCommit(t *testing.T) {
	f := newFilter(t)
	populate(t, f)

	dtos, err := f.Commit()
	require.NoError(t, err)
	require.Equal(t, []condition.DTO{
		{Field: "amount", Condition: condition.Between, Values: []string{"5", "10"}},
		{Field: "country", Condition: condition.In, Values: []string{"US", "CA"}},
	}, dtos)

	f.Field("amount").UsedCondition().Base().SetOrderSortIndex(5)
	require.Equal(t, []string{"country", "amount"}, []string{f.DTOs()[0].Field, f.DTOs()[1].Field})

	in := f.Field("country").UsedCondition().(*condition.Membership)
	in.SetValues(nil)
	_, err = f.Commit()
	require.ErrorIs(t, err, casefilter.ErrInvalidFilter)
	require.ErrorContains(t, err, "fields [country]")
	require.Equal(t, map[string]map[condition.Tag]int{
		"country": {condition.In: 1},
	}, failureCounts(f.Validate()))

	t.Run("list limit", func(t *testing.T) {
		f := newFilter(t, casefilter.WithLimits(&casefilter.Limits{MaxListValues: 1}))
		populate(t, f)
		_, err := f.Commit()
		require.ErrorContains(t, err, "filter list value count 2 exceeds limit 1")
	})
}

func failureCounts[T any](failures map[string]map[condition.Tag][]T) map[string]map[condition.Tag]int {
	counts := make(map[string]map[condition.Tag]int)
	for field, byTag := range failures {
		counts[field] = make(map[condition.Tag]int)
		for tag, results := range byTag {
			counts[field][tag] = len(results)
		}
	}
	return counts
}

func TestFilterFromDTOs(t *testing.T) {
	factory := condition.NewFactory()
	dtos := []condition.DTO{
		{Field: "country", Condition: condition.NotIn, Values: []string{"US"}},
		{Field: "amount", Condition: condition.Equal, Values: []string{"12"}},
	}

	f, err := casefilter.FilterFromDTOs(fieldConfigs(), dtos, factory)
	require.NoError(t, err)
	require.Equal(t, []string{"country", "amount"}, []string{f.Fields[0].ID, f.Fields[1].ID})
	require.True(t, f.IsValid())
	require.Equal(t, dtos, f.DTOs())

	committed, err := f.Commit()
	require.NoError(t, err)
	require.Equal(t, dtos, committed)

	_, err = casefilter.FilterFromDTOs(fieldConfigs(), append(dtos, condition.DTO{
		Field: "status", Condition: condition.EqualText, Values: []string{"open"},
	}), factory)
	require.ErrorIs(t, err, casefilter.ErrFieldNotFound)

	_, err = casefilter.FilterFromDTOs(fieldConfigs(), dtos, factory,
		casefilter.WithLimits(&casefilter.Limits{MaxConditions: 1}))
	require.ErrorContains(t, err, "filter condition count 2 exceeds limit 1")

	t.Run("added fields continue the order", func(t *testing.T) {
		f, err := casefilter.FilterFromDTOs(fieldConfigs(), dtos[1:], factory)
		require.NoError(t, err)
		country, err := f.AddField("country")
		require.NoError(t, err)
		require.Equal(t, 1, country.UsedCondition().Base().OrderSortIndex)
	})
}

func TestFilterRebuild(t *testing.T) {
	f := newFilter(t)
	populate(t, f)
	f.Validate()
	before := f.DTOs()
	oldFields := append([]*casefilter.FilterField{}, f.Fields...)

	require.NoError(t, f.Rebuild())
	require.Equal(t, before, f.DTOs())
	for i, field := range f.Fields {
		require.NotSame(t, oldFields[i], field)
	}
}
