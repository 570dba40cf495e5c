package casefilter

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/tidwall/sjson"

	"github.com/theplant/casefilter/condition"
)

// report is the JSON document produced by MarshalReport. Failures are merged in
// afterwards as failures.<field>.<condition>.
type report struct {
	Valid    bool            `json:"valid"`
	DTOs     []condition.DTO `json:"dtos"`
	Summary  []string        `json:"summary"`
	Failures map[string]any  `json:"failures"`
}

// Summary renders every used condition as "<field display name>: <condition text>"
// in display order.
func (f *Filter) Summary() []string {
	type line struct {
		order int
		text  string
	}
	var lines []line
	for _, field := range f.Fields {
		for _, c := range field.UsedConditions() {
			lines = append(lines, line{
				order: c.Base().OrderSortIndex,
				text:  field.DisplayName + ": " + c.AsText(),
			})
		}
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].order < lines[j].order
	})
	return lo.Map(lines, func(l line, _ int) string {
		return l.text
	})
}

// MarshalReport revalidates the filter and encodes its validity, DTOs, summary
// and validation failures as JSON.
func (f *Filter) MarshalReport() ([]byte, error) {
	failures := f.Validate()

	b, err := jsoniterForDTO.Marshal(&report{
		Valid:    f.IsValid(),
		DTOs:     f.DTOs(),
		Summary:  f.Summary(),
		Failures: map[string]any{},
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal report")
	}

	fieldIDs := lo.Keys(failures)
	sort.Strings(fieldIDs)
	for _, fieldID := range fieldIDs {
		for tag, results := range failures[fieldID] {
			path := "failures." + escapePath(fieldID) + "." + escapePath(string(tag))
			b, err = sjson.SetBytes(b, path, results)
			if err != nil {
				return nil, errors.Wrapf(err, "set report path %s", path)
			}
		}
	}
	return b, nil
}

const pathSpecialChars = `\.*?|#@:!=<>%`

func escapePath(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(pathSpecialChars, r) {
			_ = b.WriteByte('\\')
		}
		_, _ = b.WriteRune(r)
	}
	return b.String()
}
