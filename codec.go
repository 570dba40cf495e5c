package casefilter

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/theplant/casefilter/condition"
)

var jsoniterForDTO = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// MarshalDTOs encodes DTOs for the backend query API.
func MarshalDTOs(dtos []condition.DTO) ([]byte, error) {
	if dtos == nil {
		dtos = []condition.DTO{}
	}
	data, err := jsoniterForDTO.Marshal(dtos)
	if err != nil {
		return nil, errors.Wrap(err, "marshal filter conditions")
	}
	return data, nil
}

// UnmarshalDTOs decodes DTOs. Missing values decode as an empty list.
func UnmarshalDTOs(data []byte) ([]condition.DTO, error) {
	var dtos []condition.DTO
	if err := jsoniterForDTO.Unmarshal(data, &dtos); err != nil {
		return nil, errors.Wrap(err, "unmarshal filter conditions")
	}
	for i := range dtos {
		if dtos[i].Values == nil {
			dtos[i].Values = []string{}
		}
	}
	if dtos == nil {
		dtos = []condition.DTO{}
	}
	return dtos, nil
}

// ToMap groups DTOs as field -> condition -> values, the shape map based query
// builders expect.
func ToMap(dtos []condition.DTO) (map[string]any, error) {
	grouped := make(map[string]map[condition.Tag][]string)
	for _, dto := range dtos {
		if grouped[dto.Field] == nil {
			grouped[dto.Field] = make(map[condition.Tag][]string)
		}
		grouped[dto.Field][dto.Condition] = dto.Values
	}
	data, err := jsoniterForDTO.Marshal(grouped)
	if err != nil {
		return nil, errors.Wrap(err, "marshal filter conditions")
	}
	var filterMap map[string]any
	if err := jsoniterForDTO.Unmarshal(data, &filterMap); err != nil {
		return nil, errors.Wrap(err, "unmarshal filter conditions to map")
	}
	return filterMap, nil
}
