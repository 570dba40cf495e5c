package protofilter

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/theplant/casefilter"
	"github.com/theplant/casefilter/condition"
)

const (
	keyField     = "field"
	keyCondition = "condition"
	keyValues    = "values"
)

// FromProtoOption configures FromProto.
type FromProtoOption func(*fromProtoOptions)

type fromProtoOptions struct {
	groups condition.Groups
	limits *casefilter.Limits
}

// WithGroups sets the tag table conditions are checked against.
// By default, condition.DefaultGroups is used.
func WithGroups(groups condition.Groups) FromProtoOption {
	return func(opts *fromProtoOptions) {
		opts.groups = groups
	}
}

// WithLimits sets custom limits for the decoded conditions.
// By default, casefilter.DefaultLimits is used.
// Pass nil to disable limit checking.
func WithLimits(limits *casefilter.Limits) FromProtoOption {
	return func(opts *fromProtoOptions) {
		opts.limits = limits
	}
}

// ToProto converts DTOs to a list of structs, one
// {"field", "condition", "values"} struct per DTO.
func ToProto(dtos []condition.DTO) *structpb.ListValue {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(dtos))}
	for _, dto := range dtos {
		values := lo.Map(dto.Values, func(v string, _ int) *structpb.Value {
			return structpb.NewStringValue(v)
		})
		list.Values = append(list.Values, structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				keyField:     structpb.NewStringValue(dto.Field),
				keyCondition: structpb.NewStringValue(string(dto.Condition)),
				keyValues:    structpb.NewListValue(&structpb.ListValue{Values: values}),
			},
		}))
	}
	return list
}

// FromProto converts a list produced by ToProto back to DTOs. Every condition
// must be known to the tag table and the result must be within the limits.
func FromProto(list *structpb.ListValue, opts ...FromProtoOption) ([]condition.DTO, error) {
	options := &fromProtoOptions{
		groups: condition.DefaultGroups,
		limits: casefilter.DefaultLimits,
	}
	for _, opt := range opts {
		opt(options)
	}

	dtos := make([]condition.DTO, 0, len(list.GetValues()))
	for i, item := range list.GetValues() {
		dto, err := dtoFromStruct(item.GetStructValue())
		if err != nil {
			return nil, errors.Wrapf(err, "condition %d", i)
		}
		if _, err := options.groups.Group(dto.Condition); err != nil {
			return nil, errors.Wrapf(err, "condition %d", i)
		}
		dtos = append(dtos, dto)
	}

	if err := casefilter.CheckLimits(dtos, options.limits); err != nil {
		return nil, err
	}
	return dtos, nil
}

func dtoFromStruct(s *structpb.Struct) (condition.DTO, error) {
	if s == nil {
		return condition.DTO{}, errors.New("not a struct")
	}

	field, err := stringField(s, keyField)
	if err != nil {
		return condition.DTO{}, err
	}
	tag, err := stringField(s, keyCondition)
	if err != nil {
		return condition.DTO{}, err
	}

	dto := condition.DTO{
		Field:     field,
		Condition: condition.Tag(tag),
		Values:    []string{},
	}
	raw, ok := s.GetFields()[keyValues]
	if !ok {
		return dto, nil
	}
	if _, isNull := raw.GetKind().(*structpb.Value_NullValue); isNull {
		return dto, nil
	}
	list := raw.GetListValue()
	if list == nil {
		return condition.DTO{}, errors.Errorf("%q is not a list", keyValues)
	}
	for j, v := range list.GetValues() {
		str, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return condition.DTO{}, errors.Errorf("%s[%d] is not a string", keyValues, j)
		}
		dto.Values = append(dto.Values, str.StringValue)
	}
	return dto, nil
}

func stringField(s *structpb.Struct, key string) (string, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return "", errors.Errorf("missing %q", key)
	}
	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok || str.StringValue == "" {
		return "", errors.Errorf("%q must be a non-empty string", key)
	}
	return str.StringValue, nil
}

// MarshalJSON encodes DTOs with protojson, the form exchanged with gRPC gateways.
func MarshalJSON(dtos []condition.DTO) ([]byte, error) {
	data, err := protojson.Marshal(ToProto(dtos))
	if err != nil {
		return nil, errors.Wrap(err, "marshal proto to json")
	}
	return data, nil
}

// UnmarshalJSON decodes data produced by MarshalJSON.
func UnmarshalJSON(data []byte, opts ...FromProtoOption) ([]condition.DTO, error) {
	list := &structpb.ListValue{}
	if err := protojson.Unmarshal(data, list); err != nil {
		return nil, errors.Wrap(err, "unmarshal json to proto")
	}
	return FromProto(list, opts...)
}
