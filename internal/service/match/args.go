package match

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oggyb/anonchat/internal/domain"
	svcErr "github.com/oggyb/anonchat/internal/errors"
)

// userIDArg reads a positive user id given either as a JSON number or as a
// decimal string. Strings are preferred by clients since ids can exceed
// float64 precision.
func userIDArg(req *structpb.Struct, key string) (domain.UserID, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, svcErr.InvalidArgument(key + " is required")
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := k.NumberValue
		if n <= 0 || n != math.Trunc(n) || n > 1<<53 {
			return 0, svcErr.InvalidArgument(key + " must be a positive integer")
		}
		return domain.UserID(int64(n)), nil
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(strings.TrimSpace(k.StringValue), 10, 64)
		if err != nil || n <= 0 {
			return 0, svcErr.InvalidArgument(key + " must be a positive integer")
		}
		return domain.UserID(n), nil
	}
	return 0, svcErr.InvalidArgument(key + " must be a number or a string")
}

func stringArg(req *structpb.Struct, key string) (string, bool) {
	v, ok := req.GetFields()[key]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v.GetStringValue()), true
}

// filterArg returns nil when the request names no filter at all, so Next can
// reuse the remembered one. filter_field defaults to gender.
func filterArg(req *structpb.Struct) (*domain.Filter, error) {
	field, hasField := stringArg(req, "filter_field")
	value, hasValue := stringArg(req, "filter_value")
	if !hasField && !hasValue {
		return nil, nil
	}
	if field == "" {
		field = string(domain.FieldGender)
	}
	f, err := domain.NewFilter(domain.Field(strings.ToLower(field)), value)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &f, nil
}

func idString(id domain.UserID) string { return strconv.FormatInt(int64(id), 10) }

func newStruct(m map[string]interface{}) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, svcErr.Map(fmt.Errorf("build response: %w", err))
	}
	return s, nil
}
