package decode

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// Options customizes Decode behavior.
type Options struct {
	// WeaklyTypedInput enables loose decoding (default true):
	// "123" -> int, 1.0 -> int64, and friends. The chat backend is not
	// strict about numeric shapes ("user" may arrive as string or number),
	// so loose is the default.
	WeaklyTypedInput bool
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		WeaklyTypedInput: true,
	}
}

// DecodeMap decodes a generic JSON object (map form) into an arbitrary
// struct T. Struct fields are read via the `json` tag.
func DecodeMap[T any](m map[string]any, opts ...Options) (*T, error) {
	if m == nil {
		return nil, fmt.Errorf("map is nil")
	}

	cfg := DefaultOptions()
	if len(opts) > 0 {
		cfg = opts[0]
	}

	var out T
	decCfg := &mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: cfg.WeaklyTypedInput,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			floatToIntHook(),
			numberToStringHook(),
		),
	}

	dec, err := mapstructure.NewDecoder(decCfg)
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("decode map: %w", err)
	}
	return &out, nil
}

// DecodeJSON unmarshals raw JSON and decodes the resulting object into T.
func DecodeJSON[T any](raw []byte, opts ...Options) (*T, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal json: %w", err)
	}
	return DecodeMap[T](m, opts...)
}

// floatToIntHook converts integral float64 values (the default JSON number
// shape) into int/int64 targets without precision surprises.
func floatToIntHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.Float64 {
			return data, nil
		}
		switch to.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			f := data.(float64)
			if f != float64(int64(f)) {
				return nil, fmt.Errorf("cannot decode non-integral float %v into %s", f, to.Kind())
			}
			return int64(f), nil
		default:
			return data, nil
		}
	}
}

// numberToStringHook renders numeric values into string targets; server
// message ids travel as either.
func numberToStringHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to.Kind() != reflect.String {
			return data, nil
		}
		switch from.Kind() {
		case reflect.Float64:
			f := data.(float64)
			if f == float64(int64(f)) {
				return strconv.FormatInt(int64(f), 10), nil
			}
			return strconv.FormatFloat(f, 'f', -1, 64), nil
		case reflect.Int64:
			return strconv.FormatInt(data.(int64), 10), nil
		default:
			return data, nil
		}
	}
}
