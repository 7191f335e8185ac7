// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

// Package form decodes url.Values into structs tagged with `form:"name"`.
// Nested structs read their fields from "<name>.<field>" keys.
package form

import (
	"encoding"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	timeType            = reflect.TypeOf(time.Time{})
)

// Layouts accepted for time.Time fields, in order. The second one is what
// <input type="datetime-local"> submits.
var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func Unmarshal(input url.Values, target any) error {
	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return &InvalidUnmarshalError{Type: reflect.TypeOf(target)}
	}
	v := val.Elem()
	if v.Kind() != reflect.Struct {
		return &InvalidUnmarshalError{Type: reflect.TypeOf(target)}
	}
	return decodeStruct(input, "", v)
}

func decodeStruct(input url.Values, prefix string, v reflect.Value) error {
	ttype := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := ttype.Field(i)
		name := field.Tag.Get("form")
		if !field.IsExported() || name == "" || name == "-" {
			continue
		}
		key := prefix + name
		fieldVal := v.Field(i)

		if nested(field.Type) {
			if field.Type.Kind() == reflect.Ptr {
				if !hasPrefix(input, key+".") {
					continue
				}
				if fieldVal.IsNil() {
					fieldVal.Set(reflect.New(field.Type.Elem()))
				}
				fieldVal = fieldVal.Elem()
			}
			if err := decodeStruct(input, key+".", fieldVal); err != nil {
				return err
			}
			continue
		}

		values, exists := input[key]
		if !exists || len(values) == 0 {
			continue
		}
		if err := setValue(fieldVal, values); err != nil {
			return &FieldError{Field: key, Err: err}
		}
	}
	return nil
}

func nested(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && t != timeType && !reflect.PointerTo(t).Implements(textUnmarshalerType)
}

func hasPrefix(input url.Values, prefix string) bool {
	for k := range input {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

func setValue(fieldVal reflect.Value, values []string) error {
	switch {
	case fieldVal.Kind() == reflect.Slice && fieldVal.Type().Elem().Kind() != reflect.Uint8:
		slice := reflect.MakeSlice(fieldVal.Type(), len(values), len(values))
		for i, raw := range values {
			if err := setScalar(slice.Index(i), raw); err != nil {
				return err
			}
		}
		fieldVal.Set(slice)
		return nil
	case fieldVal.Kind() == reflect.Ptr:
		// NOTE: an empty value keeps optional fields nil.
		if values[0] == "" {
			return nil
		}
		ptr := reflect.New(fieldVal.Type().Elem())
		if err := setScalar(ptr.Elem(), values[0]); err != nil {
			return err
		}
		fieldVal.Set(ptr)
		return nil
	}
	// NOTE: Take only the first value.
	return setScalar(fieldVal, values[0])
}

func setScalar(fieldVal reflect.Value, raw string) error {
	if fieldVal.Type() == timeType {
		if raw == "" {
			return nil
		}
		t, err := parseTime(raw)
		if err != nil {
			return err
		}
		fieldVal.Set(reflect.ValueOf(t))
		return nil
	}
	if fieldVal.CanAddr() && fieldVal.Addr().Type().Implements(textUnmarshalerType) {
		if raw == "" {
			return nil
		}
		return fieldVal.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw))
	}

	switch fieldVal.Kind() {
	case reflect.String:
		fieldVal.SetString(raw)
	case reflect.Bool:
		switch strings.ToLower(raw) {
		case "on", "true", "1", "yes":
			fieldVal.SetBool(true)
		case "", "off", "false", "0", "no":
			fieldVal.SetBool(false)
		default:
			return fmt.Errorf("invalid boolean %q", raw)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if raw == "" {
			return nil
		}
		n, err := strconv.ParseInt(raw, 10, fieldVal.Type().Bits())
		if err != nil {
			return err
		}
		fieldVal.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if raw == "" {
			return nil
		}
		n, err := strconv.ParseUint(raw, 10, fieldVal.Type().Bits())
		if err != nil {
			return err
		}
		fieldVal.SetUint(n)
	case reflect.Float32, reflect.Float64:
		if raw == "" {
			return nil
		}
		f, err := strconv.ParseFloat(raw, fieldVal.Type().Bits())
		if err != nil {
			return err
		}
		fieldVal.SetFloat(f)
	default:
		return fmt.Errorf("unsupported kind %s", fieldVal.Kind())
	}
	return nil
}

func parseTime(raw string) (time.Time, error) {
	var firstErr error
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

type InvalidUnmarshalError struct {
	Type reflect.Type
}

func (e *InvalidUnmarshalError) Error() string {
	if e.Type == nil {
		return "form: Unmarshal(nil)"
	}

	if e.Type.Kind() != reflect.Pointer {
		return "form: Unmarshal(non-pointer " + e.Type.String() + ")"
	}
	if e.Type.Elem().Kind() != reflect.Struct {
		return "form: Unmarshal(non-struct " + e.Type.String() + ")"
	}
	return "form: Unmarshal(nil " + e.Type.String() + ")"
}

// FieldError reports the form key whose value could not be decoded.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return "form: field " + e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error { return e.Err }
