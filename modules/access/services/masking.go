package services

import (
	"reflect"
	"strings"
)

const (
	maskTag      = "mask"
	maskAccount  = "account"
	maskRedact   = "redact"
	maskChar     = "*"
	keepTrailing = 4
	redacted     = "****"
)

// MaskAccount keeps the last four characters and replaces the rest.
// Values of four characters or fewer become "****".
func MaskAccount(v string) string {
	if v == "" {
		return ""
	}
	runes := []rune(v)
	if len(runes) <= keepTrailing {
		return redacted
	}
	return strings.Repeat(maskChar, len(runes)-keepTrailing) + string(runes[len(runes)-keepTrailing:])
}

// Mask rewrites string fields tagged `mask:"account"` or `mask:"redact"`
// in place. target must be a pointer; nested structs, pointers and slices
// are walked.
func Mask(target any) {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return
	}
	maskValue(v.Elem())
}

func maskValue(v reflect.Value) {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if !v.IsNil() {
			maskValue(v.Elem())
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			maskValue(v.Index(i))
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			field := v.Field(i)
			if !field.CanSet() {
				continue
			}
			switch t.Field(i).Tag.Get(maskTag) {
			case maskAccount:
				if field.Kind() == reflect.String {
					field.SetString(MaskAccount(field.String()))
				}
			case maskRedact:
				if field.Kind() == reflect.String && field.String() != "" {
					field.SetString(redacted)
				}
			default:
				maskValue(field)
			}
		}
	}
}
