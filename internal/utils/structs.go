package utils

import "reflect"

// ColumnTag is the struct tag read for column names.
var ColumnTag = "db"

// Columns lists the db tag of every exported, tagged field of a struct, in
// declaration order.
func Columns(input any) []string {
	var out []string
	walkColumns(input, func(name string, _ reflect.Value) {
		out = append(out, name)
	})
	return out
}

// ColumnMap maps each db tag to its field value.
func ColumnMap(input any) map[string]any {
	out := make(map[string]any)
	walkColumns(input, func(name string, v reflect.Value) {
		out[name] = v.Interface()
	})
	return out
}

// ColumnValues returns the field values in the same order as Columns.
func ColumnValues(input any) []any {
	var out []any
	walkColumns(input, func(_ string, v reflect.Value) {
		out = append(out, v.Interface())
	})
	return out
}

func walkColumns(input any, fn func(name string, v reflect.Value)) {
	value := reflect.ValueOf(input)
	if value.Kind() == reflect.Ptr {
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		panic("input must be a pointer to a struct or a struct")
	}

	typ := value.Type()
	for i := 0; i < value.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}

		tag := field.Tag.Get(ColumnTag)
		if tag == "" || tag == "-" {
			continue
		}

		fn(tag, value.Field(i))
	}
}
