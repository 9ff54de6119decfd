package postgres

import (
	"reflect"
	"sync"
)

// rowFields caches the db-tagged field indexes of a struct type, in declaration order.
var rowFields sync.Map // map[reflect.Type][]taggedField

type taggedField struct {
	index  []int
	column string
}

// Columns returns the "db" tag names of T in field order.
// Embedded structs are flattened; untagged and "-" fields are skipped.
//
// Usage:
//
//	var accountColumns = postgres.Columns[auth.Account]()
func Columns[T any]() []string {
	fields := fieldsOf(reflect.TypeFor[T]())
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.column
	}
	return cols
}

// Values returns the db-tagged field values of v aligned with Columns for the same type.
func Values(v any) []any {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return nil
	}

	fields := fieldsOf(rv.Type())
	vals := make([]any, len(fields))
	for i, f := range fields {
		vals[i] = rv.FieldByIndex(f.index).Interface()
	}
	return vals
}

func fieldsOf(t reflect.Type) []taggedField {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := rowFields.Load(t); ok {
		return cached.([]taggedField)
	}

	fields := collectFields(t, nil)
	rowFields.Store(t, fields)
	return fields
}

func collectFields(t reflect.Type, parent []int) []taggedField {
	if t.Kind() != reflect.Struct {
		return nil
	}

	var out []taggedField
	for i := range t.NumField() {
		field := t.Field(i)
		index := append(append([]int(nil), parent...), i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			out = append(out, collectFields(field.Type, index)...)
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" || !field.IsExported() {
			continue
		}
		out = append(out, taggedField{index: index, column: tag})
	}
	return out
}
