package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns returns the column names of T's "db" tags in field order,
// descending into embedded structs. Called once per repo at construction.
//
//	columns := ExtractDBColumns[records.ExitLine]()
//	// ["id", "batch_id", "code", "description", "unit", "quantity", "value_total"]
func ExtractDBColumns[T any]() []string {
	var zero T
	meta := metadataOf(reflect.TypeOf(zero))
	return meta.columns()
}

// fieldInfo is one tagged field of a struct.
type fieldInfo struct {
	index int
	dbTag string
}

// typeMetadata is the cached tag layout of a struct type.
type typeMetadata struct {
	fields   []fieldInfo
	embedded []int
	typ      reflect.Type
}

func (m *typeMetadata) columns() []string {
	var cols []string
	for _, f := range m.fields {
		cols = append(cols, f.dbTag)
	}
	for _, idx := range m.embedded {
		cols = append(cols, metadataOf(m.typ.Field(idx).Type).columns()...)
	}
	return cols
}

var typeCache sync.Map // map[reflect.Type]*typeMetadata

func metadataOf(t reflect.Type) *typeMetadata {
	if t == nil {
		return &typeMetadata{}
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{typ: t}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.Anonymous {
				meta.embedded = append(meta.embedded, i)
				continue
			}
			tag := field.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			meta.fields = append(meta.fields, fieldInfo{index: i, dbTag: tag})
		}
	}

	actual, _ := typeCache.LoadOrStore(t, meta)
	return actual.(*typeMetadata)
}

// StructToMap converts a struct (or pointer to struct) to a column map using
// its "db" tags. Reflection metadata is cached per type.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metadataOf(rv.Type())
	res := make(map[string]any, len(meta.fields))
	for _, fi := range meta.fields {
		res[fi.dbTag] = rv.Field(fi.index).Interface()
	}
	for _, idx := range meta.embedded {
		for k, val := range StructToMap(rv.Field(idx).Interface()) {
			res[k] = val
		}
	}
	return res
}
