package postgres

import (
	"reflect"
	"sync"
)

// columnIndex is the cached db-tag layout of one struct type.
type columnIndex struct {
	columns  []string
	paths    [][]int
	embedded bool
}

var columnCache sync.Map // map[reflect.Type]*columnIndex

func indexOf(t reflect.Type) *columnIndex {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := columnCache.Load(t); ok {
		return cached.(*columnIndex)
	}

	idx := &columnIndex{}
	if t.Kind() == reflect.Struct {
		collectColumns(t, nil, idx)
	}
	columnCache.Store(t, idx)
	return idx
}

// collectColumns walks t depth-first, descending into embedded structs
// (entity.Document, entity.BaseEntity) so their tags are flattened.
func collectColumns(t reflect.Type, prefix []int, idx *columnIndex) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		path := append(append([]int(nil), prefix...), i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			idx.embedded = true
			collectColumns(field.Type, path, idx)
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		idx.columns = append(idx.columns, tag)
		idx.paths = append(idx.paths, path)
	}
}

// ExtractDBColumns returns the column names from the "db" tags of T,
// embedded structs included, in declaration order.
func ExtractDBColumns[T any]() []string {
	var zero T
	cols := indexOf(reflect.TypeOf(zero)).columns
	return append([]string(nil), cols...)
}

// StructToMap converts a struct to a column → value map using "db" tags.
// Fields without a tag or tagged "-" are skipped.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	idx := indexOf(rv.Type())
	res := make(map[string]any, len(idx.columns))
	for i, col := range idx.columns {
		res[col] = rv.FieldByIndex(idx.paths[i]).Interface()
	}
	return res
}
