// Package series provides Arrow-backed typed columns used when a festival
// view is exported to a columnar format.
package series

import (
	"fmt"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Element is the set of Go types a Series can hold.
type Element interface {
	~string | ~int64 | ~float64
}

// Column is the type-erased view of a Series.
type Column interface {
	Name() string
	Len() int
	DataType() arrow.DataType
	Array() arrow.Array
	Release()
}

// Series represents a typed data column with Apache Arrow backend
type Series[T Element] struct {
	name  string
	array arrow.Array
}

// New creates a new Series from a slice of values
func New[T Element](name string, values []T, mem memory.Allocator) *Series[T] {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	var arr arrow.Array

	switch reflect.TypeOf(values).Elem().Kind() {
	case reflect.String:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		builder.Reserve(len(values))
		for _, val := range values {
			builder.Append(reflect.ValueOf(val).String())
		}
		arr = builder.NewArray()
	case reflect.Int64:
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		builder.Reserve(len(values))
		for _, val := range values {
			builder.Append(reflect.ValueOf(val).Int())
		}
		arr = builder.NewArray()
	case reflect.Float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		builder.Reserve(len(values))
		for _, val := range values {
			builder.Append(reflect.ValueOf(val).Float())
		}
		arr = builder.NewArray()
	default:
		panic(fmt.Sprintf("unsupported type: %T", values))
	}

	return &Series[T]{
		name:  name,
		array: arr,
	}
}

// FromArray wraps an existing Arrow array, checking that its type matches T.
// The array is retained; the caller keeps its own reference.
func FromArray[T Element](name string, arr arrow.Array) (*Series[T], error) {
	var zero T
	want := arrowType(reflect.TypeOf(zero).Kind())
	if want == nil || !arrow.TypeEqual(want, arr.DataType()) {
		return nil, fmt.Errorf("column %s: cannot read %s as %T", name, arr.DataType(), zero)
	}
	arr.Retain()
	return &Series[T]{name: name, array: arr}, nil
}

func arrowType(k reflect.Kind) arrow.DataType {
	switch k {
	case reflect.String:
		return arrow.BinaryTypes.String
	case reflect.Int64:
		return arrow.PrimitiveTypes.Int64
	case reflect.Float64:
		return arrow.PrimitiveTypes.Float64
	default:
		return nil
	}
}

// Name returns the column name
func (s *Series[T]) Name() string {
	return s.name
}

// Len returns the length of the series
func (s *Series[T]) Len() int {
	return s.array.Len()
}

// Values returns the data as a Go slice
func (s *Series[T]) Values() []T {
	result := make([]T, s.array.Len())
	for i := range result {
		result[i] = s.Value(i)
	}
	return result
}

// Value returns the value at the given index; out-of-range and null slots
// yield the zero value.
func (s *Series[T]) Value(index int) T {
	var result T
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return result
	}

	rv := reflect.ValueOf(&result).Elem()
	switch arr := s.array.(type) {
	case *array.String:
		rv.SetString(arr.Value(index))
	case *array.Int64:
		rv.SetInt(arr.Value(index))
	case *array.Float64:
		rv.SetFloat(arr.Value(index))
	}
	return result
}

// DataType returns the Arrow data type
func (s *Series[T]) DataType() arrow.DataType {
	return s.array.DataType()
}

// IsNull checks if the value at index is null
func (s *Series[T]) IsNull(index int) bool {
	return s.array.IsNull(index)
}

// String returns a string representation of the series
func (s *Series[T]) String() string {
	return fmt.Sprintf("Series[%s]: %s (len=%d)",
		reflect.TypeOf(new(T)).Elem().Name(),
		s.name,
		s.Len())
}

// Array returns the underlying Arrow array (retains a reference)
func (s *Series[T]) Array() arrow.Array {
	if s.array != nil {
		s.array.Retain()
		return s.array
	}
	return nil
}

// Release releases the underlying Arrow memory
func (s *Series[T]) Release() {
	if s.array != nil {
		s.array.Release()
	}
}

// NewTable assembles equally long columns into an Arrow table. The table
// holds its own references; callers still release their columns.
func NewTable(columns ...Column) (arrow.Table, error) {
	fields := make([]arrow.Field, 0, len(columns))
	cols := make([]arrow.Column, 0, len(columns))
	rows := 0
	for i, c := range columns {
		if i == 0 {
			rows = c.Len()
		} else if c.Len() != rows {
			return nil, fmt.Errorf("column %s has %d rows, expected %d", c.Name(), c.Len(), rows)
		}
	}

	for _, c := range columns {
		field := arrow.Field{Name: c.Name(), Type: c.DataType()}
		fields = append(fields, field)

		arr := c.Array()
		chunked := arrow.NewChunked(arr.DataType(), []arrow.Array{arr})
		arr.Release()
		col := arrow.NewColumn(field, chunked)
		chunked.Release()
		cols = append(cols, *col)
	}

	schema := arrow.NewSchema(fields, nil)
	table := array.NewTable(schema, cols, int64(rows))
	for i := range cols {
		cols[i].Release()
	}
	return table, nil
}
