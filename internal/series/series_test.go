package series

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeries(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	t.Run("string series", func(t *testing.T) {
		s := New("name", []string{"진해군항제", "보령머드축제"}, mem)
		defer s.Release()

		assert.Equal(t, "name", s.Name())
		assert.Equal(t, 2, s.Len())
		assert.Equal(t, []string{"진해군항제", "보령머드축제"}, s.Values())
		assert.Equal(t, arrow.BinaryTypes.String, s.DataType())
	})

	t.Run("int64 series", func(t *testing.T) {
		s := New("start_month", []int64{4, 7, 12}, mem)
		defer s.Release()

		assert.Equal(t, []int64{4, 7, 12}, s.Values())
		assert.Equal(t, int64(7), s.Value(1))
	})

	t.Run("float64 series", func(t *testing.T) {
		s := New("visitors", []float64{1500000, 0, 2.5}, mem)
		defer s.Release()

		assert.Equal(t, []float64{1500000, 0, 2.5}, s.Values())
		assert.False(t, s.IsNull(0))
	})

	t.Run("empty series", func(t *testing.T) {
		s := New("empty", []string{}, mem)
		defer s.Release()

		assert.Equal(t, 0, s.Len())
		assert.Empty(t, s.Values())
	})

	t.Run("named string type", func(t *testing.T) {
		type code string
		s := New("region_code", []code{"서울", "부산"}, mem)
		defer s.Release()

		assert.Equal(t, []code{"서울", "부산"}, s.Values())
	})
}

func TestSeriesValue_OutOfRange(t *testing.T) {
	s := New("visitors", []float64{1, 2}, nil)
	defer s.Release()

	assert.Equal(t, 0.0, s.Value(-1))
	assert.Equal(t, 0.0, s.Value(2))
}

func TestSeriesString(t *testing.T) {
	s := New("visitors", []float64{1}, nil)
	defer s.Release()

	assert.Equal(t, "Series[float64]: visitors (len=1)", s.String())
}

func TestFromArray(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewInt64Builder(mem)
	b.AppendValues([]int64{1, 2, 3}, nil)
	arr := b.NewArray()
	b.Release()
	defer arr.Release()

	s, err := FromArray[int64]("start_month", arr)
	require.NoError(t, err)
	defer s.Release()
	assert.Equal(t, []int64{1, 2, 3}, s.Values())

	_, err = FromArray[string]("start_month", arr)
	assert.Error(t, err)
}

func TestNewTable(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	names := New("name", []string{"a", "b"}, mem)
	defer names.Release()
	visitors := New("visitors", []float64{10, 20}, mem)
	defer visitors.Release()

	table, err := NewTable(names, visitors)
	require.NoError(t, err)
	defer table.Release()

	assert.Equal(t, int64(2), table.NumRows())
	assert.Equal(t, int64(2), table.NumCols())
	assert.Equal(t, "visitors", table.Schema().Field(1).Name)

	short := New("month", []int64{1}, mem)
	defer short.Release()
	_, err = NewTable(names, short)
	assert.Error(t, err)
}
