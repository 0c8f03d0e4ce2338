// Package testutil provides shared fixtures for package tests: a small
// festival source file, temp-file helpers and record assertions.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a01094554781-oss/kfestival/internal/dataset"
)

// FestivalCSV is an eight-row source file in the public-data layout.
// Visitors total 9,150,000 and foreign visitors 810,000.
const FestivalCSV = `festivalname,state,festivaltype,startmonth,visitors in the previous year,foreigner
진해군항제,경남,문화예술,4,"3,000,000","120,000"
보령머드축제,충남,지역특산물,7,"1,500,000","300,000"
화천산천어축제,강원,자연생태,1,"1,300,000","150,000"
부산불꽃축제,부산,문화예술,11,"1,000,000","80,000"
서울빛초롱축제,서울,문화예술,12,"800,000","70,000"
태백산눈축제,강원,자연생태,2,"400,000","20,000"
안동국제탈춤페스티벌,경북,전통역사,10,"900,000","60,000"
제주들불축제,제주,자연생태,3,"250,000","10,000"
`

// Fixture facts.
const (
	FestivalCount        = 8
	TotalVisitors        = 9_150_000.0
	TotalForeignVisitors = 810_000.0
)

// TestMemoryContext provides an allocator for Arrow-backed tests.
type TestMemoryContext struct {
	Allocator memory.Allocator
}

// Release is a no-op kept for symmetry with defer-based setup.
func (tmc *TestMemoryContext) Release() {}

// SetupMemoryTest creates a memory allocator for tests.
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	return &TestMemoryContext{Allocator: memory.NewGoAllocator()}
}

// WriteFile writes data to name inside a per-test temporary directory and
// returns the full path.
func WriteFile(tb testing.TB, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), name)
	require.NoError(tb, os.WriteFile(path, data, 0o600))
	return path
}

// WriteFestivalCSV writes FestivalCSV to a temporary file.
func WriteFestivalCSV(tb testing.TB) string {
	tb.Helper()
	return WriteFile(tb, "festival.csv", []byte(FestivalCSV))
}

// Names returns the original-language names of records in order.
func Names(records []dataset.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

// AssertNames asserts that records carry exactly the given names in order.
func AssertNames(tb testing.TB, records []dataset.Record, names ...string) {
	tb.Helper()
	if names == nil {
		names = []string{}
	}
	assert.Equal(tb, names, Names(records))
}
