package main

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kfestival "github.com/a01094554781-oss/kfestival"
	"github.com/a01094554781-oss/kfestival/internal/errors"
	"github.com/a01094554781-oss/kfestival/internal/testutil"
)

func parse(t *testing.T, args ...string) options {
	t.Helper()
	opts, err := parseFlags(flag.NewFlagSet("kfestival", flag.ContinueOnError), args)
	require.NoError(t, err)
	return opts
}

func TestBuildState(t *testing.T) {
	opts := parse(t, "-month", "12, 1,2", "-region", "Gangwon,Seoul", "-q", "축제")
	state, err := buildState(opts, kfestival.EN)
	require.NoError(t, err)
	assert.Equal(t, []int{12, 1, 2}, state.Months)
	assert.Equal(t, []string{"Gangwon", "Seoul"}, state.Regions)
	assert.Empty(t, state.Categories)
	assert.Equal(t, "축제", state.Search)
	assert.Equal(t, kfestival.EN, state.Language)

	_, err = buildState(parse(t, "-month", "x"), kfestival.KO)
	assert.ErrorIs(t, err, errors.ErrInvalidQuery)
	_, err = buildState(parse(t, "-month", "13"), kfestival.KO)
	assert.ErrorIs(t, err, errors.ErrInvalidQuery)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,, b,"))
}

func TestRun_Tables(t *testing.T) {
	path := testutil.WriteFestivalCSV(t)
	var out bytes.Buffer

	err := run(context.Background(), parse(t, "-data", path, "-region", "강원"), &out)
	require.NoError(t, err)
	s := out.String()
	assert.Contains(t, s, "화천산천어축제")
	assert.Contains(t, s, "태백산눈축제")
	assert.NotContains(t, s, "진해군항제")
	assert.Contains(t, s, "1,700,000")
}

func TestRun_Season(t *testing.T) {
	path := testutil.WriteFestivalCSV(t)
	var out bytes.Buffer

	err := run(context.Background(), parse(t, "-data", path, "-lang", "en", "-season", "winter"), &out)
	require.NoError(t, err)
	s := out.String()
	assert.Contains(t, s, "Winter")
	assert.Contains(t, s, "Gangwon")
	assert.NotContains(t, s, "Gyeongnam")

	err = run(context.Background(), parse(t, "-data", path, "-season", "monsoon"), &out)
	assert.ErrorIs(t, err, errors.ErrInvalidQuery)
}

func TestRun_Export(t *testing.T) {
	path := testutil.WriteFestivalCSV(t)
	dest := filepath.Join(t.TempDir(), "korea_festivals.csv")
	var out bytes.Buffer

	err := run(context.Background(), parse(t, "-data", path, "-month", "1,2", "-export", dest), &out)
	require.NoError(t, err)

	cfg := kfestival.DefaultConfig()
	cfg.Data.Path = dest
	guide, err := kfestival.Open(context.Background(), cfg)
	require.NoError(t, err)
	testutil.AssertNames(t, guide.Dataset().Records(), "화천산천어축제", "태백산눈축제")
}

func TestRun_NoResults(t *testing.T) {
	path := testutil.WriteFestivalCSV(t)
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), parse(t, "-data", path, "-month", "6"), &out))
	assert.Contains(t, out.String(), "조건에 맞는 축제가 없습니다.")
}

func TestRun_MissingFile(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), parse(t, "-data", filepath.Join(t.TempDir(), "none.csv")), &out)
	assert.ErrorIs(t, err, errors.ErrIngestion)
}
