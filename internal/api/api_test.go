package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a01094554781-oss/kfestival/internal/api"
	"github.com/a01094554781-oss/kfestival/internal/cache"
	"github.com/a01094554781-oss/kfestival/internal/dataset"
	"github.com/a01094554781-oss/kfestival/internal/io"
	"github.com/a01094554781-oss/kfestival/internal/query"
	"github.com/a01094554781-oss/kfestival/internal/reftable"
	"github.com/a01094554781-oss/kfestival/internal/testutil"
)

type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Metadata struct {
		Generation string `json:"generation"`
		Language   string `json:"language"`
		Count      *int   `json:"count"`
	} `json:"metadata"`
	Error *api.APIError `json:"error"`
}

type record struct {
	Name            string  `json:"name"`
	RegionEN        string  `json:"region_en"`
	ForeignVisitors float64 `json:"foreign_visitors"`
}

func names(records []record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func urlEscape(s string) string { return url.QueryEscape(s) }

func newStore(t *testing.T, path string) *cache.Store {
	t.Helper()
	return cache.NewStore(path, cache.Builder(io.DefaultCSVOptions(), reftable.Default(), dataset.Options{}))
}

func newServer(t *testing.T) (http.Handler, *cache.Store, string) {
	t.Helper()
	path := testutil.WriteFestivalCSV(t)
	store := newStore(t, path)
	_, err := store.Load(context.Background())
	require.NoError(t, err)
	return api.New(store, api.Options{}).Routes(), store, path
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, target string, wantStatus int) envelope {
	t.Helper()
	rec := do(t, h, http.MethodGet, target)
	require.Equal(t, wantStatus, rec.Code, rec.Body.String())
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHealth(t *testing.T) {
	h, store, _ := newServer(t)

	env := get(t, h, "/api/v1/health", http.StatusOK)
	var body map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(testutil.FestivalCount), body["rows"])
	assert.Equal(t, store.Current().Generation.String(), body["generation"])
	assert.Equal(t, true, body["foreign_visitors_available"])
}

func TestNotReady(t *testing.T) {
	store := newStore(t, testutil.WriteFestivalCSV(t))
	h := api.New(store, api.Options{}).Routes()

	env := get(t, h, "/api/v1/festivals", http.StatusServiceUnavailable)
	assert.Equal(t, "error", env.Status)
	require.NotNil(t, env.Error)
	assert.Equal(t, api.CodeNotReady, env.Error.Code)

	get(t, h, "/api/v1/health", http.StatusServiceUnavailable)
}

func TestFestivals(t *testing.T) {
	h, store, _ := newServer(t)

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{
			name:   "no filter keeps source order",
			target: "/api/v1/festivals",
			want:   []string{"진해군항제", "보령머드축제", "화천산천어축제", "부산불꽃축제", "서울빛초롱축제", "태백산눈축제", "안동국제탈춤페스티벌", "제주들불축제"},
		},
		{
			name:   "repeated months",
			target: "/api/v1/festivals?month=1&month=2",
			want:   []string{"화천산천어축제", "태백산눈축제"},
		},
		{
			name:   "comma list of regions in EN",
			target: "/api/v1/festivals?lang=EN&region=Gangwon,Jeju",
			want:   []string{"화천산천어축제", "태백산눈축제", "제주들불축제"},
		},
		{
			name:   "category and search",
			target: "/api/v1/festivals?category=" + urlEscape("문화예술") + "&q=" + urlEscape("불꽃"),
			want:   []string{"부산불꽃축제"},
		},
		{
			name:   "no match",
			target: "/api/v1/festivals?month=6",
			want:   []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := get(t, h, tt.target, http.StatusOK)
			var records []record
			require.NoError(t, json.Unmarshal(env.Data, &records))
			assert.Equal(t, tt.want, names(records))
			require.NotNil(t, env.Metadata.Count)
			assert.Equal(t, len(tt.want), *env.Metadata.Count)
			assert.Equal(t, store.Current().Generation.String(), env.Metadata.Generation)
		})
	}
}

func TestFestivals_InvalidInput(t *testing.T) {
	h, _, _ := newServer(t)

	for _, target := range []string{
		"/api/v1/festivals?month=13",
		"/api/v1/festivals?month=spring",
		"/api/v1/festivals?lang=FR",
		"/api/v1/top?n=0",
		"/api/v1/breakdown?path=region,planet",
		"/api/v1/breakdown?metric=revenue",
		"/api/v1/season/monsoon",
		"/api/v1/regions/nearest?lat=95&lon=127",
		"/api/v1/regions/nearest?lat=35",
	} {
		env := get(t, h, target, http.StatusBadRequest)
		require.NotNil(t, env.Error, target)
		assert.Equal(t, api.CodeValidation, env.Error.Code, target)
	}
}

func TestSummary(t *testing.T) {
	h, _, _ := newServer(t)

	env := get(t, h, "/api/v1/summary", http.StatusOK)
	var body struct {
		KPI                      query.KPI `json:"kpi"`
		ForeignVisitorsAvailable bool      `json:"foreign_visitors_available"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, testutil.FestivalCount, body.KPI.Count)
	assert.Equal(t, testutil.TotalVisitors, body.KPI.Visitors)
	assert.Equal(t, testutil.TotalForeignVisitors, body.KPI.ForeignVisitors)
	assert.True(t, body.ForeignVisitorsAvailable)

	env = get(t, h, "/api/v1/summary?region="+urlEscape("강원"), http.StatusOK)
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, query.KPI{Count: 2, Visitors: 1_700_000, ForeignVisitors: 170_000}, body.KPI)
}

func TestTop(t *testing.T) {
	h, _, _ := newServer(t)

	env := get(t, h, "/api/v1/top?n=3", http.StatusOK)
	var records []record
	require.NoError(t, json.Unmarshal(env.Data, &records))
	assert.Equal(t, []string{"보령머드축제", "화천산천어축제", "진해군항제"}, names(records))
}

func TestBreakdown(t *testing.T) {
	h, _, _ := newServer(t)

	env := get(t, h, "/api/v1/breakdown?path=region&metric=count", http.StatusOK)
	var root struct {
		Label    string  `json:"label"`
		Value    float64 `json:"value"`
		Children []struct {
			Label string  `json:"label"`
			Value float64 `json:"value"`
		} `json:"children"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &root))
	assert.Equal(t, float64(testutil.FestivalCount), root.Value)
	require.NotEmpty(t, root.Children)
	assert.Equal(t, "경남", root.Children[0].Label)

	var sum float64
	for _, c := range root.Children {
		sum += c.Value
	}
	assert.Equal(t, root.Value, sum)
}

func TestCards(t *testing.T) {
	h, _, _ := newServer(t)

	env := get(t, h, "/api/v1/cards?limit=2&lang=EN", http.StatusOK)
	var list query.CardList
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, testutil.FestivalCount, list.Total)
	assert.True(t, list.Truncated)
	require.Len(t, list.Cards, 2)
	assert.Equal(t, "Gyeongnam", list.Cards[0].Region)
	assert.Equal(t, "Arts & Culture", list.Cards[0].Category)
	assert.NotEmpty(t, list.Cards[0].SearchURL)
}

func TestMap(t *testing.T) {
	h, _, _ := newServer(t)

	env := get(t, h, "/api/v1/map?month=7", http.StatusOK)
	var body struct {
		Markers []struct {
			Label   string  `json:"label"`
			Lat     float64 `json:"lat"`
			Lon     float64 `json:"lon"`
			Geohash string  `json:"geohash"`
		} `json:"markers"`
		View struct {
			Zoom  int  `json:"zoom"`
			Empty bool `json:"empty"`
		} `json:"view"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Len(t, body.Markers, 1)
	assert.Equal(t, "보령머드축제", body.Markers[0].Label)
	assert.InDelta(t, 36.6588, body.Markers[0].Lat, dataset.DefaultJitter+0.01)
	assert.Len(t, body.Markers[0].Geohash, 5)
	assert.False(t, body.View.Empty)

	env = get(t, h, "/api/v1/map?month=6", http.StatusOK)
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Empty(t, body.Markers)
	assert.True(t, body.View.Empty)
}

func TestSeason(t *testing.T) {
	h, _, _ := newServer(t)

	env := get(t, h, "/api/v1/season/winter?month=7", http.StatusOK)
	var body struct {
		Season string   `json:"season"`
		Label  string   `json:"label"`
		Months []int    `json:"months"`
		Picks  []record `json:"picks"`
		All    []record `json:"all"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, "Winter", body.Season)
	assert.Equal(t, []int{12, 1, 2}, body.Months)
	assert.Equal(t, []string{"화천산천어축제", "서울빛초롱축제", "태백산눈축제"}, names(body.All))
	assert.Equal(t, []string{"화천산천어축제", "서울빛초롱축제", "태백산눈축제"}, names(body.Picks))

	env = get(t, h, "/api/v1/season/"+urlEscape("여름")+"?lang=EN&region=Jeju", http.StatusOK)
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Empty(t, body.All)
	assert.Empty(t, body.Picks)
}

func TestNearestRegion(t *testing.T) {
	h, _, _ := newServer(t)

	env := get(t, h, "/api/v1/regions/nearest?lat=35.18&lon=129.07", http.StatusOK)
	var body struct {
		Code       string  `json:"code"`
		EN         string  `json:"en"`
		DistanceKM float64 `json:"distance_km"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, "부산", body.Code)
	assert.Equal(t, "Busan", body.EN)
	assert.Less(t, body.DistanceKM, 5.0)
}

func TestOptions(t *testing.T) {
	h, _, _ := newServer(t)

	env := get(t, h, "/api/v1/options?lang=EN", http.StatusOK)
	var body struct {
		Months  []int             `json:"months"`
		Regions []string          `json:"regions"`
		Seasons []json.RawMessage `json:"seasons"`
		Labels  map[string]string `json:"labels"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Len(t, body.Months, 12)
	assert.Contains(t, body.Regions, "Gangwon")
	assert.Len(t, body.Seasons, 4)
	assert.NotEmpty(t, body.Labels)
	assert.Equal(t, "EN", env.Metadata.Language)
}

func TestExport(t *testing.T) {
	h, _, _ := newServer(t)

	rec := do(t, h, http.MethodGet, "/api/v1/export.csv?region="+urlEscape("강원"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `"korea_festivals.csv"`)
	body := rec.Body.String()
	assert.Contains(t, body, "화천산천어축제")
	assert.Contains(t, body, "태백산눈축제")
	assert.NotContains(t, body, "진해군항제")

	rec = do(t, h, http.MethodGet, "/api/v1/export.parquet")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.apache.parquet", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PAR1"))
}

func TestReload(t *testing.T) {
	h, store, path := newServer(t)
	first := store.Current().Generation

	rec := do(t, h, http.MethodPost, "/api/v1/reload")
	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var body struct {
		Swapped bool `json:"swapped"`
		Rows    int  `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.False(t, body.Swapped)
	assert.Equal(t, first, store.Current().Generation)

	require.NoError(t, os.WriteFile(path, []byte("not,a,festival,file\n1,2,3,4\n"), 0o600))
	rec = do(t, h, http.MethodPost, "/api/v1/reload")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, first, store.Current().Generation, "failed reload keeps the snapshot")

	lines := strings.SplitAfter(testutil.FestivalCSV, "\n")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines[:3], "")), 0o600))
	rec = do(t, h, http.MethodPost, "/api/v1/reload")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.True(t, body.Swapped)
	assert.Equal(t, 2, body.Rows)
	assert.NotEqual(t, first, store.Current().Generation)
}

func TestUnknownRoute(t *testing.T) {
	h, _, _ := newServer(t)

	env := get(t, h, "/api/v1/nope", http.StatusNotFound)
	require.NotNil(t, env.Error)
	assert.Equal(t, api.CodeNotFound, env.Error.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _, _ := newServer(t)
	get(t, h, "/api/v1/summary", http.StatusOK)

	rec := do(t, h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kfestival_api_requests_total")
}
