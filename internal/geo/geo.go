// Package geo projects festival records onto map markers and computes the
// view that frames them. Coordinates are display-only approximations.
package geo

import (
	"math"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"

	"github.com/a01094554781-oss/kfestival/internal/dataset"
	"github.com/a01094554781-oss/kfestival/internal/query"
)

// Map defaults.
const (
	DefaultPrecision = 5
	DefaultZoom      = 7
	DefaultCenterLat = 36.5
	DefaultCenterLon = 127.5
	maxZoom          = 12
)

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Marker is one festival on the map. Visitors drives marker size and
// Category drives marker color in the presentation layer.
type Marker struct {
	Point
	Label           string  `json:"label"`
	Region          string  `json:"region"`
	Category        string  `json:"category"`
	Visitors        float64 `json:"visitors"`
	ForeignVisitors float64 `json:"foreign_visitors"`
	Geohash         string  `json:"geohash"`
	SearchURL       string  `json:"search_url"`
}

// Project maps records to markers in input order. precision is the geohash
// length; non-positive means DefaultPrecision.
func Project(records []dataset.Record, lang query.Language, precision int) []Marker {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	out := make([]Marker, len(records))
	for i, r := range records {
		out[i] = Marker{
			Point:           Point{Lat: r.Latitude, Lon: r.Longitude},
			Label:           lang.Name(r),
			Region:          lang.Region(r),
			Category:        lang.Category(r),
			Visitors:        r.Visitors,
			ForeignVisitors: r.ForeignVisitors,
			Geohash:         geohash.EncodeWithPrecision(r.Latitude, r.Longitude, precision),
			SearchURL:       r.SearchURL,
		}
	}
	return out
}

// View frames a set of markers.
type View struct {
	Center    Point `json:"center"`
	SouthWest Point `json:"south_west"`
	NorthEast Point `json:"north_east"`
	Zoom      int   `json:"zoom"`
	Empty     bool  `json:"empty"`
}

// Fit returns the bounding view of markers. With no markers the view is
// centered on the middle of the country at the default zoom.
func Fit(markers []Marker) View {
	rect := s2.EmptyRect()
	for _, m := range markers {
		rect = rect.AddPoint(s2.LatLngFromDegrees(m.Lat, m.Lon))
	}
	if rect.IsEmpty() {
		c := Point{Lat: DefaultCenterLat, Lon: DefaultCenterLon}
		return View{Center: c, SouthWest: c, NorthEast: c, Zoom: DefaultZoom, Empty: true}
	}

	center := rect.Center()
	lo, hi := rect.Lo(), rect.Hi()
	return View{
		Center:    Point{Lat: center.Lat.Degrees(), Lon: center.Lng.Degrees()},
		SouthWest: Point{Lat: lo.Lat.Degrees(), Lon: lo.Lng.Degrees()},
		NorthEast: Point{Lat: hi.Lat.Degrees(), Lon: hi.Lng.Degrees()},
		Zoom:      zoomFor(hi.Lat.Degrees()-lo.Lat.Degrees(), hi.Lng.Degrees()-lo.Lng.Degrees()),
	}
}

// zoomFor picks the web-map zoom level at which the larger span fits.
func zoomFor(latSpan, lonSpan float64) int {
	span := math.Max(latSpan, lonSpan)
	if span <= 0 {
		return maxZoom
	}
	z := int(math.Floor(math.Log2(360 / span)))
	return max(1, min(z, maxZoom))
}

// Cell aggregates the markers that share a geohash prefix.
type Cell struct {
	Geohash  string  `json:"geohash"`
	Count    int     `json:"count"`
	Visitors float64 `json:"visitors"`
	Center   Point   `json:"center"`
}

// Cells groups markers by the first precision characters of their geohash,
// in first-appearance order. Center is the mean marker position.
func Cells(markers []Marker, precision int) []Cell {
	idx := make(map[string]int)
	var cells []Cell
	for _, m := range markers {
		key := m.Geohash
		if precision > 0 && len(key) > precision {
			key = key[:precision]
		}
		i, ok := idx[key]
		if !ok {
			i = len(cells)
			idx[key] = i
			cells = append(cells, Cell{Geohash: key})
		}
		c := &cells[i]
		c.Count++
		c.Visitors += m.Visitors
		c.Center.Lat += (m.Lat - c.Center.Lat) / float64(c.Count)
		c.Center.Lon += (m.Lon - c.Center.Lon) / float64(c.Count)
	}
	return cells
}
