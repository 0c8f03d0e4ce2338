package query

import (
	"fmt"
	"strconv"
	"strings"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/a01094554781-oss/kfestival/internal/dataset"
	"github.com/a01094554781-oss/kfestival/internal/errors"
)

// Dimension is a grouping key of a record.
type Dimension string

// Supported dimensions.
const (
	DimRegion   Dimension = "region"
	DimCategory Dimension = "category"
	DimName     Dimension = "name"
	DimMonth    Dimension = "month"
)

// ParseDimension accepts a dimension name in any case.
func ParseDimension(s string) (Dimension, error) {
	switch d := Dimension(strings.ToLower(strings.TrimSpace(s))); d {
	case DimRegion, DimCategory, DimName, DimMonth:
		return d, nil
	default:
		return "", errors.NewInvalidFilterError("dimension", fmt.Sprintf("unknown dimension %q", s))
	}
}

// ParsePath parses a comma separated list of dimensions.
func ParsePath(s string) ([]Dimension, error) {
	var dims []Dimension
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		d, err := ParseDimension(part)
		if err != nil {
			return nil, err
		}
		dims = append(dims, d)
	}
	if len(dims) == 0 {
		return nil, errors.NewInvalidFilterError("path", "at least one dimension is required")
	}
	return dims, nil
}

func (d Dimension) key(lang Language, r dataset.Record) string {
	switch d {
	case DimRegion:
		return lang.Region(r)
	case DimCategory:
		return lang.Category(r)
	case DimName:
		return lang.Name(r)
	case DimMonth:
		return strconv.Itoa(r.StartMonth)
	default:
		return ""
	}
}

// Metric is the value accumulated per group.
type Metric string

// Supported metrics.
const (
	MetricVisitors        Metric = "visitors"
	MetricForeignVisitors Metric = "foreign_visitors"
	MetricCount           Metric = "count"
)

// ParseMetric accepts a metric name; empty means visitors.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MetricVisitors, nil
	case MetricVisitors, MetricForeignVisitors, MetricCount:
		return m, nil
	default:
		return "", errors.NewInvalidFilterError("metric", fmt.Sprintf("unknown metric %q", s))
	}
}

func (m Metric) value(r dataset.Record) float64 {
	switch m {
	case MetricForeignVisitors:
		return r.ForeignVisitors
	case MetricCount:
		return 1
	default:
		return r.Visitors
	}
}

// RootLabel labels the root of every group tree.
const RootLabel = "Korea"

// Node is one level of a hierarchical breakdown. Value is the metric total
// of all records below the node; Count is their number.
type Node struct {
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	Count    int     `json:"count"`
	Children []*Node `json:"children,omitempty"`

	index groupIndex
}

// child returns the child labelled label, creating it on first sight so
// children stay in first-appearance order.
func (n *Node) child(label string) *Node {
	if i, ok := n.index.get(label); ok {
		return n.Children[i]
	}
	c := &Node{Label: label}
	n.index.put(label, len(n.Children))
	n.Children = append(n.Children, c)
	return c
}

// Find walks labels from n and returns the node at the end of the path.
func (n *Node) Find(labels ...string) (*Node, bool) {
	cur := n
	for _, l := range labels {
		i, ok := cur.index.get(l)
		if !ok {
			return nil, false
		}
		cur = cur.Children[i]
	}
	return cur, true
}

// GroupTree builds a breakdown of records along dims (for example region →
// category → name for a treemap, or category → region for a sunburst).
func GroupTree(records []dataset.Record, lang Language, metric Metric, dims ...Dimension) *Node {
	root := &Node{Label: RootLabel}
	for _, r := range records {
		v := metric.value(r)
		node := root
		node.Value += v
		node.Count++
		for _, d := range dims {
			node = node.child(d.key(lang, r))
			node.Value += v
			node.Count++
		}
	}
	return root
}

// Group is one flat per-dimension total.
type Group struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// GroupTotals returns per-value totals of dim in first-appearance order.
func GroupTotals(records []dataset.Record, lang Language, metric Metric, dim Dimension) []Group {
	tree := GroupTree(records, lang, metric, dim)
	out := make([]Group, len(tree.Children))
	for i, c := range tree.Children {
		out[i] = Group{Label: c.Label, Value: c.Value, Count: c.Count}
	}
	return out
}

// groupIndex maps labels to child positions through xxhash buckets.
type groupIndex struct {
	buckets map[uint64][]groupEntry
}

type groupEntry struct {
	label string
	pos   int
}

func (g *groupIndex) get(label string) (int, bool) {
	for _, e := range g.buckets[xxhash.Sum64String(label)] {
		if e.label == label {
			return e.pos, true
		}
	}
	return 0, false
}

func (g *groupIndex) put(label string, pos int) {
	if g.buckets == nil {
		g.buckets = make(map[uint64][]groupEntry)
	}
	h := xxhash.Sum64String(label)
	g.buckets[h] = append(g.buckets[h], groupEntry{label: label, pos: pos})
}
