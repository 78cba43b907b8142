// Package aggregate sums and counts groups over raw JSON arrays returned by
// the government APIs. Paths use gjson syntax, so nested fields such as
// statusProposicao.descricaoSituacao work without decoding into structs.
package aggregate

import (
	"math"
	"sort"

	"github.com/tidwall/gjson"
)

// Group is one aggregated key and its total
type Group struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Items returns the record array of an upstream body: the "dados" member
// when present, otherwise the document itself when it is an array.
func Items(body []byte) gjson.Result {
	doc := gjson.ParseBytes(body)
	if dados := doc.Get("dados"); dados.IsArray() {
		return dados
	}
	if doc.IsArray() {
		return doc
	}
	return gjson.Result{}
}

// SumBy totals valuePath per keyPath. Groups appear in first-seen order.
// Items without a key are skipped; non-numeric values count as zero.
func SumBy(items gjson.Result, keyPath, valuePath string) []Group {
	var groups []Group
	index := map[string]int{}
	items.ForEach(func(_, item gjson.Result) bool {
		key := item.Get(keyPath)
		if !key.Exists() || key.String() == "" {
			return true
		}
		i, ok := index[key.String()]
		if !ok {
			i = len(groups)
			index[key.String()] = i
			groups = append(groups, Group{Key: key.String()})
		}
		groups[i].Value += item.Get(valuePath).Float()
		return true
	})
	return groups
}

// Sum totals valuePath over every item
func Sum(items gjson.Result, valuePath string) float64 {
	var total float64
	items.ForEach(func(_, item gjson.Result) bool {
		total += item.Get(valuePath).Float()
		return true
	})
	return total
}

// CountBy counts items per keyPath. Items without a key are counted under
// missing. Groups appear in first-seen order.
func CountBy(items gjson.Result, keyPath, missing string) []Group {
	var groups []Group
	index := map[string]int{}
	items.ForEach(func(_, item gjson.Result) bool {
		key := item.Get(keyPath).String()
		if key == "" {
			key = missing
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Value++
		return true
	})
	return groups
}

// SortDesc orders groups by value, highest first. Ties keep their order.
func SortDesc(groups []Group) []Group {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Value > groups[j].Value
	})
	return groups
}

// Top truncates groups to at most n entries
func Top(groups []Group, n int) []Group {
	if n >= 0 && len(groups) > n {
		return groups[:n]
	}
	return groups
}

// Round rounds v half away from zero to places decimals
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
