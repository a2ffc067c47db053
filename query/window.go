package query

import (
	"sort"
	"strings"
)

// HasWindowFunction checks if the SELECT list contains any window functions
func HasWindowFunction(selectList []SelectItem) bool {
	for _, item := range selectList {
		if _, ok := item.Expr.(*WindowCall); ok {
			return true
		}
	}
	return false
}

// applyWindows computes every window item of the select list over the same
// input records, then publishes each value in the record's vars under the
// window's canonical text.
func applyWindows(recs []*record, selectList []SelectItem, ev *Evaluator, ord *orderer) {
	type computed struct {
		key    string
		values []interface{}
	}
	var results []computed

	for _, item := range selectList {
		w, ok := item.Expr.(*WindowCall)
		if !ok {
			continue
		}
		results = append(results, computed{key: w.String(), values: computeWindow(recs, w, ev, ord)})
	}

	for _, res := range results {
		for i, rec := range recs {
			rec.vars[res.key] = res.values[i]
		}
	}
}

// computeWindow returns the value of w for each record, in input order.
func computeWindow(recs []*record, w *WindowCall, ev *Evaluator, ord *orderer) []interface{} {
	results := make([]interface{}, len(recs))
	keys := make([][]interface{}, len(recs))
	for i, rec := range recs {
		keys[i] = windowOrderKey(rec, w.OrderBy, ev)
	}

	for _, partition := range partitionRecords(recs, w.PartitionBy, ev) {

		sortPartition(partition, keys, w.OrderBy, ord)

		var rank, dense int64
		for n, i := range partition {
			tied := n > 0 && ord.compareKeys(keys[partition[n-1]], keys[i], w.OrderBy) == 0
			if !tied {
				rank = int64(n + 1)
				dense++
			}

			switch strings.ToUpper(w.Function) {
			case "RANK":
				results[i] = rank
			case "DENSE_RANK":
				results[i] = dense
			default:
				results[i] = int64(n + 1)
			}
		}
	}

	return results
}

// partitionRecords groups record indexes by their PARTITION BY values.
// Indexes within a partition keep input order.
func partitionRecords(recs []*record, partitionBy []*ColumnRef, ev *Evaluator) [][]int {
	if len(partitionBy) == 0 {
		all := make([]int, len(recs))
		for i := range all {
			all[i] = i
		}
		return [][]int{all}
	}

	index := make(map[string]int)
	var partitions [][]int
	for i, rec := range recs {
		key := groupKey(rec, partitionBy, ev)
		p, ok := index[key]
		if !ok {
			p = len(partitions)
			index[key] = p
			partitions = append(partitions, nil)
		}
		partitions[p] = append(partitions[p], i)
	}
	return partitions
}

func windowOrderKey(rec *record, items []OrderItem, ev *Evaluator) []interface{} {
	key := make([]interface{}, len(items))
	for i, item := range items {
		key[i] = ev.Value(item.Expr, rec.row, rec.vars)
	}
	return key
}

// sortPartition stable-sorts partition indexes by their order keys. With no
// ORDER BY the input order stands.
func sortPartition(partition []int, keys [][]interface{}, orderBy []OrderItem, ord *orderer) {
	if len(orderBy) == 0 {
		return
	}
	sort.SliceStable(partition, func(a, b int) bool {
		return ord.compareKeys(keys[partition[a]], keys[partition[b]], orderBy) < 0
	})
}
