package query

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
)

// filterRecords keeps the records selected by pred.
func filterRecords(recs []*record, pred Expr, ev *Evaluator) []*record {
	if pred == nil {
		return recs
	}
	kept := recs[:0:0]
	for _, rec := range recs {
		if ev.Matches(pred, rec.row, rec.vars) {
			kept = append(kept, rec)
		}
	}
	return kept
}

// orderer compares sort keys: numerically when both sides are numbers,
// otherwise with the collator of the query locale. Null and NullMarker sort
// before every other value.
type orderer struct {
	collator *collate.Collator
}

func (o *orderer) compare(a, b interface{}) int {
	an, bn := isNullish(a), isNullish(b)
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}

	af, aok := toNumber(a)
	bf, bok := toNumber(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}

	if o.collator == nil {
		return strings.Compare(toString(a), toString(b))
	}
	return o.collator.CompareString(toString(a), toString(b))
}

// compareKeys compares two key tuples under items' directions.
func (o *orderer) compareKeys(a, b []interface{}, items []OrderItem) int {
	for i, item := range items {
		c := o.compare(a[i], b[i])
		if item.Direction == Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// sortRecords stable-sorts records by keys, where keys[i] belongs to
// recs[i]. Ties keep their input order.
func (o *orderer) sortRecords(recs []*record, keys [][]interface{}, items []OrderItem) {
	idx := make([]int, len(recs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return o.compareKeys(keys[idx[i]], keys[idx[j]], items) < 0
	})

	sorted := make([]*record, len(recs))
	for i, n := range idx {
		sorted[i] = recs[n]
	}
	copy(recs, sorted)
}

// orderKey evaluates ORDER BY items for a projected record. A name that is
// an output column reads the projected value; anything else is evaluated
// against the source row, so non-projected columns and aggregates sort too.
func orderKey(rec *record, items []OrderItem, ev *Evaluator) []interface{} {
	key := make([]interface{}, len(items))
	for i, item := range items {
		if col, ok := item.Expr.(*ColumnRef); ok {
			if v, ok := rec.out[col.Name]; ok {
				key[i] = v
				continue
			}
		}
		if v, ok := rec.out[item.Expr.String()]; ok {
			key[i] = v
			continue
		}
		key[i] = ev.Value(item.Expr, rec.row, rec.vars)
	}
	return key
}

// distinctRecords removes records whose projected rows are equal over
// columns, keeping the first occurrence.
func distinctRecords(recs []*record, columns []string) []*record {
	seen := make(map[string]bool)
	distinct := make([]*record, 0, len(recs))

	for _, rec := range recs {
		key := rowToKey(rec.out, columns)
		if !seen[key] {
			seen[key] = true
			distinct = append(distinct, rec)
		}
	}

	return distinct
}

// rowToKey creates a unique string key from a row for deduplication
func rowToKey(row map[string]interface{}, columns []string) string {
	var key strings.Builder
	for i, col := range columns {
		if i > 0 {
			key.WriteString("\x00||\x00")
		}
		// %#v keeps 1 and "1" apart
		key.WriteString(fmt.Sprintf("%#v", row[col]))
	}
	return key.String()
}

// limitRecords applies OFFSET then LIMIT.
func limitRecords(recs []*record, limit *int64, offset int64) []*record {
	start := offset
	if start < 0 {
		start = 0
	}
	if start >= int64(len(recs)) {
		return nil
	}

	end := int64(len(recs))
	if limit != nil && *limit >= 0 && *limit < end-start {
		end = start + *limit
	}

	return recs[start:end]
}
