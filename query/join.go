package query

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// Join combines the accumulated rows with the tagged rows of a joined table
// using a nested-loop equality match on the string forms of the keys. Null
// keys never match.
//
// Matched pairs merge left then right, so right columns win on name
// collisions. Unmatched rows kept by LEFT, RIGHT and FULL joins have the
// other side's columns padded with Null, giving every output row the same
// column set.
func Join(left, right []map[string]interface{}, kind JoinKind, leftKey, rightKey *ColumnRef) []map[string]interface{} {
	leftCols := columnSet(left)
	rightCols := columnSet(right)

	rightKeys := make([]string, len(right))
	rightNull := make([]bool, len(right))
	for j, row := range right {
		v, _ := lookupColumn(row, rightKey.Name)
		rightKeys[j] = toString(v)
		rightNull[j] = v == nil
	}

	matched := roaring.New()
	result := make([]map[string]interface{}, 0, len(left))

	for _, lrow := range left {
		lv, _ := lookupColumn(lrow, leftKey.Name)
		found := false

		if lv != nil {
			key := toString(lv)
			for j, rrow := range right {
				if rightNull[j] || rightKeys[j] != key {
					continue
				}
				found = true
				matched.Add(uint32(j))
				result = append(result, mergeRows(lrow, rrow))
			}
		}

		if !found && (kind == JoinLeft || kind == JoinFull) {
			result = append(result, padRow(lrow, rightCols))
		}
	}

	if kind == JoinRight || kind == JoinFull {
		for j, rrow := range right {
			if matched.Contains(uint32(j)) {
				continue
			}
			padded := padRow(nil, leftCols)
			for k, v := range rrow {
				padded[k] = v
			}
			result = append(result, padded)
		}
	}

	return result
}

// mergeRows returns a new row with the columns of left then right.
func mergeRows(left, right map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(left)+len(right))
	for k, v := range left {
		merged[k] = v
	}
	for k, v := range right {
		merged[k] = v
	}
	return merged
}

// padRow copies row and sets every column of cols it lacks to Null.
func padRow(row map[string]interface{}, cols []string) map[string]interface{} {
	padded := make(map[string]interface{}, len(row)+len(cols))
	for k, v := range row {
		padded[k] = v
	}
	for _, col := range cols {
		if _, ok := padded[col]; !ok {
			padded[col] = nil
		}
	}
	return padded
}

// columnSet returns the union of the column names of rows, sorted.
func columnSet(rows []map[string]interface{}) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}
