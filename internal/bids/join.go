package bids

import (
	"fmt"

	"github.com/verte-zerg/respire/internal/model"
)

// LeftJoin appends the columns of right to left, matching rows on key. Every
// row of left is kept in order; rows without a match get n/a. rename maps a
// right column to its name in the result and may be nil. Duplicate keys in
// right and clashing column names are malformed input.
func LeftJoin(left, right Table, key string, rename func(string) string) (Table, error) {
	lk, err := left.Require(key)
	if err != nil {
		return Table{}, err
	}
	rk, err := right.Require(key)
	if err != nil {
		return Table{}, err
	}

	out := Table{Columns: append([]string(nil), left.Columns...)}
	var take []int
	for i, c := range right.Columns {
		if i == rk[0] {
			continue
		}
		name := c
		if rename != nil {
			name = rename(c)
		}
		if out.Index(name) >= 0 {
			return Table{}, fmt.Errorf("%w: duplicate column %q", model.ErrMalformedInput, name)
		}
		out.Columns = append(out.Columns, name)
		take = append(take, i)
	}

	byKey := make(map[string][]string, len(right.Rows))
	for _, row := range right.Rows {
		k := row[rk[0]]
		if _, ok := byKey[k]; ok {
			return Table{}, fmt.Errorf("%w: duplicate %s %q", model.ErrMalformedInput, key, k)
		}
		byKey[k] = row
	}

	for _, row := range left.Rows {
		joined := make([]string, 0, len(out.Columns))
		joined = append(joined, row...)
		match, ok := byKey[row[lk[0]]]
		for _, i := range take {
			if ok && i < len(match) {
				joined = append(joined, match[i])
			} else {
				joined = append(joined, NA)
			}
		}
		out.Rows = append(out.Rows, joined)
	}
	return out, nil
}

// Keys returns the distinct values of column in row order.
func (t Table) Keys(column string) ([]string, error) {
	idx, err := t.Require(column)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(t.Rows))
	var keys []string
	for _, row := range t.Rows {
		if k := row[idx[0]]; !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys, nil
}
