// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package qgg

import "fmt"

// Summary computes per-column call counts and allele frequency for every
// column in cls, restricted to the row subset rws. It reads and decodes
// each column independently, so it parallelizes over cls using up to
// ncores goroutines; ColumnReader's positional reads make that safe
// without any shared seek state (spec.md §5).
func Summary(r *ColumnReader, cls, rws []int, ncores int) ([]ColumnStats, error) {
	if len(cls) == 0 {
		return nil, &ShapeError{Msg: "empty column selection"}
	}
	if len(rws) == 0 {
		return nil, &ShapeError{Msg: "empty row selection"}
	}

	out := make([]ColumnStats, len(cls))
	t := throttle{Max: ncores}
	for i, col := range cls {
		i, col := i, col
		t.Go(func() error {
			raw, err := r.ReadColumn(col)
			if err != nil {
				return err
			}
			full := DecodeReal(raw, r.NumRows())
			g, err := subsetRows(full, rws)
			if err != nil {
				return fmt.Errorf("column %d: %w", col, err)
			}
			out[i] = tallyStats(g)
			return nil
		})
	}
	if err := t.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
