// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package qgg

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// ScoreOptions configures Score. S is nc×nprs: one effect-weight column
// per polygenic score being accumulated. AF and Direction are parallel to
// Cols; nil Direction means DirectionKeep for every column.
type ScoreOptions struct {
	Rows, Cols []int
	S          *mat.Dense
	AF         []float64
	Direction  []Direction
	Impute     ImputePolicy
	NCores     int
}

// Score accumulates polygenic scores prs[i,j] += g[i]*S[col,j] for every
// column in Cols and every trait j, per spec.md §4.6. It splits Cols into
// NCores contiguous chunks, each accumulating into its own partial matrix
// (the teacher's prs_partial[:,:,thread] idiom), then reduces the
// partials by summation. The result is the same for any NCores up to
// floating-point rounding, since NCores decides how columns are grouped
// into partial sums.
func Score(r *ColumnReader, opt ScoreOptions) (*mat.Dense, error) {
	nr := len(opt.Rows)
	nc := len(opt.Cols)
	if nr == 0 {
		return nil, &ShapeError{Msg: "empty row selection"}
	}
	if nc == 0 {
		return nil, &ShapeError{Msg: "empty column selection"}
	}
	srows, scols := opt.S.Dims()
	if srows != nc {
		return nil, &ShapeError{Msg: fmt.Sprintf("effect matrix has %d rows, want %d (len(Cols))", srows, nc)}
	}
	nprs := scols

	nthreads := opt.NCores
	if nthreads < 1 {
		nthreads = 1
	}
	if nthreads > nc {
		nthreads = nc
	}
	chunk := (nc + nthreads - 1) / nthreads

	partials := make([]*mat.Dense, nthreads)
	var wg sync.WaitGroup
	errs := make([]error, nthreads)
	for t := 0; t < nthreads; t++ {
		start := t * chunk
		end := start + chunk
		if end > nc {
			end = nc
		}
		if start >= end {
			continue
		}
		t, start, end := t, start, end
		wg.Add(1)
		go func() {
			defer wg.Done()
			partial := mat.NewDense(nr, nprs, nil)
			for idx := start; idx < end; idx++ {
				col := opt.Cols[idx]
				raw, err := r.ReadColumn(col)
				if err != nil {
					errs[t] = err
					return
				}
				full := DecodeReal(raw, r.NumRows())
				g, err := subsetRows(full, opt.Rows)
				if err != nil {
					errs[t] = fmt.Errorf("column %d: %w", col, err)
					return
				}
				dir := DirectionKeep
				if opt.Direction != nil {
					dir = opt.Direction[idx]
				}
				a := 0.0
				if opt.AF != nil {
					a = opt.AF[idx]
				}
				out, _ := TransformColumn(g, opt.Impute, dir, ScaleNone, a)
				for j := 0; j < nprs; j++ {
					sij := opt.S.At(idx, j)
					if sij == 0 {
						continue
					}
					for i, v := range out {
						partial.Set(i, j, partial.At(i, j)+v*sij)
					}
				}
			}
			partials[t] = partial
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	prs := mat.NewDense(nr, nprs, nil)
	for _, p := range partials {
		if p != nil {
			prs.Add(prs, p)
		}
	}
	logger.Infof("score: accumulated %d columns x %d traits over %d samples", nc, nprs, nr)
	return prs, nil
}
