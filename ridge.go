// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package qgg

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// RidgeOptions configures Ridge, the matrix-free Gauss-Seidel-with-
// residual-update solver described in spec.md §4.7. Mean and SD are
// pre-supplied per-column standardization parameters, parallel to Cols.
// S is the coefficient vector, in/out: a zero entry on entry is seeded
// from the initial residual; a nonzero entry is used as a warm start.
type RidgeOptions struct {
	Rows, Cols []int
	Y          []float64
	Lambda     []float64
	Mean, SD   []float64
	S          []float64
	MaxIter    int
	Tol        float64
	// CacheBytes, if large enough to hold the standardized nr×nc panel
	// (8 bytes/cell), switches the solver to reading each column once
	// into memory instead of re-reading it every outer iteration. The
	// numerics are identical either way (spec.md §9).
	CacheBytes int64
}

// RidgeResult is what Ridge returns: the solved (or partially converged)
// coefficients, the residual consistent with them, and the solver's
// stopping conditions.
type RidgeResult struct {
	S          []float64
	E          []float64
	Iterations int
	Delta      float64
}

// Ridge solves (WᵀW + Λ)s = Wᵀy by coordinate descent with an explicit
// residual e = y - Ws, reading W directly from the on-disk genotype store
// instead of materializing it. It is sequential across columns by
// algorithmic necessity (spec.md §4.7, §9): each s_j update depends on the
// residual produced by the previous column's update, so do not attempt to
// parallelize this loop.
func Ridge(r *ColumnReader, opt RidgeOptions) (*RidgeResult, error) {
	nr := len(opt.Rows)
	nc := len(opt.Cols)
	if nr == 0 {
		return nil, &ShapeError{Msg: "empty row selection"}
	}
	if nc == 0 {
		return nil, &ShapeError{Msg: "empty column selection"}
	}
	if len(opt.Lambda) != nc || len(opt.Mean) != nc || len(opt.SD) != nc || len(opt.S) != nc {
		return nil, &ShapeError{Msg: "lambda/mean/sd/s must all have length len(Cols)"}
	}
	maxIter := opt.MaxIter
	if maxIter < 1 {
		maxIter = 1
	}

	n := r.NumRows()
	e := make([]float64, n)
	for _, ri := range opt.Rows {
		if ri < 1 || ri > len(opt.Y) {
			return nil, &ShapeError{Msg: "row index out of range of y"}
		}
		e[ri-1] = opt.Y[ri-1]
	}

	var cache *mat.Dense
	if opt.CacheBytes > 0 && int64(nr)*int64(nc)*8 <= opt.CacheBytes {
		cache = mat.NewDense(nr, nc, nil)
		for j, col := range opt.Cols {
			w, err := loadRidgeColumn(r, col, opt.Rows, opt.Mean[j], opt.SD[j])
			if err != nil {
				return nil, err
			}
			cache.SetCol(j, w)
		}
		logger.Infof("ridge: cached %dx%d standardized panel (%d bytes)", nr, nc, int64(nr)*int64(nc)*8)
	}

	readColumn := func(j int, col int) ([]float64, error) {
		if cache != nil {
			return mat.Col(nil, j, cache), nil
		}
		return loadRidgeColumn(r, col, opt.Rows, opt.Mean[j], opt.SD[j])
	}

	dww := make([]float64, nc)
	for j, col := range opt.Cols {
		w, err := readColumn(j, col)
		if err != nil {
			return nil, err
		}
		dww[j] = dot(w, w)
		if dww[j] == 0 {
			continue
		}
		if opt.S[j] == 0 {
			ew := dot(w, gatherAt(e, opt.Rows))
			seed := (ew / dww[j]) / float64(nc)
			for i, ri := range opt.Rows {
				e[ri-1] -= w[i] * seed
			}
			opt.S[j] = seed
		}
	}

	sOld := make([]float64, nc)
	copy(sOld, opt.S)

	var delta float64
	it := 0
	for ; it < maxIter; it++ {
		for j, col := range opt.Cols {
			if dww[j] == 0 {
				continue
			}
			w, err := readColumn(j, col)
			if err != nil {
				return nil, err
			}
			lhs := dww[j] + opt.Lambda[j]
			ew := dot(w, gatherAt(e, opt.Rows))
			rhs := ew + dww[j]*opt.S[j]
			sNew := rhs / lhs
			ds := sNew - opt.S[j]
			for i, ri := range opt.Rows {
				e[ri-1] -= w[i] * ds
			}
			opt.S[j] = sNew
		}

		var sumSq float64
		for j := range opt.S {
			d := opt.S[j] - sOld[j]
			sumSq += d * d
		}
		delta = sumSq / math.Sqrt(float64(nc))
		logger.Debugf("ridge: iteration %d delta=%g", it+1, delta)
		if delta < opt.Tol {
			it++
			break
		}
		copy(sOld, opt.S)
	}

	return &RidgeResult{S: opt.S, E: e, Iterations: it, Delta: delta}, nil
}

// loadRidgeColumn reads column col, restricts it to rows, then
// standardizes using the caller-supplied mean/sd: non-missing entries are
// mean-subtracted and divided by sd; missing entries become 0.
func loadRidgeColumn(r *ColumnReader, col int, rows []int, mean, sd float64) ([]float64, error) {
	raw, err := r.ReadColumn(col)
	if err != nil {
		return nil, err
	}
	full := DecodeReal(raw, r.NumRows())
	g, err := subsetRows(full, rows)
	if err != nil {
		return nil, fmt.Errorf("column %d: %w", col, err)
	}
	for i, x := range g {
		if x < 3 {
			g[i] = (x - mean) / sd
		} else {
			g[i] = 0
		}
	}
	return g, nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// gatherAt returns e[idx-1] for each one-based idx in rows.
func gatherAt(e []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, ri := range rows {
		out[i] = e[ri-1]
	}
	return out
}
