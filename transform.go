// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package qgg

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ImputePolicy selects how a column's missing calls are handled before
// direction-flipping and scaling.
type ImputePolicy int8

const (
	// ImputeZero zero-fills missing calls.
	ImputeZero ImputePolicy = 0
	// ImputeMean replaces missing calls with 2*af.
	ImputeMean ImputePolicy = 1
	// ImputeSentinel leaves missing calls as the 3.0 sentinel, for
	// callers (the GRM builder) that handle it explicitly downstream.
	ImputeSentinel ImputePolicy = 3
)

// ScalePolicy selects the final standardization step.
type ScalePolicy int8

const (
	// ScaleNone leaves dosages untouched.
	ScaleNone ScalePolicy = 0
	// ScaleStandardize subtracts the subset mean and divides by the
	// subset sample standard deviation (see scaleColumn).
	ScaleStandardize ScalePolicy = 1
	// ScaleDominance leaves dosages untouched, like ScaleNone; the
	// transformer does not implement a distinct dominance recoding
	// (spec.md §9 open question), and BuildGRM does not use this value
	// (it standardizes every model's panel with ScaleStandardize).
	// Dominance-coded dosages must be pre-encoded upstream.
	ScaleDominance ScalePolicy = 2
)

// Direction flags whether a column's dosage should be flipped to the
// opposite reference allele. 1 means keep as-is, 0 means flip.
type Direction int8

const (
	DirectionFlip Direction = 0
	DirectionKeep Direction = 1
)

// ColumnStats holds the per-variant call tally and allele frequency
// defined in spec.md §3.
type ColumnStats struct {
	N0, N1, N2, NMiss int
	AF                float64
}

// tallyStats computes n0/n1/n2/nmiss/af over decoded dosages g (values in
// {0,1,2,3}), per spec.md's data model. af is 0 if every call is missing.
func tallyStats(g []float64) ColumnStats {
	var st ColumnStats
	for _, x := range g {
		switch x {
		case 0:
			st.N0++
		case 1:
			st.N1++
		case 2:
			st.N2++
		default:
			st.NMiss++
		}
	}
	nUsed := len(g)
	if nUsed > st.NMiss {
		st.AF = float64(st.N1+2*st.N2) / (2 * float64(nUsed-st.NMiss))
	}
	return st
}

// subsetRows gathers full[rows[i]-1] for each one-based index in rows,
// returning a ShapeError if any index is out of range.
func subsetRows(full []float64, rows []int) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, ridx := range rows {
		if ridx < 1 || ridx > len(full) {
			return nil, &ShapeError{Msg: "row index out of range"}
		}
		out[i] = full[ridx-1]
	}
	return out, nil
}

// TransformColumn applies the full per-column pipeline described in
// spec.md §4.3: row selection is expected to have already produced g
// (length nr); this function applies missing-value policy, then
// direction flip, then scaling, in that order. af is the caller-supplied
// allele frequency (0 means "not yet known", triggering an on-the-fly
// computation for ImputeMean). Returns the transformed vector and the
// stats computed over the subset before imputation.
func TransformColumn(g []float64, impute ImputePolicy, direction Direction, scale ScalePolicy, af float64) ([]float64, ColumnStats) {
	nr := len(g)
	out := make([]float64, nr)
	copy(out, g)
	st := tallyStats(out)

	if st.NMiss == nr {
		return make([]float64, nr), st
	}

	switch impute {
	case ImputeZero:
		for i, x := range out {
			if x == 3 {
				out[i] = 0
			}
		}
	case ImputeMean:
		fillAF := af
		if fillAF == 0 {
			fillAF = st.AF
		}
		fill := 2 * fillAF
		for i, x := range out {
			if x == 3 {
				out[i] = fill
			}
		}
	case ImputeSentinel:
		// leave 3s in place
	}

	if direction == DirectionFlip {
		for i, x := range out {
			if x != 3 {
				out[i] = 2 - x
			}
		}
	}

	switch scale {
	case ScaleStandardize:
		scaleColumn(out)
	case ScaleDominance, ScaleNone:
		// no-op: dominance recoding, if any, happened upstream of the core.
	}

	return out, st
}

// scaleColumn implements spec.md §4.3.1 in place: over entries with
// x < 3.0, subtract the mean; missing entries (still 3.0, e.g. under
// ImputeSentinel) become 0; then divide by the sample standard deviation
// (n-1 denominator) if it exceeds 1e-5, else the column is degenerate and
// left all-zero.
func scaleColumn(g []float64) {
	var nonMissing []float64
	for _, x := range g {
		if x < 3.0 {
			nonMissing = append(nonMissing, x)
		}
	}
	if len(nonMissing) < 2 {
		for i := range g {
			g[i] = 0
		}
		return
	}
	mean := stat.Mean(nonMissing, nil)
	var ss float64
	for i, x := range g {
		if x < 3.0 {
			c := x - mean
			g[i] = c
			ss += c * c
		} else {
			g[i] = 0
		}
	}
	sd := math.Sqrt(ss / float64(len(nonMissing)-1))
	if sd > 1e-5 {
		for i := range g {
			g[i] /= sd
		}
	} else {
		for i := range g {
			g[i] = 0
		}
	}
}
