// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package qgg

import "gonum.org/v1/gonum/mat"

// EigenResult holds a symmetric matrix's spectral decomposition. Values is
// ascending; Vectors' columns are the corresponding eigenvectors.
type EigenResult struct {
	Values  []float64
	Vectors *mat.Dense
}

// Eigen decomposes a symmetric matrix such as a GRM into ascending
// eigenvalues and their eigenvectors (spec.md §4.9), for use in downstream
// mixed-model variance-component estimation. It is a thin wrapper over
// gonum's mat.EigenSym that takes BuildGRM's *mat.SymDense output directly
// and returns the eigenvectors as a *mat.Dense.
func Eigen(g *mat.SymDense) (*EigenResult, error) {
	n, _ := g.Dims()
	if n == 0 {
		return nil, &ShapeError{Msg: "empty matrix"}
	}
	var es mat.EigenSym
	ok := es.Factorize(g, true)
	if !ok {
		return nil, &FormatError{Msg: "eigendecomposition failed to converge"}
	}
	values := es.Values(nil)
	var vectors mat.Dense
	es.VectorsTo(&vectors)
	return &EigenResult{Values: values, Vectors: &vectors}, nil
}
