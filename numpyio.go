// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package qgg

import (
	"bufio"
	"io"
	"os"

	"github.com/kshedden/gonpy"
	"gonum.org/v1/gonum/mat"
)

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// WriteNpyDense writes m to path in row-major .npy format (dtype float64),
// an alternative to the column-major raw format WriteGRM produces, for
// callers that want to load a GRM or PRS matrix directly with numpy.
func WriteNpyDense(path string, m mat.Matrix) error {
	rows, cols := m.Dims()
	out := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[i*cols+j] = m.At(i, j)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	if err != nil {
		return &IoError{Op: "create " + path, Err: err}
	}
	defer f.Close()
	bufw := bufio.NewWriter(f)
	npw, err := gonpy.NewWriter(nopCloser{bufw})
	if err != nil {
		return &IoError{Op: "gonpy.NewWriter", Err: err}
	}
	npw.Shape = []int{rows, cols}
	npw.WriteFloat64(out)
	if err := bufw.Flush(); err != nil {
		return &IoError{Op: "flush " + path, Err: err}
	}
	logger.Infof("wrote %s: %d x %d float64 (npy)", path, rows, cols)
	return f.Close()
}
