// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package qgg

import (
	"os"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/check.v1"
)

type scoreSuite struct{}

var _ = check.Suite(&scoreSuite{})

func buildScoreFile(c *check.C) (string, int) {
	cols := [][]int8{
		{0, 1, 2, 3},
		{2, 0, 1, 1},
		{1, 1, 0, 2},
		{3, 2, 0, 1},
	}
	f, err := os.CreateTemp("", "qgg-score-*.raw")
	c.Assert(err, check.IsNil)
	for _, col := range cols {
		_, err := f.Write(EncodeInt(col))
		c.Assert(err, check.IsNil)
	}
	c.Assert(f.Close(), check.IsNil)
	return f.Name(), 4
}

func (s *scoreSuite) TestScoreAccumulatesWeightedDosage(c *check.C) {
	path, n := buildScoreFile(c)
	defer os.Remove(path)
	r, err := OpenColumnReader(path, FormatRaw, n)
	c.Assert(err, check.IsNil)
	defer r.Close()

	rows := []int{1, 2, 3, 4}
	cols := []int{1, 2, 3, 4}
	S := mat.NewDense(4, 1, []float64{1, 1, 1, 1})
	prs, err := Score(r, ScoreOptions{Rows: rows, Cols: cols, S: S, Impute: ImputeZero, NCores: 2})
	c.Assert(err, check.IsNil)

	rr, cc := prs.Dims()
	c.Check(rr, check.Equals, 4)
	c.Check(cc, check.Equals, 1)
	// Missing calls are zero-filled, so each row sums its non-missing
	// dosages across the four unit-weight columns.
	for i, want := range []float64{3, 4, 3, 4} {
		c.Check(prs.At(i, 0), check.Equals, want)
	}
}

func (s *scoreSuite) TestScoreAdditivityOverDisjointColumns(c *check.C) {
	path, n := buildScoreFile(c)
	defer os.Remove(path)
	r, err := OpenColumnReader(path, FormatRaw, n)
	c.Assert(err, check.IsNil)
	defer r.Close()

	rows := []int{1, 2, 3, 4}
	allCols := []int{1, 2, 3, 4}
	SAll := mat.NewDense(4, 1, []float64{1.5, -2, 0.5, 3})
	full, err := Score(r, ScoreOptions{Rows: rows, Cols: allCols, S: SAll, Impute: ImputeZero, NCores: 3})
	c.Assert(err, check.IsNil)

	colsA := []int{1, 3}
	SA := mat.NewDense(2, 1, []float64{1.5, 0.5})
	partA, err := Score(r, ScoreOptions{Rows: rows, Cols: colsA, S: SA, Impute: ImputeZero, NCores: 1})
	c.Assert(err, check.IsNil)

	colsB := []int{2, 4}
	SB := mat.NewDense(2, 1, []float64{-2, 3})
	partB, err := Score(r, ScoreOptions{Rows: rows, Cols: colsB, S: SB, Impute: ImputeZero, NCores: 1})
	c.Assert(err, check.IsNil)

	var sum mat.Dense
	sum.Add(partA, partB)
	for i := 0; i < 4; i++ {
		c.Check(full.At(i, 0), check.Equals, sum.At(i, 0))
	}
}

func (s *scoreSuite) TestScoreRejectsShapeMismatch(c *check.C) {
	path, n := buildScoreFile(c)
	defer os.Remove(path)
	r, err := OpenColumnReader(path, FormatRaw, n)
	c.Assert(err, check.IsNil)
	defer r.Close()

	S := mat.NewDense(2, 1, []float64{1, 1})
	_, err = Score(r, ScoreOptions{Rows: []int{1, 2, 3, 4}, Cols: []int{1, 2, 3, 4}, S: S, NCores: 1})
	c.Check(err, check.NotNil)
	_, ok := err.(*ShapeError)
	c.Check(ok, check.Equals, true)
}
