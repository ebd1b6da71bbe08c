// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package qgg

import (
	"math"
	"os"

	"gopkg.in/check.v1"
)

type ridgeSuite struct{}

var _ = check.Suite(&ridgeSuite{})

// buildOrthonormalFile writes a 4-sample, 2-column raw genotype file whose
// standardized columns (mean=1, sd=2) are the exactly-orthonormal vectors
// w1=[-.5,-.5,.5,.5], w2=[-.5,.5,-.5,.5].
func buildOrthonormalFile(c *check.C) string {
	cols := [][]int8{
		{0, 0, 2, 2},
		{0, 2, 0, 2},
	}
	f, err := os.CreateTemp("", "qgg-ridge-*.raw")
	c.Assert(err, check.IsNil)
	for _, col := range cols {
		_, err := f.Write(EncodeInt(col))
		c.Assert(err, check.IsNil)
	}
	c.Assert(f.Close(), check.IsNil)
	return f.Name()
}

func (s *ridgeSuite) TestRidgeRecoversBetaExactlyOneSweepNoRidge(c *check.C) {
	path := buildOrthonormalFile(c)
	defer os.Remove(path)
	r, err := OpenColumnReader(path, FormatRaw, 4)
	c.Assert(err, check.IsNil)
	defer r.Close()

	beta := []float64{3, -2}
	// y = beta0*w1 + beta1*w2
	y := []float64{-0.5, -2.5, 2.5, 0.5}

	res, err := Ridge(r, RidgeOptions{
		Rows:    []int{1, 2, 3, 4},
		Cols:    []int{1, 2},
		Y:       y,
		Lambda:  []float64{0, 0},
		Mean:    []float64{1, 1},
		SD:      []float64{2, 2},
		S:       []float64{0, 0},
		MaxIter: 10,
		Tol:     1e-14,
	})
	c.Assert(err, check.IsNil)
	c.Check(res.Iterations <= 2, check.Equals, true)
	for j, b := range beta {
		c.Check(math.Abs(res.S[j]-b) < 1e-9, check.Equals, true)
	}
	for _, e := range res.E {
		c.Check(math.Abs(e) < 1e-9, check.Equals, true)
	}
}

func (s *ridgeSuite) TestRidgeShrinksTowardBetaOverLambda(c *check.C) {
	path := buildOrthonormalFile(c)
	defer os.Remove(path)
	r, err := OpenColumnReader(path, FormatRaw, 4)
	c.Assert(err, check.IsNil)
	defer r.Close()

	beta := []float64{3.0, -2.0}
	y := []float64{-0.5, -2.5, 2.5, 0.5}
	lambda := 1.0

	res, err := Ridge(r, RidgeOptions{
		Rows:    []int{1, 2, 3, 4},
		Cols:    []int{1, 2},
		Y:       y,
		Lambda:  []float64{lambda, lambda},
		Mean:    []float64{1, 1},
		SD:      []float64{2, 2},
		S:       []float64{0, 0},
		MaxIter: 100,
		Tol:     1e-14,
	})
	c.Assert(err, check.IsNil)
	for j, b := range beta {
		want := b / (1 + lambda)
		c.Check(math.Abs(res.S[j]-want) < 1e-6, check.Equals, true)
	}
}

func (s *ridgeSuite) TestRidgeDeterministicAcrossRuns(c *check.C) {
	path := buildOrthonormalFile(c)
	defer os.Remove(path)
	r, err := OpenColumnReader(path, FormatRaw, 4)
	c.Assert(err, check.IsNil)
	defer r.Close()

	y := []float64{-0.5, -2.5, 2.5, 0.5}
	opts := func() RidgeOptions {
		return RidgeOptions{
			Rows: []int{1, 2, 3, 4}, Cols: []int{1, 2}, Y: y,
			Lambda: []float64{0.5, 0.5}, Mean: []float64{1, 1}, SD: []float64{2, 2},
			S: []float64{0, 0}, MaxIter: 20, Tol: 1e-12,
		}
	}
	res1, err := Ridge(r, opts())
	c.Assert(err, check.IsNil)
	res2, err := Ridge(r, opts())
	c.Assert(err, check.IsNil)
	c.Check(res1.S, check.DeepEquals, res2.S)
}

func (s *ridgeSuite) TestRidgeRejectsShapeMismatch(c *check.C) {
	path := buildOrthonormalFile(c)
	defer os.Remove(path)
	r, err := OpenColumnReader(path, FormatRaw, 4)
	c.Assert(err, check.IsNil)
	defer r.Close()

	_, err = Ridge(r, RidgeOptions{
		Rows: []int{1, 2, 3, 4}, Cols: []int{1, 2}, Y: []float64{1, 2, 3, 4},
		Lambda: []float64{0}, Mean: []float64{1, 1}, SD: []float64{2, 2}, S: []float64{0, 0},
	})
	c.Check(err, check.NotNil)
}
