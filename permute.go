// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package qgg

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// PermuteOptions configures PermuteSets. MSets and SetStat are parallel,
// one entry per set. Seed, if nonzero, makes the draws reproducible (one
// derived seed per set); zero means each worker seeds itself from the
// package-level RNG, exactly the teacher's rand.NewSource(rand.Uint64())
// idiom (chisquare.go).
type PermuteOptions struct {
	Stat    []float64
	MSets   []int
	SetStat []float64
	NP      int
	NCores  int
	Seed    uint64
}

// PermuteSets estimates, for each set, how many of NP random contiguous
// windows of matching size sum to more than the set's observed statistic
// (spec.md §4.8). Per spec.md §9, the window's start is capped by the
// maximum set size across *all* sets, not the current set's own size —
// this keeps the null distribution comparable across sets at the cost of
// giving small sets a narrower draw range than strictly necessary, and is
// preserved intentionally.
func PermuteSets(opt PermuteOptions) ([]int, error) {
	nsets := len(opt.MSets)
	if nsets == 0 {
		return nil, &ShapeError{Msg: "empty set list"}
	}
	if len(opt.SetStat) != nsets {
		return nil, &ShapeError{Msg: "setstat must have one entry per set"}
	}
	if opt.NP < 1 {
		return nil, &ShapeError{Msg: "np must be positive"}
	}
	maxSet := 0
	for _, k := range opt.MSets {
		if k > maxSet {
			maxSet = k
		}
	}
	maxStart := len(opt.Stat) - maxSet - 1
	if maxStart < 1 {
		return nil, &ShapeError{Msg: fmt.Sprintf("max_start=%d (M=%d, max(msets)=%d) leaves no valid window", maxStart, len(opt.Stat), maxSet)}
	}

	p := make([]int, nsets)
	t := throttle{Max: opt.NCores}
	for i := range opt.MSets {
		i := i
		t.Go(func() error {
			seed := opt.Seed
			if seed == 0 {
				seed = rand.Uint64()
			} else {
				seed += uint64(i)
			}
			src := rand.New(rand.NewSource(seed))
			k := opt.MSets[i]
			count := 0
			for d := 0; d < opt.NP; d++ {
				k1 := 1 + int(float64(maxStart)*src.Float64())
				var sum float64
				for x := k1; x < k1+k; x++ {
					sum += opt.Stat[x-1]
				}
				if sum > opt.SetStat[i] {
					count++
				}
			}
			p[i] = count
			return nil
		})
	}
	if err := t.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}
