// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package qgg

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"golang.org/x/crypto/blake2b"
	"gonum.org/v1/gonum/mat"
)

// Model selects the genetic model used by the GRM builder. Only
// ModelEpistasisProduct changes how BuildGRM forms its panels; additive,
// dominance and Hadamard all build a single standardized panel (Hadamard
// is squared later, by WriteGRM), so dominance-coded dosages must already
// be in the file.
type Model int

const (
	ModelAdditive Model = iota
	ModelDominance
	ModelEpistasisProduct
	ModelEpistasisHadamard
)

// GRMOptions configures BuildGRM. Cls2 is only consulted for
// ModelEpistasisProduct, where it must be the same length as Cls1;
// ModelEpistasisHadamard is single-panel, like additive and dominance.
type GRMOptions struct {
	Cls1, Cls2 []int
	Rows       []int
	Model      Model
	BlockSize  int
	NCores     int
	// Direction and AF are optional, parallel to Cls1; nil Direction means
	// DirectionKeep for every column. AF has no effect on the result:
	// panels are standardized with ImputeSentinel, which leaves missing
	// calls out of the mean and SD instead of imputing them from af.
	Direction []Direction
	AF        []float64
}

// BuildGRM computes the normalized genomic relationship matrix over the
// Rows × Cls1 (and, for ModelEpistasisProduct, Cls1×Cls2) panel, per
// spec.md §4.5: it streams msize-column blocks, standardizes each block
// into a panel W, accumulates G += W·Wᵀ via a symmetric rank-k update,
// then divides every entry by trace(G)/N_used.
func BuildGRM(r *ColumnReader, opt GRMOptions) (*mat.SymDense, error) {
	nr := len(opt.Rows)
	nc := len(opt.Cls1)
	if nr == 0 {
		return nil, &ShapeError{Msg: "empty row selection"}
	}
	if nc == 0 {
		return nil, &ShapeError{Msg: "empty column selection"}
	}
	isEpistasis := opt.Model == ModelEpistasisProduct
	if isEpistasis && len(opt.Cls2) != nc {
		return nil, &ShapeError{Msg: "cls2 must match cls1 length for epistasis models"}
	}
	msize := opt.BlockSize
	if msize < 1 {
		msize = nc
	}

	G := mat.NewSymDense(nr, nil)
	for start := 0; start < nc; start += msize {
		end := start + msize
		if end > nc {
			end = nc
		}
		block := opt.Cls1[start:end]
		W, err := loadStandardizedPanel(r, block, opt.Rows, opt.Direction, opt.AF, start, opt.NCores)
		if err != nil {
			return nil, err
		}
		if isEpistasis {
			W2, err := loadStandardizedPanel(r, opt.Cls2[start:end], opt.Rows, nil, nil, start, opt.NCores)
			if err != nil {
				return nil, err
			}
			W.MulElem(W, W2)
		}
		accumulateBlock(G, W)
		logger.Debugf("grm: accumulated block %d-%d of %d columns", start+1, end, nc)
	}

	if err := finalizeGRM(G); err != nil {
		return nil, err
	}
	logger.Infof("grm: finalized %dx%d matrix over %d columns", nr, nr, nc)
	return G, nil
}

// accumulateBlock performs the symmetric rank-k update G += W·Wᵀ for one
// block's standardized panel W.
func accumulateBlock(G *mat.SymDense, W *mat.Dense) {
	nr, _ := W.Dims()
	blockG := mat.NewSymDense(nr, nil)
	blockG.SymOuterK(1, W)
	G.AddSym(G, blockG)
}

// finalizeGRM divides every entry of G by trace(G)/N_used in place, per
// spec.md §4.5. G is already symmetric by construction (SymDense never
// stores an asymmetric matrix), so there is no separate mirroring step.
func finalizeGRM(G *mat.SymDense) error {
	n, _ := G.Dims()
	trace := 0.0
	for i := 0; i < n; i++ {
		trace += G.At(i, i)
	}
	if trace == 0 {
		return &FormatError{Msg: "grm trace is zero; all columns degenerate"}
	}
	norm := trace / float64(n)
	G.ScaleSym(1/norm, G)
	return nil
}

// loadStandardizedPanel reads and standardizes ncw columns into an nr×ncw
// dense panel, one goroutine per column (disjoint writes, no shared
// state), using throttle the way the teacher's block-parallel commands do.
// ncores bounds how many of those goroutines run concurrently.
func loadStandardizedPanel(r *ColumnReader, cols, rows []int, direction []Direction, af []float64, offset, ncores int) (*mat.Dense, error) {
	nr, ncw := len(rows), len(cols)
	W := mat.NewDense(nr, ncw, nil)
	t := throttle{Max: ncores}
	for j, col := range cols {
		j, col := j, col
		t.Go(func() error {
			raw, err := r.ReadColumn(col)
			if err != nil {
				return err
			}
			full := DecodeReal(raw, r.NumRows())
			g, err := subsetRows(full, rows)
			if err != nil {
				return fmt.Errorf("column %d: %w", col, err)
			}
			dir := DirectionKeep
			if direction != nil {
				dir = direction[offset+j]
			}
			a := 0.0
			if af != nil {
				a = af[offset+j]
			}
			out, _ := TransformColumn(g, ImputeSentinel, dir, ScaleStandardize, a)
			for i, v := range out {
				W.Set(i, j, v)
			}
			return nil
		})
	}
	if err := t.Wait(); err != nil {
		return nil, err
	}
	return W, nil
}

// WriteGRM writes G to path as N_used*N_used*8 bytes of native-order
// IEEE-754 doubles, column by column. For ModelEpistasisHadamard, every
// written value is squared per spec.md §4.5.
func WriteGRM(path string, G *mat.SymDense, model Model) error {
	f, err := os.Create(path)
	if err != nil {
		return &IoError{Op: "create " + path, Err: err}
	}
	defer f.Close()

	n, _ := G.Dims()
	buf := make([]byte, 8*n)
	hasher, _ := blake2b.New256(nil)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			v := G.At(i, j)
			if model == ModelEpistasisHadamard {
				v = v * v
			}
			binary.NativeEndian.PutUint64(buf[i*8:], math.Float64bits(v))
		}
		if _, err := f.Write(buf); err != nil {
			return &IoError{Op: "write " + path, Err: err}
		}
		hasher.Write(buf)
	}
	logger.Infof("grm: wrote %s (%d bytes), blake2b=%x", path, int64(n)*int64(n)*8, hasher.Sum(nil))
	return nil
}
