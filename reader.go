// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package qgg

import (
	"fmt"
	"os"
)

// ColumnReader provides column-indexed random access into a packed
// genotype file. It is safe for concurrent use by multiple goroutines:
// every read is a positional os.File.ReadAt, so there is no shared seek
// cursor to race on (see spec.md §5).
type ColumnReader struct {
	f           *os.File
	n           int
	bytesPerCol int
	magicLen    int
	numCols     int
}

// OpenColumnReader opens path for column-indexed reading. n is the number
// of individuals (rows) in the file; it determines bytesPerCol =
// ceil(n/4). format says whether to skip the 3-byte magic prefix. It
// validates that the magic bytes are present when format is FormatBED and
// that the remaining length is a whole number of columns.
func OpenColumnReader(path string, format Format, n int) (*ColumnReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IoError{Op: "open " + path, Err: err}
	}
	r := &ColumnReader{
		f:           f,
		n:           n,
		bytesPerCol: BytesPerColumn(n),
		magicLen:    format.magicLen(),
	}
	if format == FormatBED {
		var hdr [3]byte
		if _, err := f.ReadAt(hdr[:], 0); err != nil {
			f.Close()
			return nil, &IoError{Op: "read magic of " + path, Err: err}
		}
		if hdr != bedMagic {
			f.Close()
			return nil, &FormatError{Msg: fmt.Sprintf("bad magic bytes %v in %s", hdr, path)}
		}
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &IoError{Op: "stat " + path, Err: err}
	}
	dataLen := fi.Size() - int64(r.magicLen)
	if dataLen < 0 || dataLen%int64(r.bytesPerCol) != 0 {
		f.Close()
		return nil, &FormatError{Msg: fmt.Sprintf("%s length %d is not magic(%d) + k*bytesPerCol(%d)", path, fi.Size(), r.magicLen, r.bytesPerCol)}
	}
	r.numCols = int(dataLen / int64(r.bytesPerCol))
	return r, nil
}

// NumCols returns the number of variant columns in the file.
func (r *ColumnReader) NumCols() int { return r.numCols }

// NumRows returns the number of individuals (N) this reader was opened
// with.
func (r *ColumnReader) NumRows() int { return r.n }

// BytesPerCol returns ceil(n/4) for the n this reader was opened with.
func (r *ColumnReader) BytesPerCol() int { return r.bytesPerCol }

// ReadColumn returns the bytesPerCol raw bytes for the one-based variant
// index col.
func (r *ColumnReader) ReadColumn(col int) ([]byte, error) {
	if col < 1 || col > r.numCols {
		return nil, &ShapeError{Msg: fmt.Sprintf("column %d out of range [1,%d]", col, r.numCols)}
	}
	buf := make([]byte, r.bytesPerCol)
	offset := int64(r.magicLen) + int64(col-1)*int64(r.bytesPerCol)
	n, err := r.f.ReadAt(buf, offset)
	if err != nil || n != r.bytesPerCol {
		return nil, &IoError{Op: fmt.Sprintf("read column %d", col), Err: err}
	}
	return buf, nil
}

// Close releases the underlying file handle.
func (r *ColumnReader) Close() error {
	return r.f.Close()
}
