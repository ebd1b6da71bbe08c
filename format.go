// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package qgg

import "strings"

// Format says whether a genotype file carries the 3-byte magic prefix.
// Kernels take Format explicitly; sniffing a path's suffix is an outer
// wrapper's job, not the core's (see DetectFormat).
type Format int

const (
	// FormatBED is PLINK's .bed convention: a 3-byte magic prefix
	// (0x6C, 0x1B, 0x01 by convention) precedes the packed columns.
	FormatBED Format = iota
	// FormatRaw has no prefix; the first byte is the first column.
	FormatRaw
)

func (f Format) magicLen() int {
	if f == FormatBED {
		return 3
	}
	return 0
}

// bedMagic is the conventional 3-byte prefix on .bed files.
var bedMagic = [3]byte{0x6C, 0x1B, 0x01}

// DetectFormat infers Format from a path's suffix, matching the
// convention that .bed implies a magic prefix and .raw does not. This is
// the fragile side-channel spec.md §9 calls out: it exists for callers
// that want filename-based dispatch, not for use inside the core kernels.
func DetectFormat(path string) Format {
	if strings.HasSuffix(path, ".bed") {
		return FormatBED
	}
	return FormatRaw
}
