package page

import (
	"path/filepath"
	"strconv"
)

// ParseSegmentNumber returns the segment number encoded in a segment file name.
//
// The number is the trailing maximal run of decimal digits of the base name.
// The first segment of a relation is stored without a suffix ("16385"), so a
// name made only of digits is segment 0, as is a name without trailing digits
// ("16385_fsm") or one whose suffix does not fit in 32 bits.
func ParseSegmentNumber(filePath string) uint32 {
	name := filepath.Base(filePath)

	start := len(name)
	for start > 0 && name[start-1] >= '0' && name[start-1] <= '9' {
		start--
	}
	if start == 0 || start == len(name) {
		return 0
	}

	n, err := strconv.ParseUint(name[start:], 10, 32)
	if err != nil {
		return 0
	}
	return uint32(n)
}

// AbsoluteBlock returns the block number of a page within its relation.
// Arithmetic is 32-bit unsigned, like the server's BlockNumber.
func AbsoluteBlock(segment, segmentPages, local uint32) uint32 {
	return segment*segmentPages + local
}
