package checksum

import (
	"encoding/binary"

	"github.com/google/pg-page-verification/pkg/pgverify"
)

const (
	// nSums is the number of parallel sums; the page is processed as rows of nSums words.
	nSums = 32

	fnvPrime = 16777619

	// rowBytes is the width of one row of the page matrix.
	rowBytes = nSums * 4

	// checksumOffset is the byte offset of pd_checksum in the page header.
	checksumOffset = 8
)

// baseOffsets seed the parallel sums. They must match the server exactly.
var baseOffsets = [nSums]uint32{
	0x5B1F36E9, 0xB8525960, 0x02AB50AA, 0x1DE66D2A,
	0x79FF467A, 0x9BB9F8A3, 0x217E7CD2, 0x83E13D2C,
	0xF8D4474F, 0xE39EB970, 0x42C6AE16, 0x993216FA,
	0x7B093B5D, 0x98DAFF3C, 0xF718902A, 0x0B1C9CDB,
	0xE58F764B, 0x187636BC, 0x5D7B3BB1, 0xE73DE7DE,
	0x92BEC979, 0xCCA6C0B2, 0x304A0979, 0x85AA43D4,
	0x783125BB, 0x6CA8EAA2, 0xE407EAC6, 0x4B5CFC3E,
	0x9FBF8C76, 0x15CA20BE, 0xF2CA9FFF, 0x3E66F6A4,
}

// PostgreSQL computes data page checksums the way the server does.
// The byte order must be the one the cluster was written in.
type PostgreSQL struct {
	order binary.ByteOrder
}

// New returns a provider reading page words in the host's byte order,
// which is what a server running on this machine writes.
func New() PostgreSQL {
	return PostgreSQL{order: binary.NativeEndian}
}

// NewWithByteOrder returns a provider for a cluster written on a machine with
// the given byte order. Panics if order is nil.
func NewWithByteOrder(order binary.ByteOrder) PostgreSQL {
	if order == nil {
		panic("byte order cannot be nil")
	}
	return PostgreSQL{order: order}
}

func mix(sum, value uint32) uint32 {
	tmp := sum ^ value
	return tmp*fnvPrime ^ (tmp >> 17)
}

// block returns the folded 32-bit checksum of page with pd_checksum read as zero.
// Trailing bytes that do not fill a whole row are ignored; block sizes
// PostgreSQL accepts are always a multiple of rowBytes.
func (c PostgreSQL) block(page []byte) uint32 {
	sums := baseOffsets
	rows := len(page) / rowBytes

	for i := 0; i < rows; i++ {
		row := page[i*rowBytes : (i+1)*rowBytes]
		for j := 0; j < nSums; j++ {
			off := j * 4
			var word uint32
			if i == 0 && off == checksumOffset {
				var w [4]byte
				copy(w[2:], row[off+2:off+4])
				word = c.order.Uint32(w[:])
			} else {
				word = c.order.Uint32(row[off : off+4])
			}
			sums[j] = mix(sums[j], word)
		}
	}

	for i := 0; i < 2; i++ {
		for j := 0; j < nSums; j++ {
			sums[j] = mix(sums[j], 0)
		}
	}

	var result uint32
	for _, s := range sums {
		result ^= s
	}
	return result
}

// Checksum returns the checksum of page at absolute block number blkno.
// The page is not modified.
func (c PostgreSQL) Checksum(page []byte, blkno uint32) uint16 {
	sum := c.block(page) ^ blkno
	return uint16(sum%65535 + 1)
}

// Verify PostgreSQL implements the interface at compile time
var _ pgverify.ChecksumProvider = PostgreSQL{}
