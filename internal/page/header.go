package page

import (
	"encoding/binary"
	"fmt"

	"github.com/google/pg-page-verification/pkg/pgverify"
)

// Byte offsets of PageHeaderData fields.
const (
	offLSN             = 0
	offChecksum        = 8
	offFlags           = 10
	offLower           = 12
	offUpper           = 14
	offSpecial         = 16
	offPageSizeVersion = 18
	offPruneXID        = 20
)

// Header is the decoded PageHeaderData of a page.
type Header struct {
	LSN             uint64
	Checksum        uint16
	Flags           uint16
	Lower           uint16
	Upper           uint16
	Special         uint16
	PageSizeVersion uint16
	PruneXID        uint32
}

// ParseHeader decodes the header at the start of page.
func ParseHeader(page []byte, order binary.ByteOrder) (Header, error) {
	if len(page) < pgverify.PageHeaderSize {
		return Header{}, fmt.Errorf("page of %d bytes is shorter than its %d byte header", len(page), pgverify.PageHeaderSize)
	}
	xlogid := order.Uint32(page[offLSN:])
	xrecoff := order.Uint32(page[offLSN+4:])
	return Header{
		LSN:             uint64(xlogid)<<32 | uint64(xrecoff),
		Checksum:        order.Uint16(page[offChecksum:]),
		Flags:           order.Uint16(page[offFlags:]),
		Lower:           order.Uint16(page[offLower:]),
		Upper:           order.Uint16(page[offUpper:]),
		Special:         order.Uint16(page[offSpecial:]),
		PageSizeVersion: order.Uint16(page[offPageSizeVersion:]),
		PruneXID:        order.Uint32(page[offPruneXID:]),
	}, nil
}

// StoredChecksum reads only pd_checksum. page must hold at least a header.
func StoredChecksum(page []byte, order binary.ByteOrder) uint16 {
	return order.Uint16(page[offChecksum:])
}

// PutChecksum overwrites pd_checksum in page.
func PutChecksum(page []byte, order binary.ByteOrder, sum uint16) {
	order.PutUint16(page[offChecksum:], sum)
}

// Encode writes h into the first PageHeaderSize bytes of dst.
func (h Header) Encode(dst []byte, order binary.ByteOrder) {
	order.PutUint32(dst[offLSN:], uint32(h.LSN>>32))
	order.PutUint32(dst[offLSN+4:], uint32(h.LSN))
	order.PutUint16(dst[offChecksum:], h.Checksum)
	order.PutUint16(dst[offFlags:], h.Flags)
	order.PutUint16(dst[offLower:], h.Lower)
	order.PutUint16(dst[offUpper:], h.Upper)
	order.PutUint16(dst[offSpecial:], h.Special)
	order.PutUint16(dst[offPageSizeVersion:], h.PageSizeVersion)
	order.PutUint32(dst[offPruneXID:], h.PruneXID)
}

// PageSize returns the page size recorded in pd_pagesize_version.
func (h Header) PageSize() int { return int(h.PageSizeVersion & 0xFF00) }

// LayoutVersion returns the page layout version recorded in pd_pagesize_version.
func (h Header) LayoutVersion() uint8 { return uint8(h.PageSizeVersion & 0x00FF) }

// IsNew reports whether the page was never initialized (pd_upper == 0).
func (h Header) IsNew() bool { return h.Upper == 0 }

func (h Header) String() string {
	return fmt.Sprintf("lsn=%X/%X checksum=%x flags=%d lower=%d upper=%d special=%d pagesize_version=%d prune_xid=%d",
		uint32(h.LSN>>32), uint32(h.LSN), h.Checksum, h.Flags, h.Lower, h.Upper, h.Special, h.PageSizeVersion, h.PruneXID)
}
