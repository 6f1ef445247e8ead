// Package checksum implements PostgreSQL's data page checksum.
//
// The algorithm mirrors pg_checksum_page from the server's
// storage/checksum_impl.h: the page is treated as a matrix of 32-bit words,
// 32 columns wide, and each column feeds its own FNV-1a derived running sum
// seeded with a fixed offset. The pd_checksum field is read as zero, two
// extra rounds of zeros are mixed in, the sums are XOR-folded, the block
// number is XORed in, and the result is reduced to the range 1..65535 so that
// a computed checksum is never the "unset" value 0.
//
// # Example Usage
//
//	provider := checksum.New()
//	sum := provider.Checksum(page, absoluteBlock)
//
// # Thread Safety
//
// PostgreSQL is a value type with no mutable state and is safe for concurrent use.
package checksum
