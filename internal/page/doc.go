// Package page decides whether a single data page is corrupted.
//
// It decodes the PostgreSQL page header, derives the absolute block number
// of a page from its segment file name and local index, and compares the
// stored pd_checksum with the checksum computed by a pgverify.ChecksumProvider.
//
// A stored checksum of 0 means the page never had a checksum written (for
// example a freshly extended page) and is always treated as healthy.
package page
