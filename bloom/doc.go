package bloom

/*

# Hash presence filters for the reflection database (4-way, in-place)

This package provides an optional prefilter section stored alongside the
hash-sorted tables of a database. Each of the 4 filters covers one table that
the database facade searches by name hash:

	FilterNames       the name table
	FilterTypes       the type index (types, enums, classes, template types)
	FilterNamespaces  the namespace records
	FilterFunctions   the function records

A miss answers "not found" without a binary search. A hit falls through to
the search, so false positives only cost the search that would have happened
anyway.

	+----------------------+  32B header (magic, version, params)
	| HeaderV1             |
	+----------------------+  bitset bytes (filter 0)
	| filter0 bitset       |
	+----------------------+  bitset bytes (filter 1)
	| filter1 bitset       |
	+----------------------+  bitset bytes (filter 2)
	| filter2 bitset       |
	+----------------------+  bitset bytes (filter 3)
	| filter3 bitset       |
	+----------------------+

The 4 bitsets share identical sizing, derived from the largest table.

## Indexing and bit numbering

Elements are 32-bit name hashes. Bit indices come from double hashing over
xxhash64(domain || filter || hash_le4); bit 0 is the least significant bit of
byte 0.

## API versioning

Functions carry a format version suffix (`InitV1`, `InsertV1`,
`MaybeContainsV1`). A new header layout or index derivation is introduced as
`V2` side-by-side, without silently misreading previously written databases.

*/
