package format

/*

# Reflection database stream format, version 1

A stream is produced once by the exporter and loaded once per process. It is
laid out so the loader can size a single allocation from the header, copy
every payload into it back to back, and then rewrite pointers in place.

	+----------------------+  32B header (magic, version, section count,
	| Header               |           block size, build id)
	+----------------------+  16B descriptor (section, count, byte length)
	| SectionHeader        |
	+----------------------+
	| payload              |  fixed width records, u32 refs or raw text
	+----------------------+
	| SectionHeader        |
	+----------------------+
	| payload              |
	+----------------------+
	...

Block size is the sum of all payload lengths, so

	stream size = HeaderBytes + sections*SectionHeaderBytes + block size

and any truncation of the stream is detectable before anything is allocated.

## Pointers

Every pointer in a payload is a byte offset from the start of the stream, or
NullOffset. The loader translates each one to a byte offset from the start of
the block. A pointer must land on a record boundary of a section holding one
of the kinds allowed for the field (see Layout), or inside a text blob with a
NUL terminator before the end of the blob.

## Ordering

Every array that is searched by hash is ascending by name hash: the name
table, every record section and every reference array run.

*/
