// Package reflectdb loads and queries a reflection database: a read-only
// description of the types, fields, functions and namespaces of a program.
//
// A database is loaded from a stream produced by package export. The loader
// makes exactly one allocation, sized from the stream header, copies every
// section payload into it and rewrites the stream's pointers as offsets into
// that block. Nothing else is allocated per object; every value returned by a
// query is a small view holding the block and an offset.
//
// Views are only valid until the Database that produced them is closed. Using
// a view after Close panics.
//
// Lookups are by 32-bit name hash (see package names) over arrays sorted by
// hash, so every query is a binary search.
package reflectdb
