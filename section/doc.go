// Package section defines the fixed-size binary headers of the columnar container file.
//
// A container file is a FileHeader followed by an append-only sequence of
// records. Each record is a RecordHeader followed by its meta block (node
// path, entity name, type information) and its data block (possibly
// compressed):
//
//	+------------+----------------+------+------+----------------+------+------+
//	| FileHeader | RecordHeader 1 | meta | data | RecordHeader 2 | meta | data | ...
//	+------------+----------------+------+------+----------------+------+------+
//
// Records are never rewritten. A reader replays them in order to rebuild the
// node tree.
package section
