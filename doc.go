// Package column implements the column engine of an embedded
// key-value store: for one logical keyspace, it resolves keys to
// values, persists updates durably through a write-ahead log, and
// incrementally grows its hash index without blocking readers.
//
// A Column coordinates three external collaborators through narrow
// interfaces so they can be swapped independently: an index table
// (chunked, linear-probe hash table; default implementation in
// internal/indextable), a set of tiered value tables (default in
// internal/valuetable), and a write-ahead log (default in
// internal/wal). The facade itself never touches a raw file — it only
// calls these interfaces, defined in internal/kvtypes and re-exported
// here as Key, Address, IndexTable, ValueTable, LogWriter, LogReader
// and LogOverlays.
package column
