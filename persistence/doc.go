// Package persistence serializes the persistence index: the value-to-vertex
// mapping table and the pinned value constraints a decoder needs to
// reconstruct original scalars from segment ids.
//
// The wire layout is a count-prefixed list of (vertexId int32, value float64)
// mapping pairs followed by a count-prefixed list of
// (vertexId int32, value float64, vertexType int32) constraint triples, all
// little-endian. Entries are written in caller order; sorting happens only on
// read, where two immutable views of the mapping are materialized.
package persistence
