// Package model defines the core types shared across mixgo.
//
// # Identity Types
//
//   - PackedID: dense, transient position of a group; may change on compaction
//   - GlobalID: permanent, monotonically allocated identity of a group
//
// Only GlobalID is safe to retain across structural operations; the mapping
// between the two is maintained by mixture.IDTracker.
//
// # Capability Types
//
//   - PartitionScorer: clustering-prior scoring over group-size structure
//   - Model: full family capability (prior + group creation + marginals)
//   - Group: opaque per-cluster sufficient-statistics accumulator
//   - GroupCodec: optional group persistence capability
//
// New distribution families are added by providing a conforming Model
// implementation; the bookkeeping core never changes.
package model
