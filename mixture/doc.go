// Package mixture implements the bookkeeping core for mixtures with a
// variable number of components: occupancy counts with a guaranteed spare
// empty group (Driver), a packed store of per-group accumulators (Slave), and
// a stable packed-to-global identity map (IDTracker).
//
// The three components are independent data structures with no shared state;
// they must be advanced strictly in lockstep. Use the mixgo.Mixture facade,
// which owns all three and exposes only combined operations, unless you are
// building a model-specific cached variant.
//
// All operations are synchronous and in-memory. Nothing here locks;
// concurrent use requires external synchronization around the triple as a
// unit.
package mixture
