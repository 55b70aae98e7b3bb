// Package mixgo provides the bookkeeping core for Bayesian nonparametric
// mixture models (Dirichlet-process-style clustering) in Go.
//
// It tracks, for a mixture with a variable number of components, how many
// observations belong to each group, keeps at least one empty group available
// for starting a brand-new cluster, and exposes vectorized scoring of
// "which group should this observation join" decisions. Internal compaction
// keeps group ids contiguous for scoring while permanent global ids keep
// external references stable.
//
// # Quick Start
//
//	prior, _ := clustering.NewCRP(1.0)
//	mdl, _ := dd.New([]float64{0.5, 0.5, 0.5}, prior)
//
//	rng := rand.New(rand.NewPCG(42, 0))
//	mix := mixgo.New[int](mdl)
//	_ = mix.Init(rng)
//
//	// One Gibbs assignment step for a new observation:
//	scores := make([]float64, mix.GroupCount())
//	_ = mix.ScoreValue(value, scores, rng)
//	groupID := samplePacked(scores)          // sampling policy is yours
//	_, _ = mix.AddValue(groupID, value, rng)
//
//	// Hold on to a cluster across compactions:
//	global, _ := mix.PackedToGlobal(groupID)
//
// # Components
//
// The facade owns three independent structures advanced in lockstep:
// occupancy counts (mixture.Driver), per-group sufficient-statistics
// accumulators (mixture.Slave), and the packed-to-global identity map
// (mixture.IDTracker). Distribution families implement the model.Model
// capability; dd (Dirichlet-Discrete) and gp (Gamma-Poisson) are built in,
// and the clustering package provides Pitman-Yor and CRP partition priors.
//
// Snapshots of a whole mixture can be written to any io.Writer or a
// blobstore (local FS, S3, MinIO) via the snapshot package.
//
// # What mixgo does not do
//
// Sampling policy stays external: mixgo supplies scores and bookkeeping; the
// caller decides which group an observation actually joins. Randomness enters
// only through caller-supplied *rand.Rand streams. Nothing locks internally;
// serialize mutation externally.
package mixgo
