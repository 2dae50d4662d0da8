// Package cluster implements the density-clustering and subdivision math
// behind the grouping engine (C6): embedding normalization, a k-NN cosine
// distance graph, DBSCAN over that precomputed graph, and k-means
// subdivision for oversized clusters. It has no store dependency; the
// orchestration that ties cluster labels to group ids lives in
// internal/usecase/grouping.
package cluster

// NeighborK is the k-NN graph degree (tunables: NEIGHBOR_K = max(5,
// MinSources)). With entity.MinSources=3 this is fixed at 5.
const NeighborK = 5

// Eps is the DBSCAN neighborhood radius over cosine distance (CLUSTER_EPS).
const Eps = 0.2125

// SubdivSim is the minimum mean pairwise cosine similarity a k-means
// sub-cluster must clear to be accepted (SUBDIV_SIM).
const SubdivSim = 0.65

// NewGroupSim is the similarity floor below which a reference cluster
// spawns a new group instead of joining the target group (NEW_GROUP_SIM).
const NewGroupSim = 0.85

// TargetSubgroupSize is the aim-for size used to pick the subdivision
// k-means cluster count (TARGET_SUBGROUP_SIZE).
const TargetSubgroupSize = 8

// KMeansSeed fixes k-means' random initialization for deterministic
// subdivision output across runs given the same input.
const KMeansSeed = 42
