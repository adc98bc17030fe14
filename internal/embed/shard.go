package embed

import "hash/fnv"

// ShardIndex implements spec §4.4's "hash(decision_id) mod N == shard_index"
// partitioning rule for sharded vector builds.
func ShardIndex(decisionID string, n int) int {
	if n <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(decisionID))
	return int(h.Sum32() % uint32(n))
}
