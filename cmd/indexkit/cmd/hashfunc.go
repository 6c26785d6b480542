package cmd

// intHash is the MurmurHash3 fmix64 finalizer, used by the hash-based
// subcommands so integer keys scatter across buckets instead of mapping
// trivially onto directory/chain indices.
func intHash(k int) uint64 {
	h := uint64(k)
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h
}
