package util

import "math/rand"

// New returns a seeded random source. A zero seed is remapped to 1 so that an
// unset flag still produces a reproducible battle.
func New(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	src := rand.NewSource(seed)
	return rand.New(src)
}

// Derive returns the seed for the i-th run of a batch started from base. It
// depends only on the run index so a batch is reproducible whatever worker
// picks the job up.
func Derive(base int64, i int) int64 {
	return base + int64(i)*7919
}
