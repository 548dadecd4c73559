// Package workload drives the kernel core with repeatable workloads: scripted
// allocation sequences, randomized fragmentation runs and a bounded-buffer
// producer/consumer over wait channels. The kcorectl commands are thin
// wrappers around it.
package workload

import (
	"github.com/joshuapare/kcore/kern/alloc"
)

// Report summarizes an allocator after a workload.
type Report struct {
	Strategy      string            `json:"strategy"`
	Ops           int               `json:"ops"`
	Failures      int               `json:"failures"`
	Live          int               `json:"live"`
	ArenaBytes    uint32            `json:"arenaBytes"`
	FreeBytes     uint64            `json:"freeBytes"`
	FreeBlocks    int               `json:"freeBlocks"`
	LargestFree   uint32            `json:"largestFree"`
	Fragmentation float64           `json:"fragmentation"`
	Stats         alloc.Stats       `json:"stats"`
	Blocks        []alloc.BlockInfo `json:"blocks,omitempty"`
}

// summarize fills the arena-derived fields of r from a.
func summarize(r *Report, a *alloc.Allocator, live int) {
	r.Strategy = a.Strategy().String()
	r.Live = live
	_, r.ArenaBytes = a.Bounds()
	r.FreeBytes, r.LargestFree = 0, 0
	free := a.FreeBlocks()
	r.FreeBlocks = len(free)
	for _, b := range free {
		r.FreeBytes += uint64(b.Size)
		r.LargestFree = max(r.LargestFree, b.Size)
	}
	r.Fragmentation = ExternalFragmentation(r.FreeBytes, r.LargestFree)
	r.Stats = a.Stats()
}

// ExternalFragmentation returns 1 - largest/free: 0 when all free space is one
// block, approaching 1 as it splinters. No free space counts as 0.
func ExternalFragmentation(free uint64, largest uint32) float64 {
	if free == 0 {
		return 0
	}
	return 1 - float64(largest)/float64(free)
}
