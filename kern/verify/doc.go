// Package verify checks the structural invariants of a kernel heap arena.
// It reads the raw bytes directly rather than going through the allocator, so
// a bug in the allocator's own bookkeeping cannot hide itself.
//
// The checks:
//
//   - Sentinels: both boundary words hold the sentinel tag
//   - Tags: every header equals its footer; sizes are even and at least the minimum
//   - Conservation: block sizes plus the two sentinels add up to the arena length
//   - NoAdjacentFree: no two physically adjacent blocks are both free
//   - FreeListOrder: the free list is strictly ascending, doubly linked
//     consistently and holds exactly the free blocks
//
// These helpers are used by tests after every mutation and by the CLI's check
// command.
package verify
