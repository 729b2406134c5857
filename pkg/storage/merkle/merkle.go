// Package merkle builds binary hash trees over ordered leaves.
package merkle

import (
	"hash"
)

// MerkleTree keeps every level of the tree, leaves first.
type MerkleTree struct {
	h      hash.Hash
	levels [][][]byte
}

// New hashes every element of xs into a leaf and builds the tree above them.
// An odd node at the end of a level moves up unchanged, so a trailing leaf
// and its duplicate give different roots.
func New(h hash.Hash, xs [][]byte) *MerkleTree {
	mt := &MerkleTree{h: h}
	if len(xs) == 0 {
		return mt
	}

	level := make([][]byte, 0, len(xs))
	for _, x := range xs {
		level = append(level, mt.sum([]byte{0}, x))
	}
	mt.levels = append(mt.levels, level)

	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, mt.sum([]byte{1}, level[i], level[i+1]))
		}
		mt.levels = append(mt.levels, next)
		level = next
	}
	return mt
}

func (mt *MerkleTree) sum(parts ...[]byte) []byte {
	mt.h.Reset()
	for _, p := range parts {
		mt.h.Write(p)
	}
	return mt.h.Sum(nil)
}

// GetMtHash returns the root. The root of an empty tree is the hash of no
// input.
func (mt *MerkleTree) GetMtHash() []byte {
	if len(mt.levels) == 0 {
		return mt.sum()
	}
	return mt.levels[len(mt.levels)-1][0]
}

// Depth is the number of levels including the leaves.
func (mt *MerkleTree) Depth() int {
	return len(mt.levels)
}
