package descent

import (
	"math/big"

	"github.com/hdp-go/hdp/internal/field"
)

// cursor is a lazily-descended position in a historical preimage tree: the
// remaining height and the triplet reached so far. A nil *cursor stands for
// "this side of the tandem walk is the canonical empty subtree" — the role
// Option<PreimageNodeIterator> plays in tree.rs.
type cursor struct {
	height uint
	node   Triplet
}

// step descends one level, returning the left/right cursors (nil when the
// corresponding child triplet is canonically empty).
func (c *cursor) step(preimage Preimage) (left, right *cursor, err error) {
	l, r, err := GetChildren(preimage, c.node)
	if err != nil {
		return nil, nil, err
	}
	var lc, rc *cursor
	if !l.IsEmpty() {
		lc = &cursor{height: c.height - 1, node: l}
	}
	if !r.IsEmpty() {
		rc = &cursor{height: c.height - 1, node: r}
	}
	return lc, rc, nil
}

// GetDescents is the tandem walk over the update tree and the previous/new
// historical preimage trees. It descends one level at a time for as long as
// exactly one side (left xor right) carries content in all three trees,
// recording that run as a single DescentMap entry once it ends (provided the
// run spans more than one level), then recurses into whichever children
// remain. Ported from tree.rs's get_descents.
func GetDescents(height uint, path field.F, node *UpdateTree, prev, next *cursor, preimage Preimage) (DescentMap, error) {
	result := DescentMap{}
	if node == nil || node.IsLeaf {
		return result, nil
	}

	origHeight := height
	origPath := path

	for {
		updLeft, updRight, _, err := DecodeNode(node)
		if err != nil {
			return nil, err
		}

		var prevLeft, prevRight, nextLeft, nextRight *cursor
		if prev != nil {
			prevLeft, prevRight, err = prev.step(preimage)
			if err != nil {
				return nil, err
			}
		}
		if next != nil {
			nextLeft, nextRight, err = next.step(preimage)
			if err != nil {
				return nil, err
			}
		}

		leftEmpty := updLeft == nil && prevLeft == nil && nextLeft == nil
		rightEmpty := updRight == nil && prevRight == nil && nextRight == nil

		if leftEmpty == rightEmpty {
			// Both sides carry content (a branch point) or both are empty
			// (nothing left below): stop descending here.
			length := origHeight - height
			if length > 1 {
				result[DescentStart{Height: origHeight, Path: origPath}] = DescentEntry{
					Length: length,
					Path:   maskLowBits(path, length),
				}
			}
			if height == 0 {
				return result, nil
			}

			leftMap, err := GetDescents(height-1, pathExtend(path, 0), updLeft, prevLeft, nextLeft, preimage)
			if err != nil {
				return nil, err
			}
			for k, v := range leftMap {
				result[k] = v
			}

			rightMap, err := GetDescents(height-1, pathExtend(path, 1), updRight, prevRight, nextRight, preimage)
			if err != nil {
				return nil, err
			}
			for k, v := range rightMap {
				result[k] = v
			}
			return result, nil
		}

		if !leftEmpty {
			node, prev, next = updLeft, prevLeft, nextLeft
			path = pathExtend(path, 0)
		} else {
			node, prev, next = updRight, prevRight, nextRight
			path = pathExtend(path, 1)
		}
		height--

		if node == nil || node.IsLeaf {
			length := origHeight - height
			if length > 1 {
				result[DescentStart{Height: origHeight, Path: origPath}] = DescentEntry{
					Length: length,
					Path:   maskLowBits(path, length),
				}
			}
			return result, nil
		}
	}
}

// PatriciaGuessDescents is the planner's entry point: given the update tree
// for a batch of modifications and the preimage covering both the previous
// and new trie states, it returns the set of shortcut descents the in-VM
// proof-of-update hint can take instead of visiting every intermediate node.
func PatriciaGuessDescents(height uint, node *UpdateTree, preimage Preimage, prevRoot, newRoot field.F) (DescentMap, error) {
	if node == nil {
		return DescentMap{}, nil
	}
	prevTriplet := Canonic(preimage, prevRoot)
	nextTriplet := Canonic(preimage, newRoot)

	var prevCursor, nextCursor *cursor
	if !prevTriplet.IsEmpty() {
		prevCursor = &cursor{height: height, node: prevTriplet}
	}
	if !nextTriplet.IsEmpty() {
		nextCursor = &cursor{height: height, node: nextTriplet}
	}

	return GetDescents(height, field.Zero, node, prevCursor, nextCursor, preimage)
}

// pathExtend appends one bit to path: path*2 + bit.
func pathExtend(path field.F, bit uint8) field.F {
	b := fieldToBigInt(path)
	b.Lsh(b, 1)
	if bit != 0 {
		b.Add(b, big.NewInt(1))
	}
	return field.FromBigInt(b)
}

// maskLowBits returns the low `n` bits of path (path mod 2^n), the
// "relative subpath" recorded alongside a descent's length.
func maskLowBits(path field.F, n uint) field.F {
	b := fieldToBigInt(path)
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), n), big.NewInt(1))
	b.And(b, mask)
	return field.FromBigInt(b)
}
