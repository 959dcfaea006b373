package kvtrie

import (
	"fmt"

	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/herr"
)

// Trie is an in-memory view of one label's height-251 binary Patricia trie,
// backed by a Store. It accumulates uncommitted node writes in pending until
// Commit flushes them, mirroring spec.md §4.A's "Commit returns an update;
// persistence is a separate step" split.
//
// A Trie is not safe for concurrent use; callers serialize access per label
// (spec.md §4.A/§5's single-writer-per-label rule).
type Trie struct {
	store    *Store
	root     field.F // 0 = empty trie
	rootIdx  uint64
	pending  map[field.F]Node
	pendingL []Leaf
}

// CreateEmpty returns a fresh trie with root = 0, root_idx = 0.
func CreateEmpty(store *Store) *Trie {
	return &Trie{store: store, root: field.Zero, pending: map[field.F]Node{}}
}

// LoadByRoot instantiates a trie view rooted at a previously committed root
// hash. An unknown root hash is a Trie-kind error.
func LoadByRoot(store *Store, root field.F) (*Trie, error) {
	if root.IsZero() {
		return CreateEmpty(store), nil
	}
	idx, ok, err := store.NodeIdxByHash(root)
	if err != nil {
		return nil, fmt.Errorf("kvtrie: load root: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("kvtrie: root %s not found: %w", root, herr.Trie)
	}
	return &Trie{store: store, root: root, rootIdx: idx, pending: map[field.F]Node{}}, nil
}

// Root returns the trie's current root hash.
func (t *Trie) Root() field.F { return t.root }

// StoreHandle exposes the underlying Store, used by the state-server's batch
// revert step to reload a trie at a prior root.
func (t *Trie) StoreHandle() *Store { return t.store }

func (t *Trie) loadNode(hash field.F) (Node, bool, error) {
	if hash.IsZero() {
		return Node{}, false, nil
	}
	if n, ok := t.pending[hash]; ok {
		return n, true, nil
	}
	idx, ok, err := t.store.NodeIdxByHash(hash)
	if err != nil {
		return Node{}, false, fmt.Errorf("kvtrie: resolve node %s: %w", hash, err)
	}
	if !ok {
		return Node{}, false, fmt.Errorf("kvtrie: missing node %s: %w", hash, herr.Trie)
	}
	n, ok, err := t.store.NodeByIdx(idx)
	if err != nil {
		return Node{}, false, err
	}
	if !ok {
		return Node{}, false, fmt.Errorf("kvtrie: missing node data at idx %d: %w", idx, herr.Trie)
	}
	return n, true, nil
}

func (t *Trie) stage(n Node) field.F {
	h := n.Hash()
	t.pending[h] = n
	return h
}

// Get returns the value stored at key, or field.Zero if absent (spec.md §8:
// "empty trie: reading any key returns (k, 0)").
func (t *Trie) Get(key field.F) (field.F, error) {
	path := keyPathBits(key)
	return t.get(t.root, 0, path)
}

func (t *Trie) get(hash field.F, consumed uint, path [Height]uint8) (field.F, error) {
	height := Height - consumed
	if height == 0 {
		return hash, nil
	}
	node, exists, err := t.loadNode(hash)
	if err != nil {
		return field.F{}, err
	}
	if !exists {
		return field.Zero, nil
	}
	if node.IsEdge() {
		edgeBits := fieldToBits(node.Path, node.Length)
		queryBits := path[consumed : consumed+node.Length]
		if !bitsEqual(edgeBits, queryBits) {
			return field.Zero, nil
		}
		if node.IsLeafLevel() {
			return node.Child, nil
		}
		return t.get(node.Child, consumed+node.Length, path)
	}
	bit := path[consumed]
	var childHash field.F
	if bit == 0 {
		childHash = node.Left
	} else {
		childHash = node.Right
	}
	if node.IsLeafLevel() {
		return childHash, nil
	}
	return t.get(childHash, consumed+1, path)
}

// Set writes value at key; value == field.Zero removes the key. Returns
// whether the root changed (spec.md §8: "write(k,0) changes the root iff k
// was previously present").
func (t *Trie) Set(key, value field.F) (changed bool, err error) {
	path := keyPathBits(key)
	newRoot, err := t.set(t.root, 0, path, value)
	if err != nil {
		return false, err
	}
	changed = !newRoot.Equal(t.root)
	if changed {
		t.pendingL = append(t.pendingL, Leaf{Key: key, Value: value})
	}
	t.root = newRoot
	return changed, nil
}

func (t *Trie) set(hash field.F, consumed uint, path [Height]uint8, value field.F) (field.F, error) {
	height := Height - consumed
	if height == 0 {
		return value, nil
	}

	node, exists, err := t.loadNode(hash)
	if err != nil {
		return field.F{}, err
	}

	if !exists {
		if value.IsZero() {
			return field.Zero, nil
		}
		edgePath := bitsToField(path[consumed:Height])
		n := NewEdge(height, edgePath, value, true)
		return t.stage(n), nil
	}

	if node.IsEdge() {
		edgeBits := fieldToBits(node.Path, node.Length)
		queryBits := path[consumed : consumed+node.Length]
		common := commonPrefixLen(edgeBits, queryBits)

		if common == node.Length {
			childConsumed := consumed + node.Length
			childHeight := Height - childConsumed
			var newChild field.F
			if childHeight == 0 {
				newChild = value
			} else {
				newChild, err = t.set(node.Child, childConsumed, path, value)
				if err != nil {
					return field.F{}, err
				}
			}
			if newChild.IsZero() {
				return field.Zero, nil
			}
			n := NewEdge(node.Length, node.Path, newChild, childHeight == 0)
			return t.stage(n), nil
		}

		if value.IsZero() {
			// Key not present under this edge; removal is a no-op.
			return hash, nil
		}

		// Split the edge at the first divergent bit.
		divergeEdgeBit := edgeBits[common]
		restLen := node.Length - common - 1
		var restHash field.F
		if restLen == 0 {
			restHash = node.Child
		} else {
			restPath := bitsToField(edgeBits[common+1:])
			restHash = t.stage(NewEdge(restLen, restPath, node.Child, node.IsLeafLevel()))
		}

		branchConsumed := consumed + common + 1
		newBranchHash, err := t.set(field.Zero, branchConsumed, path, value)
		if err != nil {
			return field.F{}, err
		}

		var left, right field.F
		if divergeEdgeBit == 0 {
			left, right = restHash, newBranchHash
		} else {
			left, right = newBranchHash, restHash
		}
		childRemainHeight := height - common - 1
		binHash := t.stage(NewBinary(left, right, childRemainHeight == 0))

		if common == 0 {
			return binHash, nil
		}
		commonPath := bitsToField(edgeBits[:common])
		return t.stage(NewEdge(common, commonPath, binHash, false)), nil
	}

	// Binary node.
	bit := path[consumed]
	leafLevel := node.IsLeafLevel()
	if bit == 0 {
		newLeft, err := t.setChild(node.Left, consumed+1, path, value, leafLevel)
		if err != nil {
			return field.F{}, err
		}
		if newLeft.IsZero() {
			return t.collapse(node.Right, consumed+1, leafLevel, 1)
		}
		return t.stage(NewBinary(newLeft, node.Right, leafLevel)), nil
	}
	newRight, err := t.setChild(node.Right, consumed+1, path, value, leafLevel)
	if err != nil {
		return field.F{}, err
	}
	if newRight.IsZero() {
		return t.collapse(node.Left, consumed+1, leafLevel, 0)
	}
	return t.stage(NewBinary(node.Left, newRight, leafLevel)), nil
}

// setChild writes into one side of a binary node. When the binary node is at
// leaf level, its "children" are raw leaf values rather than node hashes.
func (t *Trie) setChild(childHash field.F, consumed uint, path [Height]uint8, value field.F, parentLeafLevel bool) (field.F, error) {
	if parentLeafLevel {
		// childHash is actually a raw leaf value at this position.
		if value.IsZero() {
			return field.Zero, nil
		}
		return value, nil
	}
	return t.set(childHash, consumed, path, value)
}

// collapse builds the surviving sibling into a single-bit-prefixed edge,
// merging it with an existing edge if the sibling already is one. bit is the
// bit value the surviving sibling occupies (0 = left, 1 = right).
func (t *Trie) collapse(siblingHash field.F, consumed uint, parentLeafLevel bool, bit uint8) (field.F, error) {
	if siblingHash.IsZero() {
		return field.Zero, nil
	}
	if parentLeafLevel {
		return t.stage(NewEdge(1, bitsToField([]uint8{bit}), siblingHash, true)), nil
	}
	sib, exists, err := t.loadNode(siblingHash)
	if err != nil {
		return field.F{}, err
	}
	if !exists {
		return field.Zero, nil
	}
	if sib.IsEdge() {
		mergedLen := sib.Length + 1
		mergedBits := append([]uint8{bit}, fieldToBits(sib.Path, sib.Length)...)
		mergedPath := bitsToField(mergedBits)
		return t.stage(NewEdge(mergedLen, mergedPath, sib.Child, sib.IsLeafLevel())), nil
	}
	return t.stage(NewEdge(1, bitsToField([]uint8{bit}), siblingHash, false)), nil
}

// Commit assigns contiguous trie indices to every node staged since the last
// commit and flushes them plus the written leaves to the store, returning the
// new root's storage index.
func (t *Trie) Commit() (rootIdx uint64, err error) {
	if len(t.pending) == 0 {
		return t.rootIdx, nil
	}
	base, err := t.store.NodeIdx()
	if err != nil {
		return 0, err
	}
	var toPersist []PersistedNode
	next := base + 1
	order := topoOrder(t.pending, t.root)
	idxOf := map[field.F]uint64{}
	for _, h := range order {
		n := t.pending[h]
		idx := next
		next++
		idxOf[h] = idx
		toPersist = append(toPersist, PersistedNode{Node: n, Hash: h, TrieIdx: idx})
	}
	if err := t.store.PersistNodes(toPersist); err != nil {
		return 0, err
	}
	rootIdx = idxOf[t.root]
	if len(t.pendingL) > 0 {
		if err := t.store.PersistLeafs(t.pendingL, rootIdx); err != nil {
			return 0, err
		}
	}
	t.pending = map[field.F]Node{}
	t.pendingL = nil
	t.rootIdx = rootIdx
	return rootIdx, nil
}

// topoOrder returns the pending nodes reachable from root in a
// children-before-parents order suitable for assigning contiguous indices.
func topoOrder(pending map[field.F]Node, root field.F) []field.F {
	var order []field.F
	visited := map[field.F]bool{}
	var visit func(h field.F)
	visit = func(h field.F) {
		if h.IsZero() || visited[h] {
			return
		}
		n, ok := pending[h]
		if !ok {
			return // already persisted in an earlier commit
		}
		visited[h] = true
		if n.IsEdge() {
			if !n.IsLeafLevel() {
				visit(n.Child)
			}
		} else {
			if !n.IsLeafLevel() {
				visit(n.Left)
				visit(n.Right)
			}
		}
		order = append(order, h)
	}
	visit(root)
	return order
}
