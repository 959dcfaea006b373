package kvtrie

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hdp-go/hdp/internal/field"
)

const schema = `
CREATE TABLE IF NOT EXISTS trie_nodes (
	idx      INTEGER PRIMARY KEY AUTOINCREMENT,
	hash     BLOB NOT NULL,
	data     BLOB NOT NULL,
	trie_idx INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS trie_nodes_trie_idx ON trie_nodes(trie_idx);
CREATE INDEX IF NOT EXISTS trie_nodes_hash ON trie_nodes(hash);

CREATE TABLE IF NOT EXISTS leafs (
	idx      INTEGER PRIMARY KEY AUTOINCREMENT,
	key      BLOB NOT NULL,
	value    BLOB NOT NULL,
	root_idx INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS leafs_key ON leafs(key);
`

// Store is the SQLite-backed persistence layer for one trie label, grounded
// on the teacher's sql.Open + CREATE TABLE IF NOT EXISTS bootstrap
// (geth-17-indexer/cmd/.../main.go) and on the two-table schema of
// original_source/crates/state_server/src/mpt/db/trie.rs.
//
// A Store is a single-writer, multi-reader handle: callers serialize writes
// themselves (kvtrie.Trie adds no locking of its own), matching spec.md
// §4.A/§5's per-label concurrency model.
type Store struct {
	db        *sql.DB
	nodeCache *lru.Cache[string, Node]
}

// Open opens (creating if absent) the SQLite database backing one trie
// label's persisted node and leaf history.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("kvtrie: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("kvtrie: bootstrap schema: %w", err)
	}
	cache, err := lru.New[string, Node](4096)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kvtrie: build node cache: %w", err)
	}
	return &Store{db: db, nodeCache: cache}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// PersistLeafs inserts each (key, value) pair not already present, matching
// TrieDB::persist_leafs's SELECT-before-INSERT dedup idiom verbatim (spec.md
// §8's "duplicate (k, v) insert is idempotent in persistence").
func (s *Store) PersistLeafs(leafs []Leaf, rootIdx uint64) error {
	const selectQuery = `SELECT 1 FROM leafs WHERE key = ? AND value = ?`
	const insertQuery = `INSERT INTO leafs (key, value, root_idx) VALUES (?, ?, ?)`
	for _, l := range leafs {
		kb := keyBytes(l.Key)
		vb := keyBytes(l.Value)
		var exists int
		err := s.db.QueryRow(selectQuery, kb, vb).Scan(&exists)
		if err == sql.ErrNoRows {
			if _, err := s.db.Exec(insertQuery, kb, vb, rootIdx); err != nil {
				return fmt.Errorf("kvtrie: persist leaf: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("kvtrie: check leaf existence: %w", err)
		}
	}
	return nil
}

// DeleteLeaf removes the append-only tracking row for key, used by the
// state-server's post-batch leaf cleanup (SPEC_FULL.md §3).
func (s *Store) DeleteLeaf(key field.F) error {
	_, err := s.db.Exec(`DELETE FROM leafs WHERE key = ?`, keyBytes(key))
	if err != nil {
		return fmt.Errorf("kvtrie: delete leaf: %w", err)
	}
	return nil
}

// PersistNodes inserts each node at its assigned trie index, skipping any
// index already present (TrieDB::persist_nodes's dedup-by-trie_idx idiom).
func (s *Store) PersistNodes(nodes []PersistedNode) error {
	const selectQuery = `SELECT 1 FROM trie_nodes WHERE trie_idx = ?`
	const insertQuery = `INSERT INTO trie_nodes (hash, data, trie_idx) VALUES (?, ?, ?)`
	for _, n := range nodes {
		var exists int
		err := s.db.QueryRow(selectQuery, n.TrieIdx).Scan(&exists)
		if err == sql.ErrNoRows {
			data := n.Node.Encode()
			hb := keyBytes(n.Hash)
			if _, err := s.db.Exec(insertQuery, hb, data, n.TrieIdx); err != nil {
				return fmt.Errorf("kvtrie: persist node: %w", err)
			}
			s.nodeCache.Add(string(hb), n.Node)
		} else if err != nil {
			return fmt.Errorf("kvtrie: check node existence: %w", err)
		}
	}
	return nil
}

// PersistedNode is one (node, hash, trie_idx) triple awaiting persistence.
type PersistedNode struct {
	Node    Node
	Hash    field.F
	TrieIdx uint64
}

// Leaf is one (key, value) pair as tracked in the leafs table.
type Leaf struct {
	Key   field.F
	Value field.F
}

// NodeIdx returns the maximum assigned trie index, 0 if the store is empty.
func (s *Store) NodeIdx() (uint64, error) {
	var idx sql.NullInt64
	err := s.db.QueryRow(`SELECT MAX(trie_idx) FROM trie_nodes`).Scan(&idx)
	if err != nil {
		return 0, fmt.Errorf("kvtrie: max trie_idx: %w", err)
	}
	if !idx.Valid {
		return 0, nil
	}
	return uint64(idx.Int64), nil
}

// NodeIdxByHash resolves a node's persisted index by its content hash.
func (s *Store) NodeIdxByHash(hash field.F) (uint64, bool, error) {
	var idx uint64
	err := s.db.QueryRow(`SELECT trie_idx FROM trie_nodes WHERE hash = ?`, keyBytes(hash)).Scan(&idx)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("kvtrie: node idx by hash: %w", err)
	}
	return idx, true, nil
}

// NodeByIdx loads a node by its persisted trie index.
func (s *Store) NodeByIdx(idx uint64) (Node, bool, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM trie_nodes WHERE trie_idx = ?`, idx).Scan(&data)
	if err == sql.ErrNoRows {
		return Node{}, false, nil
	}
	if err != nil {
		return Node{}, false, fmt.Errorf("kvtrie: node by idx: %w", err)
	}
	n, err := Decode(data)
	if err != nil {
		return Node{}, false, fmt.Errorf("kvtrie: decode node at idx %d: %w", idx, err)
	}
	return n, true, nil
}

// NodeHashByIdx resolves the content hash stored alongside a trie index.
func (s *Store) NodeHashByIdx(idx uint64) (field.F, bool, error) {
	var hb []byte
	err := s.db.QueryRow(`SELECT hash FROM trie_nodes WHERE trie_idx = ?`, idx).Scan(&hb)
	if err == sql.ErrNoRows {
		return field.F{}, false, nil
	}
	if err != nil {
		return field.F{}, false, fmt.Errorf("kvtrie: node hash by idx: %w", err)
	}
	return field.FromBytes(hb), true, nil
}

// LeafLatest returns the most recently written value for key, or
// field.Zero ("absent") if it was never written.
func (s *Store) LeafLatest(key field.F) (field.F, error) {
	var vb []byte
	err := s.db.QueryRow(`SELECT value FROM leafs WHERE key = ? ORDER BY idx DESC LIMIT 1`, keyBytes(key)).Scan(&vb)
	if err == sql.ErrNoRows {
		return field.Zero, nil
	}
	if err != nil {
		return field.F{}, fmt.Errorf("kvtrie: leaf latest: %w", err)
	}
	return field.FromBytes(vb), nil
}

// LeafAt returns the leaf version active at the historical checkpoint
// maxRootIdx, matching TrieDB::get_leaf_at's "root_idx <= ? ORDER BY idx DESC
// LIMIT 1" semantics (spec.md §4.A "Get leaf at").
func (s *Store) LeafAt(key field.F, maxRootIdx uint64) (field.F, error) {
	var vb []byte
	err := s.db.QueryRow(
		`SELECT value FROM leafs WHERE key = ? AND root_idx <= ? ORDER BY idx DESC LIMIT 1`,
		keyBytes(key), maxRootIdx,
	).Scan(&vb)
	if err == sql.ErrNoRows {
		return field.Zero, nil
	}
	if err != nil {
		return field.F{}, fmt.Errorf("kvtrie: leaf at: %w", err)
	}
	return field.FromBytes(vb), nil
}

func keyBytes(f field.F) []byte {
	b := f.Bytes32()
	return b[:]
}
