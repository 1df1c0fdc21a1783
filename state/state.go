// Package state maintains the graph commitment: a sparse Merkle tree keyed
// by vertex id whose leaves commit to each vertex's degree and sorted
// neighbor list, plus the adjacency data needed to build edge-insertion
// witnesses.
package state

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vocdoni/arbo"
	"github.com/vocdoni/davinci-node/db"
	"github.com/vocdoni/davinci-node/db/prefixeddb"

	"github.com/tokamak-network/syb-circuits/log"
	"github.com/tokamak-network/syb-circuits/types"
)

var (
	treePrefix      = []byte("gt/")
	adjacencyPrefix = []byte("adj/")
)

const hashCacheSize = 1024

// ErrNoBatch is returned by AddEdge and EndBatch outside StartBatch/EndBatch.
var ErrNoBatch = errors.New("no batch in progress")

// State is the graph commitment state: the arbo tree holding the
// per-vertex commitments, and the adjacency lists backing them.
//
// A State is not safe for concurrent use; independent batches run on
// separate States (or separate roots via LoadOnRoot).
type State struct {
	tree   *arbo.Tree
	adjDB  db.Database
	params Params
	hasher *Hasher

	hashCache *lru.Cache[string, *big.Int]

	// current batch
	dbTx           db.WriteTx
	rootHashBefore *big.Int
	edges          []types.Edge
	witnesses      []*EdgeWitness
}

// EdgeWitness packages all intermediate signals of one edge insertion for
// proof generation: the full protocol inputs and the two chained leaf
// transitions.
type EdgeWitness struct {
	Edge      types.Edge
	Insertion *EdgeInsertion

	// TransitionU transitions Insertion.OldRoot to the intermediate root;
	// TransitionV transitions the intermediate root to NewRoot.
	TransitionU *ArboTransition
	TransitionV *ArboTransition

	NewRoot *big.Int
}

// New creates or opens a State stored in the passed database.
func New(database db.Database, params Params) (*State, error) {
	tree, err := arbo.NewTree(arbo.Config{
		Database:     prefixeddb.NewPrefixedDatabase(database, treePrefix),
		MaxLevels:    params.NLevels,
		HashFunction: HashFn,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create graph tree: %w", err)
	}
	cache, err := lru.New[string, *big.Int](hashCacheSize)
	if err != nil {
		return nil, err
	}
	return &State{
		tree:      tree,
		adjDB:     prefixeddb.NewPrefixedDatabase(database, adjacencyPrefix),
		params:    params,
		hasher:    NewHasher(params.Scheme, params.MaxDegree),
		hashCache: cache,
	}, nil
}

// LoadOnRoot opens a State from the database and sets the tree to the
// provided root, which must be a known snapshot.
func LoadOnRoot(database db.Database, params Params, root *big.Int) (*State, error) {
	state, err := New(database, params)
	if err != nil {
		return nil, err
	}
	if err := state.SetRootAsBigInt(root); err != nil {
		return nil, fmt.Errorf("could not set root: %w", err)
	}
	return state, nil
}

// Close discards any batch in progress. No more operations can be done
// after this.
func (o *State) Close() error {
	if o.dbTx != nil {
		o.dbTx.Discard()
		o.dbTx = nil
	}
	return nil
}

// Params returns the state's static parameters.
func (o *State) Params() Params { return o.params }

// Root returns the root of the tree as a byte array.
func (o *State) Root() ([]byte, error) {
	return o.tree.Root()
}

// RootAsBigInt returns the root of the tree as a big.Int.
func (o *State) RootAsBigInt() (*big.Int, error) {
	root, err := o.tree.Root()
	if err != nil {
		return nil, err
	}
	return BytesToBigInt(root), nil
}

// SetRoot sets the root of the tree to the provided one.
func (o *State) SetRoot(newRoot []byte) error {
	return o.tree.SetRoot(newRoot)
}

// SetRootAsBigInt sets the root of the tree to the provided big.Int.
func (o *State) SetRootAsBigInt(newRoot *big.Int) error {
	return o.tree.SetRoot(BigIntToBytes(newRoot))
}

// AddVertex seeds a fresh vertex: it inserts a leaf committing to degree
// zero and an all-zero neighbor array, and stores an empty adjacency list.
// Seeding happens outside edge batches.
func (o *State) AddVertex(v types.VertexID) (*ArboTransition, error) {
	if !v.Valid(o.params.NLevels) {
		return nil, fmt.Errorf("%w: %d with %d levels", ErrVertexOutOfRange, v, o.params.NLevels)
	}
	if _, err := o.adjacency(v); err == nil {
		return nil, fmt.Errorf("%w: %d", ErrVertexAlreadyExists, v)
	} else if !errors.Is(err, ErrVertexNotFound) {
		return nil, err
	}

	hash, err := o.vertexHash(v, nil)
	if err != nil {
		return nil, err
	}
	transition, err := ArboTransitionFromAddOrUpdate(o, v.BigInt(), hash)
	if err != nil {
		return nil, fmt.Errorf("could not insert leaf for %d: %w", v, err)
	}
	if err := o.setAdjacency(v, nil); err != nil {
		return nil, err
	}
	log.Debugw("vertex added", "vertex", v.String(), "leaf", hash.String())
	return transition, nil
}

// StartBatch opens a write transaction for the adjacency updates of a new
// edge batch and records the starting root.
func (o *State) StartBatch() error {
	var err error
	if o.rootHashBefore, err = o.RootAsBigInt(); err != nil {
		return err
	}
	o.dbTx = o.adjDB.WriteTx()
	o.edges = nil
	o.witnesses = nil
	return nil
}

// EndBatch commits the batch's adjacency updates. The tree itself is
// mutated as edges are added; if any AddEdge failed, the caller should
// discard with Close and reload on the last good root instead.
func (o *State) EndBatch() error {
	if o.dbTx == nil {
		return ErrNoBatch
	}
	err := o.dbTx.Commit()
	o.dbTx = nil
	if err != nil {
		return fmt.Errorf("could not commit batch: %w", err)
	}
	log.Infow("batch committed", "edges", len(o.edges))
	return nil
}

// RootHashBefore returns the root hash the current batch started from.
func (o *State) RootHashBefore() *big.Int { return o.rootHashBefore }

// Edges returns the edges added in the current batch.
func (o *State) Edges() []types.Edge { return o.edges }

// Witnesses returns the witnesses of the edges added in the current batch.
func (o *State) Witnesses() []*EdgeWitness { return o.witnesses }

// AddEdge applies one edge insertion to the state: it checks the protocol
// preconditions, updates both endpoint leaves (U first, then V against the
// intermediate root), updates the adjacency lists, and cross-checks the
// resulting root against the pure protocol run on the recorded witness.
func (o *State) AddEdge(e types.Edge) (*EdgeWitness, error) {
	if o.dbTx == nil {
		return nil, ErrNoBatch
	}
	u, v := e.U(), e.V()

	adjU, err := o.adjacency(u)
	if err != nil {
		return nil, fmt.Errorf("endpoint %d: %w", u, err)
	}
	adjV, err := o.adjacency(v)
	if err != nil {
		return nil, fmt.Errorf("endpoint %d: %w", v, err)
	}
	if uint64(len(adjU))+1 > o.params.MaxDegree {
		return nil, fmt.Errorf("%w: u degree %d -> %d > %d",
			ErrDegreeExceedsMax, len(adjU), len(adjU)+1, o.params.MaxDegree)
	}
	if uint64(len(adjV))+1 > o.params.MaxDegree {
		return nil, fmt.Errorf("%w: v degree %d -> %d > %d",
			ErrDegreeExceedsMax, len(adjV), len(adjV)+1, o.params.MaxDegree)
	}
	newAdjU, err := InsertNeighbor(adjU, v.Uint64())
	if err != nil {
		return nil, fmt.Errorf("edge %s: %w", e, err)
	}
	newAdjV, err := InsertNeighbor(adjV, u.Uint64())
	if err != nil {
		return nil, fmt.Errorf("edge %s: %w", e, err)
	}

	oldRoot, err := o.RootAsBigInt()
	if err != nil {
		return nil, err
	}
	newHashU, err := o.vertexHash(u, newAdjU)
	if err != nil {
		return nil, fmt.Errorf("new commitment of %d: %w", u, err)
	}
	newHashV, err := o.vertexHash(v, newAdjV)
	if err != nil {
		return nil, fmt.Errorf("new commitment of %d: %w", v, err)
	}

	// U first; V's proof is then naturally generated against the
	// intermediate root.
	transitionU, err := ArboTransitionFromAddOrUpdate(o, u.BigInt(), newHashU)
	if err != nil {
		return nil, fmt.Errorf("update of u: %w", err)
	}
	transitionV, err := ArboTransitionFromAddOrUpdate(o, v.BigInt(), newHashV)
	if err != nil {
		return nil, fmt.Errorf("update of v: %w", err)
	}
	newRoot, err := o.RootAsBigInt()
	if err != nil {
		return nil, err
	}

	insertion, err := o.edgeInsertion(u, v, adjU, adjV, newAdjU, newAdjV,
		transitionU.Siblings, transitionV.Siblings, oldRoot)
	if err != nil {
		return nil, err
	}
	// replay the pure protocol on the witness; a mismatch means the
	// recorded siblings do not reproduce the tree's own transition
	pureRoot, err := ApplyEdgeInsertion(insertion, o.params)
	if err != nil {
		return nil, fmt.Errorf("edge %s: %w", e, err)
	}
	if pureRoot.Cmp(newRoot) != 0 {
		return nil, fmt.Errorf("%w: witness replay produced %s, tree produced %s",
			ErrInconsistentProof, pureRoot, newRoot)
	}

	if err := o.setAdjacency(u, newAdjU); err != nil {
		return nil, err
	}
	if err := o.setAdjacency(v, newAdjV); err != nil {
		return nil, err
	}

	witness := &EdgeWitness{
		Edge:        e,
		Insertion:   insertion,
		TransitionU: transitionU,
		TransitionV: transitionV,
		NewRoot:     newRoot,
	}
	o.edges = append(o.edges, e)
	o.witnesses = append(o.witnesses, witness)
	log.Debugw("edge added",
		"edge", e.String(),
		"oldRoot", oldRoot.String(),
		"newRoot", newRoot.String())
	return witness, nil
}

// Degree returns the current degree of a vertex.
func (o *State) Degree(v types.VertexID) (uint64, error) {
	adj, err := o.adjacency(v)
	if err != nil {
		return 0, err
	}
	return uint64(len(adj)), nil
}

// Neighbors returns the current sorted adjacency list of a vertex.
func (o *State) Neighbors(v types.VertexID) ([]uint64, error) {
	return o.adjacency(v)
}

// VertexHash returns the commitment currently stored at the vertex's leaf.
func (o *State) VertexHash(v types.VertexID) (*big.Int, error) {
	_, values, err := o.tree.GetBigInt(v.BigInt())
	if err != nil {
		if errors.Is(err, arbo.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrVertexNotFound, v)
		}
		return nil, err
	}
	return values[0], nil
}

func (o *State) edgeInsertion(u, v types.VertexID, adjU, adjV, newAdjU, newAdjV []uint64,
	siblingsU, siblingsV []*big.Int, oldRoot *big.Int,
) (*EdgeInsertion, error) {
	oldNbrU, err := o.hasher.PadNeighbors(adjU)
	if err != nil {
		return nil, err
	}
	oldNbrV, err := o.hasher.PadNeighbors(adjV)
	if err != nil {
		return nil, err
	}
	newNbrU, err := o.hasher.PadNeighbors(newAdjU)
	if err != nil {
		return nil, err
	}
	newNbrV, err := o.hasher.PadNeighbors(newAdjV)
	if err != nil {
		return nil, err
	}
	return &EdgeInsertion{
		U:         u,
		V:         v,
		OldDegU:   uint64(len(adjU)),
		OldDegV:   uint64(len(adjV)),
		NewDegU:   uint64(len(newAdjU)),
		NewDegV:   uint64(len(newAdjV)),
		OldNbrU:   oldNbrU,
		OldNbrV:   oldNbrV,
		NewNbrU:   newNbrU,
		NewNbrV:   newNbrV,
		SiblingsU: siblingsU,
		SiblingsV: siblingsV,
		OldRoot:   oldRoot,
	}, nil
}

// vertexHash computes (with caching) the commitment of a vertex with the
// given sorted adjacency list.
func (o *State) vertexHash(v types.VertexID, adj []uint64) (*big.Int, error) {
	key := hashCacheKey(o.params.Scheme, v, adj)
	if hash, ok := o.hashCache.Get(key); ok {
		return hash, nil
	}
	padded, err := o.hasher.PadNeighbors(adj)
	if err != nil {
		return nil, err
	}
	hash, err := o.hasher.Hash(v, uint64(len(adj)), padded)
	if err != nil {
		return nil, err
	}
	o.hashCache.Add(key, hash)
	return hash, nil
}

func hashCacheKey(scheme HashScheme, v types.VertexID, adj []uint64) string {
	// the vertex id only contributes under SchemeNodeHash
	if scheme != SchemeNodeHash {
		v = 0
	}
	return fmt.Sprintf("%d/%d/%v", scheme, v, adj)
}

// adjacency reads a vertex's adjacency list, preferring the batch's
// pending writes when a batch is in progress.
func (o *State) adjacency(v types.VertexID) ([]uint64, error) {
	var data []byte
	var err error
	if o.dbTx != nil {
		data, err = o.dbTx.Get(v.Bytes())
	} else {
		data, err = o.adjDB.Get(v.Bytes())
	}
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrVertexNotFound, v)
		}
		return nil, err
	}
	var adj []uint64
	if err := cbor.Unmarshal(data, &adj); err != nil {
		return nil, fmt.Errorf("could not decode adjacency of %d: %w", v, err)
	}
	return adj, nil
}

func (o *State) setAdjacency(v types.VertexID, adj []uint64) error {
	opts, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return err
	}
	data, err := opts.Marshal(adj)
	if err != nil {
		return fmt.Errorf("could not encode adjacency of %d: %w", v, err)
	}
	if o.dbTx != nil {
		return o.dbTx.Set(v.Bytes(), data)
	}
	wTx := o.adjDB.WriteTx()
	defer wTx.Discard()
	if err := wTx.Set(v.Bytes(), data); err != nil {
		return err
	}
	return wTx.Commit()
}
