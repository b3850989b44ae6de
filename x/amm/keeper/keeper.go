// Package keeper implements the pool accounting engine: reserve and share
// bookkeeping, the per-owner fee-accrual ledger, and the admin-gated
// parameter surface. Pricing is delegated to the curve kernel.
//
// Every mutating call against one pool executes under that pool's lock and
// mutates a copy of the state, committing only after all checks pass, so a
// failure at any step leaves the pool unchanged. Operations on different
// pools are fully independent.
package keeper

import (
	"sync"

	"cosmossdk.io/log"
	"github.com/google/uuid"

	"github.com/meridianlabs/ammcore/x/amm/types"
)

// Capability is the opaque token gating admin operations (pause, fee changes,
// amplification ramps). It is minted once by NewKeeper and handed to the
// governance collaborator; the zero value never authorizes anything.
type Capability struct {
	token uuid.UUID
}

// poolEntry is one pool's state together with its serialization lock. The
// lock enforces the single-writer discipline: at most one in-flight mutation
// per pool, with views taking the same lock for a consistent snapshot.
type poolEntry struct {
	mu        sync.Mutex
	pool      types.Pool
	positions map[string]*types.Position
}

// Keeper is the accounting engine over all pools.
type Keeper struct {
	logger  log.Logger
	params  types.Params
	hooks   types.MultiAmmHooks
	metrics *Metrics
	admin   uuid.UUID

	mu         sync.RWMutex
	pools      map[uint64]*poolEntry
	byPair     map[string]uint64
	nextPoolID uint64
}

// NewKeeper creates an engine with the given parameters and returns the admin
// capability alongside it.
func NewKeeper(logger log.Logger, params types.Params) (*Keeper, Capability, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if err := params.Validate(); err != nil {
		return nil, Capability{}, err
	}

	token := uuid.New()
	k := &Keeper{
		logger:     logger.With("module", types.ModuleName),
		params:     params,
		metrics:    NewMetrics(),
		admin:      token,
		pools:      make(map[uint64]*poolEntry),
		byPair:     make(map[string]uint64),
		nextPoolID: 1,
	}
	return k, Capability{token: token}, nil
}

// SetHooks registers callback hooks. Must be called before the engine serves
// traffic; hooks are not synchronized against in-flight operations.
func (k *Keeper) SetHooks(hooks ...types.AmmHooks) {
	k.hooks = types.NewMultiAmmHooks(hooks...)
}

// Params returns the engine parameters.
func (k *Keeper) Params() types.Params {
	return k.params
}

// authorize verifies an admin capability.
func (k *Keeper) authorize(cap Capability) error {
	if cap.token == uuid.Nil || cap.token != k.admin {
		return types.ErrUnauthorized.Wrap("invalid admin capability")
	}
	return nil
}

// getEntry resolves a pool entry by ID.
func (k *Keeper) getEntry(poolID uint64) (*poolEntry, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	e, ok := k.pools[poolID]
	if !ok {
		return nil, types.ErrPoolNotFound.Wrapf("pool %d not found", poolID)
	}
	return e, nil
}

// GetPoolIDByPair looks up a pool by its (asset pair, fee tier) key, the
// lookup the registry collaborator consumes. Asset order is irrelevant.
func (k *Keeper) GetPoolIDByPair(assetA, assetB string, feeTierBps uint32) (uint64, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	id, ok := k.byPair[types.PairKey(assetA, assetB, feeTierBps)]
	if !ok {
		return 0, types.ErrPoolNotFound.Wrapf("no pool for pair %s/%s tier %d", assetA, assetB, feeTierBps)
	}
	return id, nil
}

// PoolCount returns the number of pools the engine holds.
func (k *Keeper) PoolCount() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pools)
}
