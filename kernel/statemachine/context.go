package statemachine

import (
	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/state/sandbox"
	"github.com/xuperchain/xabi/lib/logs"
)

// Env is what the caller supplies for one state machine run
type Env struct {
	Log         logs.Logger
	ChainID     []byte
	Header      *abi.BlockHeader
	StateStore  *sandbox.View
	ModuleStore *sandbox.View
	Events      *EventQueue
}

// EnvSnapshot marks the stores and the event queue of an Env
type EnvSnapshot struct {
	state  int
	module int
	events int
}

// Snapshot marks both stores and the event queue
func (e *Env) Snapshot() EnvSnapshot {
	snap := EnvSnapshot{state: -1, module: -1, events: -1}
	if e.StateStore != nil {
		snap.state = e.StateStore.Snapshot()
	}
	if e.ModuleStore != nil {
		snap.module = e.ModuleStore.Snapshot()
	}
	if e.Events != nil {
		snap.events = e.Events.Snapshot()
	}
	return snap
}

// RestoreSnapshot drops every write and event made after snap
func (e *Env) RestoreSnapshot(snap EnvSnapshot) {
	if snap.state >= 0 {
		e.StateStore.RestoreSnapshot(snap.state)
	}
	if snap.module >= 0 {
		e.ModuleStore.RestoreSnapshot(snap.module)
	}
	if snap.events >= 0 {
		e.Events.RestoreSnapshot(snap.events)
	}
}

// DiscardSnapshot keeps the effects made after snap and releases it
func (e *Env) DiscardSnapshot(snap EnvSnapshot) {
	if snap.state >= 0 {
		e.StateStore.DiscardSnapshot(snap.state)
	}
	if snap.module >= 0 {
		e.ModuleStore.DiscardSnapshot(snap.module)
	}
}

// StorePrefix is the key prefix of a module in both stores
func StorePrefix(module string) []byte {
	return []byte(module + "/")
}

// Context is the part every hook sees, scoped to one module
type Context struct {
	module string
	env    *Env
	topics [][]byte
}

func newContext(env *Env, module string) *Context {
	return &Context{module: module, env: env}
}

func (c *Context) Module() string {
	return c.module
}

func (c *Context) Log() logs.Logger {
	return c.env.Log
}

func (c *Context) ChainID() []byte {
	return c.env.ChainID
}

func (c *Context) Header() *abi.BlockHeader {
	return c.env.Header
}

// StateStore is the chain state under the module prefix
func (c *Context) StateStore() *sandbox.View {
	return c.env.StateStore.Sub(StorePrefix(c.module))
}

// ModuleStore is module bookkeeping, not part of the state root
func (c *Context) ModuleStore() *sandbox.View {
	return c.env.ModuleStore.Sub(StorePrefix(c.module))
}

// Emit adds an event of the module, transaction events carry the tx id as first topic
func (c *Context) Emit(name string, data []byte, topics ...[]byte) {
	all := make([][]byte, 0, len(c.topics)+len(topics))
	all = append(all, c.topics...)
	all = append(all, topics...)
	c.env.Events.Add(c.module, name, data, all)
}

type GenesisBlockContext struct {
	*Context
	// genesis data of this module, nil if the genesis has none
	Asset  []byte
	result *NextValidators
}

func (c *GenesisBlockContext) SetNextValidators(preCommitThreshold, certificateThreshold uint64, validators []*abi.Validator) {
	c.result.set(preCommitThreshold, certificateThreshold, validators)
}

type InsertAssetContext struct {
	*Context
	FinalizedHeight uint32
	assets          *BlockAssets
}

func (c *InsertAssetContext) SetAsset(data []byte) {
	c.assets.Set(c.module, data)
}

type BlockVerifyContext struct {
	*Context
	Assets *BlockAssets
}

type BlockExecuteContext struct {
	*Context
	Assets    *BlockAssets
	Consensus *abi.Consensus
}

type BlockAfterExecuteContext struct {
	BlockExecuteContext
	Transactions []*abi.Transaction
	next         *NextValidators
}

func (c *BlockAfterExecuteContext) SetNextValidators(preCommitThreshold, certificateThreshold uint64, validators []*abi.Validator) {
	c.next.set(preCommitThreshold, certificateThreshold, validators)
}

// TransactionContext is shared by verification and execution, Assets and
// Consensus are nil when verifying
type TransactionContext struct {
	*Context
	Transaction *abi.Transaction
	Assets      *BlockAssets
	Consensus   *abi.Consensus
}

// Params of the transaction command
func (c *TransactionContext) Params() []byte {
	return c.Transaction.Params
}

// NextValidators is the committee proposed for the next round
type NextValidators struct {
	PreCommitThreshold   uint64
	CertificateThreshold uint64
	Validators           []*abi.Validator
	Updated              bool
}

func (n *NextValidators) set(preCommitThreshold, certificateThreshold uint64, validators []*abi.Validator) {
	n.PreCommitThreshold = preCommitThreshold
	n.CertificateThreshold = certificateThreshold
	n.Validators = validators
	n.Updated = true
}

// DefaultNextValidators keeps the current committee, precommit threshold is
// floor(2/3 of total weight) + 1
func DefaultNextValidators(consensus *abi.Consensus) *NextValidators {
	next := &NextValidators{}
	if consensus == nil {
		return next
	}
	next.Validators = consensus.CurrentValidators
	next.CertificateThreshold = consensus.CertificateThreshold
	next.PreCommitThreshold = PreCommitThreshold(consensus.CurrentValidators)
	return next
}

func PreCommitThreshold(validators []*abi.Validator) uint64 {
	var total uint64
	for _, v := range validators {
		total += v.BftWeight
	}
	return total*2/3 + 1
}
