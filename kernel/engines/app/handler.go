// Package app implements the application side of the abi: one execution
// context at a time over the state store and the module registry.
package app

import (
	"bytes"
	"context"

	EventBus "github.com/asaskevich/EventBus"

	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/common/xconfig"
	"github.com/xuperchain/xabi/kernel/common/xcontext"
	"github.com/xuperchain/xabi/kernel/invoke"
	"github.com/xuperchain/xabi/kernel/state"
	"github.com/xuperchain/xabi/kernel/state/sandbox"
	"github.com/xuperchain/xabi/kernel/statemachine"
	"github.com/xuperchain/xabi/lib/logs"
	"github.com/xuperchain/xabi/lib/metrics"
	"github.com/xuperchain/xabi/lib/storage/kvdb"
)

const (
	SubModName = "app"
	// published with the chain id on every Ready
	TopicReady = "app:ready"
)

// ConfLoader supplies the chain id and the genesis block, both read again on every call
type ConfLoader interface {
	LoadAppConf() (*xconfig.AppConf, error)
	LoadGenesis() (*xconfig.Genesis, error)
}

// StateStore is what the handler needs from the versioned state
type StateStore interface {
	NewReadWriter() *sandbox.View
	Current() (height uint32, root []byte, ok bool)
	Commit(view *sandbox.View, height uint32, prevRoot []byte, opts state.CommitOptions) ([]byte, error)
	Revert(root []byte, height uint32, expectedRoot []byte) ([]byte, error)
	Finalize(height uint32) error
	Prove(root []byte, keys [][]byte) (*abi.Proof, error)
}

// 当前执行上下文，同一时刻最多一个
type executionContext struct {
	id          []byte
	header      *abi.BlockHeader
	stateStore  *sandbox.View
	moduleStore *sandbox.View
}

// ABIHandler is not safe for concurrent use, the rpc serve loop calls it
// from a single goroutine
type ABIHandler struct {
	log        logs.Logger
	conf       ConfLoader
	bus        EventBus.Bus
	stateStore StateStore
	moduleDB   kvdb.Database
	sm         *statemachine.StateMachine
	invoker    *invoke.Registry

	chainID []byte
	execCtx *executionContext
}

var _ abi.ABI = (*ABIHandler)(nil)

func NewABIHandler(conf ConfLoader, stateStore StateStore, moduleDB kvdb.Database,
	sm *statemachine.StateMachine, log logs.Logger) *ABIHandler {
	invoker := invoke.NewRegistry(stateStore, log)
	sm.RegisterEndpoints(invoker)

	return &ABIHandler{
		log:        log,
		conf:       conf,
		bus:        EventBus.New(),
		stateStore: stateStore,
		moduleDB:   moduleDB,
		sm:         sm,
		invoker:    invoker,
	}
}

// Subscribe to handler notifications, see TopicReady
func (t *ABIHandler) Subscribe(topic string, fn interface{}) error {
	return t.bus.Subscribe(topic, fn)
}

// Ready loads the chain id from the app config. It may be called again,
// the chain id is read from the config each time.
func (t *ABIHandler) Ready() error {
	appConf, err := t.conf.LoadAppConf()
	if err != nil {
		return err
	}
	chainID, err := appConf.GetChainID()
	if err != nil {
		return err
	}
	t.chainID = chainID
	t.log.Info("application ready", "chainID", appConf.ChainID)
	t.bus.Publish(TopicReady, chainID)
	return nil
}

func (t *ABIHandler) getChainID() ([]byte, error) {
	if len(t.chainID) == 0 {
		return nil, abi.ErrChainIDNotSet
	}
	return t.chainID, nil
}

// HasContext reports whether an execution context is open
func (t *ABIHandler) HasContext() bool {
	return t.execCtx != nil
}

func (t *ABIHandler) checkContext(id []byte) (*executionContext, error) {
	if t.execCtx == nil {
		return nil, abi.ErrNoContext
	}
	if !bytes.Equal(id, t.execCtx.id) {
		return nil, abi.ErrInvalidContext.More("expected %x, got %x", t.execCtx.id, id)
	}
	return t.execCtx, nil
}

func (t *ABIHandler) newEnv(ctx context.Context, header *abi.BlockHeader, stateStore, moduleStore *sandbox.View) *statemachine.Env {
	var height uint32
	if header != nil {
		height = header.Height
	}
	return &statemachine.Env{
		Log:         xcontext.GetLog(ctx, t.log),
		ChainID:     t.chainID,
		Header:      header,
		StateStore:  stateStore,
		ModuleStore: moduleStore,
		Events:      statemachine.NewEventQueue(height),
	}
}

func (t *ABIHandler) contextEnv(ctx context.Context, ec *executionContext) *statemachine.Env {
	return t.newEnv(ctx, ec.header, ec.stateStore, ec.moduleStore)
}

// ephemeralEnv runs against throwaway views of the committed state
func (t *ABIHandler) ephemeralEnv(ctx context.Context, header *abi.BlockHeader) *statemachine.Env {
	return t.newEnv(ctx, header, t.stateStore.NewReadWriter(), t.newModuleView())
}

func (t *ABIHandler) newModuleView() *sandbox.View {
	return sandbox.NewView(sandbox.NewDBReader(t.moduleDB))
}

func (t *ABIHandler) Init(ctx context.Context, req *abi.InitRequest) (*abi.InitResponse, error) {
	chainID, err := t.getChainID()
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(chainID, req.ChainID) {
		return nil, abi.ErrChainMismatch.More("chain id %x, engine %x", chainID, req.ChainID)
	}

	height, root, ok := t.stateStore.Current()
	if !ok {
		if len(req.LastStateRoot) > 0 {
			return nil, abi.ErrChainMismatch.More("empty state, engine at height %d", req.LastBlockHeight)
		}
		return &abi.InitResponse{}, nil
	}
	if height != req.LastBlockHeight || !bytes.Equal(root, req.LastStateRoot) {
		return nil, abi.ErrChainMismatch.More("state at %d %x, engine at %d %x",
			height, root, req.LastBlockHeight, req.LastStateRoot)
	}
	return &abi.InitResponse{}, nil
}

func (t *ABIHandler) InitStateMachine(ctx context.Context, req *abi.InitStateMachineRequest) (*abi.InitStateMachineResponse, error) {
	if t.execCtx != nil {
		return nil, abi.ErrContextExists.More("%x", t.execCtx.id)
	}
	if req.Header == nil {
		return nil, abi.ErrParameter.More("header is required")
	}

	id := req.Header.Hash()
	t.execCtx = &executionContext{
		id:          id,
		header:      req.Header,
		stateStore:  t.stateStore.NewReadWriter(),
		moduleStore: t.newModuleView(),
	}
	metrics.ExecutionContextGauge.Set(1)
	xcontext.GetLog(ctx, t.log).Debug("execution context opened", "height", req.Header.Height, "contextID", id)
	return &abi.InitStateMachineResponse{ContextID: id}, nil
}

func (t *ABIHandler) Clear(ctx context.Context, req *abi.ClearRequest) (*abi.ClearResponse, error) {
	if t.execCtx != nil {
		xcontext.GetLog(ctx, t.log).Debug("execution context cleared", "contextID", t.execCtx.id)
	}
	t.execCtx = nil
	metrics.ExecutionContextGauge.Set(0)
	return &abi.ClearResponse{}, nil
}
