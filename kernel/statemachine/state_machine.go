package statemachine

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/abi/codec"
	"github.com/xuperchain/xabi/kernel/invoke"
)

const EventCommandExecutionResult = "commandExecutionResult"

// CommandResult is the data of a commandExecutionResult event
type CommandResult struct {
	Success bool
}

func (m *CommandResult) FieldCount() int { return 1 }

func (m *CommandResult) MarshalABI(e *codec.Encoder) {
	e.Bool(1, m.Success)
}

func (m *CommandResult) UnmarshalABI(d *codec.Decoder) {
	m.Success = d.Bool(1)
}

// StateMachine calls the modules in registration order
type StateMachine struct {
	modules  []Module
	names    map[string]bool
	commands map[string]Command
}

func NewStateMachine() *StateMachine {
	return &StateMachine{
		names:    make(map[string]bool),
		commands: make(map[string]Command),
	}
}

func commandKey(module, command string) string {
	return module + ":" + command
}

func (t *StateMachine) Register(m Module) error {
	name := m.Name()
	if name == "" {
		return fmt.Errorf("module without name")
	}
	if t.names[name] {
		return fmt.Errorf("module %s already registered", name)
	}
	if cp, ok := m.(CommandProvider); ok {
		for _, cmd := range cp.Commands() {
			key := commandKey(name, cmd.Name())
			if _, exist := t.commands[key]; exist {
				return fmt.Errorf("command %s of module %s registered twice", cmd.Name(), name)
			}
			t.commands[key] = cmd
		}
	}
	t.names[name] = true
	t.modules = append(t.modules, m)
	return nil
}

func (t *StateMachine) Modules() []Module {
	return t.modules
}

// RegisterEndpoints adds every module endpoint to reg as module_method
func (t *StateMachine) RegisterEndpoints(reg *invoke.Registry) {
	for _, m := range t.modules {
		ep, ok := m.(EndpointProvider)
		if !ok {
			continue
		}
		for method, h := range ep.Endpoints() {
			reg.Register(m.Name(), method, h)
		}
	}
}

// Metadata of every module sorted by name
func (t *StateMachine) Metadata() []*ModuleInfo {
	infos := make([]*ModuleInfo, 0, len(t.modules))
	for _, m := range t.modules {
		info := &ModuleInfo{Name: m.Name()}
		if meta := m.Metadata(); meta != nil {
			info.ModuleMetadata = *meta
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// InitGenesisState hands each module its genesis data, assets maps module to data
func (t *StateMachine) InitGenesisState(env *Env, assets map[string][]byte) (*NextValidators, error) {
	result := &NextValidators{}
	for _, m := range t.modules {
		gi, ok := m.(GenesisInitializer)
		if !ok {
			continue
		}
		ctx := &GenesisBlockContext{
			Context: newContext(env, m.Name()),
			Asset:   assets[m.Name()],
			result:  result,
		}
		if err := gi.InitGenesisState(ctx); err != nil {
			return nil, errors.Wrapf(err, "init genesis of %s", m.Name())
		}
	}
	return result, nil
}

func (t *StateMachine) InsertAssets(env *Env, finalizedHeight uint32) (*BlockAssets, error) {
	assets := NewBlockAssets(nil)
	for _, m := range t.modules {
		ai, ok := m.(AssetInserter)
		if !ok {
			continue
		}
		ctx := &InsertAssetContext{
			Context:         newContext(env, m.Name()),
			FinalizedHeight: finalizedHeight,
			assets:          assets,
		}
		if err := ai.InsertAssets(ctx); err != nil {
			return nil, errors.Wrapf(err, "insert assets of %s", m.Name())
		}
	}
	return assets, nil
}

func (t *StateMachine) VerifyAssets(env *Env, assets *BlockAssets) error {
	for _, a := range assets.List() {
		if !t.names[a.Module] {
			return fmt.Errorf("asset of unknown module %s", a.Module)
		}
	}
	for _, m := range t.modules {
		av, ok := m.(AssetVerifier)
		if !ok {
			continue
		}
		ctx := &BlockVerifyContext{Context: newContext(env, m.Name()), Assets: assets}
		if err := av.VerifyAssets(ctx); err != nil {
			return errors.Wrapf(err, "verify assets of %s", m.Name())
		}
	}
	return nil
}

func (t *StateMachine) BeforeTransactionsExecute(env *Env, assets *BlockAssets, consensus *abi.Consensus) error {
	for _, m := range t.modules {
		bh, ok := m.(BlockHooks)
		if !ok {
			continue
		}
		ctx := &BlockExecuteContext{
			Context:   newContext(env, m.Name()),
			Assets:    assets,
			Consensus: consensus,
		}
		if err := bh.BeforeTransactionsExecute(ctx); err != nil {
			return errors.Wrapf(err, "before transactions of %s", m.Name())
		}
	}
	return nil
}

// AfterTransactionsExecute returns the next committee, the current one unless a module sets it
func (t *StateMachine) AfterTransactionsExecute(env *Env, assets *BlockAssets, consensus *abi.Consensus,
	txs []*abi.Transaction) (*NextValidators, error) {
	next := DefaultNextValidators(consensus)
	for _, m := range t.modules {
		bh, ok := m.(BlockHooks)
		if !ok {
			continue
		}
		ctx := &BlockAfterExecuteContext{
			BlockExecuteContext: BlockExecuteContext{
				Context:   newContext(env, m.Name()),
				Assets:    assets,
				Consensus: consensus,
			},
			Transactions: txs,
			next:         next,
		}
		if err := bh.AfterTransactionsExecute(ctx); err != nil {
			return nil, errors.Wrapf(err, "after transactions of %s", m.Name())
		}
	}
	return next, nil
}

func (t *StateMachine) txContext(env *Env, module string, tx *abi.Transaction, assets *BlockAssets,
	consensus *abi.Consensus) *TransactionContext {
	ctx := &TransactionContext{
		Context:     newContext(env, module),
		Transaction: tx,
		Assets:      assets,
		Consensus:   consensus,
	}
	ctx.topics = [][]byte{tx.ID()}
	return ctx
}

// VerifyTransaction runs every module verifier then the command verifier,
// the first failure wins
func (t *StateMachine) VerifyTransaction(env *Env, tx *abi.Transaction) VerifyResult {
	if tx == nil {
		return VerifyFail(fmt.Errorf("empty transaction"))
	}
	cmd, ok := t.commands[commandKey(tx.Module, tx.Command)]
	if !ok {
		return VerifyFail(fmt.Errorf("command %s of module %s not registered", tx.Command, tx.Module))
	}
	for _, m := range t.modules {
		tv, ok := m.(TransactionVerifier)
		if !ok {
			continue
		}
		res := tv.VerifyTransaction(t.txContext(env, m.Name(), tx, nil, nil))
		if res.Status != abi.VerifyStatusOK {
			return res
		}
	}
	return cmd.Verify(t.txContext(env, tx.Module, tx, nil, nil))
}

// ExecuteTransaction runs the command between the command hooks of every
// module. A failed command keeps the effects of the before hooks, a failed
// hook makes the transaction invalid and drops all of its effects.
func (t *StateMachine) ExecuteTransaction(env *Env, tx *abi.Transaction, assets *BlockAssets,
	consensus *abi.Consensus) abi.TxExecResult {
	if tx == nil {
		return abi.TxExecResultInvalid
	}
	cmd, ok := t.commands[commandKey(tx.Module, tx.Command)]
	if !ok {
		env.Log.Warn("command not registered", "module", tx.Module, "command", tx.Command)
		return abi.TxExecResultInvalid
	}

	txSnap := env.Snapshot()
	invalid := func(err error) abi.TxExecResult {
		env.Log.Warn("transaction invalid", "module", tx.Module, "command", tx.Command, "err", err)
		env.RestoreSnapshot(txSnap)
		return abi.TxExecResultInvalid
	}

	for _, m := range t.modules {
		hooks, ok := m.(CommandExecutionHooks)
		if !ok {
			continue
		}
		if err := hooks.BeforeCommandExecute(t.txContext(env, m.Name(), tx, assets, consensus)); err != nil {
			return invalid(errors.Wrapf(err, "before command of %s", m.Name()))
		}
	}

	result := abi.TxExecResultOK
	cmdSnap := env.Snapshot()
	if err := cmd.Execute(t.txContext(env, tx.Module, tx, assets, consensus)); err != nil {
		env.Log.Debug("command failed", "module", tx.Module, "command", tx.Command, "err", err)
		env.RestoreSnapshot(cmdSnap)
		result = abi.TxExecResultFail
	} else {
		env.DiscardSnapshot(cmdSnap)
	}
	data, _ := codec.Marshal(&CommandResult{Success: result == abi.TxExecResultOK})
	env.Events.Add(tx.Module, EventCommandExecutionResult, data, [][]byte{tx.ID()})

	for _, m := range t.modules {
		hooks, ok := m.(CommandExecutionHooks)
		if !ok {
			continue
		}
		if err := hooks.AfterCommandExecute(t.txContext(env, m.Name(), tx, assets, consensus)); err != nil {
			return invalid(errors.Wrapf(err, "after command of %s", m.Name()))
		}
	}
	env.DiscardSnapshot(txSnap)
	return result
}
