package app

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuperchain/xabi/bcs/module/random"
	"github.com/xuperchain/xabi/bcs/module/token"
	"github.com/xuperchain/xabi/bcs/module/validators"
	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/abi/codec"
	"github.com/xuperchain/xabi/kernel/common/xconfig"
	"github.com/xuperchain/xabi/kernel/state"
	"github.com/xuperchain/xabi/kernel/statemachine"
	"github.com/xuperchain/xabi/lib/logs"
	"github.com/xuperchain/xabi/lib/storage/kvdb"
	_ "github.com/xuperchain/xabi/lib/storage/kvdb/leveldb"
)

var (
	senderKey = []byte("sender public key")
	sender    = abi.AddressFromPublicKey(senderKey)
	recipient = abi.AddressFromPublicKey([]byte("recipient public key"))
)

type fakeConf struct {
	chainID string
	genesis *xconfig.Genesis
}

func (f *fakeConf) LoadAppConf() (*xconfig.AppConf, error) {
	conf := xconfig.GetDefAppConf()
	conf.ChainID = f.chainID
	return conf, nil
}

func (f *fakeConf) LoadGenesis() (*xconfig.Genesis, error) {
	if f.genesis == nil {
		return nil, errors.New("no genesis")
	}
	return f.genesis, nil
}

// spyStore counts finalize calls
type spyStore struct {
	*state.Store
	finalized []uint32
}

func (s *spyStore) Finalize(height uint32) error {
	s.finalized = append(s.finalized, height)
	return s.Store.Finalize(height)
}

type testEnv struct {
	handler  *ABIHandler
	conf     *fakeConf
	store    *spyStore
	moduleDB kvdb.Database
}

func testGenesis() *xconfig.Genesis {
	tokenData := fmt.Sprintf(`{"balances":[{"address":"%s","amount":1000}],"minFee":1}`, hex.EncodeToString(sender))
	return &xconfig.Genesis{
		Height: 0,
		Assets: []*xconfig.GenesisAsset{
			{Module: token.ModuleName, Data: json.RawMessage(tokenData)},
			{Module: validators.ModuleName, Data: json.RawMessage(`{"validators":[{"address":"aa","bftWeight":3,"generatorKey":"","blsKey":""}]}`)},
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	log, err := logs.NewLogger("", SubModName)
	require.NoError(t, err)
	st, err := state.NewStore(&state.Config{StorageType: state.StorageTypeMem}, log)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	moduleDB, err := kvdb.CreateKVInstance(&kvdb.KVParameter{
		KVEngineType: kvdb.KVEngineTypeLDB,
		StorageType:  kvdb.StorageTypeMemory,
	})
	require.NoError(t, err)
	t.Cleanup(moduleDB.Close)

	sm := statemachine.NewStateMachine()
	// registration order differs from name order on purpose
	require.NoError(t, sm.Register(validators.NewModule()))
	require.NoError(t, sm.Register(token.NewModule()))
	require.NoError(t, sm.Register(random.NewModule()))

	conf := &fakeConf{chainID: "0x00000001", genesis: testGenesis()}
	store := &spyStore{Store: st}
	return &testEnv{
		handler:  NewABIHandler(conf, store, moduleDB, sm, log),
		conf:     conf,
		store:    store,
		moduleDB: moduleDB,
	}
}

func header(height uint32, prev []byte) *abi.BlockHeader {
	return &abi.BlockHeader{Height: height, PreviousBlockID: prev, Timestamp: 100 + height}
}

func transferTx(t *testing.T, nonce, amount uint64) *abi.Transaction {
	params, err := codec.Marshal(&token.TransferParams{Amount: amount, RecipientAddress: recipient})
	require.NoError(t, err)
	return &abi.Transaction{
		Module:          token.ModuleName,
		Command:         token.CommandTransfer,
		Nonce:           nonce,
		Fee:             1,
		SenderPublicKey: senderKey,
		Params:          params,
	}
}

// genesis opens, initializes and commits height 0
func (e *testEnv) genesis(t *testing.T) []byte {
	ctx := context.Background()
	h := e.handler
	require.NoError(t, h.Ready())
	ctxRes, err := h.InitStateMachine(ctx, &abi.InitStateMachineRequest{Header: header(0, nil)})
	require.NoError(t, err)
	gen, err := h.InitGenesisState(ctx, &abi.InitGenesisStateRequest{ContextID: ctxRes.ContextID})
	require.NoError(t, err)
	require.Len(t, gen.NextValidators, 1)
	assert.Equal(t, uint64(3), gen.PreCommitThreshold)
	require.Len(t, gen.Assets, 2)
	assert.Equal(t, token.ModuleName, gen.Assets[0].Module)

	commit, err := h.Commit(ctx, &abi.CommitRequest{ContextID: ctxRes.ContextID})
	require.NoError(t, err)
	_, err = h.Clear(ctx, &abi.ClearRequest{})
	require.NoError(t, err)
	return commit.StateRoot
}

func TestReady(t *testing.T) {
	e := newTestEnv(t)
	var got []byte
	require.NoError(t, e.handler.Subscribe(TopicReady, func(chainID []byte) { got = chainID }))

	_, err := e.handler.Init(context.Background(), &abi.InitRequest{})
	assert.True(t, errors.Is(err, abi.ErrChainIDNotSet))

	require.NoError(t, e.handler.Ready())
	assert.Equal(t, []byte{0, 0, 0, 1}, got)

	// read again from config on every call
	e.conf.chainID = "0x00000002"
	require.NoError(t, e.handler.Ready())
	assert.Equal(t, []byte{0, 0, 0, 2}, got)

	e.conf.chainID = ""
	assert.Error(t, e.handler.Ready())
}

func TestInit(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, e.handler.Ready())
	chainID := []byte{0, 0, 0, 1}

	_, err := e.handler.Init(ctx, &abi.InitRequest{ChainID: chainID})
	assert.NoError(t, err)
	_, err = e.handler.Init(ctx, &abi.InitRequest{ChainID: []byte{9}})
	assert.True(t, errors.Is(err, abi.ErrChainMismatch))

	root := e.genesis(t)
	_, err = e.handler.Init(ctx, &abi.InitRequest{ChainID: chainID, LastBlockHeight: 0, LastStateRoot: root})
	assert.NoError(t, err)
	_, err = e.handler.Init(ctx, &abi.InitRequest{ChainID: chainID, LastBlockHeight: 1, LastStateRoot: root})
	assert.True(t, errors.Is(err, abi.ErrChainMismatch))
}

// Scenario A
func TestCommitContextIdentity(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	root0 := e.genesis(t)

	res, err := e.handler.InitStateMachine(ctx, &abi.InitStateMachineRequest{Header: header(1, []byte("b0"))})
	require.NoError(t, err)
	assert.Equal(t, header(1, []byte("b0")).Hash(), res.ContextID)

	_, err = e.handler.Commit(ctx, &abi.CommitRequest{ContextID: []byte{0xde, 0xad, 0xbe, 0xef}, StateRoot: root0})
	assert.True(t, errors.Is(err, abi.ErrInvalidContext))

	commit, err := e.handler.Commit(ctx, &abi.CommitRequest{ContextID: res.ContextID, StateRoot: root0})
	require.NoError(t, err)
	assert.NotEmpty(t, commit.StateRoot)
}

func TestContextGuards(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.genesis(t)

	_, err := e.handler.InsertAssets(ctx, &abi.InsertAssetsRequest{ContextID: []byte("x")})
	assert.True(t, errors.Is(err, abi.ErrNoContext))
	_, err = e.handler.Commit(ctx, &abi.CommitRequest{ContextID: []byte("x")})
	assert.True(t, errors.Is(err, abi.ErrNoContext))
	_, err = e.handler.ExecuteTransaction(ctx, &abi.ExecuteTransactionRequest{ContextID: []byte("x"), Transaction: transferTx(t, 0, 1)})
	assert.True(t, errors.Is(err, abi.ErrNoContext))

	res, err := e.handler.InitStateMachine(ctx, &abi.InitStateMachineRequest{Header: header(1, nil)})
	require.NoError(t, err)
	_, err = e.handler.InitStateMachine(ctx, &abi.InitStateMachineRequest{Header: header(2, nil)})
	assert.True(t, errors.Is(err, abi.ErrContextExists))
	assert.Contains(t, err.Error(), hex.EncodeToString(res.ContextID))

	_, err = e.handler.BeforeTransactionsExecute(ctx, &abi.BeforeTransactionsExecuteRequest{ContextID: []byte("x")})
	assert.True(t, errors.Is(err, abi.ErrInvalidContext))
	_, err = e.handler.Revert(ctx, &abi.RevertRequest{ContextID: []byte("x")})
	assert.True(t, errors.Is(err, abi.ErrInvalidContext))
}

func TestClearIdempotent(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	_, err := e.handler.Clear(ctx, &abi.ClearRequest{})
	require.NoError(t, err)
	_, err = e.handler.Clear(ctx, &abi.ClearRequest{})
	require.NoError(t, err)
	assert.False(t, e.handler.HasContext())

	_, err = e.handler.InitStateMachine(ctx, &abi.InitStateMachineRequest{Header: header(0, nil)})
	require.NoError(t, err)
	assert.True(t, e.handler.HasContext())
	_, err = e.handler.Clear(ctx, &abi.ClearRequest{})
	require.NoError(t, err)
	assert.False(t, e.handler.HasContext())
}

func TestBlockLifecycle(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	h := e.handler
	root0 := e.genesis(t)

	hdr := header(1, []byte("b0"))
	res, err := h.InitStateMachine(ctx, &abi.InitStateMachineRequest{Header: hdr})
	require.NoError(t, err)
	id := res.ContextID

	inserted, err := h.InsertAssets(ctx, &abi.InsertAssetsRequest{ContextID: id})
	require.NoError(t, err)
	require.Len(t, inserted.Assets, 1)
	assert.Equal(t, random.ModuleName, inserted.Assets[0].Module)
	_, err = h.VerifyAssets(ctx, &abi.VerifyAssetsRequest{ContextID: id, Assets: inserted.Assets})
	require.NoError(t, err)
	_, err = h.VerifyAssets(ctx, &abi.VerifyAssetsRequest{ContextID: id, Assets: []*abi.BlockAsset{{Module: random.ModuleName, Data: []byte("x")}}})
	assert.Error(t, err)

	consensus := &abi.Consensus{CurrentValidators: []*abi.Validator{{Address: []byte("aa"), BftWeight: 3}}, CertificateThreshold: 3}
	_, err = h.BeforeTransactionsExecute(ctx, &abi.BeforeTransactionsExecuteRequest{ContextID: id, Assets: inserted.Assets, Consensus: consensus})
	require.NoError(t, err)

	tx := transferTx(t, 0, 100)
	verify, err := h.VerifyTransaction(ctx, &abi.VerifyTransactionRequest{ContextID: id, Transaction: tx})
	require.NoError(t, err)
	assert.Equal(t, abi.VerifyStatusOK, verify.Result)

	exec, err := h.ExecuteTransaction(ctx, &abi.ExecuteTransactionRequest{ContextID: id, Transaction: tx, Assets: inserted.Assets, Consensus: consensus})
	require.NoError(t, err)
	assert.Equal(t, abi.TxExecResultOK, exec.Result)
	assert.Equal(t, statemachine.EventCommandExecutionResult, exec.Events[len(exec.Events)-1].Name)

	// the same nonce is now used inside the context
	verify, err = h.VerifyTransaction(ctx, &abi.VerifyTransactionRequest{ContextID: id, Transaction: tx})
	require.NoError(t, err)
	assert.Equal(t, abi.VerifyStatusFail, verify.Result)
	assert.Equal(t, 0, h.execCtx.stateStore.SnapshotCount())
	assert.Equal(t, 0, h.execCtx.moduleStore.SnapshotCount())

	after, err := h.AfterTransactionsExecute(ctx, &abi.AfterTransactionsExecuteRequest{
		ContextID: id, Assets: inserted.Assets, Consensus: consensus, Transactions: []*abi.Transaction{tx}})
	require.NoError(t, err)
	require.Len(t, after.NextValidators, 1)

	dry, err := h.Commit(ctx, &abi.CommitRequest{ContextID: id, StateRoot: root0, DryRun: true})
	require.NoError(t, err)
	_, err = h.Commit(ctx, &abi.CommitRequest{ContextID: id, StateRoot: root0, ExpectedStateRoot: []byte("wrong")})
	assert.True(t, errors.Is(err, abi.ErrRootMismatch))
	commit, err := h.Commit(ctx, &abi.CommitRequest{ContextID: id, StateRoot: root0, ExpectedStateRoot: dry.StateRoot})
	require.NoError(t, err)
	assert.Equal(t, dry.StateRoot, commit.StateRoot)

	// balances through query
	q, _ := json.Marshal(map[string]string{"address": hex.EncodeToString(recipient)})
	out, err := h.Query(ctx, &abi.QueryRequest{Method: "token_getBalance", Params: q})
	require.NoError(t, err)
	assert.Contains(t, string(out.Data), `"balance":100`)

	// proofs against the committed root
	proof, err := h.Prove(ctx, &abi.ProveRequest{StateRoot: commit.StateRoot, Keys: [][]byte{[]byte("random/seed"), []byte("none")}})
	require.NoError(t, err)
	require.Len(t, proof.Proof.Queries, 2)
	assert.True(t, proof.Proof.Queries[0].Exists)
	assert.False(t, proof.Proof.Queries[1].Exists)
	for _, query := range proof.Proof.Queries {
		assert.True(t, state.VerifyProof(commit.StateRoot, query))
	}

	// revert height 1 back to genesis
	_, err = h.Revert(ctx, &abi.RevertRequest{ContextID: id, StateRoot: commit.StateRoot, ExpectedStateRoot: []byte("wrong")})
	assert.True(t, errors.Is(err, abi.ErrRootMismatch))
	height, cur, _ := e.store.Current()
	assert.Equal(t, uint32(1), height)
	assert.Equal(t, commit.StateRoot, cur)
}

func TestRevert(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	h := e.handler
	root0 := e.genesis(t)

	res, err := h.InitStateMachine(ctx, &abi.InitStateMachineRequest{Header: header(1, nil)})
	require.NoError(t, err)
	_, err = h.ExecuteTransaction(ctx, &abi.ExecuteTransactionRequest{ContextID: res.ContextID, Transaction: transferTx(t, 0, 5)})
	require.NoError(t, err)
	commit, err := h.Commit(ctx, &abi.CommitRequest{ContextID: res.ContextID, StateRoot: root0})
	require.NoError(t, err)

	reverted, err := h.Revert(ctx, &abi.RevertRequest{ContextID: res.ContextID, StateRoot: commit.StateRoot, ExpectedStateRoot: root0})
	require.NoError(t, err)
	assert.Equal(t, root0, reverted.StateRoot)
	height, root, _ := e.store.Current()
	assert.Equal(t, uint32(0), height)
	assert.Equal(t, root0, root)
}

func TestDryRun(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	h := e.handler
	e.genesis(t)

	verify, err := h.VerifyTransaction(ctx, &abi.VerifyTransactionRequest{Transaction: transferTx(t, 0, 10)})
	require.NoError(t, err)
	assert.Equal(t, abi.VerifyStatusOK, verify.Result)

	verify, err = h.VerifyTransaction(ctx, &abi.VerifyTransactionRequest{Transaction: transferTx(t, 5, 10)})
	require.NoError(t, err)
	assert.Equal(t, abi.VerifyStatusPending, verify.Result)
	assert.NotEmpty(t, verify.ErrorMessage)

	// dry run works with a context open and leaves it untouched
	res, err := h.InitStateMachine(ctx, &abi.InitStateMachineRequest{Header: header(1, nil)})
	require.NoError(t, err)
	exec, err := h.ExecuteTransaction(ctx, &abi.ExecuteTransactionRequest{DryRun: true, Transaction: transferTx(t, 0, 10), Header: header(1, nil)})
	require.NoError(t, err)
	assert.Equal(t, abi.TxExecResultOK, exec.Result)
	assert.NotEmpty(t, exec.Events)
	assert.Empty(t, e.handler.execCtx.stateStore.WriteSet())

	exec, err = h.ExecuteTransaction(ctx, &abi.ExecuteTransactionRequest{DryRun: true, Transaction: transferTx(t, 0, 5000), Header: header(1, nil)})
	require.NoError(t, err)
	assert.Equal(t, abi.TxExecResultFail, exec.Result)

	exec, err = h.ExecuteTransaction(ctx, &abi.ExecuteTransactionRequest{DryRun: true, Transaction: transferTx(t, 7, 10), Header: header(1, nil)})
	require.NoError(t, err)
	assert.Equal(t, abi.TxExecResultInvalid, exec.Result)
	assert.Empty(t, exec.Events)

	_, err = h.Clear(ctx, &abi.ClearRequest{})
	require.NoError(t, err)
	_ = res
}

func TestDryRunNeedsChainID(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.handler.VerifyTransaction(context.Background(), &abi.VerifyTransactionRequest{Transaction: transferTx(t, 0, 1)})
	assert.True(t, errors.Is(err, abi.ErrChainIDNotSet))
}

// Scenario B
func TestFinalizeZero(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	_, err := e.handler.Finalize(ctx, &abi.FinalizeRequest{FinalizedHeight: 0})
	require.NoError(t, err)
	assert.Empty(t, e.store.finalized)

	e.genesis(t)
	_, err = e.handler.Finalize(ctx, &abi.FinalizeRequest{FinalizedHeight: 1})
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, e.store.finalized)
}

// Scenario E
func TestGetMetadataSorted(t *testing.T) {
	e := newTestEnv(t)
	res, err := e.handler.GetMetadata(context.Background(), &abi.GetMetadataRequest{})
	require.NoError(t, err)

	var meta struct {
		Modules []struct {
			Name     string   `json:"name"`
			Commands []string `json:"commands"`
		} `json:"modules"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &meta))
	require.Len(t, meta.Modules, 3)
	assert.Equal(t, "random", meta.Modules[0].Name)
	assert.Equal(t, "token", meta.Modules[1].Name)
	assert.Equal(t, "validators", meta.Modules[2].Name)
	assert.Equal(t, []string{token.CommandTransfer}, meta.Modules[1].Commands)
}

func TestQueryError(t *testing.T) {
	e := newTestEnv(t)
	res, err := e.handler.Query(context.Background(), &abi.QueryRequest{Method: "nope_nothing"})
	require.NoError(t, err)

	var out struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &out))
	assert.Contains(t, out.Error.Message, "nope_nothing")
}

func TestModuleStorePersistedOnCommit(t *testing.T) {
	e := newTestEnv(t)
	e.genesis(t)
	// validator keys from genesis live in the module db, not the state
	val, err := e.moduleDB.Get([]byte("validators/keys/\xaa"))
	require.NoError(t, err)
	assert.NotNil(t, val)
	stateVal, err := e.store.Get([]byte("validators/keys/\xaa"))
	require.NoError(t, err)
	assert.Nil(t, stateVal)
}
