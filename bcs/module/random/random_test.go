package random

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/invoke"
	"github.com/xuperchain/xabi/kernel/state/sandbox"
	"github.com/xuperchain/xabi/kernel/statemachine"
	"github.com/xuperchain/xabi/lib/logs"
	"github.com/xuperchain/xabi/lib/storage/kvdb"
	_ "github.com/xuperchain/xabi/lib/storage/kvdb/badger"
)

type dbViews struct {
	db kvdb.Database
}

func (d *dbViews) NewReadWriter() *sandbox.View {
	return sandbox.NewView(sandbox.NewDBReader(d.db))
}

func TestSeedAsset(t *testing.T) {
	db, err := kvdb.CreateKVInstance(&kvdb.KVParameter{
		KVEngineType: kvdb.KVEngineTypeBadger,
		StorageType:  kvdb.StorageTypeMemory,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	sm := statemachine.NewStateMachine()
	require.NoError(t, sm.Register(NewModule()))
	log, _ := logs.NewLogger("", "random")
	header := &abi.BlockHeader{Height: 9, PreviousBlockID: []byte("prev")}
	views := &dbViews{db: db}
	env := &statemachine.Env{
		Log:         log,
		Header:      header,
		StateStore:  views.NewReadWriter(),
		ModuleStore: views.NewReadWriter(),
		Events:      statemachine.NewEventQueue(header.Height),
	}

	assets, err := sm.InsertAssets(env, 0)
	require.NoError(t, err)
	seed := assets.Get(ModuleName)
	assert.Len(t, seed, 32)
	assert.Equal(t, Seed(header), seed)
	require.NoError(t, sm.VerifyAssets(env, assets))

	other := statemachine.NewBlockAssets([]*abi.BlockAsset{{Module: ModuleName, Data: []byte("forged")}})
	assert.Error(t, sm.VerifyAssets(env, other))
	assert.Error(t, sm.VerifyAssets(env, statemachine.NewBlockAssets(nil)))

	require.NoError(t, sm.BeforeTransactionsExecute(env, assets, nil))
	require.NoError(t, sandbox.Persist(db, env.StateStore.WriteSet()))

	reg := invoke.NewRegistry(views, log)
	sm.RegisterEndpoints(reg)
	out, err := reg.Invoke(context.Background(), "random_getSeed", nil, nil)
	require.NoError(t, err)
	res := new(seedResult)
	require.NoError(t, json.Unmarshal(out, res))
	assert.Equal(t, hex.EncodeToString(seed), res.Seed)
	assert.Equal(t, uint32(9), res.Height)
}
