package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/abi/client"
	"github.com/xuperchain/xabi/server/rpc"
)

func TestEndToEnd(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, e.handler.Ready())

	endpoint := "ipc://" + filepath.Join(t.TempDir(), "abi.ipc")
	serv, err := rpc.NewRpcServMG(endpoint, e.handler)
	require.NoError(t, err)
	require.NoError(t, serv.Start())
	defer serv.Stop()

	cli := client.NewClient(&client.Config{
		Endpoint:       endpoint,
		ConnectTimeout: 3 * time.Second,
		CallTimeout:    3 * time.Second,
	}, e.handler.log)
	ctx := context.Background()
	require.NoError(t, cli.Connect(ctx))
	defer cli.Disconnect()

	_, err = cli.Init(ctx, &abi.InitRequest{ChainID: []byte{0, 0, 0, 1}, LastStateRoot: []byte{}})
	require.NoError(t, err)

	res, err := cli.InitStateMachine(ctx, &abi.InitStateMachineRequest{Header: header(0, []byte{})})
	require.NoError(t, err)
	_, err = cli.InitGenesisState(ctx, &abi.InitGenesisStateRequest{ContextID: res.ContextID})
	require.NoError(t, err)

	// a wrong id comes back as a failed response carrying the message
	_, err = cli.Commit(ctx, &abi.CommitRequest{ContextID: []byte{0xde, 0xad, 0xbe, 0xef}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), abi.ErrInvalidContext.Msg)

	commit, err := cli.Commit(ctx, &abi.CommitRequest{ContextID: res.ContextID, StateRoot: []byte{}, ExpectedStateRoot: []byte{}})
	require.NoError(t, err)
	assert.Len(t, commit.StateRoot, 32)

	// clear twice, empty schemas both ways
	_, err = cli.Clear(ctx, &abi.ClearRequest{})
	require.NoError(t, err)
	_, err = cli.Clear(ctx, &abi.ClearRequest{})
	require.NoError(t, err)
	assert.False(t, e.handler.HasContext())

	_, err = cli.Finalize(ctx, &abi.FinalizeRequest{FinalizedHeight: 0})
	require.NoError(t, err)
	assert.Empty(t, e.store.finalized)

	meta, err := cli.GetMetadata(ctx, &abi.GetMetadataRequest{})
	require.NoError(t, err)
	assert.Contains(t, string(meta.Data), `"name":"random"`)

	q, err := cli.Query(ctx, &abi.QueryRequest{Method: "validators_getValidators", Params: []byte{}})
	require.NoError(t, err)
	assert.Contains(t, string(q.Data), `"bftWeight":3`)

	proof, err := cli.Prove(ctx, &abi.ProveRequest{StateRoot: commit.StateRoot, Keys: [][]byte{[]byte("token/minFee")}})
	require.NoError(t, err)
	require.Len(t, proof.Proof.Queries, 1)
	assert.True(t, proof.Proof.Queries[0].Exists)

	_, err = cli.Init(ctx, &abi.InitRequest{ChainID: []byte{9}})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, abi.ErrTimeout))
}
