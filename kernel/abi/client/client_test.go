package client

import (
	"context"
	"math"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/abi/codec"
	"github.com/xuperchain/xabi/kernel/abi/transport"
	"github.com/xuperchain/xabi/lib/logs"
)

type fakeServer struct {
	t      *testing.T
	router *transport.Router
}

type inbound struct {
	sender string
	req    *abi.IPCRequest
}

func (f *fakeServer) next() *inbound {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	msg, err := f.router.Recv(ctx)
	require.NoError(f.t, err)

	req := new(abi.IPCRequest)
	require.NoError(f.t, codec.Unmarshal(msg.Data, req))
	return &inbound{sender: msg.Sender, req: req}
}

func (f *fakeServer) reply(in *inbound, result codec.Message) {
	data, err := codec.Marshal(result)
	require.NoError(f.t, err)
	f.send(in.sender, abi.NewSuccessResponse(in.req.ID, data))
}

func (f *fakeServer) send(sender string, resp *abi.IPCResponse) {
	data, err := codec.Marshal(resp)
	require.NoError(f.t, err)
	require.NoError(f.t, f.router.Send(sender, data))
}

func setup(t *testing.T, callTimeout time.Duration) (*Client, *fakeServer) {
	log, err := logs.NewLogger("", "client_test")
	require.NoError(t, err)

	endpoint := "ipc://" + filepath.Join(t.TempDir(), "abi.ipc")
	router := transport.NewRouter(endpoint, log)
	require.NoError(t, router.Bind())
	t.Cleanup(router.Close)

	cli := NewClient(&Config{
		Endpoint:       endpoint,
		ConnectTimeout: 3 * time.Second,
		CallTimeout:    callTimeout,
	}, log)
	require.NoError(t, cli.Connect(context.Background()))
	t.Cleanup(func() { cli.Disconnect() })

	return cli, &fakeServer{t: t, router: router}
}

type result struct {
	resp interface{}
	err  error
}

func TestCall(t *testing.T) {
	cli, srv := setup(t, 3*time.Second)

	done := make(chan result, 1)
	go func() {
		resp, err := cli.GetMetadata(context.Background(), &abi.GetMetadataRequest{})
		done <- result{resp, err}
	}()

	in := srv.next()
	assert.Equal(t, abi.MethodGetMetadata, in.req.Method)
	// empty schema travels as zero bytes
	assert.Len(t, in.req.Params, 0)
	srv.reply(in, &abi.GetMetadataResponse{Data: []byte(`{"modules":[]}`)})

	r := <-done
	require.NoError(t, r.err)
	assert.Equal(t, []byte(`{"modules":[]}`), r.resp.(*abi.GetMetadataResponse).Data)
}

func TestCallRemoteError(t *testing.T) {
	cli, srv := setup(t, 3*time.Second)

	done := make(chan error, 1)
	go func() {
		_, err := cli.Commit(context.Background(), &abi.CommitRequest{ContextID: []byte{1}})
		done <- err
	}()

	in := srv.next()
	req := new(abi.CommitRequest)
	require.NoError(t, codec.Unmarshal(in.req.Params, req))
	assert.Equal(t, []byte{1}, req.ContextID)
	srv.send(in.sender, abi.NewErrorResponse(in.req.ID, "invalid context"))

	err := <-done
	require.Error(t, err)
	assert.Equal(t, "invalid context", err.Error())
}

// replies arriving out of order are matched by id
func TestOutOfOrderReplies(t *testing.T) {
	cli, srv := setup(t, 3*time.Second)
	atomic.StoreUint64(&cli.counter, 4)

	metaDone := make(chan result, 1)
	queryDone := make(chan result, 1)
	go func() {
		resp, err := cli.GetMetadata(context.Background(), &abi.GetMetadataRequest{})
		metaDone <- result{resp, err}
	}()
	first := srv.next()
	go func() {
		resp, err := cli.Query(context.Background(), &abi.QueryRequest{Method: "token_getBalance", Params: []byte{}})
		queryDone <- result{resp, err}
	}()
	second := srv.next()
	require.Equal(t, uint64(5), first.req.ID)
	require.Equal(t, uint64(6), second.req.ID)

	srv.reply(second, &abi.QueryResponse{Data: []byte("q")})
	r := <-queryDone
	require.NoError(t, r.err)
	assert.Equal(t, []byte("q"), r.resp.(*abi.QueryResponse).Data)

	_, stillPending := cli.pending.Get(idKey(5))
	assert.True(t, stillPending)
	select {
	case <-metaDone:
		t.Fatal("call 5 resolved by reply 6")
	default:
	}

	srv.reply(first, &abi.GetMetadataResponse{Data: []byte("m")})
	r = <-metaDone
	require.NoError(t, r.err)
	assert.Equal(t, []byte("m"), r.resp.(*abi.GetMetadataResponse).Data)
}

func TestTimeoutAndLateReply(t *testing.T) {
	cli, srv := setup(t, 100*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		_, err := cli.Finalize(context.Background(), &abi.FinalizeRequest{FinalizedHeight: 3})
		done <- err
	}()
	late := srv.next()

	err := <-done
	require.Error(t, err)
	assert.ErrorIs(t, err, abi.ErrTimeout)

	// the late reply is swallowed and the client keeps working
	srv.reply(late, &abi.FinalizeResponse{})
	go func() {
		_, err := cli.Clear(context.Background(), &abi.ClearRequest{})
		done <- err
	}()
	in := srv.next()
	srv.reply(in, &abi.ClearResponse{})
	require.NoError(t, <-done)
	_, found := cli.pending.Get(idKey(late.req.ID))
	assert.False(t, found)
}

func TestBadFramesAndUnknownIds(t *testing.T) {
	cli, srv := setup(t, 3*time.Second)

	done := make(chan error, 1)
	go func() {
		_, err := cli.Clear(context.Background(), &abi.ClearRequest{})
		done <- err
	}()
	in := srv.next()

	require.NoError(t, srv.router.Send(in.sender, []byte{0xff, 0xff, 0xff}))
	srv.send(in.sender, abi.NewSuccessResponse(in.req.ID+100, []byte{}))
	srv.reply(in, &abi.ClearResponse{})
	require.NoError(t, <-done)
}

func TestDisconnect(t *testing.T) {
	cli, srv := setup(t, 3*time.Second)

	go cli.Clear(context.Background(), &abi.ClearRequest{})
	srv.next()
	assert.Equal(t, 1, cli.pending.ItemCount())

	require.NoError(t, cli.Disconnect())
	assert.Equal(t, 0, cli.pending.ItemCount())
	assert.Equal(t, uint64(0), atomic.LoadUint64(&cli.counter))

	_, err := cli.Clear(context.Background(), &abi.ClearRequest{})
	assert.ErrorIs(t, err, abi.ErrNotConnected)
	// disconnecting twice is fine
	assert.NoError(t, cli.Disconnect())
}

func TestIDWraparound(t *testing.T) {
	cli := NewClient(&Config{Endpoint: "ipc:///tmp/unused.ipc"}, nil)
	atomic.StoreUint64(&cli.counter, math.MaxUint64-1)
	assert.Equal(t, uint64(math.MaxUint64), cli.nextID())
	assert.Equal(t, uint64(0), cli.nextID())
	assert.Equal(t, uint64(1), cli.nextID())
}

func TestConnectTimeout(t *testing.T) {
	log, err := logs.NewLogger("", "client_test")
	require.NoError(t, err)
	endpoint := "ipc://" + filepath.Join(t.TempDir(), "nobody.ipc")
	cli := NewClient(&Config{Endpoint: endpoint, ConnectTimeout: 100 * time.Millisecond}, log)

	err = cli.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, abi.ErrConnectTimeout)
	assert.Contains(t, err.Error(), endpoint)
}
