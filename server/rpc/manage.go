package rpc

import (
	"context"
	"fmt"
	"sync"

	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/abi/transport"
	"github.com/xuperchain/xabi/lib/logs"
)

const SubModName = "rpc"

// rpc server启停控制管理
type RpcServMG struct {
	endpoint string
	log      logs.Logger
	router   *transport.Router
	rpcServ  *RpcServ

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	exitCh  chan error
}

func NewRpcServMG(endpoint string, app abi.ABI) (*RpcServMG, error) {
	if app == nil {
		return nil, fmt.Errorf("new rpc server failed because app is nil")
	}
	log, err := logs.NewLogger("", SubModName)
	if err != nil {
		return nil, fmt.Errorf("new rpc server failed because new logger failed.err:%v", err)
	}

	router := transport.NewRouter(endpoint, log)
	return &RpcServMG{
		endpoint: endpoint,
		log:      log,
		router:   router,
		rpcServ:  NewRpcServ(router, app, log),
		exitCh:   make(chan error, 1),
	}, nil
}

// Start binds the socket and runs the serve loop in background
func (t *RpcServMG) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return fmt.Errorf("rpc server already started")
	}

	if err := t.router.Bind(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.running = true

	go func() {
		err := t.rpcServ.Serve(ctx)
		if err != nil {
			t.log.Error("rpc serve loop abnormal exit", "endpoint", t.endpoint, "err", err)
		} else {
			t.log.Info("rpc serve loop exit", "endpoint", t.endpoint)
		}
		t.exitCh <- err
	}()

	t.log.Info("rpc server started", "endpoint", t.endpoint)
	return nil
}

// Exit delivers the serve loop result once it returns
func (t *RpcServMG) Exit() <-chan error {
	return t.exitCh
}

// Stop closes the socket, the serve loop returns after the request in flight
func (t *RpcServMG) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false

	t.router.Close()
	t.cancel()
}
