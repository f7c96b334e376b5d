// Package client is the engine side of the abi: one call per abi method,
// correlated with the application's replies by request id.
package client

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/abi/codec"
	"github.com/xuperchain/xabi/kernel/abi/transport"
	"github.com/xuperchain/xabi/kernel/common/xconfig"
	"github.com/xuperchain/xabi/lib/logs"
	"github.com/xuperchain/xabi/lib/metrics"
)

const SubModName = "abi_client"

type Config struct {
	Endpoint       string
	ConnectTimeout time.Duration
	CallTimeout    time.Duration
}

func NewConfig(appCfg *xconfig.AppConf) *Config {
	return &Config{
		Endpoint:       appCfg.Endpoint,
		ConnectTimeout: appCfg.ConnectTimeout(),
		CallTimeout:    appCfg.CallTimeout(),
	}
}

type Client struct {
	conf *Config
	log  logs.Logger

	mu     sync.RWMutex
	dealer *transport.Dealer

	// last issued request id
	counter uint64
	// request id => chan *abi.IPCResponse
	pending *cache.Cache
}

func NewClient(conf *Config, log logs.Logger) *Client {
	if conf.ConnectTimeout <= 0 {
		conf.ConnectTimeout = xconfig.DefConnectTimeoutMs * time.Millisecond
	}
	if conf.CallTimeout <= 0 {
		conf.CallTimeout = xconfig.DefCallTimeoutMs * time.Millisecond
	}
	// abandoned entries are reaped after twice the call timeout
	ttl := 2 * conf.CallTimeout
	return &Client{
		conf:    conf,
		log:     log,
		pending: cache.New(ttl, ttl),
	}
}

// Connect dials the application and starts the read loop
func (t *Client) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dealer != nil {
		return nil
	}

	dctx, cancel := context.WithTimeout(ctx, t.conf.ConnectTimeout)
	defer cancel()
	dealer, err := transport.Dial(dctx, t.conf.Endpoint)
	if err != nil {
		t.log.Warn("connect abi server failed", "endpoint", t.conf.Endpoint, "err", err)
		return abi.ErrConnectTimeout.More("server %s not ready in %v: %v",
			t.conf.Endpoint, t.conf.ConnectTimeout, err)
	}
	t.dealer = dealer
	go t.readLoop(dealer)

	t.log.Info("abi client connected", "endpoint", t.conf.Endpoint)
	return nil
}

// Disconnect closes the socket and forgets every pending call. Callers still
// waiting run into their own timeout.
func (t *Client) Disconnect() error {
	t.mu.Lock()
	dealer := t.dealer
	t.dealer = nil
	t.mu.Unlock()

	t.pending.Flush()
	atomic.StoreUint64(&t.counter, 0)
	metrics.ClientPendingGauge.Set(0)
	if dealer == nil {
		return nil
	}
	t.log.Info("abi client disconnected", "endpoint", t.conf.Endpoint)
	return dealer.Close()
}

func (t *Client) getDealer() *transport.Dealer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dealer
}

func (t *Client) isCurrent(dealer *transport.Dealer) bool {
	return t.getDealer() == dealer
}

func idKey(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// nextID wraps to 0 after MaxUint64
func (t *Client) nextID() uint64 {
	return atomic.AddUint64(&t.counter, 1)
}

func (t *Client) readLoop(dealer *transport.Dealer) {
	for {
		data, err := dealer.Recv()
		if err != nil {
			if t.isCurrent(dealer) {
				t.log.Warn("abi client read loop exit", "endpoint", t.conf.Endpoint, "err", err)
			}
			return
		}

		resp := new(abi.IPCResponse)
		if err := codec.Unmarshal(data, resp); err != nil {
			t.log.Warn("decode response failed, frame skipped", "size", len(data), "err", err)
			continue
		}

		key := idKey(resp.ID)
		v, ok := t.pending.Get(key)
		if !ok {
			metrics.ClientDroppedCounter.Inc()
			t.log.Debug("response without pending request dropped", "id", resp.ID)
			continue
		}
		t.pending.Delete(key)
		metrics.ClientPendingGauge.Set(float64(t.pending.ItemCount()))

		select {
		case v.(chan *abi.IPCResponse) <- resp:
		default:
		}
	}
}

func (t *Client) call(ctx context.Context, method string, req, resp codec.Message) (err error) {
	begin := time.Now()
	status := metrics.StatusSucc
	defer func() {
		if err != nil && status == metrics.StatusSucc {
			status = metrics.StatusFail
		}
		metrics.ClientCallCounter.WithLabelValues(method, status).Inc()
		metrics.ClientCallHistogram.WithLabelValues(method).Observe(time.Since(begin).Seconds())
	}()

	dealer := t.getDealer()
	if dealer == nil {
		return abi.ErrNotConnected
	}

	params, err := codec.Marshal(req)
	if err != nil {
		return errors.Wrapf(err, "encode %s request", method)
	}
	id := t.nextID()
	data, err := codec.Marshal(&abi.IPCRequest{ID: id, Method: method, Params: params})
	if err != nil {
		return errors.Wrapf(err, "encode %s envelope", method)
	}

	key := idKey(id)
	ch := make(chan *abi.IPCResponse, 1)
	t.pending.Set(key, ch, cache.DefaultExpiration)
	metrics.ClientPendingGauge.Set(float64(t.pending.ItemCount()))
	if err := dealer.Send(data); err != nil {
		t.pending.Delete(key)
		return errors.Wrapf(err, "send %s request", method)
	}

	timer := time.NewTimer(t.conf.CallTimeout)
	defer timer.Stop()
	select {
	case ipcResp := <-ch:
		if !ipcResp.Success {
			return errors.New(ipcResp.Error.Message)
		}
		if err := codec.Unmarshal(ipcResp.Result, resp); err != nil {
			return errors.Wrapf(err, "decode %s response", method)
		}
		return nil
	case <-timer.C:
		// the pending entry stays, a late reply is dropped by the read loop
		status = metrics.StatusTimeout
		t.log.Warn("abi call timeout", "method", method, "id", id, "timeout", t.conf.CallTimeout)
		return abi.ErrTimeout.More("method:%s id:%d", method, id)
	case <-ctx.Done():
		return ctx.Err()
	}
}
