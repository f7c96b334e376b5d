package rpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/abi/codec"
	"github.com/xuperchain/xabi/kernel/abi/transport"
	"github.com/xuperchain/xabi/lib/logs"
	"github.com/xuperchain/xabi/lib/metrics"
	"github.com/xuperchain/xabi/lib/utils"
	sctx "github.com/xuperchain/xabi/server/context"
)

// RpcServ decodes abi requests, dispatches them by method name and
// replies to the sender. It is the only consumer of the router, so
// handlers run one at a time in arrival order.
type RpcServ struct {
	router   *transport.Router
	handlers map[string]*methodEntry
	log      logs.Logger
}

func NewRpcServ(router *transport.Router, app abi.ABI, log logs.Logger) *RpcServ {
	return &RpcServ{
		router:   router,
		handlers: newDispatchTable(app),
		log:      log,
	}
}

// Serve runs until ctx is done or the router is closed
func (t *RpcServ) Serve(ctx context.Context) error {
	for {
		msg, err := t.router.Recv(ctx)
		if errors.Is(err, transport.ErrClosed) || errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}

		resp := t.process(ctx, msg)
		data, err := codec.Marshal(resp)
		if err != nil {
			t.log.Error("encode response envelope failed", "id", resp.ID, "err", err)
			continue
		}
		if err := t.router.Send(msg.Sender, data); err != nil {
			t.log.Warn("send response failed", "id", resp.ID, "sender", msg.Sender, "err", err)
		}
	}
}

func (t *RpcServ) process(ctx context.Context, msg *transport.Message) *abi.IPCResponse {
	req := new(abi.IPCRequest)
	if err := codec.Unmarshal(msg.Data, req); err != nil {
		t.log.Warn("decode request envelope failed", "sender", msg.Sender, "size", len(msg.Data), "err", err)
		metrics.ServerHandledCounter.WithLabelValues("unknown", metrics.StatusFail).Inc()
		return abi.NewErrorResponse(0, abi.ErrDecodeRequest.Error())
	}

	rctx, err := t.access(ctx, msg.Sender, req)
	if err != nil {
		return abi.NewErrorResponse(req.ID, err.Error())
	}

	result, err := t.dispatch(rctx, req)
	var resp *abi.IPCResponse
	if err != nil {
		resp = abi.NewErrorResponse(req.ID, err.Error())
	} else {
		resp = abi.NewSuccessResponse(req.ID, result)
	}
	t.ending(rctx, req, err)
	return resp
}

func (t *RpcServ) dispatch(rctx sctx.ReqCtx, req *abi.IPCRequest) (result []byte, err error) {
	entry, ok := t.handlers[req.Method]
	if !ok {
		return nil, abi.ErrMethodNotRegistered.More("%s", req.Method)
	}

	params := entry.newRequest()
	if err := codec.Unmarshal(req.Params, params); err != nil {
		return nil, abi.ErrDecodeRequest.More("method:%s err:%v", req.Method, err)
	}
	rctx.GetTimer().Mark("decode")

	result, err = t.invoke(rctx, entry, params)
	rctx.GetTimer().Mark("handle")
	if err != nil {
		return nil, err
	}
	return result, nil
}

// invoke runs the handler and encodes its response, a panic in either
// becomes an error and the serve loop never stops
func (t *RpcServ) invoke(rctx sctx.ReqCtx, entry *methodEntry,
	params codec.Message) (result []byte, err error) {
	defer func() {
		if e := recover(); e != nil {
			rctx.GetLog().Error("handler happen panic", "method", rctx.GetMethod(), "panic", e)
			result, err = nil, abi.ErrHandlerPanic.More("%v", e)
		}
	}()

	resp, err := entry.handle(rctx, params)
	if err != nil {
		return nil, err
	}
	result, err = codec.Marshal(resp)
	if err != nil {
		return nil, abi.ErrEncodeResponse.More("method:%s err:%v", rctx.GetMethod(), err)
	}
	return result, nil
}

// 请求处理前处理，创建请求上下文并输出access log
func (t *RpcServ) access(ctx context.Context, sender string, req *abi.IPCRequest) (sctx.ReqCtx, error) {
	rctx, err := sctx.NewReqCtx(ctx, fmt.Sprintf("%s_%d", utils.GenLogId(), req.ID), sender, req.Method)
	if err != nil {
		t.log.Error("access proc failed because create request context failed", "err", err)
		return nil, fmt.Errorf("create request context failed")
	}

	rctx.GetLog().Trace("received request", "method", req.Method, "id", req.ID,
		"sender", sender, "params_size", len(req.Params))
	return rctx, nil
}

// 请求完成后处理，输出ending log
func (t *RpcServ) ending(rctx sctx.ReqCtx, req *abi.IPCRequest, err error) {
	status := metrics.StatusSucc
	if err != nil {
		status = metrics.StatusFail
	}
	metrics.ServerHandledCounter.WithLabelValues(req.Method, status).Inc()
	metrics.ServerHandledHistogram.WithLabelValues(req.Method).Observe(
		float64(rctx.GetTimer().Elapsed()) / float64(time.Second))

	if err != nil {
		rctx.GetLog().Warn("request done", "method", req.Method, "id", req.ID, "succ", false,
			"err", err, "cost_time", rctx.GetTimer().Print())
		return
	}
	rctx.GetLog().Info("request done", "method", req.Method, "id", req.ID, "succ", true,
		"cost_time", rctx.GetTimer().Print())
}
