package context

import (
	"context"
	"fmt"

	"github.com/xuperchain/xabi/kernel/common/xcontext"
	"github.com/xuperchain/xabi/lib/logs"
	"github.com/xuperchain/xabi/lib/timer"
)

const SubModName = "rpc"

// 请求级别上下文
type ReqCtx interface {
	xcontext.XContext
	GetSender() string
	GetMethod() string
}

type ReqCtxImpl struct {
	xcontext.BaseCtx
	sender string
	method string
}

func NewReqCtx(parent context.Context, reqId, sender, method string) (ReqCtx, error) {
	log, err := logs.NewLogger(reqId, SubModName)
	if err != nil {
		return nil, fmt.Errorf("new request context failed because new logger failed.err:%s", err)
	}

	ctx := &ReqCtxImpl{
		BaseCtx: *xcontext.NewBaseCtx(parent, log),
		sender:  sender,
		method:  method,
	}

	return ctx, nil
}

func (t *ReqCtxImpl) GetLog() logs.Logger {
	return t.XLog
}

func (t *ReqCtxImpl) GetTimer() *timer.XTimer {
	return t.Timer
}

func (t *ReqCtxImpl) GetSender() string {
	return t.sender
}

func (t *ReqCtxImpl) GetMethod() string {
	return t.method
}
