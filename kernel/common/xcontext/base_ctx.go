// 定义公共上下文结构，明确定义上下文结构，方便代码阅读
package xcontext

import (
	"context"

	"github.com/xuperchain/xabi/lib/logs"
	"github.com/xuperchain/xabi/lib/timer"
)

type XContext interface {
	context.Context
	GetLog() logs.Logger
	GetTimer() *timer.XTimer
}

// BaseCtx carries the log and timer of one operation on top of a parent context
type BaseCtx struct {
	context.Context
	XLog  logs.Logger
	Timer *timer.XTimer
}

func NewBaseCtx(parent context.Context, xlog logs.Logger) *BaseCtx {
	if parent == nil {
		parent = context.Background()
	}
	return &BaseCtx{
		Context: parent,
		XLog:    xlog,
		Timer:   timer.NewXTimer(),
	}
}

func (t *BaseCtx) GetLog() logs.Logger {
	return t.XLog
}

func (t *BaseCtx) GetTimer() *timer.XTimer {
	return t.Timer
}

// GetLog returns the operation logger carried by ctx, or def
func GetLog(ctx context.Context, def logs.Logger) logs.Logger {
	if xctx, ok := ctx.(XContext); ok && xctx.GetLog() != nil {
		return xctx.GetLog()
	}
	return def
}
