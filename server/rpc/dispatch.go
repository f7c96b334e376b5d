package rpc

import (
	"context"

	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/abi/codec"
)

// methodEntry binds a method name to its request schema and handler,
// the handler result carries the response schema
type methodEntry struct {
	newRequest func() codec.Message
	handle     func(ctx context.Context, req codec.Message) (codec.Message, error)
}

func entry[Req any, PReq interface {
	*Req
	codec.Message
}, Resp any, PResp interface {
	*Resp
	codec.Message
}](fn func(context.Context, PReq) (PResp, error)) *methodEntry {
	return &methodEntry{
		newRequest: func() codec.Message {
			return PReq(new(Req))
		},
		handle: func(ctx context.Context, req codec.Message) (codec.Message, error) {
			resp, err := fn(ctx, req.(PReq))
			if err != nil {
				return nil, err
			}
			if resp == nil {
				return nil, abi.ErrEncodeResponse.More("nil response")
			}
			return resp, nil
		},
	}
}

func newDispatchTable(app abi.ABI) map[string]*methodEntry {
	return map[string]*methodEntry{
		abi.MethodInit:                      entry(app.Init),
		abi.MethodInitStateMachine:          entry(app.InitStateMachine),
		abi.MethodInitGenesisState:          entry(app.InitGenesisState),
		abi.MethodInsertAssets:              entry(app.InsertAssets),
		abi.MethodVerifyAssets:              entry(app.VerifyAssets),
		abi.MethodBeforeTransactionsExecute: entry(app.BeforeTransactionsExecute),
		abi.MethodAfterTransactionsExecute:  entry(app.AfterTransactionsExecute),
		abi.MethodVerifyTransaction:         entry(app.VerifyTransaction),
		abi.MethodExecuteTransaction:        entry(app.ExecuteTransaction),
		abi.MethodCommit:                    entry(app.Commit),
		abi.MethodRevert:                    entry(app.Revert),
		abi.MethodClear:                     entry(app.Clear),
		abi.MethodFinalize:                  entry(app.Finalize),
		abi.MethodGetMetadata:               entry(app.GetMetadata),
		abi.MethodQuery:                     entry(app.Query),
		abi.MethodProve:                     entry(app.Prove),
	}
}
