package client

import (
	"context"

	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/abi/codec"
)

var _ abi.ABI = (*Client)(nil)

func invoke[T any, PT interface {
	*T
	codec.Message
}](ctx context.Context, t *Client, method string, req codec.Message) (PT, error) {
	resp := PT(new(T))
	if err := t.call(ctx, method, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (t *Client) Init(ctx context.Context, req *abi.InitRequest) (*abi.InitResponse, error) {
	return invoke[abi.InitResponse](ctx, t, abi.MethodInit, req)
}

func (t *Client) InitStateMachine(ctx context.Context,
	req *abi.InitStateMachineRequest) (*abi.InitStateMachineResponse, error) {
	return invoke[abi.InitStateMachineResponse](ctx, t, abi.MethodInitStateMachine, req)
}

func (t *Client) InitGenesisState(ctx context.Context,
	req *abi.InitGenesisStateRequest) (*abi.InitGenesisStateResponse, error) {
	return invoke[abi.InitGenesisStateResponse](ctx, t, abi.MethodInitGenesisState, req)
}

func (t *Client) InsertAssets(ctx context.Context,
	req *abi.InsertAssetsRequest) (*abi.InsertAssetsResponse, error) {
	return invoke[abi.InsertAssetsResponse](ctx, t, abi.MethodInsertAssets, req)
}

func (t *Client) VerifyAssets(ctx context.Context,
	req *abi.VerifyAssetsRequest) (*abi.VerifyAssetsResponse, error) {
	return invoke[abi.VerifyAssetsResponse](ctx, t, abi.MethodVerifyAssets, req)
}

func (t *Client) BeforeTransactionsExecute(ctx context.Context,
	req *abi.BeforeTransactionsExecuteRequest) (*abi.BeforeTransactionsExecuteResponse, error) {
	return invoke[abi.BeforeTransactionsExecuteResponse](ctx, t, abi.MethodBeforeTransactionsExecute, req)
}

func (t *Client) AfterTransactionsExecute(ctx context.Context,
	req *abi.AfterTransactionsExecuteRequest) (*abi.AfterTransactionsExecuteResponse, error) {
	return invoke[abi.AfterTransactionsExecuteResponse](ctx, t, abi.MethodAfterTransactionsExecute, req)
}

func (t *Client) VerifyTransaction(ctx context.Context,
	req *abi.VerifyTransactionRequest) (*abi.VerifyTransactionResponse, error) {
	return invoke[abi.VerifyTransactionResponse](ctx, t, abi.MethodVerifyTransaction, req)
}

func (t *Client) ExecuteTransaction(ctx context.Context,
	req *abi.ExecuteTransactionRequest) (*abi.ExecuteTransactionResponse, error) {
	return invoke[abi.ExecuteTransactionResponse](ctx, t, abi.MethodExecuteTransaction, req)
}

func (t *Client) Commit(ctx context.Context, req *abi.CommitRequest) (*abi.CommitResponse, error) {
	return invoke[abi.CommitResponse](ctx, t, abi.MethodCommit, req)
}

func (t *Client) Revert(ctx context.Context, req *abi.RevertRequest) (*abi.RevertResponse, error) {
	return invoke[abi.RevertResponse](ctx, t, abi.MethodRevert, req)
}

func (t *Client) Clear(ctx context.Context, req *abi.ClearRequest) (*abi.ClearResponse, error) {
	return invoke[abi.ClearResponse](ctx, t, abi.MethodClear, req)
}

func (t *Client) Finalize(ctx context.Context, req *abi.FinalizeRequest) (*abi.FinalizeResponse, error) {
	return invoke[abi.FinalizeResponse](ctx, t, abi.MethodFinalize, req)
}

func (t *Client) GetMetadata(ctx context.Context,
	req *abi.GetMetadataRequest) (*abi.GetMetadataResponse, error) {
	return invoke[abi.GetMetadataResponse](ctx, t, abi.MethodGetMetadata, req)
}

func (t *Client) Query(ctx context.Context, req *abi.QueryRequest) (*abi.QueryResponse, error) {
	return invoke[abi.QueryResponse](ctx, t, abi.MethodQuery, req)
}

func (t *Client) Prove(ctx context.Context, req *abi.ProveRequest) (*abi.ProveResponse, error) {
	return invoke[abi.ProveResponse](ctx, t, abi.MethodProve, req)
}
