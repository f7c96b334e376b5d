// Package abi defines the engine/application interface: the method set,
// the request and response schemas of every method and the ipc envelopes.
package abi

import (
	"context"
)

const (
	MethodInit                      = "init"
	MethodInitStateMachine          = "initStateMachine"
	MethodInitGenesisState          = "initGenesisState"
	MethodInsertAssets              = "insertAssets"
	MethodVerifyAssets              = "verifyAssets"
	MethodBeforeTransactionsExecute = "beforeTransactionsExecute"
	MethodAfterTransactionsExecute  = "afterTransactionsExecute"
	MethodVerifyTransaction         = "verifyTransaction"
	MethodExecuteTransaction        = "executeTransaction"
	MethodCommit                    = "commit"
	MethodRevert                    = "revert"
	MethodClear                     = "clear"
	MethodFinalize                  = "finalize"
	MethodGetMetadata               = "getMetadata"
	MethodQuery                     = "query"
	MethodProve                     = "prove"
)

// ABI is implemented by the application and called by the engine
type ABI interface {
	Init(ctx context.Context, req *InitRequest) (*InitResponse, error)
	InitStateMachine(ctx context.Context, req *InitStateMachineRequest) (*InitStateMachineResponse, error)
	InitGenesisState(ctx context.Context, req *InitGenesisStateRequest) (*InitGenesisStateResponse, error)
	InsertAssets(ctx context.Context, req *InsertAssetsRequest) (*InsertAssetsResponse, error)
	VerifyAssets(ctx context.Context, req *VerifyAssetsRequest) (*VerifyAssetsResponse, error)
	BeforeTransactionsExecute(ctx context.Context, req *BeforeTransactionsExecuteRequest) (*BeforeTransactionsExecuteResponse, error)
	AfterTransactionsExecute(ctx context.Context, req *AfterTransactionsExecuteRequest) (*AfterTransactionsExecuteResponse, error)
	VerifyTransaction(ctx context.Context, req *VerifyTransactionRequest) (*VerifyTransactionResponse, error)
	ExecuteTransaction(ctx context.Context, req *ExecuteTransactionRequest) (*ExecuteTransactionResponse, error)
	Commit(ctx context.Context, req *CommitRequest) (*CommitResponse, error)
	Revert(ctx context.Context, req *RevertRequest) (*RevertResponse, error)
	Clear(ctx context.Context, req *ClearRequest) (*ClearResponse, error)
	Finalize(ctx context.Context, req *FinalizeRequest) (*FinalizeResponse, error)
	GetMetadata(ctx context.Context, req *GetMetadataRequest) (*GetMetadataResponse, error)
	Query(ctx context.Context, req *QueryRequest) (*QueryResponse, error)
	Prove(ctx context.Context, req *ProveRequest) (*ProveResponse, error)
}
