package app

import (
	"context"
	"encoding/json"

	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/common/xcontext"
	"github.com/xuperchain/xabi/kernel/statemachine"
)

type metadataResult struct {
	Modules []*statemachine.ModuleInfo `json:"modules"`
}

type queryError struct {
	Message string `json:"message"`
}

type queryErrorResult struct {
	Error queryError `json:"error"`
}

// Finalize prunes state below finalizedHeight, 0 means nothing is finalized yet
func (t *ABIHandler) Finalize(ctx context.Context, req *abi.FinalizeRequest) (*abi.FinalizeResponse, error) {
	if req.FinalizedHeight == 0 {
		return &abi.FinalizeResponse{}, nil
	}
	if err := t.stateStore.Finalize(req.FinalizedHeight); err != nil {
		return nil, err
	}
	return &abi.FinalizeResponse{}, nil
}

func (t *ABIHandler) GetMetadata(ctx context.Context, req *abi.GetMetadataRequest) (*abi.GetMetadataResponse, error) {
	data, err := json.Marshal(&metadataResult{Modules: t.sm.Metadata()})
	if err != nil {
		return nil, abi.ErrUnknown.More("marshal metadata: %v", err)
	}
	return &abi.GetMetadataResponse{Data: data}, nil
}

// Query never fails, an endpoint error is returned as {"error":{"message":...}}
func (t *ABIHandler) Query(ctx context.Context, req *abi.QueryRequest) (*abi.QueryResponse, error) {
	data, err := t.invoker.Invoke(ctx, req.Method, req.Params, req.Header)
	if err != nil {
		xcontext.GetLog(ctx, t.log).Debug("query failed", "method", req.Method, "err", err)
		data, _ = json.Marshal(&queryErrorResult{Error: queryError{Message: err.Error()}})
	}
	if data == nil {
		data = []byte{}
	}
	return &abi.QueryResponse{Data: data}, nil
}

func (t *ABIHandler) Prove(ctx context.Context, req *abi.ProveRequest) (*abi.ProveResponse, error) {
	proof, err := t.stateStore.Prove(req.StateRoot, req.Keys)
	if err != nil {
		return nil, err
	}
	return &abi.ProveResponse{Proof: proof}, nil
}
