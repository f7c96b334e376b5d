package app

import (
	"bytes"
	"context"

	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/common/xcontext"
	"github.com/xuperchain/xabi/kernel/state"
	"github.com/xuperchain/xabi/kernel/state/sandbox"
	"github.com/xuperchain/xabi/kernel/statemachine"
)

func (t *ABIHandler) InitGenesisState(ctx context.Context, req *abi.InitGenesisStateRequest) (*abi.InitGenesisStateResponse, error) {
	ec, err := t.checkContext(req.ContextID)
	if err != nil {
		return nil, err
	}
	genesis, err := t.conf.LoadGenesis()
	if err != nil {
		return nil, abi.ErrGenesis.More("%v", err)
	}
	if genesis.Height != ec.header.Height {
		return nil, abi.ErrGenesis.More("genesis height %d, header height %d", genesis.Height, ec.header.Height)
	}

	data := make(map[string][]byte, len(genesis.Assets))
	assets := make([]*abi.BlockAsset, 0, len(genesis.Assets))
	for _, a := range genesis.Assets {
		data[a.Module] = a.Data
		assets = append(assets, &abi.BlockAsset{Module: a.Module, Data: a.Data})
	}

	env := t.contextEnv(ctx, ec)
	next, err := t.sm.InitGenesisState(env, data)
	if err != nil {
		return nil, err
	}
	return &abi.InitGenesisStateResponse{
		Assets:               statemachine.NewBlockAssets(assets).List(),
		Events:               env.Events.Events(),
		PreCommitThreshold:   next.PreCommitThreshold,
		CertificateThreshold: next.CertificateThreshold,
		NextValidators:       next.Validators,
	}, nil
}

func (t *ABIHandler) InsertAssets(ctx context.Context, req *abi.InsertAssetsRequest) (*abi.InsertAssetsResponse, error) {
	ec, err := t.checkContext(req.ContextID)
	if err != nil {
		return nil, err
	}
	assets, err := t.sm.InsertAssets(t.contextEnv(ctx, ec), req.FinalizedHeight)
	if err != nil {
		return nil, err
	}
	return &abi.InsertAssetsResponse{Assets: assets.List()}, nil
}

func (t *ABIHandler) VerifyAssets(ctx context.Context, req *abi.VerifyAssetsRequest) (*abi.VerifyAssetsResponse, error) {
	ec, err := t.checkContext(req.ContextID)
	if err != nil {
		return nil, err
	}
	err = t.sm.VerifyAssets(t.contextEnv(ctx, ec), statemachine.NewBlockAssets(req.Assets))
	if err != nil {
		return nil, err
	}
	return &abi.VerifyAssetsResponse{}, nil
}

func (t *ABIHandler) BeforeTransactionsExecute(ctx context.Context,
	req *abi.BeforeTransactionsExecuteRequest) (*abi.BeforeTransactionsExecuteResponse, error) {
	ec, err := t.checkContext(req.ContextID)
	if err != nil {
		return nil, err
	}
	env := t.contextEnv(ctx, ec)
	err = t.sm.BeforeTransactionsExecute(env, statemachine.NewBlockAssets(req.Assets), req.Consensus)
	if err != nil {
		return nil, err
	}
	return &abi.BeforeTransactionsExecuteResponse{Events: env.Events.Events()}, nil
}

func (t *ABIHandler) AfterTransactionsExecute(ctx context.Context,
	req *abi.AfterTransactionsExecuteRequest) (*abi.AfterTransactionsExecuteResponse, error) {
	ec, err := t.checkContext(req.ContextID)
	if err != nil {
		return nil, err
	}
	env := t.contextEnv(ctx, ec)
	next, err := t.sm.AfterTransactionsExecute(env, statemachine.NewBlockAssets(req.Assets), req.Consensus, req.Transactions)
	if err != nil {
		return nil, err
	}
	return &abi.AfterTransactionsExecuteResponse{
		Events:               env.Events.Events(),
		PreCommitThreshold:   next.PreCommitThreshold,
		CertificateThreshold: next.CertificateThreshold,
		NextValidators:       next.Validators,
	}, nil
}

// VerifyTransaction uses the live context when contextID names it, a dry-run
// view otherwise. Verification never leaves writes behind.
func (t *ABIHandler) VerifyTransaction(ctx context.Context, req *abi.VerifyTransactionRequest) (*abi.VerifyTransactionResponse, error) {
	if _, err := t.getChainID(); err != nil {
		return nil, err
	}

	var env *statemachine.Env
	if ec := t.execCtx; ec != nil && len(req.ContextID) > 0 && bytes.Equal(req.ContextID, ec.id) {
		env = t.contextEnv(ctx, ec)
		snap := env.Snapshot()
		defer env.RestoreSnapshot(snap)
	} else {
		env = t.ephemeralEnv(ctx, req.Header)
	}

	res := t.sm.VerifyTransaction(env, req.Transaction)
	resp := &abi.VerifyTransactionResponse{Result: res.Status}
	if res.Err != nil {
		resp.ErrorMessage = res.Err.Error()
	}
	return resp, nil
}

func (t *ABIHandler) ExecuteTransaction(ctx context.Context, req *abi.ExecuteTransactionRequest) (*abi.ExecuteTransactionResponse, error) {
	if _, err := t.getChainID(); err != nil {
		return nil, err
	}

	var env *statemachine.Env
	if req.DryRun {
		env = t.ephemeralEnv(ctx, req.Header)
		res := t.sm.VerifyTransaction(env, req.Transaction)
		if res.Status != abi.VerifyStatusOK {
			return &abi.ExecuteTransactionResponse{Events: []*abi.Event{}, Result: abi.TxExecResultInvalid}, nil
		}
	} else {
		ec, err := t.checkContext(req.ContextID)
		if err != nil {
			return nil, err
		}
		env = t.contextEnv(ctx, ec)
	}

	result := t.sm.ExecuteTransaction(env, req.Transaction, statemachine.NewBlockAssets(req.Assets), req.Consensus)
	return &abi.ExecuteTransactionResponse{Events: env.Events.Events(), Result: result}, nil
}

// Commit saves the state view at the context height. A dry run only computes the root.
func (t *ABIHandler) Commit(ctx context.Context, req *abi.CommitRequest) (*abi.CommitResponse, error) {
	ec, err := t.checkContext(req.ContextID)
	if err != nil {
		return nil, err
	}

	opts := state.CommitOptions{
		CheckRoot:    len(req.ExpectedStateRoot) > 0,
		Readonly:     req.DryRun,
		ExpectedRoot: req.ExpectedStateRoot,
	}
	root, err := t.stateStore.Commit(ec.stateStore, ec.header.Height, req.StateRoot, opts)
	if err != nil {
		return nil, err
	}
	if req.DryRun {
		return &abi.CommitResponse{StateRoot: root}, nil
	}

	if err := sandbox.Persist(t.moduleDB, ec.moduleStore.WriteSet()); err != nil {
		return nil, abi.ErrUnknown.More("persist module store: %v", err)
	}
	ec.stateStore.Reset()
	ec.moduleStore.Reset()
	xcontext.GetLog(ctx, t.log).Info("block committed", "height", ec.header.Height, "stateRoot", root)
	return &abi.CommitResponse{StateRoot: root}, nil
}

// Revert drops the state committed at the context height, whose root is
// req.StateRoot, and returns the root below it
func (t *ABIHandler) Revert(ctx context.Context, req *abi.RevertRequest) (*abi.RevertResponse, error) {
	ec, err := t.checkContext(req.ContextID)
	if err != nil {
		return nil, err
	}
	root, err := t.stateStore.Revert(req.StateRoot, ec.header.Height, req.ExpectedStateRoot)
	if err != nil {
		return nil, err
	}
	ec.stateStore.Reset()
	xcontext.GetLog(ctx, t.log).Info("block reverted", "height", ec.header.Height, "stateRoot", root)
	return &abi.RevertResponse{StateRoot: root}, nil
}
