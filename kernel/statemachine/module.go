// Package statemachine runs the registered business modules over a block or
// a single transaction.
package statemachine

import (
	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/invoke"
)

// Module is the minimal business module, every other capability is optional
// and discovered by type assertion
type Module interface {
	Name() string
	Metadata() *ModuleMetadata
}

type ModuleMetadata struct {
	Endpoints []string `json:"endpoints"`
	Commands  []string `json:"commands"`
	Events    []string `json:"events"`
	Assets    []string `json:"assets"`
	Stores    []string `json:"stores"`
}

// ModuleInfo is one entry of the getMetadata result
type ModuleInfo struct {
	Name string `json:"name"`
	ModuleMetadata
}

type GenesisInitializer interface {
	InitGenesisState(ctx *GenesisBlockContext) error
}

type AssetInserter interface {
	InsertAssets(ctx *InsertAssetContext) error
}

type AssetVerifier interface {
	VerifyAssets(ctx *BlockVerifyContext) error
}

// TransactionVerifier runs on every transaction, whatever module it targets
type TransactionVerifier interface {
	VerifyTransaction(ctx *TransactionContext) VerifyResult
}

// CommandExecutionHooks run around every command of every module
type CommandExecutionHooks interface {
	BeforeCommandExecute(ctx *TransactionContext) error
	AfterCommandExecute(ctx *TransactionContext) error
}

type BlockHooks interface {
	BeforeTransactionsExecute(ctx *BlockExecuteContext) error
	AfterTransactionsExecute(ctx *BlockAfterExecuteContext) error
}

type CommandProvider interface {
	Commands() []Command
}

type Command interface {
	Name() string
	Verify(ctx *TransactionContext) VerifyResult
	Execute(ctx *TransactionContext) error
}

// EndpointProvider exposes read only endpoints, registered as module_method
type EndpointProvider interface {
	Endpoints() map[string]invoke.Handler
}

type VerifyResult struct {
	Status abi.VerifyStatus
	Err    error
}

func VerifyOK() VerifyResult {
	return VerifyResult{Status: abi.VerifyStatusOK}
}

func VerifyFail(err error) VerifyResult {
	return VerifyResult{Status: abi.VerifyStatusFail, Err: err}
}
