package abi

import (
	"github.com/xuperchain/xabi/kernel/abi/codec"
)

// VerifyStatus is the outcome of a transaction verification
type VerifyStatus int32

const (
	VerifyStatusFail    VerifyStatus = 0
	VerifyStatusOK      VerifyStatus = 1
	VerifyStatusPending VerifyStatus = 2
)

// TxExecResult is the outcome of a transaction execution
type TxExecResult int32

const (
	TxExecResultInvalid TxExecResult = -1
	TxExecResultFail    TxExecResult = 0
	TxExecResultOK      TxExecResult = 1
)

// init

type InitRequest struct {
	ChainID         []byte
	LastBlockHeight uint32
	LastStateRoot   []byte
}

func (m *InitRequest) FieldCount() int { return 3 }

func (m *InitRequest) MarshalABI(e *codec.Encoder) {
	e.Bytes(1, m.ChainID)
	e.Uint32(2, m.LastBlockHeight)
	e.Bytes(3, m.LastStateRoot)
}

func (m *InitRequest) UnmarshalABI(d *codec.Decoder) {
	m.ChainID = d.Bytes(1)
	m.LastBlockHeight = d.Uint32(2)
	m.LastStateRoot = d.Bytes(3)
}

type InitResponse struct{}

func (m *InitResponse) FieldCount() int               { return 0 }
func (m *InitResponse) MarshalABI(e *codec.Encoder)   {}
func (m *InitResponse) UnmarshalABI(d *codec.Decoder) {}

// initStateMachine

type InitStateMachineRequest struct {
	Header *BlockHeader
}

func (m *InitStateMachineRequest) FieldCount() int { return 1 }

func (m *InitStateMachineRequest) MarshalABI(e *codec.Encoder) {
	codec.EncodeMessage(e, 1, m.Header)
}

func (m *InitStateMachineRequest) UnmarshalABI(d *codec.Decoder) {
	m.Header = codec.DecodeMessage[BlockHeader](d, 1)
}

type InitStateMachineResponse struct {
	ContextID []byte
}

func (m *InitStateMachineResponse) FieldCount() int { return 1 }

func (m *InitStateMachineResponse) MarshalABI(e *codec.Encoder) {
	e.Bytes(1, m.ContextID)
}

func (m *InitStateMachineResponse) UnmarshalABI(d *codec.Decoder) {
	m.ContextID = d.Bytes(1)
}

// initGenesisState

type InitGenesisStateRequest struct {
	ContextID []byte
}

func (m *InitGenesisStateRequest) FieldCount() int { return 1 }

func (m *InitGenesisStateRequest) MarshalABI(e *codec.Encoder) {
	e.Bytes(1, m.ContextID)
}

func (m *InitGenesisStateRequest) UnmarshalABI(d *codec.Decoder) {
	m.ContextID = d.Bytes(1)
}

type InitGenesisStateResponse struct {
	Assets               []*BlockAsset
	Events               []*Event
	PreCommitThreshold   uint64
	CertificateThreshold uint64
	NextValidators       []*Validator
}

func (m *InitGenesisStateResponse) FieldCount() int { return 5 }

func (m *InitGenesisStateResponse) MarshalABI(e *codec.Encoder) {
	codec.EncodeRepeated(e, 1, m.Assets)
	codec.EncodeRepeated(e, 2, m.Events)
	e.Uint64(3, m.PreCommitThreshold)
	e.Uint64(4, m.CertificateThreshold)
	codec.EncodeRepeated(e, 5, m.NextValidators)
}

func (m *InitGenesisStateResponse) UnmarshalABI(d *codec.Decoder) {
	m.Assets = codec.DecodeRepeated[BlockAsset](d, 1)
	m.Events = codec.DecodeRepeated[Event](d, 2)
	m.PreCommitThreshold = d.Uint64(3)
	m.CertificateThreshold = d.Uint64(4)
	m.NextValidators = codec.DecodeRepeated[Validator](d, 5)
}

// insertAssets

type InsertAssetsRequest struct {
	ContextID       []byte
	FinalizedHeight uint32
}

func (m *InsertAssetsRequest) FieldCount() int { return 2 }

func (m *InsertAssetsRequest) MarshalABI(e *codec.Encoder) {
	e.Bytes(1, m.ContextID)
	e.Uint32(2, m.FinalizedHeight)
}

func (m *InsertAssetsRequest) UnmarshalABI(d *codec.Decoder) {
	m.ContextID = d.Bytes(1)
	m.FinalizedHeight = d.Uint32(2)
}

type InsertAssetsResponse struct {
	Assets []*BlockAsset
}

func (m *InsertAssetsResponse) FieldCount() int { return 1 }

func (m *InsertAssetsResponse) MarshalABI(e *codec.Encoder) {
	codec.EncodeRepeated(e, 1, m.Assets)
}

func (m *InsertAssetsResponse) UnmarshalABI(d *codec.Decoder) {
	m.Assets = codec.DecodeRepeated[BlockAsset](d, 1)
}

// verifyAssets

type VerifyAssetsRequest struct {
	ContextID []byte
	Assets    []*BlockAsset
}

func (m *VerifyAssetsRequest) FieldCount() int { return 2 }

func (m *VerifyAssetsRequest) MarshalABI(e *codec.Encoder) {
	e.Bytes(1, m.ContextID)
	codec.EncodeRepeated(e, 2, m.Assets)
}

func (m *VerifyAssetsRequest) UnmarshalABI(d *codec.Decoder) {
	m.ContextID = d.Bytes(1)
	m.Assets = codec.DecodeRepeated[BlockAsset](d, 2)
}

type VerifyAssetsResponse struct{}

func (m *VerifyAssetsResponse) FieldCount() int               { return 0 }
func (m *VerifyAssetsResponse) MarshalABI(e *codec.Encoder)   {}
func (m *VerifyAssetsResponse) UnmarshalABI(d *codec.Decoder) {}

// beforeTransactionsExecute

type BeforeTransactionsExecuteRequest struct {
	ContextID []byte
	Assets    []*BlockAsset
	Consensus *Consensus
}

func (m *BeforeTransactionsExecuteRequest) FieldCount() int { return 3 }

func (m *BeforeTransactionsExecuteRequest) MarshalABI(e *codec.Encoder) {
	e.Bytes(1, m.ContextID)
	codec.EncodeRepeated(e, 2, m.Assets)
	codec.EncodeMessage(e, 3, m.Consensus)
}

func (m *BeforeTransactionsExecuteRequest) UnmarshalABI(d *codec.Decoder) {
	m.ContextID = d.Bytes(1)
	m.Assets = codec.DecodeRepeated[BlockAsset](d, 2)
	m.Consensus = codec.DecodeMessage[Consensus](d, 3)
}

type BeforeTransactionsExecuteResponse struct {
	Events []*Event
}

func (m *BeforeTransactionsExecuteResponse) FieldCount() int { return 1 }

func (m *BeforeTransactionsExecuteResponse) MarshalABI(e *codec.Encoder) {
	codec.EncodeRepeated(e, 1, m.Events)
}

func (m *BeforeTransactionsExecuteResponse) UnmarshalABI(d *codec.Decoder) {
	m.Events = codec.DecodeRepeated[Event](d, 1)
}

// afterTransactionsExecute

type AfterTransactionsExecuteRequest struct {
	ContextID    []byte
	Assets       []*BlockAsset
	Consensus    *Consensus
	Transactions []*Transaction
}

func (m *AfterTransactionsExecuteRequest) FieldCount() int { return 4 }

func (m *AfterTransactionsExecuteRequest) MarshalABI(e *codec.Encoder) {
	e.Bytes(1, m.ContextID)
	codec.EncodeRepeated(e, 2, m.Assets)
	codec.EncodeMessage(e, 3, m.Consensus)
	codec.EncodeRepeated(e, 4, m.Transactions)
}

func (m *AfterTransactionsExecuteRequest) UnmarshalABI(d *codec.Decoder) {
	m.ContextID = d.Bytes(1)
	m.Assets = codec.DecodeRepeated[BlockAsset](d, 2)
	m.Consensus = codec.DecodeMessage[Consensus](d, 3)
	m.Transactions = codec.DecodeRepeated[Transaction](d, 4)
}

type AfterTransactionsExecuteResponse struct {
	Events               []*Event
	PreCommitThreshold   uint64
	CertificateThreshold uint64
	NextValidators       []*Validator
}

func (m *AfterTransactionsExecuteResponse) FieldCount() int { return 4 }

func (m *AfterTransactionsExecuteResponse) MarshalABI(e *codec.Encoder) {
	codec.EncodeRepeated(e, 1, m.Events)
	e.Uint64(2, m.PreCommitThreshold)
	e.Uint64(3, m.CertificateThreshold)
	codec.EncodeRepeated(e, 4, m.NextValidators)
}

func (m *AfterTransactionsExecuteResponse) UnmarshalABI(d *codec.Decoder) {
	m.Events = codec.DecodeRepeated[Event](d, 1)
	m.PreCommitThreshold = d.Uint64(2)
	m.CertificateThreshold = d.Uint64(3)
	m.NextValidators = codec.DecodeRepeated[Validator](d, 4)
}

// verifyTransaction

type VerifyTransactionRequest struct {
	// empty or unknown context id runs a dry-run verification
	ContextID   []byte
	Transaction *Transaction
	Header      *BlockHeader
}

func (m *VerifyTransactionRequest) FieldCount() int { return 3 }

func (m *VerifyTransactionRequest) MarshalABI(e *codec.Encoder) {
	e.Bytes(1, m.ContextID)
	codec.EncodeMessage(e, 2, m.Transaction)
	codec.EncodeMessage(e, 3, m.Header)
}

func (m *VerifyTransactionRequest) UnmarshalABI(d *codec.Decoder) {
	m.ContextID = d.Bytes(1)
	m.Transaction = codec.DecodeMessage[Transaction](d, 2)
	m.Header = codec.DecodeMessage[BlockHeader](d, 3)
}

type VerifyTransactionResponse struct {
	Result       VerifyStatus
	ErrorMessage string
}

func (m *VerifyTransactionResponse) FieldCount() int { return 2 }

func (m *VerifyTransactionResponse) MarshalABI(e *codec.Encoder) {
	e.Sint32(1, int32(m.Result))
	e.String(2, m.ErrorMessage)
}

func (m *VerifyTransactionResponse) UnmarshalABI(d *codec.Decoder) {
	m.Result = VerifyStatus(d.Sint32(1))
	m.ErrorMessage = d.String(2)
}

// executeTransaction

type ExecuteTransactionRequest struct {
	ContextID   []byte
	Transaction *Transaction
	Assets      []*BlockAsset
	DryRun      bool
	Header      *BlockHeader
	Consensus   *Consensus
}

func (m *ExecuteTransactionRequest) FieldCount() int { return 6 }

func (m *ExecuteTransactionRequest) MarshalABI(e *codec.Encoder) {
	e.Bytes(1, m.ContextID)
	codec.EncodeMessage(e, 2, m.Transaction)
	codec.EncodeRepeated(e, 3, m.Assets)
	e.Bool(4, m.DryRun)
	codec.EncodeMessage(e, 5, m.Header)
	codec.EncodeMessage(e, 6, m.Consensus)
}

func (m *ExecuteTransactionRequest) UnmarshalABI(d *codec.Decoder) {
	m.ContextID = d.Bytes(1)
	m.Transaction = codec.DecodeMessage[Transaction](d, 2)
	m.Assets = codec.DecodeRepeated[BlockAsset](d, 3)
	m.DryRun = d.Bool(4)
	m.Header = codec.DecodeMessage[BlockHeader](d, 5)
	m.Consensus = codec.DecodeMessage[Consensus](d, 6)
}

type ExecuteTransactionResponse struct {
	Events []*Event
	Result TxExecResult
}

func (m *ExecuteTransactionResponse) FieldCount() int { return 2 }

func (m *ExecuteTransactionResponse) MarshalABI(e *codec.Encoder) {
	codec.EncodeRepeated(e, 1, m.Events)
	e.Sint32(2, int32(m.Result))
}

func (m *ExecuteTransactionResponse) UnmarshalABI(d *codec.Decoder) {
	m.Events = codec.DecodeRepeated[Event](d, 1)
	m.Result = TxExecResult(d.Sint32(2))
}

// commit

type CommitRequest struct {
	ContextID []byte
	// root the commit builds on, must be the current committed root
	StateRoot []byte
	// empty skips the root check
	ExpectedStateRoot []byte
	DryRun            bool
}

func (m *CommitRequest) FieldCount() int { return 4 }

func (m *CommitRequest) MarshalABI(e *codec.Encoder) {
	e.Bytes(1, m.ContextID)
	e.Bytes(2, m.StateRoot)
	e.Bytes(3, m.ExpectedStateRoot)
	e.Bool(4, m.DryRun)
}

func (m *CommitRequest) UnmarshalABI(d *codec.Decoder) {
	m.ContextID = d.Bytes(1)
	m.StateRoot = d.Bytes(2)
	m.ExpectedStateRoot = d.Bytes(3)
	m.DryRun = d.Bool(4)
}

type CommitResponse struct {
	StateRoot []byte
}

func (m *CommitResponse) FieldCount() int { return 1 }

func (m *CommitResponse) MarshalABI(e *codec.Encoder) {
	e.Bytes(1, m.StateRoot)
}

func (m *CommitResponse) UnmarshalABI(d *codec.Decoder) {
	m.StateRoot = d.Bytes(1)
}

// revert

type RevertRequest struct {
	ContextID []byte
	// root committed at the context height, the one being reverted
	StateRoot []byte
	// empty skips the check of the root reverted to
	ExpectedStateRoot []byte
}

func (m *RevertRequest) FieldCount() int { return 3 }

func (m *RevertRequest) MarshalABI(e *codec.Encoder) {
	e.Bytes(1, m.ContextID)
	e.Bytes(2, m.StateRoot)
	e.Bytes(3, m.ExpectedStateRoot)
}

func (m *RevertRequest) UnmarshalABI(d *codec.Decoder) {
	m.ContextID = d.Bytes(1)
	m.StateRoot = d.Bytes(2)
	m.ExpectedStateRoot = d.Bytes(3)
}

type RevertResponse struct {
	StateRoot []byte
}

func (m *RevertResponse) FieldCount() int { return 1 }

func (m *RevertResponse) MarshalABI(e *codec.Encoder) {
	e.Bytes(1, m.StateRoot)
}

func (m *RevertResponse) UnmarshalABI(d *codec.Decoder) {
	m.StateRoot = d.Bytes(1)
}

// clear

type ClearRequest struct{}

func (m *ClearRequest) FieldCount() int               { return 0 }
func (m *ClearRequest) MarshalABI(e *codec.Encoder)   {}
func (m *ClearRequest) UnmarshalABI(d *codec.Decoder) {}

type ClearResponse struct{}

func (m *ClearResponse) FieldCount() int               { return 0 }
func (m *ClearResponse) MarshalABI(e *codec.Encoder)   {}
func (m *ClearResponse) UnmarshalABI(d *codec.Decoder) {}

// finalize

type FinalizeRequest struct {
	// 0 means nothing finalized yet
	FinalizedHeight uint32
}

func (m *FinalizeRequest) FieldCount() int { return 1 }

func (m *FinalizeRequest) MarshalABI(e *codec.Encoder) {
	e.Uint32(1, m.FinalizedHeight)
}

func (m *FinalizeRequest) UnmarshalABI(d *codec.Decoder) {
	m.FinalizedHeight = d.Uint32(1)
}

type FinalizeResponse struct{}

func (m *FinalizeResponse) FieldCount() int               { return 0 }
func (m *FinalizeResponse) MarshalABI(e *codec.Encoder)   {}
func (m *FinalizeResponse) UnmarshalABI(d *codec.Decoder) {}

// getMetadata

type GetMetadataRequest struct{}

func (m *GetMetadataRequest) FieldCount() int               { return 0 }
func (m *GetMetadataRequest) MarshalABI(e *codec.Encoder)   {}
func (m *GetMetadataRequest) UnmarshalABI(d *codec.Decoder) {}

type GetMetadataResponse struct {
	Data []byte
}

func (m *GetMetadataResponse) FieldCount() int { return 1 }

func (m *GetMetadataResponse) MarshalABI(e *codec.Encoder) {
	e.Bytes(1, m.Data)
}

func (m *GetMetadataResponse) UnmarshalABI(d *codec.Decoder) {
	m.Data = d.Bytes(1)
}

// query

type QueryRequest struct {
	Method string
	Params []byte
	Header *BlockHeader
}

func (m *QueryRequest) FieldCount() int { return 3 }

func (m *QueryRequest) MarshalABI(e *codec.Encoder) {
	e.String(1, m.Method)
	e.Bytes(2, m.Params)
	codec.EncodeMessage(e, 3, m.Header)
}

func (m *QueryRequest) UnmarshalABI(d *codec.Decoder) {
	m.Method = d.String(1)
	m.Params = d.Bytes(2)
	m.Header = codec.DecodeMessage[BlockHeader](d, 3)
}

type QueryResponse struct {
	Data []byte
}

func (m *QueryResponse) FieldCount() int { return 1 }

func (m *QueryResponse) MarshalABI(e *codec.Encoder) {
	e.Bytes(1, m.Data)
}

func (m *QueryResponse) UnmarshalABI(d *codec.Decoder) {
	m.Data = d.Bytes(1)
}

// prove

type ProveRequest struct {
	StateRoot []byte
	Keys      [][]byte
}

func (m *ProveRequest) FieldCount() int { return 2 }

func (m *ProveRequest) MarshalABI(e *codec.Encoder) {
	e.Bytes(1, m.StateRoot)
	e.RepeatedBytes(2, m.Keys)
}

func (m *ProveRequest) UnmarshalABI(d *codec.Decoder) {
	m.StateRoot = d.Bytes(1)
	m.Keys = d.RepeatedBytes(2)
}

// QueryProof proves the presence or absence of one key
type QueryProof struct {
	Key    []byte
	Value  []byte
	Exists bool
	// marshaled ics23 commitment proof
	Proof []byte
}

func (m *QueryProof) FieldCount() int { return 4 }

func (m *QueryProof) MarshalABI(e *codec.Encoder) {
	e.Bytes(1, m.Key)
	e.Bytes(2, m.Value)
	e.Bool(3, m.Exists)
	e.Bytes(4, m.Proof)
}

func (m *QueryProof) UnmarshalABI(d *codec.Decoder) {
	m.Key = d.Bytes(1)
	m.Value = d.Bytes(2)
	m.Exists = d.Bool(3)
	m.Proof = d.Bytes(4)
}

type Proof struct {
	Queries []*QueryProof
}

func (m *Proof) FieldCount() int { return 1 }

func (m *Proof) MarshalABI(e *codec.Encoder) {
	codec.EncodeRepeated(e, 1, m.Queries)
}

func (m *Proof) UnmarshalABI(d *codec.Decoder) {
	m.Queries = codec.DecodeRepeated[QueryProof](d, 1)
}

type ProveResponse struct {
	Proof *Proof
}

func (m *ProveResponse) FieldCount() int { return 1 }

func (m *ProveResponse) MarshalABI(e *codec.Encoder) {
	codec.EncodeMessage(e, 1, m.Proof)
}

func (m *ProveResponse) UnmarshalABI(d *codec.Decoder) {
	m.Proof = codec.DecodeMessage[Proof](d, 1)
}
