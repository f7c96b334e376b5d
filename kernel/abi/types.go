package abi

import (
	"github.com/xuperchain/crypto/core/hash"

	"github.com/xuperchain/xabi/kernel/abi/codec"
)

type AggregateCommit struct {
	Height               uint32
	AggregationBits      []byte
	CertificateSignature []byte
}

func (m *AggregateCommit) FieldCount() int { return 3 }

func (m *AggregateCommit) MarshalABI(e *codec.Encoder) {
	e.Uint32(1, m.Height)
	e.Bytes(2, m.AggregationBits)
	e.Bytes(3, m.CertificateSignature)
}

func (m *AggregateCommit) UnmarshalABI(d *codec.Decoder) {
	m.Height = d.Uint32(1)
	m.AggregationBits = d.Bytes(2)
	m.CertificateSignature = d.Bytes(3)
}

type BlockHeader struct {
	Version            uint32
	Timestamp          uint32
	Height             uint32
	PreviousBlockID    []byte
	GeneratorAddress   []byte
	TransactionRoot    []byte
	AssetRoot          []byte
	EventRoot          []byte
	StateRoot          []byte
	MaxHeightPrevoted  uint32
	MaxHeightGenerated uint32
	ImpliesMaxPrevotes bool
	ValidatorsHash     []byte
	AggregateCommit    *AggregateCommit
	Signature          []byte
	ID                 []byte
}

func (m *BlockHeader) FieldCount() int { return 16 }

func (m *BlockHeader) MarshalABI(e *codec.Encoder) {
	e.Uint32(1, m.Version)
	e.Uint32(2, m.Timestamp)
	e.Uint32(3, m.Height)
	e.Bytes(4, m.PreviousBlockID)
	e.Bytes(5, m.GeneratorAddress)
	e.Bytes(6, m.TransactionRoot)
	e.Bytes(7, m.AssetRoot)
	e.Bytes(8, m.EventRoot)
	e.Bytes(9, m.StateRoot)
	e.Uint32(10, m.MaxHeightPrevoted)
	e.Uint32(11, m.MaxHeightGenerated)
	e.Bool(12, m.ImpliesMaxPrevotes)
	e.Bytes(13, m.ValidatorsHash)
	codec.EncodeMessage(e, 14, m.AggregateCommit)
	e.Bytes(15, m.Signature)
	e.Bytes(16, m.ID)
}

func (m *BlockHeader) UnmarshalABI(d *codec.Decoder) {
	m.Version = d.Uint32(1)
	m.Timestamp = d.Uint32(2)
	m.Height = d.Uint32(3)
	m.PreviousBlockID = d.Bytes(4)
	m.GeneratorAddress = d.Bytes(5)
	m.TransactionRoot = d.Bytes(6)
	m.AssetRoot = d.Bytes(7)
	m.EventRoot = d.Bytes(8)
	m.StateRoot = d.Bytes(9)
	m.MaxHeightPrevoted = d.Uint32(10)
	m.MaxHeightGenerated = d.Uint32(11)
	m.ImpliesMaxPrevotes = d.Bool(12)
	m.ValidatorsHash = d.Bytes(13)
	m.AggregateCommit = codec.DecodeMessage[AggregateCommit](d, 14)
	m.Signature = d.Bytes(15)
	m.ID = d.Bytes(16)
}

// Hash is the sha256 of the encoded header, used as execution context id
func (m *BlockHeader) Hash() []byte {
	data, _ := codec.Marshal(m)
	return hash.HashUsingSha256(data)
}

type Transaction struct {
	Module          string
	Command         string
	Nonce           uint64
	Fee             uint64
	SenderPublicKey []byte
	Params          []byte
	Signatures      [][]byte
}

func (m *Transaction) FieldCount() int { return 7 }

func (m *Transaction) MarshalABI(e *codec.Encoder) {
	e.String(1, m.Module)
	e.String(2, m.Command)
	e.Uint64(3, m.Nonce)
	e.Uint64(4, m.Fee)
	e.Bytes(5, m.SenderPublicKey)
	e.Bytes(6, m.Params)
	e.RepeatedBytes(7, m.Signatures)
}

func (m *Transaction) UnmarshalABI(d *codec.Decoder) {
	m.Module = d.String(1)
	m.Command = d.String(2)
	m.Nonce = d.Uint64(3)
	m.Fee = d.Uint64(4)
	m.SenderPublicKey = d.Bytes(5)
	m.Params = d.Bytes(6)
	m.Signatures = d.RepeatedBytes(7)
}

// ID is the sha256 of the encoded transaction
func (m *Transaction) ID() []byte {
	data, _ := codec.Marshal(m)
	return hash.HashUsingSha256(data)
}

// SenderAddress is the first 20 bytes of sha256(senderPublicKey)
func (m *Transaction) SenderAddress() []byte {
	return AddressFromPublicKey(m.SenderPublicKey)
}

// AddressFromPublicKey derives the 20 byte account address of a public key
func AddressFromPublicKey(pubKey []byte) []byte {
	return hash.HashUsingSha256(pubKey)[:AddressLength]
}

const AddressLength = 20

type Event struct {
	Module string
	Name   string
	Data   []byte
	Topics [][]byte
	Height uint32
	Index  uint32
}

func (m *Event) FieldCount() int { return 6 }

func (m *Event) MarshalABI(e *codec.Encoder) {
	e.String(1, m.Module)
	e.String(2, m.Name)
	e.Bytes(3, m.Data)
	e.RepeatedBytes(4, m.Topics)
	e.Uint32(5, m.Height)
	e.Uint32(6, m.Index)
}

func (m *Event) UnmarshalABI(d *codec.Decoder) {
	m.Module = d.String(1)
	m.Name = d.String(2)
	m.Data = d.Bytes(3)
	m.Topics = d.RepeatedBytes(4)
	m.Height = d.Uint32(5)
	m.Index = d.Uint32(6)
}

type Validator struct {
	Address      []byte
	BftWeight    uint64
	GeneratorKey []byte
	BlsKey       []byte
}

func (m *Validator) FieldCount() int { return 4 }

func (m *Validator) MarshalABI(e *codec.Encoder) {
	e.Bytes(1, m.Address)
	e.Uint64(2, m.BftWeight)
	e.Bytes(3, m.GeneratorKey)
	e.Bytes(4, m.BlsKey)
}

func (m *Validator) UnmarshalABI(d *codec.Decoder) {
	m.Address = d.Bytes(1)
	m.BftWeight = d.Uint64(2)
	m.GeneratorKey = d.Bytes(3)
	m.BlsKey = d.Bytes(4)
}

type BlockAsset struct {
	Module string
	Data   []byte
}

func (m *BlockAsset) FieldCount() int { return 2 }

func (m *BlockAsset) MarshalABI(e *codec.Encoder) {
	e.String(1, m.Module)
	e.Bytes(2, m.Data)
}

func (m *BlockAsset) UnmarshalABI(d *codec.Decoder) {
	m.Module = d.String(1)
	m.Data = d.Bytes(2)
}

// Consensus is the bft metadata the engine threads into block hooks
type Consensus struct {
	CurrentValidators    []*Validator
	ImplyMaxPrevote      bool
	MaxHeightCertified   uint32
	CertificateThreshold uint64
}

func (m *Consensus) FieldCount() int { return 4 }

func (m *Consensus) MarshalABI(e *codec.Encoder) {
	codec.EncodeRepeated(e, 1, m.CurrentValidators)
	e.Bool(2, m.ImplyMaxPrevote)
	e.Uint32(3, m.MaxHeightCertified)
	e.Uint64(4, m.CertificateThreshold)
}

func (m *Consensus) UnmarshalABI(d *codec.Decoder) {
	m.CurrentValidators = codec.DecodeRepeated[Validator](d, 1)
	m.ImplyMaxPrevote = d.Bool(2)
	m.MaxHeightCertified = d.Uint32(3)
	m.CertificateThreshold = d.Uint64(4)
}
