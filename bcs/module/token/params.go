package token

import (
	"github.com/xuperchain/xabi/kernel/abi/codec"
)

// TransferParams are the params of the transfer command
type TransferParams struct {
	Amount           uint64
	RecipientAddress []byte
	Data             string
}

func (m *TransferParams) FieldCount() int { return 3 }

func (m *TransferParams) MarshalABI(e *codec.Encoder) {
	e.Uint64(1, m.Amount)
	e.Bytes(2, m.RecipientAddress)
	e.String(3, m.Data)
}

func (m *TransferParams) UnmarshalABI(d *codec.Decoder) {
	m.Amount = d.Uint64(1)
	m.RecipientAddress = d.Bytes(2)
	m.Data = d.String(3)
}

// TransferEvent is the data of a transfer event
type TransferEvent struct {
	SenderAddress    []byte
	RecipientAddress []byte
	Amount           uint64
}

func (m *TransferEvent) FieldCount() int { return 3 }

func (m *TransferEvent) MarshalABI(e *codec.Encoder) {
	e.Bytes(1, m.SenderAddress)
	e.Bytes(2, m.RecipientAddress)
	e.Uint64(3, m.Amount)
}

func (m *TransferEvent) UnmarshalABI(d *codec.Decoder) {
	m.SenderAddress = d.Bytes(1)
	m.RecipientAddress = d.Bytes(2)
	m.Amount = d.Uint64(3)
}

type genesisBalance struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

type genesisData struct {
	Balances []genesisBalance `json:"balances"`
	MinFee   uint64           `json:"minFee"`
}

type balanceQuery struct {
	Address string `json:"address"`
}

type balanceResult struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}
