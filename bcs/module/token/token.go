// Package token keeps account balances and nonces and charges transaction fees.
package token

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/abi/codec"
	"github.com/xuperchain/xabi/kernel/invoke"
	"github.com/xuperchain/xabi/kernel/state/sandbox"
	"github.com/xuperchain/xabi/kernel/statemachine"
)

const (
	ModuleName      = "token"
	CommandTransfer = "transfer"

	EventTransfer = "transfer"
	EventFee      = "feePaid"

	maxDataLength = 64
)

var (
	prefixBalance = []byte("balance/")
	prefixNonce   = []byte("nonce/")
	keyMinFee     = []byte("minFee")
)

type Module struct{}

var (
	_ statemachine.GenesisInitializer    = (*Module)(nil)
	_ statemachine.TransactionVerifier   = (*Module)(nil)
	_ statemachine.CommandExecutionHooks = (*Module)(nil)
	_ statemachine.CommandProvider       = (*Module)(nil)
	_ statemachine.EndpointProvider      = (*Module)(nil)
)

func NewModule() *Module {
	return &Module{}
}

func (m *Module) Name() string {
	return ModuleName
}

func (m *Module) Metadata() *statemachine.ModuleMetadata {
	return &statemachine.ModuleMetadata{
		Endpoints: []string{"getBalance"},
		Commands:  []string{CommandTransfer},
		Events:    []string{EventTransfer, EventFee},
		Stores:    []string{"balance", "nonce"},
	}
}

func (m *Module) Commands() []statemachine.Command {
	return []statemachine.Command{&transferCommand{}}
}

func (m *Module) Endpoints() map[string]invoke.Handler {
	return map[string]invoke.Handler{
		"getBalance": getBalance,
	}
}

func (m *Module) InitGenesisState(ctx *statemachine.GenesisBlockContext) error {
	if ctx.Asset == nil {
		return nil
	}
	gen := new(genesisData)
	if err := json.Unmarshal(ctx.Asset, gen); err != nil {
		return errors.Wrap(err, "decode token genesis")
	}

	store := ctx.StateStore()
	for _, b := range gen.Balances {
		addr, err := decodeAddress(b.Address)
		if err != nil {
			return err
		}
		if err := setUint64(store, balanceKey(addr), b.Amount); err != nil {
			return err
		}
	}
	return setUint64(store, keyMinFee, gen.MinFee)
}

// VerifyTransaction checks nonce and fee of every transaction
func (m *Module) VerifyTransaction(ctx *statemachine.TransactionContext) statemachine.VerifyResult {
	tx := ctx.Transaction
	sender := tx.SenderAddress()
	store := ctx.StateStore()

	nonce, err := getUint64(store, nonceKey(sender))
	if err != nil {
		return statemachine.VerifyFail(err)
	}
	if tx.Nonce < nonce {
		return statemachine.VerifyFail(fmt.Errorf("nonce %d already used, account nonce %d", tx.Nonce, nonce))
	}
	if tx.Nonce > nonce {
		return statemachine.VerifyResult{
			Status: abi.VerifyStatusPending,
			Err:    fmt.Errorf("nonce %d ahead of account nonce %d", tx.Nonce, nonce),
		}
	}

	minFee, err := getUint64(store, keyMinFee)
	if err != nil {
		return statemachine.VerifyFail(err)
	}
	if tx.Fee < minFee {
		return statemachine.VerifyFail(fmt.Errorf("fee %d below minimum %d", tx.Fee, minFee))
	}
	balance, err := getUint64(store, balanceKey(sender))
	if err != nil {
		return statemachine.VerifyFail(err)
	}
	if balance < tx.Fee {
		return statemachine.VerifyFail(fmt.Errorf("balance %d cannot pay fee %d", balance, tx.Fee))
	}
	return statemachine.VerifyOK()
}

// BeforeCommandExecute takes the fee and bumps the nonce, the generator gets the fee
func (m *Module) BeforeCommandExecute(ctx *statemachine.TransactionContext) error {
	tx := ctx.Transaction
	sender := tx.SenderAddress()
	store := ctx.StateStore()

	nonce, err := getUint64(store, nonceKey(sender))
	if err != nil {
		return err
	}
	if tx.Nonce != nonce {
		return fmt.Errorf("invalid nonce %d, account nonce %d", tx.Nonce, nonce)
	}
	if err := setUint64(store, nonceKey(sender), nonce+1); err != nil {
		return err
	}
	if tx.Fee == 0 {
		return nil
	}

	var generator []byte
	if header := ctx.Header(); header != nil {
		generator = header.GeneratorAddress
	}
	if err := move(store, sender, generator, tx.Fee); err != nil {
		return err
	}
	data, _ := codec.Marshal(&TransferEvent{SenderAddress: sender, RecipientAddress: generator, Amount: tx.Fee})
	ctx.Emit(EventFee, data, sender)
	return nil
}

func (m *Module) AfterCommandExecute(ctx *statemachine.TransactionContext) error {
	return nil
}

type transferCommand struct{}

func (c *transferCommand) Name() string {
	return CommandTransfer
}

func (c *transferCommand) Verify(ctx *statemachine.TransactionContext) statemachine.VerifyResult {
	params := new(TransferParams)
	if err := codec.Unmarshal(ctx.Params(), params); err != nil {
		return statemachine.VerifyFail(errors.Wrap(err, "decode transfer params"))
	}
	if len(params.RecipientAddress) != abi.AddressLength {
		return statemachine.VerifyFail(fmt.Errorf("recipient address must be %d bytes", abi.AddressLength))
	}
	if len(params.Data) > maxDataLength {
		return statemachine.VerifyFail(fmt.Errorf("data longer than %d", maxDataLength))
	}
	return statemachine.VerifyOK()
}

func (c *transferCommand) Execute(ctx *statemachine.TransactionContext) error {
	params := new(TransferParams)
	if err := codec.Unmarshal(ctx.Params(), params); err != nil {
		return errors.Wrap(err, "decode transfer params")
	}
	sender := ctx.Transaction.SenderAddress()
	if err := move(ctx.StateStore(), sender, params.RecipientAddress, params.Amount); err != nil {
		return err
	}
	data, _ := codec.Marshal(&TransferEvent{
		SenderAddress:    sender,
		RecipientAddress: params.RecipientAddress,
		Amount:           params.Amount,
	})
	ctx.Emit(EventTransfer, data, sender, params.RecipientAddress)
	return nil
}

// move burns the amount when to is empty
func move(store *sandbox.View, from, to []byte, amount uint64) error {
	balance, err := getUint64(store, balanceKey(from))
	if err != nil {
		return err
	}
	if balance < amount {
		return fmt.Errorf("insufficient balance %d for %d", balance, amount)
	}
	if err := setUint64(store, balanceKey(from), balance-amount); err != nil {
		return err
	}
	if len(to) == 0 {
		return nil
	}
	toBalance, err := getUint64(store, balanceKey(to))
	if err != nil {
		return err
	}
	return setUint64(store, balanceKey(to), toBalance+amount)
}

func getBalance(ctx *invoke.Context) ([]byte, error) {
	q := new(balanceQuery)
	if err := json.Unmarshal(ctx.Params, q); err != nil {
		return nil, errors.Wrap(err, "decode params")
	}
	addr, err := decodeAddress(q.Address)
	if err != nil {
		return nil, err
	}
	balance, err := getUint64(ctx.StateStore(), balanceKey(addr))
	if err != nil {
		return nil, err
	}
	nonce, err := getUint64(ctx.StateStore(), nonceKey(addr))
	if err != nil {
		return nil, err
	}
	return json.Marshal(&balanceResult{Address: hex.EncodeToString(addr), Balance: balance, Nonce: nonce})
}

func decodeAddress(s string) ([]byte, error) {
	addr, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(addr) == 0 {
		return nil, fmt.Errorf("invalid address %q", s)
	}
	return addr, nil
}

func balanceKey(addr []byte) []byte {
	return append(append([]byte{}, prefixBalance...), addr...)
}

func nonceKey(addr []byte) []byte {
	return append(append([]byte{}, prefixNonce...), addr...)
}

func getUint64(store *sandbox.View, key []byte) (uint64, error) {
	val, err := store.Get(key)
	if err != nil {
		return 0, err
	}
	if len(val) != 8 {
		return 0, nil
	}
	return binary.BigEndian.Uint64(val), nil
}

func setUint64(store *sandbox.View, key []byte, v uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return store.Set(key, buf)
}
