// Package validators keeps the validator set and a registry of validator keys.
package validators

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/abi/codec"
	"github.com/xuperchain/xabi/kernel/invoke"
	"github.com/xuperchain/xabi/kernel/state/sandbox"
	"github.com/xuperchain/xabi/kernel/statemachine"
)

const (
	ModuleName          = "validators"
	CommandRegisterKeys = "registerKeys"
	EventKeysRegistered = "keysRegistered"

	blsKeyLength       = 48
	generatorKeyLength = 32
)

var (
	keyValidators = []byte("set")
	keyThreshold  = []byte("certificateThreshold")
	// module store
	prefixKeys = []byte("keys/")
)

// ValidatorSet is the stored committee
type ValidatorSet struct {
	Validators []*abi.Validator
}

func (m *ValidatorSet) FieldCount() int { return 1 }

func (m *ValidatorSet) MarshalABI(e *codec.Encoder) {
	codec.EncodeRepeated(e, 1, m.Validators)
}

func (m *ValidatorSet) UnmarshalABI(d *codec.Decoder) {
	m.Validators = codec.DecodeRepeated[abi.Validator](d, 1)
}

// RegisterKeysParams are the params of the registerKeys command
type RegisterKeysParams struct {
	GeneratorKey []byte
	BlsKey       []byte
}

func (m *RegisterKeysParams) FieldCount() int { return 2 }

func (m *RegisterKeysParams) MarshalABI(e *codec.Encoder) {
	e.Bytes(1, m.GeneratorKey)
	e.Bytes(2, m.BlsKey)
}

func (m *RegisterKeysParams) UnmarshalABI(d *codec.Decoder) {
	m.GeneratorKey = d.Bytes(1)
	m.BlsKey = d.Bytes(2)
}

type genesisValidator struct {
	Address      string `json:"address"`
	BftWeight    uint64 `json:"bftWeight"`
	GeneratorKey string `json:"generatorKey"`
	BlsKey       string `json:"blsKey"`
}

type genesisData struct {
	Validators           []genesisValidator `json:"validators"`
	PreCommitThreshold   uint64             `json:"preCommitThreshold"`
	CertificateThreshold uint64             `json:"certificateThreshold"`
}

type Module struct{}

func NewModule() *Module {
	return &Module{}
}

func (m *Module) Name() string {
	return ModuleName
}

func (m *Module) Metadata() *statemachine.ModuleMetadata {
	return &statemachine.ModuleMetadata{
		Endpoints: []string{"getValidators"},
		Commands:  []string{CommandRegisterKeys},
		Events:    []string{EventKeysRegistered},
		Stores:    []string{"set", "certificateThreshold", "keys"},
	}
}

func (m *Module) Commands() []statemachine.Command {
	return []statemachine.Command{&registerKeysCommand{}}
}

func (m *Module) Endpoints() map[string]invoke.Handler {
	return map[string]invoke.Handler{
		"getValidators": getValidators,
	}
}

func (m *Module) InitGenesisState(ctx *statemachine.GenesisBlockContext) error {
	if ctx.Asset == nil {
		return nil
	}
	gen := new(genesisData)
	if err := json.Unmarshal(ctx.Asset, gen); err != nil {
		return errors.Wrap(err, "decode validators genesis")
	}

	set := &ValidatorSet{Validators: make([]*abi.Validator, 0, len(gen.Validators))}
	for _, gv := range gen.Validators {
		v, err := gv.decode()
		if err != nil {
			return err
		}
		set.Validators = append(set.Validators, v)
		if err := setKeys(ctx.ModuleStore(), v.Address, v.GeneratorKey, v.BlsKey); err != nil {
			return err
		}
	}
	if len(set.Validators) == 0 {
		return nil
	}

	preCommit := gen.PreCommitThreshold
	if preCommit == 0 {
		preCommit = statemachine.PreCommitThreshold(set.Validators)
	}
	certificate := gen.CertificateThreshold
	if certificate == 0 {
		certificate = preCommit
	}
	if err := saveSet(ctx.StateStore(), set, certificate); err != nil {
		return err
	}
	ctx.SetNextValidators(preCommit, certificate, set.Validators)
	return nil
}

func (m *Module) BeforeTransactionsExecute(ctx *statemachine.BlockExecuteContext) error {
	return nil
}

// AfterTransactionsExecute proposes the stored set with the keys registered so far
func (m *Module) AfterTransactionsExecute(ctx *statemachine.BlockAfterExecuteContext) error {
	set, certificate, err := loadSet(ctx.StateStore())
	if err != nil {
		return err
	}
	if set == nil || len(set.Validators) == 0 {
		return nil
	}

	changed := false
	for _, v := range set.Validators {
		generatorKey, blsKey, err := getKeys(ctx.ModuleStore(), v.Address)
		if err != nil {
			return err
		}
		if blsKey == nil {
			continue
		}
		if !bytes.Equal(v.BlsKey, blsKey) || !bytes.Equal(v.GeneratorKey, generatorKey) {
			v.GeneratorKey, v.BlsKey = generatorKey, blsKey
			changed = true
		}
	}
	if changed {
		if err := saveSet(ctx.StateStore(), set, certificate); err != nil {
			return err
		}
	}
	ctx.SetNextValidators(statemachine.PreCommitThreshold(set.Validators), certificate, set.Validators)
	return nil
}

type registerKeysCommand struct{}

func (c *registerKeysCommand) Name() string {
	return CommandRegisterKeys
}

func (c *registerKeysCommand) Verify(ctx *statemachine.TransactionContext) statemachine.VerifyResult {
	params := new(RegisterKeysParams)
	if err := codec.Unmarshal(ctx.Params(), params); err != nil {
		return statemachine.VerifyFail(errors.Wrap(err, "decode registerKeys params"))
	}
	if len(params.GeneratorKey) != generatorKeyLength {
		return statemachine.VerifyFail(fmt.Errorf("generator key must be %d bytes", generatorKeyLength))
	}
	if len(params.BlsKey) != blsKeyLength {
		return statemachine.VerifyFail(fmt.Errorf("bls key must be %d bytes", blsKeyLength))
	}
	return statemachine.VerifyOK()
}

func (c *registerKeysCommand) Execute(ctx *statemachine.TransactionContext) error {
	params := new(RegisterKeysParams)
	if err := codec.Unmarshal(ctx.Params(), params); err != nil {
		return errors.Wrap(err, "decode registerKeys params")
	}
	sender := ctx.Transaction.SenderAddress()
	if err := setKeys(ctx.ModuleStore(), sender, params.GeneratorKey, params.BlsKey); err != nil {
		return err
	}
	ctx.Emit(EventKeysRegistered, ctx.Params(), sender)
	return nil
}

func (gv *genesisValidator) decode() (*abi.Validator, error) {
	var err error
	v := &abi.Validator{BftWeight: gv.BftWeight}
	if v.Address, err = hex.DecodeString(gv.Address); err != nil || len(v.Address) == 0 {
		return nil, fmt.Errorf("invalid validator address %q", gv.Address)
	}
	if v.GeneratorKey, err = hex.DecodeString(gv.GeneratorKey); err != nil {
		return nil, fmt.Errorf("invalid generator key of %s", gv.Address)
	}
	if v.BlsKey, err = hex.DecodeString(gv.BlsKey); err != nil {
		return nil, fmt.Errorf("invalid bls key of %s", gv.Address)
	}
	return v, nil
}

func saveSet(store *sandbox.View, set *ValidatorSet, certificateThreshold uint64) error {
	data, err := codec.Marshal(set)
	if err != nil {
		return err
	}
	if err := store.Set(keyValidators, data); err != nil {
		return err
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, certificateThreshold)
	return store.Set(keyThreshold, buf)
}

// loadSet returns a nil set if none is stored
func loadSet(store *sandbox.View) (*ValidatorSet, uint64, error) {
	data, err := store.Get(keyValidators)
	if err != nil || data == nil {
		return nil, 0, err
	}
	set := new(ValidatorSet)
	if err := codec.Unmarshal(data, set); err != nil {
		return nil, 0, errors.Wrap(err, "decode validator set")
	}
	var threshold uint64
	if buf, err := store.Get(keyThreshold); err != nil {
		return nil, 0, err
	} else if len(buf) == 8 {
		threshold = binary.BigEndian.Uint64(buf)
	}
	return set, threshold, nil
}

func keysKey(addr []byte) []byte {
	return append(append([]byte{}, prefixKeys...), addr...)
}

func setKeys(store *sandbox.View, addr, generatorKey, blsKey []byte) error {
	data, err := codec.Marshal(&RegisterKeysParams{GeneratorKey: generatorKey, BlsKey: blsKey})
	if err != nil {
		return err
	}
	return store.Set(keysKey(addr), data)
}

func getKeys(store *sandbox.View, addr []byte) (generatorKey, blsKey []byte, err error) {
	data, err := store.Get(keysKey(addr))
	if err != nil || data == nil {
		return nil, nil, err
	}
	keys := new(RegisterKeysParams)
	if err := codec.Unmarshal(data, keys); err != nil {
		return nil, nil, errors.Wrap(err, "decode keys")
	}
	return keys.GeneratorKey, keys.BlsKey, nil
}

type validatorResult struct {
	Address      string `json:"address"`
	BftWeight    uint64 `json:"bftWeight"`
	GeneratorKey string `json:"generatorKey"`
	BlsKey       string `json:"blsKey"`
}

type validatorsResult struct {
	Validators           []validatorResult `json:"validators"`
	CertificateThreshold uint64            `json:"certificateThreshold"`
}

func getValidators(ctx *invoke.Context) ([]byte, error) {
	set, threshold, err := loadSet(ctx.StateStore())
	if err != nil {
		return nil, err
	}
	res := &validatorsResult{Validators: []validatorResult{}, CertificateThreshold: threshold}
	if set != nil {
		for _, v := range set.Validators {
			res.Validators = append(res.Validators, validatorResult{
				Address:      hex.EncodeToString(v.Address),
				BftWeight:    v.BftWeight,
				GeneratorKey: hex.EncodeToString(v.GeneratorKey),
				BlsKey:       hex.EncodeToString(v.BlsKey),
			})
		}
	}
	return json.Marshal(res)
}
