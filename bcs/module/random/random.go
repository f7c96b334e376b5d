// Package random puts a seed derived from the previous block into every block.
package random

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/xuperchain/crypto/core/hash"

	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/invoke"
	"github.com/xuperchain/xabi/kernel/statemachine"
)

const ModuleName = "random"

var (
	keySeed   = []byte("seed")
	keyHeight = []byte("height")
)

type Module struct{}

func NewModule() *Module {
	return &Module{}
}

func (m *Module) Name() string {
	return ModuleName
}

func (m *Module) Metadata() *statemachine.ModuleMetadata {
	return &statemachine.ModuleMetadata{
		Endpoints: []string{"getSeed"},
		Assets:    []string{"seed"},
		Stores:    []string{"seed"},
	}
}

func (m *Module) Endpoints() map[string]invoke.Handler {
	return map[string]invoke.Handler{
		"getSeed": getSeed,
	}
}

// Seed is sha256(previousBlockID || height)
func Seed(header *abi.BlockHeader) []byte {
	buf := make([]byte, 0, len(header.PreviousBlockID)+4)
	buf = append(buf, header.PreviousBlockID...)
	buf = binary.BigEndian.AppendUint32(buf, header.Height)
	return hash.HashUsingSha256(buf)
}

func (m *Module) InsertAssets(ctx *statemachine.InsertAssetContext) error {
	if ctx.Header() == nil {
		return fmt.Errorf("no block header")
	}
	ctx.SetAsset(Seed(ctx.Header()))
	return nil
}

func (m *Module) VerifyAssets(ctx *statemachine.BlockVerifyContext) error {
	seed := ctx.Assets.Get(ModuleName)
	if seed == nil {
		return fmt.Errorf("seed asset missing")
	}
	if !bytes.Equal(seed, Seed(ctx.Header())) {
		return fmt.Errorf("seed asset %x does not match block", seed)
	}
	return nil
}

func (m *Module) BeforeTransactionsExecute(ctx *statemachine.BlockExecuteContext) error {
	seed := ctx.Assets.Get(ModuleName)
	if seed == nil {
		return nil
	}
	store := ctx.StateStore()
	if err := store.Set(keySeed, seed); err != nil {
		return err
	}
	height := make([]byte, 4)
	binary.BigEndian.PutUint32(height, ctx.Header().Height)
	return store.Set(keyHeight, height)
}

func (m *Module) AfterTransactionsExecute(ctx *statemachine.BlockAfterExecuteContext) error {
	return nil
}

type seedResult struct {
	Seed   string `json:"seed"`
	Height uint32 `json:"height"`
}

func getSeed(ctx *invoke.Context) ([]byte, error) {
	seed, err := ctx.StateStore().Get(keySeed)
	if err != nil {
		return nil, err
	}
	if seed == nil {
		return nil, fmt.Errorf("no seed stored")
	}
	height, err := ctx.StateStore().Get(keyHeight)
	if err != nil {
		return nil, err
	}
	res := &seedResult{Seed: hex.EncodeToString(seed)}
	if len(height) == 4 {
		res.Height = binary.BigEndian.Uint32(height)
	}
	return json.Marshal(res)
}
