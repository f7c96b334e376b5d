package statemachine

import (
	"sort"

	"github.com/xuperchain/xabi/kernel/abi"
)

// BlockAssets holds at most one asset per module, kept sorted by module
type BlockAssets struct {
	assets []*abi.BlockAsset
}

func NewBlockAssets(assets []*abi.BlockAsset) *BlockAssets {
	ba := &BlockAssets{}
	for _, a := range assets {
		if a != nil {
			ba.Set(a.Module, a.Data)
		}
	}
	return ba
}

// Get returns nil if module has no asset
func (b *BlockAssets) Get(module string) []byte {
	i := b.search(module)
	if i < len(b.assets) && b.assets[i].Module == module {
		return b.assets[i].Data
	}
	return nil
}

func (b *BlockAssets) Set(module string, data []byte) {
	i := b.search(module)
	if i < len(b.assets) && b.assets[i].Module == module {
		b.assets[i].Data = data
		return
	}
	b.assets = append(b.assets, nil)
	copy(b.assets[i+1:], b.assets[i:])
	b.assets[i] = &abi.BlockAsset{Module: module, Data: data}
}

func (b *BlockAssets) List() []*abi.BlockAsset {
	out := make([]*abi.BlockAsset, len(b.assets))
	copy(out, b.assets)
	return out
}

func (b *BlockAssets) search(module string) int {
	return sort.Search(len(b.assets), func(i int) bool {
		return b.assets[i].Module >= module
	})
}
