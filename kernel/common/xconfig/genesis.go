package xconfig

import (
	"encoding/json"
	"fmt"
	"os"
)

// GenesisAsset is the genesis data of one module, data is kept as raw json
// and decoded by the module itself
type GenesisAsset struct {
	Module string          `json:"module"`
	Data   json.RawMessage `json:"data"`
}

// Genesis is the genesis block definition
type Genesis struct {
	Height    uint32          `json:"height"`
	Timestamp uint32          `json:"timestamp"`
	Assets    []*GenesisAsset `json:"assets"`
}

func LoadGenesis(fName string) (*Genesis, error) {
	data, err := os.ReadFile(fName)
	if err != nil {
		return nil, fmt.Errorf("read genesis failed.path:%s,err:%v", fName, err)
	}
	return ParseGenesis(data)
}

func ParseGenesis(data []byte) (*Genesis, error) {
	gen := new(Genesis)
	if err := json.Unmarshal(data, gen); err != nil {
		return nil, fmt.Errorf("unmarshal genesis failed.err:%v", err)
	}
	seen := make(map[string]bool, len(gen.Assets))
	for _, asset := range gen.Assets {
		if asset.Module == "" {
			return nil, fmt.Errorf("genesis asset without module")
		}
		if seen[asset.Module] {
			return nil, fmt.Errorf("duplicate genesis asset.module:%s", asset.Module)
		}
		seen[asset.Module] = true
	}
	return gen, nil
}

// GetAsset returns the genesis data of module, nil if absent
func (t *Genesis) GetAsset(module string) []byte {
	for _, asset := range t.Assets {
		if asset.Module == module {
			return asset.Data
		}
	}
	return nil
}
