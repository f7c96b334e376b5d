package xconfig

import (
	"fmt"
	"time"

	"github.com/xuperchain/xabi/lib/utils"
)

const (
	DefConnectTimeoutMs = 3000
	DefCallTimeoutMs    = 3000
)

// AppConf is the config of the application process and of the engine side client
type AppConf struct {
	// hex encoded chain id, read again on every ready
	ChainID string `yaml:"chainID,omitempty"`
	// genesis block definition, relative to conf dir
	GenesisFile string `yaml:"genesisFile,omitempty"`
	// ipc:///path/abi.ipc or tcp://host:port
	Endpoint string `yaml:"endpoint,omitempty"`
	// abi client timeouts
	ConnectTimeoutMs int `yaml:"connectTimeoutMs,omitempty"`
	CallTimeoutMs    int `yaml:"callTimeoutMs,omitempty"`
	// state store, relative to data dir
	StateDir       string `yaml:"stateDir,omitempty"`
	StateCacheSize int    `yaml:"stateCacheSize,omitempty"`
	// memory or single
	StateStorage string `yaml:"stateStorage,omitempty"`
	// module db, relative to data dir
	ModuleDBDir     string `yaml:"moduleDBDir,omitempty"`
	ModuleDBEngine  string `yaml:"moduleDBEngine,omitempty"`
	ModuleDBStorage string `yaml:"moduleDBStorage,omitempty"`
	MemCacheSize    int    `yaml:"memCacheSize,omitempty"`
	FdCacheSize     int    `yaml:"fdCacheSize,omitempty"`
	// prometheus listen address, used when metricSwitch is on
	MetricAddr string `yaml:"metricAddr,omitempty"`
}

func LoadAppConf(cfgFile string) (*AppConf, error) {
	cfg := GetDefAppConf()
	err := loadConf(cfgFile, cfg)
	if err != nil {
		return nil, fmt.Errorf("load app config failed.err:%s", err)
	}

	return cfg, nil
}

func GetDefAppConf() *AppConf {
	return &AppConf{
		GenesisFile:      "genesis.json",
		Endpoint:         "ipc:///tmp/xabi/abi.ipc",
		ConnectTimeoutMs: DefConnectTimeoutMs,
		CallTimeoutMs:    DefCallTimeoutMs,
		StateDir:         "state",
		StateCacheSize:   10000,
		StateStorage:     "single",
		ModuleDBDir:      "module",
		ModuleDBEngine:   "leveldb",
		ModuleDBStorage:  "single",
		MemCacheSize:     128,
		FdCacheSize:      1024,
		MetricAddr:       ":37200",
	}
}

// GetChainID decodes ChainID, an empty value is an error
func (t *AppConf) GetChainID() ([]byte, error) {
	if t.ChainID == "" {
		return nil, fmt.Errorf("chainID not configured")
	}
	chainID, err := utils.DecodeHex(t.ChainID)
	if err != nil {
		return nil, fmt.Errorf("chainID is not hex.chainID:%s,err:%v", t.ChainID, err)
	}
	return chainID, nil
}

func (t *AppConf) ConnectTimeout() time.Duration {
	return time.Duration(t.ConnectTimeoutMs) * time.Millisecond
}

func (t *AppConf) CallTimeout() time.Duration {
	return time.Duration(t.CallTimeoutMs) * time.Millisecond
}
