package xconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuperchain/xabi/lib/utils"
)

func getConfDir() string {
	return filepath.Join(utils.GetCurFileDir(), "conf")
}

func TestLoadEnvConf(t *testing.T) {
	envCfg, err := LoadEnvConf(filepath.Join(getConfDir(), "env.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/xabi", envCfg.RootPath)
	assert.True(t, envCfg.MetricSwitch)
	assert.Equal(t, "/tmp/xabi/conf/app.yaml", envCfg.GenConfFilePath(envCfg.AppConf))
	assert.Equal(t, "/tmp/xabi/data/state", envCfg.GenDataAbsPath("state"))
	assert.Equal(t, "/abs/genesis.json", envCfg.GenConfFilePath("/abs/genesis.json"))

	_, err = LoadEnvConf(filepath.Join(getConfDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadAppConf(t *testing.T) {
	appCfg, err := LoadAppConf(filepath.Join(getConfDir(), "app.yaml"))
	require.NoError(t, err)

	chainID, err := appCfg.GetChainID()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 1}, chainID)
	assert.Equal(t, "badger", appCfg.ModuleDBEngine)
	assert.Equal(t, 2000, appCfg.CallTimeoutMs)
	// defaults kept for keys absent from the file
	assert.Equal(t, "state", appCfg.StateDir)
	assert.Equal(t, 10000, appCfg.StateCacheSize)

	appCfg.ChainID = ""
	_, err = appCfg.GetChainID()
	assert.Error(t, err)
	appCfg.ChainID = "xyz"
	_, err = appCfg.GetChainID()
	assert.Error(t, err)
}

func TestEnvLoadGenesis(t *testing.T) {
	envCfg := GetDefEnvConf()
	envCfg.RootPath = filepath.Dir(getConfDir())

	gen, err := envCfg.LoadGenesis()
	require.NoError(t, err)
	assert.Equal(t, uint32(1700000000), gen.Timestamp)
	require.Len(t, gen.Assets, 2)
	assert.Contains(t, string(gen.GetAsset("token")), "balances")
	assert.Nil(t, gen.GetAsset("random"))
}

func TestParseGenesisDuplicate(t *testing.T) {
	_, err := ParseGenesis([]byte(`{"assets":[{"module":"a","data":{}},{"module":"a","data":{}}]}`))
	assert.Error(t, err)
	_, err = ParseGenesis([]byte(`{"assets":[{"data":{}}]}`))
	assert.Error(t, err)

	fName := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(fName, []byte("{"), 0644))
	_, err = LoadGenesis(fName)
	assert.Error(t, err)
}
