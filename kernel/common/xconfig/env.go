package xconfig

import (
	"fmt"
	"path/filepath"

	"github.com/xuperchain/xabi/kernel/common/xutils"
	"github.com/xuperchain/xabi/lib/utils"

	"github.com/spf13/viper"
)

type EnvConf struct {
	// Program running root directory
	RootPath string `yaml:"rootPath,omitempty"`
	// config file directory
	ConfDir string `yaml:"confDir,omitempty"`
	// data file directory
	DataDir string `yaml:"dataDir,omitempty"`
	// log file directory
	LogDir string `yaml:"logDir,omitempty"`
	// log config file name
	LogConf string `yaml:"logConf,omitempty"`
	// application config file name
	AppConf string `yaml:"appConf,omitempty"`
	// metric switch
	MetricSwitch bool `yaml:"metricSwitch,omitempty"`
}

func LoadEnvConf(cfgFile string) (*EnvConf, error) {
	cfg := GetDefEnvConf()
	err := loadConf(cfgFile, cfg)
	if err != nil {
		return nil, fmt.Errorf("load env config failed.err:%s", err)
	}

	// root path priority: 1:XABI_ROOT_PATH 2:config file 3:parent of bin dir
	rt := xutils.GetXRootPath()
	if rt != "" {
		cfg.RootPath = rt
	}

	return cfg, nil
}

func GetDefEnvConf() *EnvConf {
	return &EnvConf{
		RootPath:     xutils.GetCurRootDir(),
		ConfDir:      "conf",
		DataDir:      "data",
		LogDir:       "logs",
		LogConf:      "log.yaml",
		AppConf:      "app.yaml",
		MetricSwitch: false,
	}
}

func (t *EnvConf) GenDirAbsPath(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(t.RootPath, dir)
}

func (t *EnvConf) GenDataAbsPath(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(t.GenDirAbsPath(t.DataDir), dir)
}

func (t *EnvConf) GenConfFilePath(fName string) string {
	if filepath.IsAbs(fName) {
		return fName
	}
	return filepath.Join(t.GenDirAbsPath(t.ConfDir), fName)
}

// LoadAppConf reads app.yaml from the conf dir, every call hits the file
func (t *EnvConf) LoadAppConf() (*AppConf, error) {
	return LoadAppConf(t.GenConfFilePath(t.AppConf))
}

// LoadGenesis reads the genesis file named by app.yaml
func (t *EnvConf) LoadGenesis() (*Genesis, error) {
	appCfg, err := t.LoadAppConf()
	if err != nil {
		return nil, err
	}
	return LoadGenesis(t.GenConfFilePath(appCfg.GenesisFile))
}

func loadConf(cfgFile string, out interface{}) error {
	if cfgFile == "" || !utils.FileIsExist(cfgFile) {
		return fmt.Errorf("config file set error.path:%s", cfgFile)
	}

	viperObj := viper.New()
	viperObj.SetConfigFile(cfgFile)
	err := viperObj.ReadInConfig()
	if err != nil {
		return fmt.Errorf("read config failed.path:%s,err:%v", cfgFile, err)
	}

	if err = viperObj.Unmarshal(out); err != nil {
		return fmt.Errorf("unmatshal config failed.path:%s,err:%v", cfgFile, err)
	}

	return nil
}
