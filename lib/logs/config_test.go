package logs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLogConf(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "log.yaml")
	content := "module: app\nfilename: app\nlevel: info\nconsole: false\nrotateInterval: 0\n"
	require.NoError(t, os.WriteFile(cfgFile, []byte(content), 0644))

	cfg, err := LoadLogConf(cfgFile)
	require.NoError(t, err)
	assert.Equal(t, "app", cfg.Module)
	assert.Equal(t, "info", cfg.Level)
	assert.False(t, cfg.Console)
	// untouched keys keep defaults
	assert.Equal(t, "logfmt", cfg.Fmt)

	_, err = LoadLogConf(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestOpenLog(t *testing.T) {
	lc := GetDefLogConf()
	lc.Console = false
	lc.RotateInterval = 0
	dir := t.TempDir()

	xlog, err := OpenLog(lc, dir)
	require.NoError(t, err)
	xlog.Warn("open log test")
	assert.FileExists(t, filepath.Join(dir, "xabi.log.wf"))

	lc.Level = "nope"
	_, err = OpenLog(lc, dir)
	assert.Error(t, err)
}
