package xutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetXRootPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(XEnvVarRootPath, dir)
	assert.Equal(t, dir, GetXRootPath())

	t.Setenv(XEnvVarRootPath, dir+"/not_exist")
	assert.Equal(t, "", GetXRootPath())
}
