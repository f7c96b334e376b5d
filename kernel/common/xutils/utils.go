package xutils

import (
	"os"
	"path/filepath"

	"github.com/xuperchain/xabi/lib/utils"
)

const (
	// XEnvVarRootPath overrides the root directory of the process
	XEnvVarRootPath = "XABI_ROOT_PATH"
)

// Set environment variable:XABI_ROOT_PATH
func GetXRootPath() string {
	rtPath := os.Getenv(XEnvVarRootPath)
	if rtPath != "" && utils.FileIsExist(rtPath) {
		return rtPath
	}

	return ""
}

// GetCurRootDir returns the parent of the binary directory, bin/../
func GetCurRootDir() string {
	return filepath.Dir(utils.GetCurExecDir())
}
