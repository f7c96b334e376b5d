package logs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/xuperchain/log15"
)

const (
	// 未初始化日志时的默认输出级别
	defConsoleLevel = "warn"
)

var (
	logMu     sync.RWMutex
	logHandle log.Logger
)

// InitLog open the process log from config file, the defaults are used
// when the file can not be loaded
func InitLog(cfgFile, logDir string) error {
	lc, err := LoadLogConf(cfgFile)
	if err != nil {
		lc = GetDefLogConf()
	}

	xlog, err := OpenLog(lc, logDir)
	if err != nil {
		return err
	}

	logMu.Lock()
	defer logMu.Unlock()
	logHandle = xlog
	return nil
}

// OpenLog create and open log stream using LogConf
func OpenLog(lc *LogConf, logDir string) (log.Logger, error) {
	infoFile := filepath.Join(logDir, lc.Filename+".log")
	wfFile := filepath.Join(logDir, lc.Filename+".log.wf")
	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create log dir failed.err:%v", err)
	}

	lfmt := log.LogfmtFormat()
	switch lc.Fmt {
	case "json":
		lfmt = log.JsonFormat()
	}

	xlog := log.New("module", lc.Module)
	lvLevel, err := log.LvlFromString(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("log level error.err:%v", err)
	}
	// set lowest level as level limit, this may improve performance
	xlog.SetLevelLimit(lvLevel)

	// RotateFileHandler only valid if `RotateInterval` and `RotateBackups` greater than 0
	var (
		nmHandler log.Handler
		wfHandler log.Handler
	)
	if lc.RotateInterval > 0 && lc.RotateBackups > 0 {
		nmHandler = log.Must.RotateFileHandler(
			infoFile, lfmt, lc.RotateInterval, lc.RotateBackups)
		wfHandler = log.Must.RotateFileHandler(
			wfFile, lfmt, lc.RotateInterval, lc.RotateBackups)
	} else {
		nmHandler = log.Must.FileHandler(infoFile, lfmt)
		wfHandler = log.Must.FileHandler(wfFile, lfmt)
	}

	if lc.Async {
		nmHandler = log.BufferedHandler(lc.BufSize, nmHandler)
		wfHandler = log.BufferedHandler(lc.BufSize, wfHandler)
	}

	// prints log level between `lvLevel` to Info to common log
	nmfileh := log.BoundLvlFilterHandler(lvLevel, log.LvlError, nmHandler)
	// prints log level greater or equal to Warn to wf log
	wffileh := log.LvlFilterHandler(log.LvlWarn, wfHandler)

	var lhd log.Handler
	if lc.Console {
		hstd := log.StreamHandler(os.Stderr, lfmt)
		lhd = log.SyncHandler(log.MultiHandler(hstd, nmfileh, wffileh))
	} else {
		lhd = log.SyncHandler(log.MultiHandler(nmfileh, wffileh))
	}
	xlog.SetHandler(lhd)

	return xlog, nil
}

// 未调用InitLog时（单测、工具命令），输出到标准错误
func consoleLog() log.Logger {
	xlog := log.New("module", "xabi")
	lvLevel, _ := log.LvlFromString(defConsoleLevel)
	xlog.SetLevelLimit(lvLevel)
	xlog.SetHandler(log.LvlFilterHandler(lvLevel,
		log.StreamHandler(os.Stderr, log.LogfmtFormat())))
	return xlog
}

// NewLogger create a logger of sub module, logId is generated if empty
func NewLogger(logId string, subMod string) (Logger, error) {
	logMu.RLock()
	root := logHandle
	logMu.RUnlock()

	if root == nil {
		root = consoleLog()
	}

	return NewLogFitter(root.New("submod", subMod), logId)
}
