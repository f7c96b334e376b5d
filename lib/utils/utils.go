package utils

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	rndMu sync.Mutex
	rnd   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// FileIsExist reports whether the named file or directory exists.
func FileIsExist(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}

	return true
}

// GenPseudoUniqId generate unique id, not strictly unique.
// The probability of repetition is very low, see the unit test.
func GenPseudoUniqId() uint64 {
	nano := time.Now().UnixNano()

	rndMu.Lock()
	randNum1 := rnd.Int63()
	randNum2 := rnd.Int63()
	shift1 := rnd.Intn(16) + 2
	shift2 := rnd.Intn(8) + 1
	rndMu.Unlock()

	uId := ((randNum1 >> uint(shift1)) + (randNum2 >> uint(shift2)) + (nano >> 1)) &
		0x1FFFFFFFFFFFFF
	return uint64(uId)
}

// GenLogId generate log id, not strictly unique.
func GenLogId() string {
	return fmt.Sprintf("%d_%d", time.Now().Unix(), GenPseudoUniqId())
}

// GetFuncCall get call site by runtime.Caller
func GetFuncCall(callDepth int) (string, string) {
	pc, file, line, ok := runtime.Caller(callDepth)
	if !ok {
		return "???:0", "???"
	}

	f := runtime.FuncForPC(pc)
	_, function := path.Split(f.Name())
	_, filename := path.Split(file)

	fline := filename + ":" + strconv.Itoa(line)
	return fline, function
}

// GetCurFileDir 获取当前源文件目录
func GetCurFileDir() string {
	_, filename, _, _ := runtime.Caller(1)
	return path.Dir(filename)
}

// GetCurExecDir 获取当前执行目录
func GetCurExecDir() string {
	curDir, _ := filepath.Abs(filepath.Dir(os.Args[0]))
	return curDir
}

func GetHostName() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "127.0.0.1"
	}

	return hostname
}

// F print byte slice data as hex string
func F(b []byte) string {
	return fmt.Sprintf("%x", b)
}

// DecodeHex decode a hex string, an optional 0x prefix is allowed
func DecodeHex(str string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(str, "0x"))
}
