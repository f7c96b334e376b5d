package abi

import (
	"fmt"
)

const (
	// 拒绝处理类错误状态
	ErrStatusRefused = 400
	// 内部错误类错误状态
	ErrStatusInternalErr = 500
	// 调用超时类错误状态
	ErrStatusTimeout = 504
)

type Error struct {
	// 用于统计和监控的错误分类（类似http的4xx、5xx）
	Status int
	// 用于标识具体错误的详细错误码
	Code int
	// 用于说明具体错误的说明信息
	Msg string
}

func CastError(err error) *Error {
	if err == nil {
		return nil
	}
	if defErr, ok := err.(*Error); ok {
		return defErr
	}

	return ErrUnknown.More("%s", err.Error())
}

func (t *Error) Error() string {
	return fmt.Sprintf("Err:%d-%d-%s", t.Status, t.Code, t.Msg)
}

func (t *Error) More(format string, args ...interface{}) *Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	return &Error{t.Status, t.Code, t.Msg + "+" + msg}
}

// Is lets errors.Is match on the code, the message may carry details
func (t *Error) Is(target error) bool {
	rhs, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == rhs.Code
}

var (
	ErrUnknown   = &Error{ErrStatusInternalErr, 50000, "unknown error"}
	ErrParameter = &Error{ErrStatusRefused, 40000, "param error"}

	// protocol
	ErrDecodeRequest       = &Error{ErrStatusRefused, 40001, "Failed to decode request"}
	ErrMethodNotRegistered = &Error{ErrStatusRefused, 40002, "method not registered"}
	ErrEncodeResponse      = &Error{ErrStatusInternalErr, 50001, "encode response failed"}
	ErrTimeout             = &Error{ErrStatusTimeout, 50401, "call timeout"}
	ErrConnectTimeout      = &Error{ErrStatusTimeout, 50402, "connect timeout"}
	ErrNotConnected        = &Error{ErrStatusInternalErr, 50002, "client not connected"}
	ErrCallFailed          = &Error{ErrStatusInternalErr, 50003, "remote call failed"}
	ErrHandlerPanic        = &Error{ErrStatusInternalErr, 50004, "handler panic"}

	// execution context
	ErrInvalidContext = &Error{ErrStatusRefused, 40101, "invalid context id"}
	ErrNoContext      = &Error{ErrStatusRefused, 40102, "no execution context"}
	ErrContextExists  = &Error{ErrStatusRefused, 40103, "execution context already exists"}
	ErrChainIDNotSet  = &Error{ErrStatusRefused, 40104, "chainID is not set"}
	ErrChainMismatch  = &Error{ErrStatusRefused, 40105, "chain state mismatch"}

	// state
	ErrRootMismatch = &Error{ErrStatusInternalErr, 50101, "state root mismatch"}
	ErrGenesis      = &Error{ErrStatusInternalErr, 50102, "genesis failed"}
)
