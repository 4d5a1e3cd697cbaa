// Copyright 2021 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package moerr

import (
	"context"
	"fmt"
)

const (
	// 0 - 99 is OK.  They do not contain info, and are special handled
	// using a static instance, no alloc.
	Ok uint16 = 0

	// 100 - 199 is Info
	ErrInfo uint16 = 100

	// 200 - 299 is WARNING
	ErrWarn uint16 = 200

	// Group 1: Internal errors
	ErrStart        uint16 = 20100
	ErrInternal     uint16 = 20101
	ErrNYI          uint16 = 20102
	ErrOOM          uint16 = 20103
	ErrNotSupported uint16 = 20105

	// Group 2: numeric and cast errors
	ErrDivByZero           uint16 = 20200
	ErrOutOfRange          uint16 = 20201
	ErrDataTruncated       uint16 = 20202
	ErrInvalidArg          uint16 = 20203
	ErrUnsupportedDataType uint16 = 20204

	// Group 3: invalid input
	ErrInvalidInput uint16 = 20301

	// Group 4: unexpected state
	ErrInvalidState uint16 = 20400

	// Group 10: IN-set
	ErrSetSizeLimitExceeded uint16 = 21001
	ErrColumnCountMismatch  uint16 = 21002
	ErrTypeMismatch         uint16 = 21003

	// ErrEnd, the max value of MOErrorCode
	ErrEnd uint16 = 65535
)

type moErrorMsgItem struct {
	errorCode        uint16
	errorMsgOrFormat string
}

var errorMsgRefer = map[uint16]moErrorMsgItem{
	ErrInfo: {ErrInfo, "info: %s"},
	ErrWarn: {ErrWarn, "warning: %s"},

	ErrStart:        {ErrStart, "internal error: error code start"},
	ErrInternal:     {ErrInternal, "internal error: %s"},
	ErrNYI:          {ErrNYI, "%s is not yet implemented"},
	ErrOOM:          {ErrOOM, "error: out of memory"},
	ErrNotSupported: {ErrNotSupported, "not supported: %s"},

	ErrDivByZero:           {ErrDivByZero, "division by zero"},
	ErrOutOfRange:          {ErrOutOfRange, "data out of range: data type %s, %s"},
	ErrDataTruncated:       {ErrDataTruncated, "data truncated: data type %s, %s"},
	ErrInvalidArg:          {ErrInvalidArg, "invalid argument %s, bad value %s"},
	ErrUnsupportedDataType: {ErrUnsupportedDataType, "unsupported cast: %s to %s"},

	ErrInvalidInput: {ErrInvalidInput, "invalid input: %s"},

	ErrInvalidState: {ErrInvalidState, "invalid state %s"},

	ErrSetSizeLimitExceeded: {ErrSetSizeLimitExceeded, "IN-set size limit exceeded: %d rows, %d bytes"},
	ErrColumnCountMismatch:  {ErrColumnCountMismatch, "number of columns in section IN doesn't match: %d at left, %d at right"},
	ErrTypeMismatch:         {ErrTypeMismatch, "types of column %d in section IN don't match: %s on the left, %s on the right"},
}

// Error is the standard error of this codebase.  Every error returned
// by a package of the module is an *Error carrying a stable numeric
// code, so callers dispatch on the code instead of matching strings.
type Error struct {
	code    uint16
	message string
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) ErrorCode() uint16 {
	return e.code
}

func (e *Error) Is(err error) bool {
	me, ok := err.(*Error)
	if !ok {
		return false
	}
	return me.code == e.code
}

// IsMoErrCode returns true if err is an *Error with the given code.
func IsMoErrCode(err error, code uint16) bool {
	if err == nil {
		return code == Ok
	}
	me, ok := err.(*Error)
	if !ok {
		return false
	}
	return me.code == code
}

func newError(_ context.Context, code uint16, args ...any) *Error {
	item, has := errorMsgRefer[code]
	if !has {
		panic(fmt.Errorf("missing error msg item %d", code))
	}
	if len(args) == 0 {
		return &Error{code: code, message: item.errorMsgOrFormat}
	}
	return &Error{code: code, message: fmt.Sprintf(item.errorMsgOrFormat, args...)}
}

func NewInfo(ctx context.Context, msg string) *Error {
	return newError(ctx, ErrInfo, msg)
}

func NewWarn(ctx context.Context, msg string) *Error {
	return newError(ctx, ErrWarn, msg)
}

func NewInternalError(ctx context.Context, msg string, args ...any) *Error {
	return newError(ctx, ErrInternal, fmt.Sprintf(msg, args...))
}

func NewInternalErrorNoCtx(msg string, args ...any) *Error {
	return NewInternalError(context.Background(), msg, args...)
}

func NewNYI(ctx context.Context, msg string, args ...any) *Error {
	return newError(ctx, ErrNYI, fmt.Sprintf(msg, args...))
}

func NewNYINoCtx(msg string, args ...any) *Error {
	return NewNYI(context.Background(), msg, args...)
}

func NewOOM(ctx context.Context) *Error {
	return newError(ctx, ErrOOM)
}

func NewOOMNoCtx() *Error {
	return NewOOM(context.Background())
}

func NewNotSupported(ctx context.Context, msg string, args ...any) *Error {
	return newError(ctx, ErrNotSupported, fmt.Sprintf(msg, args...))
}

func NewDivByZero(ctx context.Context) *Error {
	return newError(ctx, ErrDivByZero)
}

func NewOutOfRange(ctx context.Context, typ string, msg string, args ...any) *Error {
	return newError(ctx, ErrOutOfRange, typ, fmt.Sprintf(msg, args...))
}

func NewOutOfRangeNoCtx(typ string, msg string, args ...any) *Error {
	return NewOutOfRange(context.Background(), typ, msg, args...)
}

func NewDataTruncated(ctx context.Context, typ string, msg string, args ...any) *Error {
	return newError(ctx, ErrDataTruncated, typ, fmt.Sprintf(msg, args...))
}

func NewDataTruncatedNoCtx(typ string, msg string, args ...any) *Error {
	return NewDataTruncated(context.Background(), typ, msg, args...)
}

func NewInvalidArg(ctx context.Context, arg string, val any) *Error {
	return newError(ctx, ErrInvalidArg, arg, fmt.Sprintf("%v", val))
}

func NewUnsupportedDataType(ctx context.Context, from, to string) *Error {
	return newError(ctx, ErrUnsupportedDataType, from, to)
}

func NewUnsupportedDataTypeNoCtx(from, to string) *Error {
	return NewUnsupportedDataType(context.Background(), from, to)
}

func NewInvalidInput(ctx context.Context, msg string, args ...any) *Error {
	return newError(ctx, ErrInvalidInput, fmt.Sprintf(msg, args...))
}

func NewInvalidInputNoCtx(msg string, args ...any) *Error {
	return NewInvalidInput(context.Background(), msg, args...)
}

func NewInvalidState(ctx context.Context, msg string, args ...any) *Error {
	return newError(ctx, ErrInvalidState, fmt.Sprintf(msg, args...))
}

func NewSetSizeLimitExceeded(ctx context.Context, rows, bytes uint64) *Error {
	return newError(ctx, ErrSetSizeLimitExceeded, rows, bytes)
}

func NewSetSizeLimitExceededNoCtx(rows, bytes uint64) *Error {
	return NewSetSizeLimitExceeded(context.Background(), rows, bytes)
}

func NewColumnCountMismatch(ctx context.Context, left, right int) *Error {
	return newError(ctx, ErrColumnCountMismatch, left, right)
}

func NewColumnCountMismatchNoCtx(left, right int) *Error {
	return NewColumnCountMismatch(context.Background(), left, right)
}

func NewTypeMismatch(ctx context.Context, idx int, left, right string) *Error {
	return newError(ctx, ErrTypeMismatch, idx+1, left, right)
}

func NewTypeMismatchNoCtx(idx int, left, right string) *Error {
	return NewTypeMismatch(context.Background(), idx, left, right)
}
