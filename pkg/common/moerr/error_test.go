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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	err := NewSetSizeLimitExceededNoCtx(100, 4096)
	require.True(t, IsMoErrCode(err, ErrSetSizeLimitExceeded))
	require.False(t, IsMoErrCode(err, ErrInternal))
	require.Contains(t, err.Error(), "100 rows")

	require.True(t, IsMoErrCode(nil, Ok))
	require.False(t, IsMoErrCode(errors.New("plain"), ErrInternal))
}

func TestErrorMessages(t *testing.T) {
	err := NewColumnCountMismatchNoCtx(2, 3)
	require.Equal(t, "number of columns in section IN doesn't match: 2 at left, 3 at right", err.Error())

	err = NewTypeMismatchNoCtx(0, "varchar", "int64")
	require.Contains(t, err.Error(), "column 1")

	err = NewInternalErrorNoCtx("bad state %d", 7)
	require.Equal(t, "internal error: bad state 7", err.Error())
}

func TestErrorIs(t *testing.T) {
	err := NewOOMNoCtx()
	require.True(t, errors.Is(err, NewOOMNoCtx()))
	require.False(t, errors.Is(err, NewInternalErrorNoCtx("x")))
}
