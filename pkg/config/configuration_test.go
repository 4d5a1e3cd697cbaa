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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSetParameters(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "set.toml")
	require.NoError(t, os.WriteFile(file, []byte(`
maxRowsInSet = 1000
maxBytesInSet = 1048576
overflowMode = "break"
transformNullIn = true
maxRetainedElements = 100

[log]
level = "debug"
`), 0o644))

	params, err := LoadSetParameters(file)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), params.MaxRowsInSet)
	require.Equal(t, uint64(1<<20), params.MaxBytesInSet)
	require.Equal(t, OverflowModeBreak, params.OverflowMode)
	require.True(t, params.TransformNullIn)
	require.Equal(t, uint64(100), params.MaxRetainedElements)
	require.Equal(t, "debug", params.Log.Level)
}

func TestDefaults(t *testing.T) {
	var params SetParameters
	params.SetDefaultValues()
	require.Equal(t, OverflowModeThrow, params.OverflowMode)
	require.NoError(t, params.Validate())
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	params := SetParameters{OverflowMode: "panic"}
	require.Error(t, params.Validate())
}
