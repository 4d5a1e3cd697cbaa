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
	"github.com/BurntSushi/toml"

	"github.com/alont/ClickHouse/pkg/common/moerr"
	"github.com/alont/ClickHouse/pkg/logutil"
)

// SetParameters are the tunables of the IN-set build phase.
type SetParameters struct {
	// MaxRowsInSet caps the number of distinct tuples; 0 is unlimited.
	MaxRowsInSet uint64 `toml:"maxRowsInSet"`

	// MaxBytesInSet caps the table memory; 0 is unlimited.
	MaxBytesInSet uint64 `toml:"maxBytesInSet"`

	// OverflowMode is "throw" or "break".
	OverflowMode string `toml:"overflowMode"`

	// TransformNullIn lets NULL take part in membership.
	TransformNullIn bool `toml:"transformNullIn"`

	// MaxRetainedElements caps the retained tuple store; 0 is
	// unlimited.
	MaxRetainedElements uint64 `toml:"maxRetainedElements"`

	// Log configures the global logger.
	Log logutil.LogConfig `toml:"log"`
}

const (
	OverflowModeThrow = "throw"
	OverflowModeBreak = "break"
)

func (p *SetParameters) SetDefaultValues() {
	if p.OverflowMode == "" {
		p.OverflowMode = OverflowModeThrow
	}
	if p.Log.Level == "" {
		p.Log.Level = "info"
	}
}

func (p *SetParameters) Validate() error {
	if p.OverflowMode != OverflowModeThrow && p.OverflowMode != OverflowModeBreak {
		return moerr.NewInvalidInputNoCtx("overflowMode %q, want throw or break", p.OverflowMode)
	}
	return nil
}

// LoadSetParameters parses a toml file into parameters with defaults
// applied.
func LoadSetParameters(file string) (*SetParameters, error) {
	var params SetParameters
	if _, err := toml.DecodeFile(file, &params); err != nil {
		return nil, moerr.NewInvalidInputNoCtx("parse config %s: %s", file, err)
	}
	params.SetDefaultValues()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &params, nil
}
