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

package types

import (
	"fmt"
)

type T uint8

const (
	// T_any is the zero, invalid type.
	T_any T = iota

	T_bool

	// numeric family
	T_int8
	T_int16
	T_int32
	T_int64
	T_uint8
	T_uint16
	T_uint32
	T_uint64
	T_float32
	T_float64

	// temporal family.  T_datetime and T_timestamp are stored as
	// microseconds; Scale bounds the meaningful sub-second digits.
	T_date
	T_datetime
	T_timestamp

	// variable length family
	T_char
	T_varchar
	T_blob

	T_uuid
)

const (
	flagNullable       uint8 = 1 << 0
	flagLowCardinality uint8 = 1 << 1
)

// Type describes one column type.  It is a fixed-size POD so it can be
// reinterpreted to and from bytes with EncodeType.
type Type struct {
	Oid   T
	Flags uint8

	// Size is the size of the in-memory element, Width the declared
	// display width, Scale the sub-second digits for temporal types.
	Size  int32
	Width int32
	Scale int32
}

func New(oid T, width, scale int32) Type {
	return Type{
		Oid:   oid,
		Size:  int32(oid.TypeLen()),
		Width: width,
		Scale: scale,
	}
}

func (t T) ToType() Type {
	return New(t, 0, 0)
}

// TypeLen is the byte width of one element value, -1 for variable
// length types (which store a Varlena header instead).
func (t T) TypeLen() int {
	switch t {
	case T_bool, T_int8, T_uint8:
		return 1
	case T_int16, T_uint16:
		return 2
	case T_int32, T_uint32, T_float32, T_date:
		return 4
	case T_int64, T_uint64, T_float64, T_datetime, T_timestamp:
		return 8
	case T_uuid:
		return 16
	case T_char, T_varchar, T_blob:
		return -1
	}
	return -1
}

func (t T) String() string {
	switch t {
	case T_any:
		return "any"
	case T_bool:
		return "bool"
	case T_int8:
		return "int8"
	case T_int16:
		return "int16"
	case T_int32:
		return "int32"
	case T_int64:
		return "int64"
	case T_uint8:
		return "uint8"
	case T_uint16:
		return "uint16"
	case T_uint32:
		return "uint32"
	case T_uint64:
		return "uint64"
	case T_float32:
		return "float32"
	case T_float64:
		return "float64"
	case T_date:
		return "date"
	case T_datetime:
		return "datetime"
	case T_timestamp:
		return "timestamp"
	case T_char:
		return "char"
	case T_varchar:
		return "varchar"
	case T_blob:
		return "blob"
	case T_uuid:
		return "uuid"
	}
	return fmt.Sprintf("unexpected_type[%d]", t)
}

// TypeSize is the size of the in-memory element: the value width for
// fixed types, the Varlena header size for variable length types.
func (t Type) TypeSize() int {
	if sz := t.Oid.TypeLen(); sz > 0 {
		return sz
	}
	return VarlenaSize
}

func (t Type) IsFixedLen() bool {
	return t.Oid.TypeLen() > 0
}

func (t Type) IsVarlen() bool {
	return t.Oid.TypeLen() < 0
}

func (t Type) IsTemporal() bool {
	switch t.Oid {
	case T_date, T_datetime, T_timestamp:
		return true
	}
	return false
}

func (t Type) IsNullable() bool {
	return t.Flags&flagNullable != 0
}

// Nullable returns the same type wrapped nullable.
func (t Type) Nullable() Type {
	t.Flags |= flagNullable
	return t
}

// RemoveNullable strips the outer nullable wrapper, if any.
func (t Type) RemoveNullable() Type {
	t.Flags &^= flagNullable
	return t
}

// CanBeInsideNullable reports whether the type may be wrapped nullable.
// Low cardinality and already-nullable types cannot.
func (t Type) CanBeInsideNullable() bool {
	return t.Oid != T_any && !t.IsNullable() && !t.IsLowCardinality()
}

func (t Type) IsLowCardinality() bool {
	return t.Flags&flagLowCardinality != 0
}

// WithLowCardinality marks the type as dictionary encoded.
func (t Type) WithLowCardinality() Type {
	t.Flags |= flagLowCardinality
	return t
}

// RecursiveRemoveLowCardinality returns the dictionary value type.
func (t Type) RecursiveRemoveLowCardinality() Type {
	t.Flags &^= flagLowCardinality
	return t
}

// Eq is strict type equality, flags included.
func (t Type) Eq(other Type) bool {
	return t.Oid == other.Oid && t.Flags == other.Flags &&
		t.Width == other.Width && t.Scale == other.Scale
}

func (t Type) String() string {
	s := t.Oid.String()
	if t.Oid == T_datetime || t.Oid == T_timestamp {
		s = fmt.Sprintf("%s(%d)", s, t.Scale)
	}
	if t.IsNullable() {
		s = fmt.Sprintf("nullable(%s)", s)
	}
	if t.IsLowCardinality() {
		s = fmt.Sprintf("lowcardinality(%s)", s)
	}
	return s
}

// FixedSizeT is the constraint over the element types that live in a
// fixed-width vector.
type FixedSizeT interface {
	bool | int8 | int16 | int32 | int64 |
		uint8 | uint16 | uint32 | uint64 |
		float32 | float64 |
		Date | Datetime | Timestamp | Uuid | Varlena
}

// Uuid is a 16 byte fixed value compared as raw bytes.
type Uuid [16]byte
