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
	"encoding/binary"

	"github.com/alont/ClickHouse/pkg/common/mpool"
)

const (
	VarlenaSize       = 24
	VarlenaInlineSize = 23

	varlenaBigHdr byte = 0xff
)

// Varlena is the in-vector header of a variable length value.  Small
// values are stored inline; larger ones live in the vector's area and
// the header records (offset, length).
type Varlena [VarlenaSize]byte

func (v *Varlena) IsSmall() bool {
	return v[0] != varlenaBigHdr
}

func (v *Varlena) SetSmall(bs []byte) {
	v[0] = byte(len(bs))
	copy(v[1:], bs)
}

func (v *Varlena) SetBig(offset, length uint32) {
	v[0] = varlenaBigHdr
	binary.LittleEndian.PutUint32(v[4:8], offset)
	binary.LittleEndian.PutUint32(v[8:12], length)
}

func (v *Varlena) OffsetLen() (uint32, uint32) {
	return binary.LittleEndian.Uint32(v[4:8]), binary.LittleEndian.Uint32(v[8:12])
}

func (v *Varlena) ByteLen() int {
	if v.IsSmall() {
		return int(v[0])
	}
	_, length := v.OffsetLen()
	return int(length)
}

// GetByteSlice returns the value bytes, resolving area references.
func (v *Varlena) GetByteSlice(area []byte) []byte {
	if v.IsSmall() {
		return v[1 : 1+v[0]]
	}
	offset, length := v.OffsetLen()
	return area[offset : offset+length]
}

func (v *Varlena) GetString(area []byte) string {
	return string(v.GetByteSlice(area))
}

// BuildVarlena stores bs inline or appends it to area, growing area
// through the pool.  It returns the header and the new area.
func BuildVarlena(bs []byte, area []byte, m *mpool.MPool) (Varlena, []byte, error) {
	var v Varlena
	if len(bs) <= VarlenaInlineSize {
		v.SetSmall(bs)
		return v, area, nil
	}
	offset := len(area)
	area, err := m.Grow(area, offset+len(bs))
	if err != nil {
		return v, nil, err
	}
	copy(area[offset:], bs)
	v.SetBig(uint32(offset), uint32(len(bs)))
	return v, area, nil
}
