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
	"time"
)

// Date is days since the unix epoch.
type Date int32

// Datetime and Timestamp are microseconds since the unix epoch.  The
// type's Scale says how many sub-second digits are meaningful; values
// of a scale-s column are multiples of ScaleResolution(s).
type Datetime int64

type Timestamp int64

const (
	MaxDatetimeScale int32 = 6

	MicroSecsPerSec int64 = 1_000_000
	SecsPerDay      int64 = 24 * 60 * 60
)

var scaleResolution = [MaxDatetimeScale + 1]int64{
	1_000_000, 100_000, 10_000, 1_000, 100, 10, 1,
}

// ScaleResolution is the microsecond tick of one unit at the given
// scale: 10^(6-scale).
func ScaleResolution(scale int32) int64 {
	if scale < 0 {
		scale = 0
	}
	if scale > MaxDatetimeScale {
		scale = MaxDatetimeScale
	}
	return scaleResolution[scale]
}

// AlignToScale floors v to a multiple of the scale's resolution.
func AlignToScale(v int64, scale int32) int64 {
	res := ScaleResolution(scale)
	rem := v % res
	if rem == 0 {
		return v
	}
	if v < 0 {
		return v - rem - res
	}
	return v - rem
}

// LosesPrecision reports whether v carries sub-resolution digits that a
// scale-s column cannot represent.
func LosesPrecision(v int64, scale int32) bool {
	return v%ScaleResolution(scale) != 0
}

func DatetimeFromTime(t time.Time) Datetime {
	return Datetime(t.UnixMicro())
}

func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp(t.UnixMicro())
}

func DateFromTime(t time.Time) Date {
	return Date(t.Unix() / SecsPerDay)
}

func (d Date) ToDatetime() Datetime {
	return Datetime(int64(d) * SecsPerDay * MicroSecsPerSec)
}

// ToDate truncates toward the containing day.
func (dt Datetime) ToDate() Date {
	v := int64(dt)
	day := v / (SecsPerDay * MicroSecsPerSec)
	if v < 0 && v%(SecsPerDay*MicroSecsPerSec) != 0 {
		day--
	}
	return Date(day)
}

func (dt Datetime) String() string {
	return time.UnixMicro(int64(dt)).UTC().Format("2006-01-02 15:04:05.000000")
}

func (ts Timestamp) String() string {
	return time.UnixMicro(int64(ts)).UTC().Format("2006-01-02 15:04:05.000000")
}

func (d Date) String() string {
	return time.Unix(int64(d)*SecsPerDay, 0).UTC().Format("2006-01-02")
}
