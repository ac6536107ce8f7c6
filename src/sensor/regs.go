/*
 * Copyright 2025 Ted Dunning
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package sensor

// DefaultAddress is the sensor's I2C address with SADDR low.
const DefaultAddress = 0x5d

// Registers. All are 16 bits wide.
const (
	RegChipVersion       = 0x00
	RegRowStart          = 0x01
	RegColumnStart       = 0x02
	RegWindowHeight      = 0x03
	RegWindowWidth       = 0x04
	RegHorizontalBlank   = 0x05
	RegVerticalBlank     = 0x06
	RegOutputControl     = 0x07
	RegShutterWidthUpper = 0x08
	RegShutterWidth      = 0x09
	RegReset             = 0x0d
	RegReadMode1         = 0x1e
	RegReadMode2         = 0x20
	RegRowAddressMode    = 0x22
	RegColumnAddressMode = 0x23
	RegGlobalGain        = 0x35
)

const chipVersion = 0x1621

// Pixel array geometry.
const (
	MaxWidth   = 2048
	MaxHeight  = 1536
	MinWidth   = 18
	MinHeight  = 2
	ColumnSkip = 32 // first active column
	RowSkip    = 20 // first active row
)

// Blanking, in pixel clocks and rows.
const (
	HorizontalBlank = 142
	VerticalBlank   = 25
)

// Output control bits.
const (
	outputHold   = 1 << 0 // latch register updates until cleared
	outputEnable = 1 << 1
)

// Read mode 2 bits.
const (
	readMode2Mirror = 1 << 15 // rows, i.e. vertical flip
	readMode2Column = 1 << 14 // columns, i.e. horizontal flip
)

const maxSkip = 8
const maxBin = 3

// AddressMode is the content of the row and column address mode registers.
type AddressMode struct {
	Bin  uint16 // 1..3
	Skip uint16 // 1..8
}

func (a AddressMode) Encode() uint16 {
	return (a.Bin-1)<<4 | (a.Skip - 1)
}

func DecodeAddressMode(v uint16) AddressMode {
	return AddressMode{Bin: (v>>4)&0x3 + 1, Skip: v&0x7 + 1}
}
