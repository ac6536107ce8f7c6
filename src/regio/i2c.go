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


package regio

import (
	"encoding/binary"

	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/mmr"
	"tinygo.org/x/drivers"
)

/*
SMBusWord accesses a device whose registers are 16-bit words behind 8-bit
addresses, transferred most significant byte first. That is the byte-swapped
form of an SMBus word transfer, which is what Aptina/Micron sensors speak.
*/
type SMBusWord struct {
	dev mmr.Dev8
}

// NewSMBusWord binds a periph I2C bus at the given 7-bit address.
func NewSMBusWord(bus i2c.Bus, addr uint16) *SMBusWord {
	return &SMBusWord{dev: mmr.Dev8{
		Conn:  &i2c.Dev{Bus: bus, Addr: addr},
		Order: binary.BigEndian,
	}}
}

func (s *SMBusWord) Read(addr uint32) (uint32, error) {
	if addr > 0xff {
		return 0, Invalid("register %#x is not an 8-bit address", addr)
	}
	v, err := s.dev.ReadUint16(uint8(addr))
	if err != nil {
		return 0, IOError("read", addr, err)
	}
	return uint32(v), nil
}

func (s *SMBusWord) Write(addr uint32, value uint32) error {
	if addr > 0xff || value > 0xffff {
		return Invalid("write %#x to %#x does not fit an 8/16-bit register", value, addr)
	}
	if err := s.dev.WriteUint16(uint8(addr), uint16(value)); err != nil {
		return IOError("write", addr, err)
	}
	return nil
}

// TinyGoWord is SMBusWord for boards driven through TinyGo's machine.I2C,
// or anything else satisfying drivers.I2C.
type TinyGoWord struct {
	bus  drivers.I2C
	addr uint16
	buf  [3]byte
}

func NewTinyGoWord(bus drivers.I2C, addr uint16) *TinyGoWord {
	return &TinyGoWord{bus: bus, addr: addr}
}

func (s *TinyGoWord) Read(addr uint32) (uint32, error) {
	if addr > 0xff {
		return 0, Invalid("register %#x is not an 8-bit address", addr)
	}
	s.buf[0] = uint8(addr)
	if err := s.bus.Tx(s.addr, s.buf[:1], s.buf[1:3]); err != nil {
		return 0, IOError("read", addr, err)
	}
	return uint32(binary.BigEndian.Uint16(s.buf[1:3])), nil
}

func (s *TinyGoWord) Write(addr uint32, value uint32) error {
	if addr > 0xff || value > 0xffff {
		return Invalid("write %#x to %#x does not fit an 8/16-bit register", value, addr)
	}
	s.buf[0] = uint8(addr)
	binary.BigEndian.PutUint16(s.buf[1:3], uint16(value))
	if err := s.bus.Tx(s.addr, s.buf[:3], nil); err != nil {
		return IOError("write", addr, err)
	}
	return nil
}
