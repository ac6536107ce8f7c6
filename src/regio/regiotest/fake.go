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


// Package regiotest provides an in-memory regio.Channel for tests.
package regiotest

import (
	"errors"
	"fmt"
)

// Op is one recorded register access.
type Op struct {
	Write bool
	Addr  uint32
	Value uint32
}

func (o Op) String() string {
	if o.Write {
		return fmt.Sprintf("W %#x=%#x", o.Addr, o.Value)
	}
	return fmt.Sprintf("R %#x=%#x", o.Addr, o.Value)
}

// ErrInjected is returned by accesses that a Fake was told to fail.
var ErrInjected = errors.New("regiotest: injected failure")

// Fake is a register file backed by a map. Unwritten registers read as 0.
//
// OnRead and OnWrite, when set, replace the map for the addresses they
// handle, which lets a test model registers with side effects.
type Fake struct {
	Regs map[uint32]uint32
	Ops  []Op

	// FailRead and FailWrite fail every access to the listed addresses.
	FailRead  map[uint32]bool
	FailWrite map[uint32]bool
	// FailAfterWrites fails every write once this many have succeeded,
	// when positive.
	FailAfterWrites int

	OnRead  func(addr uint32) (v uint32, handled bool)
	OnWrite func(addr, v uint32) (handled bool)

	writes int
}

func New() *Fake {
	return &Fake{Regs: map[uint32]uint32{}}
}

func (f *Fake) Read(addr uint32) (uint32, error) {
	if f.FailRead[addr] {
		return 0, ErrInjected
	}
	var v uint32
	handled := false
	if f.OnRead != nil {
		v, handled = f.OnRead(addr)
	}
	if !handled {
		v = f.Regs[addr]
	}
	f.Ops = append(f.Ops, Op{Addr: addr, Value: v})
	return v, nil
}

func (f *Fake) Write(addr, v uint32) error {
	if f.FailWrite[addr] || (f.FailAfterWrites > 0 && f.writes >= f.FailAfterWrites) {
		return ErrInjected
	}
	f.writes++
	f.Ops = append(f.Ops, Op{Write: true, Addr: addr, Value: v})
	if f.OnWrite != nil && f.OnWrite(addr, v) {
		return nil
	}
	if f.Regs == nil {
		f.Regs = map[uint32]uint32{}
	}
	f.Regs[addr] = v
	return nil
}

// Writes returns the recorded writes, in order.
func (f *Fake) Writes() []Op {
	var r []Op
	for _, op := range f.Ops {
		if op.Write {
			r = append(r, op)
		}
	}
	return r
}

// WritesTo returns the values written to addr, in order.
func (f *Fake) WritesTo(addr uint32) []uint32 {
	var r []uint32
	for _, op := range f.Ops {
		if op.Write && op.Addr == addr {
			r = append(r, op.Value)
		}
	}
	return r
}

// Reset forgets the recorded accesses but keeps register contents.
func (f *Fake) Reset() {
	f.Ops = nil
	f.writes = 0
}
