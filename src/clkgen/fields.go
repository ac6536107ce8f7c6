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


package clkgen

import (
	"fmt"

	"github.com/golang/glog"

	"hwsynth/src/support"
)

// MMCM sub-register indices.
const (
	mmcmClkOut0Reg1 = 0x08
	mmcmClkOut0Reg2 = 0x09
	mmcmClkFbReg1   = 0x14
	mmcmClkFbReg2   = 0x15
	mmcmClkDiv      = 0x16
	mmcmLock1       = 0x18
	mmcmLock2       = 0x19
	mmcmLock3       = 0x1a
	mmcmFilter1     = 0x4e
	mmcmFilter2     = 0x4f
)

const counterMask = 0x3f

// DividerFields is the duty-cycle counter split of one integer divider.
// Low+High is the divider; an odd divider sets Edge to stretch the high
// phase by half a cycle, and a divider of 1 bypasses the counter entirely.
type DividerFields struct {
	Low, High     uint16
	Edge, NoCount uint16
}

func FieldsFor(divider uint32) DividerFields {
	high := uint16(divider / 2)
	return DividerFields{
		Low:     uint16(divider) - high,
		High:    high,
		Edge:    uint16(divider % 2),
		NoCount: support.BoolToBit[uint16](divider == 1),
	}
}

// Divider is the divider the fields encode.
func (f DividerFields) Divider() uint32 {
	return uint32(f.Low) + uint32(f.High)
}

// counter is the layout of the first register of an output or feedback
// counter.
func (f DividerFields) counter() uint16 {
	return f.High<<6 | f.Low
}

// flags is the layout of the second register of an output or feedback
// counter.
func (f DividerFields) flags() uint16 {
	return f.Edge<<7 | f.NoCount<<6
}

// mainDivider is the layout of the input divider register, which packs
// counter and flags into one.
func (f DividerFields) mainDivider() uint16 {
	return f.Edge<<13 | f.NoCount<<12 | f.High<<6 | f.Low
}

// dividerFromCounter recovers the divider from a counter register.
func dividerFromCounter(reg uint16) uint32 {
	return uint32(reg&counterMask) + uint32((reg>>6)&counterMask)
}

// SubWrite is one masked write to an MMCM register.
type SubWrite struct {
	Reg  uint16
	Val  uint16
	Mask uint16
}

// Plan lists the register writes that program s into the MMCM, in the order
// they are issued.
func Plan(s Solution) []SubWrite {
	filter := filterFor(s.M - 1)
	lock := lockFor(s.M - 1)

	out := FieldsFor(s.Dout)
	div := FieldsFor(s.D)
	fb := FieldsFor(s.M)

	return []SubWrite{
		{mmcmClkOut0Reg1, out.counter(), 0xefff},
		{mmcmClkOut0Reg2, out.flags(), 0x03ff},
		{mmcmClkDiv, div.mainDivider(), 0x3fff},
		{mmcmClkFbReg1, fb.counter(), 0xefff},
		{mmcmClkFbReg2, fb.flags(), 0x03ff},
		{mmcmLock1, uint16(lock & 0x3ff), 0x3ff},
		{mmcmLock2, uint16((lock>>16)&0x1f)<<10 | 0x1, 0x7fff},
		{mmcmLock3, uint16((lock>>24)&0x1f)<<10 | 0x3e9, 0x7fff},
		{mmcmFilter1, uint16(filter >> 16), 0x9900},
		{mmcmFilter2, uint16(filter), 0x9900},
	}
}

/*
program writes a solution into the MMCM.

The writes are not transactional. The first failure stops the sequence and
is returned; registers written before it keep their new values, so after an
error the MMCM may hold a mix of old and new dividers and must be
reprogrammed before it is trusted.
*/
func program(p *DRP, s Solution) error {
	plan := Plan(s)
	for i, w := range plan {
		if err := p.Write(w.Reg, w.Val, w.Mask); err != nil {
			if i > 0 {
				glog.Warningf("clkgen: programming %s aborted after %d of %d writes", s, i, len(plan))
			}
			return fmt.Errorf("clkgen: program %s: %w", s, err)
		}
	}
	return nil
}
