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
	"strings"

	"github.com/golang/glog"

	"hwsynth/src/regio"
)

// Register offsets of the clock generator core.
const (
	RegReset      = 0x40
	RegClockSel   = 0x44
	RegDRPControl = 0x70
	RegDRPStatus  = 0x74
)

const (
	drpSelect   = 1 << 29
	drpRead     = 1 << 28
	drpRegShift = 16
	drpRegMask  = 0xfff
	drpBusy     = 1 << 16
	drpDataMask = 0xffff
)

// DefaultPollBudget is how many status reads a DRP access waits for the
// busy flag to drop.
const DefaultPollBudget = 10000

// ErrTimeout reports that the DRP port stayed busy for the whole poll
// budget. It is an I/O class failure.
var ErrTimeout = fmt.Errorf("clkgen: drp busy timeout: %w", regio.ErrIO)

// ControlWord is the value written to the DRP control register.
type ControlWord struct {
	Select bool
	Read   bool
	Reg    uint16 // MMCM sub-register index
	Data   uint16
}

func (c ControlWord) Encode() uint32 {
	v := uint32(c.Reg&drpRegMask)<<drpRegShift | uint32(c.Data)
	if c.Select {
		v |= drpSelect
	}
	if c.Read {
		v |= drpRead
	}
	return v
}

func DecodeControl(v uint32) ControlWord {
	return ControlWord{
		Select: v&drpSelect != 0,
		Read:   v&drpRead != 0,
		Reg:    uint16(v>>drpRegShift) & drpRegMask,
		Data:   uint16(v & drpDataMask),
	}
}

func (c ControlWord) GoString() string {
	var out []string
	if c.Select {
		out = append(out, "Sel")
	}
	if c.Read {
		out = append(out, "Read")
	}
	out = append(out, fmt.Sprintf("Reg(%#02x)", c.Reg))
	if !c.Read {
		out = append(out, fmt.Sprintf("Data(%#04x)", c.Data))
	}
	return strings.Join(out, "|")
}

// StatusWord is the value read back from the DRP status register.
type StatusWord struct {
	Busy bool
	Data uint16
}

func (s StatusWord) Encode() uint32 {
	v := uint32(s.Data)
	if s.Busy {
		v |= drpBusy
	}
	return v
}

func DecodeStatus(v uint32) StatusWord {
	return StatusWord{Busy: v&drpBusy != 0, Data: uint16(v & drpDataMask)}
}

/*
DRP gives access to the MMCM's internal registers through the control/status
pair of the clock generator.

Every access first waits for the port to go idle. The wait is a bounded poll
of the status register: once the budget is spent the access fails with
ErrTimeout and nothing more is read or written.
*/
type DRP struct {
	ch     regio.Channel
	budget int
}

func NewDRP(ch regio.Channel, budget int) *DRP {
	if budget <= 0 {
		budget = DefaultPollBudget
	}
	return &DRP{ch: ch, budget: budget}
}

// waitNonBusy polls the status register and returns its data bits once the
// busy flag is clear.
func (p *DRP) waitNonBusy() (uint16, error) {
	for remaining := p.budget; ; {
		v, err := p.ch.Read(RegDRPStatus)
		if err != nil {
			return 0, err
		}
		s := DecodeStatus(v)
		if !s.Busy {
			return s.Data, nil
		}
		remaining--
		if remaining == 0 {
			return 0, ErrTimeout
		}
	}
}

// Read returns the contents of MMCM register reg.
func (p *DRP) Read(reg uint16) (uint16, error) {
	if _, err := p.waitNonBusy(); err != nil {
		return 0, fmt.Errorf("clkgen: drp read %#02x: %w", reg, err)
	}
	w := ControlWord{Select: true, Read: true, Reg: reg}
	if err := p.ch.Write(RegDRPControl, w.Encode()); err != nil {
		return 0, fmt.Errorf("clkgen: drp read %#02x: %w", reg, err)
	}
	v, err := p.waitNonBusy()
	if err != nil {
		return 0, fmt.Errorf("clkgen: drp read %#02x: %w", reg, err)
	}
	glog.V(2).Infof("drp read %#02x = %#04x", reg, v)
	return v, nil
}

// Write replaces the bits of MMCM register reg selected by mask with the
// corresponding bits of val. A partial mask costs a read first.
func (p *DRP) Write(reg uint16, val uint16, mask uint16) error {
	if _, err := p.waitNonBusy(); err != nil {
		return fmt.Errorf("clkgen: drp write %#02x: %w", reg, err)
	}
	var cur uint16
	if mask != 0xffff {
		v, err := p.Read(reg)
		if err != nil {
			return err
		}
		cur = v &^ mask
	}
	w := ControlWord{Select: true, Reg: reg, Data: cur | val&mask}
	glog.V(2).Infof("drp write %#v mask %#04x", w, mask)
	if err := p.ch.Write(RegDRPControl, w.Encode()); err != nil {
		return fmt.Errorf("clkgen: drp write %#02x: %w", reg, err)
	}
	return nil
}
