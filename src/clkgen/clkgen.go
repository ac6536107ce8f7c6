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


/*
Package clkgen drives an FPGA clock generator core built around an MMCM.

The rate of the single output is set by searching for integer input,
feedback and output dividers (see Solve) and writing them, along with the
matching loop filter and lock detect settings, through the core's DRP port.

A Device serializes its own operations. Solve and Plan are pure and can be
used without hardware.
*/
package clkgen

import (
	"fmt"
	"sync"

	"github.com/golang/glog"

	"hwsynth/src/regio"
)

const (
	resetEnable = 1 << 0
	mmcmEnable  = 1 << 1
)

// ResetControl is the reset register of the core.
type ResetControl struct {
	ResetEnable bool // deasserts the core reset
	MMCMEnable  bool
}

func (r ResetControl) Encode() uint32 {
	var v uint32
	if r.ResetEnable {
		v |= resetEnable
	}
	if r.MMCMEnable {
		v |= mmcmEnable
	}
	return v
}

func DecodeReset(v uint32) ResetControl {
	return ResetControl{ResetEnable: v&resetEnable != 0, MMCMEnable: v&mmcmEnable != 0}
}

// Config describes one clock generator instance.
type Config struct {
	NumParents int // reference clocks wired to the core, 1 or 2
	PollBudget int // DRP status polls before giving up
}

func DefaultConfig() Config {
	return Config{NumParents: 2, PollBudget: DefaultPollBudget}
}

// Device is one clock generator core.
type Device struct {
	mu  sync.Mutex
	ch  regio.Channel
	drp *DRP
	cfg Config
}

// New binds a clock generator reachable through ch and leaves its MMCM
// disabled, ready to be programmed.
func New(ch regio.Channel, cfg Config) (*Device, error) {
	if cfg.NumParents < 1 || cfg.NumParents > 2 {
		return nil, regio.Invalid("%d parent clocks", cfg.NumParents)
	}
	d := &Device{ch: ch, drp: NewDRP(ch, cfg.PollBudget), cfg: cfg}
	if err := d.enable(false); err != nil {
		return nil, err
	}
	return d, nil
}

// SetRate programs the dividers for the rate closest to rate.
func (d *Device) SetRate(rate, parentRate uint64) error {
	s, err := Solve(parentRate, rate)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return program(d.drp, s)
}

// RoundRate is the rate SetRate would produce, without touching the hardware.
func (d *Device) RoundRate(rate, parentRate uint64) (uint64, error) {
	s, err := Solve(parentRate, rate)
	if err != nil {
		return 0, err
	}
	return s.Rate, nil
}

// RecalcRate computes the output rate from the dividers currently in the
// MMCM. It is 0 while any divider reads as zero, which is the case before
// the first SetRate.
func (d *Device) RecalcRate(parentRate uint64) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var div [3]uint32
	for i, reg := range []uint16{mmcmClkOut0Reg1, mmcmClkDiv, mmcmClkFbReg1} {
		v, err := d.drp.Read(reg)
		if err != nil {
			return 0, err
		}
		div[i] = dividerFromCounter(v)
	}
	s := Solution{Dout: div[0], D: div[1], M: div[2]}
	if !s.Feasible() {
		return 0, nil
	}
	return s.achieved(parentRate), nil
}

func (d *Device) Enable() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enable(true)
}

// Disable stops the MMCM. The core itself stays out of reset.
func (d *Device) Disable() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enable(false)
}

func (d *Device) enable(on bool) error {
	r := ResetControl{ResetEnable: true, MMCMEnable: on}
	if err := d.ch.Write(RegReset, r.Encode()); err != nil {
		return fmt.Errorf("clkgen: reset control: %w", err)
	}
	return nil
}

// Enabled reads back whether the MMCM is running.
func (d *Device) Enabled() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.ch.Read(RegReset)
	if err != nil {
		return false, fmt.Errorf("clkgen: reset control: %w", err)
	}
	return DecodeReset(v).MMCMEnable, nil
}

// SetParent selects which reference clock feeds the MMCM.
func (d *Device) SetParent(index uint8) error {
	if int(index) >= d.cfg.NumParents {
		return regio.Invalid("parent %d of %d", index, d.cfg.NumParents)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ch.Write(RegClockSel, uint32(index)); err != nil {
		return fmt.Errorf("clkgen: clock select: %w", err)
	}
	glog.V(1).Infof("clkgen: parent %d selected", index)
	return nil
}

// Parent returns the index of the selected reference clock.
func (d *Device) Parent() (uint8, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.ch.Read(RegClockSel)
	if err != nil {
		return 0, fmt.Errorf("clkgen: clock select: %w", err)
	}
	return uint8(v), nil
}

// DRP exposes the MMCM register port for diagnostics. Callers must not use
// it concurrently with the Device.
func (d *Device) DRP() *DRP {
	return d.drp
}
