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
	"errors"
	"testing"

	"hwsynth/src/regio"
	"hwsynth/src/regio/regiotest"
)

func Test_new_disables(t *testing.T) {
	m := newMMCM()
	d, err := New(m, DefaultConfig())
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if got := m.WritesTo(RegReset); len(got) != 1 || got[0] != resetEnable {
		t.Errorf("reset writes = %v, want [1]", got)
	}
	if on, err := d.Enabled(); err != nil || on {
		t.Errorf("Enabled() = %v, %v, want false", on, err)
	}

	if _, err := New(m, Config{NumParents: 3}); !errors.Is(err, regio.ErrInvalidRequest) {
		t.Errorf("New(3 parents) = %v, want invalid request", err)
	}
	if _, err := New(m, Config{}); !errors.Is(err, regio.ErrInvalidRequest) {
		t.Errorf("New(0 parents) = %v, want invalid request", err)
	}
}

func Test_enable_disable(t *testing.T) {
	m := newMMCM()
	d, _ := New(m, DefaultConfig())
	if err := d.Enable(); err != nil {
		t.Fatalf("Enable() = %v", err)
	}
	if on, _ := d.Enabled(); !on {
		t.Errorf("Enabled() = false after Enable")
	}
	if err := d.Disable(); err != nil {
		t.Fatalf("Disable() = %v", err)
	}
	want := []uint32{resetEnable, resetEnable | mmcmEnable, resetEnable}
	got := m.WritesTo(RegReset)
	if len(got) != len(want) {
		t.Fatalf("reset writes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("reset write %d = %#x, want %#x", i, got[i], want[i])
		}
	}
	if r := DecodeReset(m.Regs[RegReset]); !r.ResetEnable || r.MMCMEnable {
		t.Errorf("reset register = %+v", r)
	}
}

func Test_parent(t *testing.T) {
	m := newMMCM()
	d, _ := New(m, DefaultConfig())
	if err := d.SetParent(1); err != nil {
		t.Fatalf("SetParent(1) = %v", err)
	}
	if p, err := d.Parent(); err != nil || p != 1 {
		t.Errorf("Parent() = %d, %v, want 1", p, err)
	}
	m.Reset()
	if err := d.SetParent(2); !errors.Is(err, regio.ErrInvalidRequest) {
		t.Errorf("SetParent(2) = %v, want invalid request", err)
	}
	if len(m.Ops) != 0 {
		t.Errorf("rejected SetParent touched registers: %v", m.Ops)
	}

	one, _ := New(newMMCM(), Config{NumParents: 1})
	if err := one.SetParent(1); !errors.Is(err, regio.ErrInvalidRequest) {
		t.Errorf("SetParent(1) with one parent = %v, want invalid request", err)
	}
}

func Test_set_rate(t *testing.T) {
	m := newMMCM()
	d, _ := New(m, DefaultConfig())

	if r, err := d.RecalcRate(100e6); err != nil || r != 0 {
		t.Errorf("RecalcRate() before programming = %d, %v, want 0", r, err)
	}

	if err := d.SetRate(100e6, 100e6); err != nil {
		t.Fatalf("SetRate() = %v", err)
	}
	want := map[uint16]uint16{
		0x08: 0x00c3, 0x09: 0x0000, 0x16: 0x3001, 0x14: 0x00c3, 0x15: 0x0000,
		0x18: 0x03e8, 0x19: 0x4401, 0x1a: 0x47e9, 0x4e: 0x0100, 0x4f: 0x9000,
	}
	for reg, v := range want {
		if m.sub[reg] != v {
			t.Errorf("mmcm register %#02x = %#04x, want %#04x", reg, m.sub[reg], v)
		}
	}

	r, err := d.RecalcRate(100e6)
	if err != nil || r != 100e6 {
		t.Errorf("RecalcRate() = %d, %v, want 100000000", r, err)
	}

	for _, rate := range []uint64{25e6, 74_250_000, 148_500_000, 333_333_333} {
		if err := d.SetRate(rate, 100e6); err != nil {
			t.Fatalf("SetRate(%d) = %v", rate, err)
		}
		want, _ := d.RoundRate(rate, 100e6)
		if got, err := d.RecalcRate(100e6); err != nil || got != want {
			t.Errorf("RecalcRate() after SetRate(%d) = %d, %v, want %d", rate, got, err, want)
		}
	}
}

func Test_set_rate_preserves_unmasked_bits(t *testing.T) {
	m := newMMCM()
	d, _ := New(m, DefaultConfig())
	m.sub[0x08] = 0x1000
	m.sub[0x4e] = 0x66ff
	if err := d.SetRate(100e6, 100e6); err != nil {
		t.Fatalf("SetRate() = %v", err)
	}
	if m.sub[0x08] != 0x10c3 {
		t.Errorf("register 0x08 = %#x, want 0x10c3", m.sub[0x08])
	}
	if m.sub[0x4e] != 0x67ff {
		t.Errorf("register 0x4e = %#x, want 0x67ff", m.sub[0x4e])
	}
}

func Test_set_rate_rejects(t *testing.T) {
	m := newMMCM()
	d, _ := New(m, DefaultConfig())
	m.Reset()
	if err := d.SetRate(0, 100e6); !errors.Is(err, regio.ErrInvalidRequest) {
		t.Errorf("SetRate(0) = %v, want invalid request", err)
	}
	if err := d.SetRate(100e6, 0); !errors.Is(err, regio.ErrInvalidRequest) {
		t.Errorf("SetRate(parent 0) = %v, want invalid request", err)
	}
	if err := d.SetRate(100e6, 5e6); !errors.Is(err, ErrNoSolution) {
		t.Errorf("SetRate(parent 5MHz) = %v, want no solution", err)
	}
	if len(m.Ops) != 0 {
		t.Errorf("rejected requests touched registers: %v", m.Ops)
	}
}

func Test_set_rate_aborts(t *testing.T) {
	m := newMMCM()
	d, _ := New(m, DefaultConfig())
	// the reset write plus two writes (read request, data) per sub-register
	m.FailAfterWrites = 1 + 2*3
	err := d.SetRate(100e6, 100e6)
	if !errors.Is(err, regiotest.ErrInjected) {
		t.Fatalf("SetRate() = %v, want the injected failure", err)
	}
	for _, reg := range []uint16{0x08, 0x09, 0x16} {
		if _, ok := m.sub[reg]; !ok {
			t.Errorf("register %#02x was not written before the failure", reg)
		}
	}
	for _, reg := range []uint16{0x14, 0x15, 0x18, 0x4f} {
		if _, ok := m.sub[reg]; ok {
			t.Errorf("register %#02x was written after the failure", reg)
		}
	}
}

func Test_set_rate_timeout(t *testing.T) {
	m := newMMCM()
	d, _ := New(m, Config{NumParents: 1, PollBudget: 3})
	m.Reset()
	m.stuck = true
	if err := d.SetRate(100e6, 100e6); !errors.Is(err, ErrTimeout) {
		t.Fatalf("SetRate() = %v, want timeout", err)
	}
	if len(m.Ops) != 3 || len(m.Writes()) != 0 {
		t.Errorf("accesses = %v, want 3 status reads", m.Ops)
	}
}
