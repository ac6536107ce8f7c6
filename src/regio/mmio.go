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
	"io"

	"periph.io/x/periph/host/pmem"
)

// MMIO is a window of 32-bit registers mapped from physical memory, such as an
// AXI peripheral on an FPGA fabric. Addresses are byte offsets into the window.
type MMIO struct {
	regs   []uint32
	closer io.Closer
}

// OpenMMIO maps size bytes of physical memory starting at base.
func OpenMMIO(base uint64, size int) (*MMIO, error) {
	v, err := pmem.Map(base, size)
	if err != nil {
		return nil, IOError("map", uint32(base), err)
	}
	return &MMIO{regs: v.Uint32(), closer: v}, nil
}

func (m *MMIO) word(addr uint32) (int, error) {
	if addr%4 != 0 || int(addr/4) >= len(m.regs) {
		return 0, Invalid("mmio offset %#x outside %d byte window", addr, 4*len(m.regs))
	}
	return int(addr / 4), nil
}

func (m *MMIO) Read(addr uint32) (uint32, error) {
	i, err := m.word(addr)
	if err != nil {
		return 0, err
	}
	return m.regs[i], nil
}

func (m *MMIO) Write(addr uint32, value uint32) error {
	i, err := m.word(addr)
	if err != nil {
		return err
	}
	m.regs[i] = value
	return nil
}

// Close unmaps the window.
func (m *MMIO) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}
