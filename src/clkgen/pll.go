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
	"fmt"
	"math"

	"github.com/golang/glog"
	"periph.io/x/periph/conn/physic"

	"hwsynth/src/regio"
	"hwsynth/src/support"
)

// MMCM operating limits, in kHz.
const (
	fpfdMin = 10_000
	fpfdMax = 300_000
	fvcoMin = 600_000
	fvcoMax = 1_200_000
)

// Divider ranges.
const (
	maxD    = 80
	maxM    = 64
	maxDout = 128
)

var ErrNoSolution = errors.New("clkgen: no divider setting reaches the requested rate")

// Solution is a divider setting for the MMCM: output = parent * M / D / Dout.
// A zero divider means there is no solution.
type Solution struct {
	D, M, Dout uint32
	Rate       uint64 // achieved output rate, Hz
}

// Feasible reports whether s holds an actual divider setting.
func (s Solution) Feasible() bool {
	return s.D != 0 && s.M != 0 && s.Dout != 0
}

func (s Solution) String() string {
	return fmt.Sprintf("d=%d m=%d dout=%d (%s)", s.D, s.M, s.Dout, physic.Frequency(s.Rate)*physic.Hertz)
}

// achieved is the output of the setting for a parent rate, rounded the way
// the hardware readback path rounds it.
func (s Solution) achieved(parentRate uint64) uint64 {
	return parentRate / uint64(s.D) * uint64(s.M) / uint64(s.Dout)
}

/*
Solve finds the MMCM divider setting whose output comes closest to rate when
fed from parentRate (both in Hz).

Both rates are truncated to kHz first. Within the phase detector limits
(10..300 MHz) and VCO limits (600..1200 MHz), every multiplier M in 1..64 and
every input divider D in 1..80 is tried; the output divider Dout is the nearest
integer ratio of VCO to target, clamped to 1..128. The first setting with the
smallest error wins, so lower M is preferred on ties, and an exact hit stops
the search.

A zero rate is an invalid request. ErrNoSolution is returned if the limits
leave nothing to choose from.
*/
func Solve(parentRate, rate uint64) (Solution, error) {
	if parentRate == 0 || rate == 0 {
		return Solution{}, regio.Invalid("parent rate %d Hz, rate %d Hz", parentRate, rate)
	}
	s := search(parentRate/1000, rate/1000)
	if !s.Feasible() {
		return Solution{}, ErrNoSolution
	}
	s.Rate = s.achieved(parentRate)
	glog.V(1).Infof("clkgen: %s from %s for %s", s,
		physic.Frequency(parentRate)*physic.Hertz, physic.Frequency(rate)*physic.Hertz)
	return s, nil
}

// search does the divider search on rates in kHz.
func search(fin, fout uint64) Solution {
	var best Solution
	if fin == 0 || fout == 0 {
		return best
	}

	dMin := support.Max(support.DivRoundUp(fin, fpfdMax), 1)
	dMax := support.Min(fin/fpfdMin, maxD)
	if dMax < dMin {
		return best
	}

	mMin := support.Max(support.DivRoundUp(fvcoMin, fin)*dMin, 1)
	mMax := support.Min(fvcoMax*dMax/fin, maxM)

	bestErr := uint64(math.MaxUint64)
	for m := mMin; m <= mMax; m++ {
		lo := support.Max(dMin, support.DivRoundUp(fin*m, fvcoMax))
		hi := support.Min(dMax, fin*m/fvcoMin)

		for d := lo; d <= hi; d++ {
			fvco := fin * m / d
			dout := support.Clamp(support.DivRoundClosest(fvco, fout), 1, maxDout)
			f := fvco / dout
			if e := absDiff(f, fout); e < bestErr {
				bestErr = e
				best = Solution{D: uint32(d), M: uint32(m), Dout: uint32(dout)}
				if e == 0 {
					return best
				}
			}
		}
	}
	return best
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

// filterFor returns the loop filter setting for multiplier index m-1.
func filterFor(m uint32) uint32 {
	switch {
	case m == 0:
		return 0x01001990
	case m == 1:
		return 0x01001190
	case m == 2:
		return 0x01009890
	case m == 3:
		return 0x01001890
	case m == 4:
		return 0x01008890
	case m <= 8:
		return 0x01009090
	case m <= 11:
		return 0x01000890
	case m == 12:
		return 0x08009090
	case m <= 22:
		return 0x01001090
	case m <= 36:
		return 0x01008090
	case m <= 46:
		return 0x08001090
	default:
		return 0x08008090
	}
}

// lockTable holds the lock detect settings for multiplier indices below 36.
// Each entry packs the lock count in bits 0-9, the unlock/lock reference
// delays in bits 16-20 and 24-28.
var lockTable = [...]uint32{
	0x060603e8, 0x060603e8, 0x080803e8, 0x0b0b03e8, 0x0e0e03e8, 0x111103e8,
	0x131303e8, 0x161603e8, 0x191903e8, 0x1c1c03e8, 0x1f1f0384, 0x1f1f0339,
	0x1f1f02ee, 0x1f1f02bc, 0x1f1f028a, 0x1f1f0271, 0x1f1f023f, 0x1f1f0226,
	0x1f1f020d, 0x1f1f01f4, 0x1f1f01db, 0x1f1f01c2, 0x1f1f01a9, 0x1f1f0190,
	0x1f1f0190, 0x1f1f0177, 0x1f1f015e, 0x1f1f015e, 0x1f1f0145, 0x1f1f0145,
	0x1f1f012c, 0x1f1f012c, 0x1f1f012c, 0x1f1f0113, 0x1f1f0113, 0x1f1f0113,
}

const lockDefault = 0x1f1f00fa

// lockFor returns the lock detect setting for multiplier index m-1.
func lockFor(m uint32) uint32 {
	if m < uint32(len(lockTable)) {
		return lockTable[m]
	}
	return lockDefault
}
