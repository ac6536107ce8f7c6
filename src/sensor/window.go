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

import "hwsynth/src/support"

// Rect is a window on the pixel array, in physical pixels.
type Rect struct {
	Left, Top     uint32
	Width, Height uint32
}

// SkipFactors are the readout decimation factors. The sensor bins at most
// 3 pixels; larger skips only skip.
type SkipFactors struct {
	X, Y uint16
}

func (s SkipFactors) XBin() uint16 { return support.Min(s.X, maxBin) }
func (s SkipFactors) YBin() uint16 { return support.Min(s.Y, maxBin) }

func (s SkipFactors) columnMode() AddressMode { return AddressMode{Bin: s.XBin(), Skip: s.X} }
func (s SkipFactors) rowMode() AddressMode    { return AddressMode{Bin: s.YBin(), Skip: s.Y} }

// defaultRect is the full active array.
var defaultRect = Rect{Left: ColumnSkip, Top: RowSkip, Width: MaxWidth, Height: MaxHeight}

// skipFor chooses the decimation that brings a window of source pixels
// down to target pixels and returns it with the window size that goes with
// it. Windows up to half as large again as the target are cropped rather
// than decimated.
func skipFor(source, target, max uint32) (uint16, uint32) {
	if source < target+target/2 {
		return 1, target
	}
	skip := support.Min(support.Min(max, source+target/2)/target, maxSkip)
	return uint16(skip), target * skip
}

// clampAlign clamps x into [min, max] and rounds it to a multiple of
// 1<<align, nearest first, without leaving the range.
func clampAlign(x, min, max uint32, align uint) uint32 {
	mask := ^uint32(1<<align - 1)
	x = support.Clamp(x, (min+^mask)&mask, max&mask)
	if align > 0 {
		x = (x + 1<<(align-1)) & mask
	}
	return x
}

// BoundAlign fits a requested output size to what the sensor can produce.
func BoundAlign(width, height uint32) (uint32, uint32) {
	return clampAlign(width, MinWidth, MaxWidth, 1), clampAlign(height, MinHeight, MaxHeight, 1)
}

// limitSide keeps one axis of a crop window on the array.
func limitSide(start, length, startMin, lengthMin, lengthMax uint32) (uint32, uint32) {
	length = support.Clamp(length, lengthMin, lengthMax)
	if start < startMin {
		start = startMin
	} else if start > startMin+lengthMax-length {
		start = startMin + lengthMax - length
	}
	return start, length
}

// limitRect fits a crop request onto the array.
func limitRect(r Rect) Rect {
	r.Width = support.RoundUp(r.Width, 2)
	r.Height = support.RoundUp(r.Height, 2)
	r.Left, r.Width = limitSide(r.Left, r.Width, ColumnSkip, MinWidth, MaxWidth)
	r.Top, r.Height = limitSide(r.Top, r.Height, RowSkip, MinHeight, MaxHeight)
	return r
}

/*
alignWindow moves the window origin to where the readout logic can start
for the given binning.

Columns are read in Bayer pairs, so without binning the left edge is even;
2x binning combines two pairs and needs a multiple of 4, and 3x binning needs
a multiple of 6 that is still inside the active area. Rows only ever need to
be even.
*/
func alignWindow(r Rect, s SkipFactors) Rect {
	switch s.XBin() {
	case 1:
		r.Left &^= 1
	case 2:
		r.Left &^= 3
	case 3:
		first := support.RoundUp(uint32(ColumnSkip), 6)
		if r.Left > first {
			r.Left = r.Left / 6 * 6
		} else {
			r.Left = first
		}
	}
	r.Top &^= 1
	return r
}

// SolveWindow picks the decimation and the physical window that produce a
// width x height image from the current window cur.
func SolveWindow(width, height uint32, cur Rect) (Rect, SkipFactors) {
	width, height = BoundAlign(width, height)

	r := cur
	var s SkipFactors
	s.X, r.Width = skipFor(cur.Width, width, MaxWidth)
	s.Y, r.Height = skipFor(cur.Height, height, MaxHeight)
	return alignWindow(r, s), s
}
