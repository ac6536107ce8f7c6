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

import "testing"

func Test_skip_for(t *testing.T) {
	tests := []struct {
		name                string
		source, target, max uint32
		wantSkip            uint16
		wantSource          uint32
	}{
		{"full size", 2048, 2048, MaxWidth, 1, 2048},
		{"crop rather than skip", 2048, 1500, MaxWidth, 1, 1500},
		{"half", 2048, 1024, MaxWidth, 2, 2048},
		{"third", 2048, 640, MaxWidth, 3, 1920},
		{"capped at 8", 2048, 100, MaxWidth, 8, 800},
		{"from a decimated window", 1920, 1024, MaxWidth, 2, 2048},
		{"rows", 1536, 480, MaxHeight, 3, 1440},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, source := skipFor(tt.source, tt.target, tt.max)
			if skip != tt.wantSkip || source != tt.wantSource {
				t.Errorf("skipFor() = %d, %d, want %d, %d", skip, source, tt.wantSkip, tt.wantSource)
			}
		})
	}
}

func Test_bound_align(t *testing.T) {
	tests := []struct {
		w, h         uint32
		wantW, wantH uint32
	}{
		{17, 1, 18, 2},
		{19, 3, 20, 4},
		{640, 480, 640, 480},
		{2047, 1535, 2048, 1536},
		{5000, 5000, 2048, 1536},
	}
	for _, tt := range tests {
		w, h := BoundAlign(tt.w, tt.h)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("BoundAlign(%d, %d) = %d, %d, want %d, %d", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
		}
	}
}

func Test_align_window(t *testing.T) {
	tests := []struct {
		name     string
		left     uint32
		skip     uint16
		wantLeft uint32
	}{
		{"no binning is even", 33, 1, 32},
		{"2x binning is 4-aligned", 39, 2, 36},
		{"3x binning below the active area", 20, 3, 36},
		{"3x binning just inside", 40, 3, 36},
		{"3x binning", 50, 3, 48},
		{"3x binning on the boundary", 36, 3, 36},
		{"skip 8 bins 3x", 101, 8, 96},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := alignWindow(Rect{Left: tt.left, Top: 21, Width: 640, Height: 480}, SkipFactors{X: tt.skip, Y: tt.skip})
			if r.Left != tt.wantLeft {
				t.Errorf("left = %d, want %d", r.Left, tt.wantLeft)
			}
			if r.Top != 20 {
				t.Errorf("top = %d, want 20", r.Top)
			}
			if r.Width != 640 || r.Height != 480 {
				t.Errorf("size changed to %dx%d", r.Width, r.Height)
			}
		})
	}
}

func Test_solve_window(t *testing.T) {
	tests := []struct {
		name     string
		w, h     uint32
		cur      Rect
		wantRect Rect
		wantSkip SkipFactors
	}{
		{"full", 2048, 1536, defaultRect, defaultRect, SkipFactors{1, 1}},
		{"vga", 640, 480, defaultRect, Rect{36, 20, 1920, 1440}, SkipFactors{3, 3}},
		{"xga", 1024, 768, defaultRect, Rect{32, 20, 2048, 1536}, SkipFactors{2, 2}},
		{"too small", 17, 1, defaultRect, Rect{36, 20, 144, 16}, SkipFactors{8, 8}},
		{"odd origin", 2000, 1500, Rect{101, 51, 2048, 1536}, Rect{100, 50, 2000, 1500}, SkipFactors{1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, s := SolveWindow(tt.w, tt.h, tt.cur)
			if r != tt.wantRect || s != tt.wantSkip {
				t.Errorf("SolveWindow() = %+v, %+v, want %+v, %+v", r, s, tt.wantRect, tt.wantSkip)
			}
			if s.XBin() > maxBin || s.YBin() > maxBin {
				t.Errorf("binning %d:%d exceeds %d", s.XBin(), s.YBin(), maxBin)
			}
		})
	}
}

func Test_limit_rect(t *testing.T) {
	tests := []struct {
		in, want Rect
	}{
		{Rect{0, 0, 1, 1}, Rect{32, 20, 18, 2}},
		{Rect{3000, 3000, 5000, 5000}, Rect{32, 20, 2048, 1536}},
		{Rect{1000, 100, 1001, 99}, Rect{1000, 100, 1002, 100}},
		{Rect{1500, 1500, 1000, 1000}, Rect{1080, 556, 1000, 1000}},
	}
	for _, tt := range tests {
		if got := limitRect(tt.in); got != tt.want {
			t.Errorf("limitRect(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func Test_address_mode(t *testing.T) {
	for skip := uint16(1); skip <= maxSkip; skip++ {
		s := SkipFactors{X: skip, Y: skip}
		m := s.columnMode()
		if got := m.Encode(); got != (s.XBin()-1)<<4|(skip-1) {
			t.Errorf("skip %d encodes as %#x", skip, got)
		}
		if DecodeAddressMode(m.Encode()) != m {
			t.Errorf("skip %d does not decode back", skip)
		}
	}
}
