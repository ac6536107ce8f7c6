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

import (
	"errors"
	"testing"

	"hwsynth/src/regio"
)

func Test_gain_register_value(t *testing.T) {
	tests := []struct {
		name  string
		value int32
		want  uint16
	}{
		{"minimum", 0, 0},
		{"half way to default", 32, 4},
		{"default", 64, 8},
		{"first step above default", 65, 9},
		{"analog", 66, 25},
		{"analog 2x", 67, 85},
		{"analog 2x, higher", 68, 93},
		{"digital", 70, 0x460},
		{"maximum", 127, 0x7860},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig().Gain
			c.Value = tt.value
			got, err := GainRegisterValue(c)
			if err != nil {
				t.Fatalf("GainRegisterValue() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GainRegisterValue() = %#x, want %#x", got, tt.want)
			}
		})
	}
}

func Test_gain_at_default(t *testing.T) {
	for min := int32(-50); min < 50; min += 7 {
		for def := min + 1; def < min+300; def += 13 {
			c := Control{Minimum: min, Maximum: def + 100, Default: def, Value: def}
			if got, err := GainRegisterValue(c); err != nil || got != 8 {
				t.Errorf("GainRegisterValue(%+v) = %d, %v, want 8", c, got, err)
			}
		}
	}
}

func Test_gain_rejects(t *testing.T) {
	bad := []Control{
		{Minimum: 0, Maximum: 127, Default: 64, Value: 128},
		{Minimum: 0, Maximum: 127, Default: 64, Value: -1},
		{Minimum: 10, Maximum: 127, Default: 10, Value: 10},
		{Minimum: 0, Maximum: 65, Default: 64, Value: 65},
	}
	for _, c := range bad {
		if _, err := GainRegisterValue(c); !errors.Is(err, regio.ErrInvalidRequest) {
			t.Errorf("GainRegisterValue(%+v) = %v, want invalid request", c, err)
		}
	}
}

func Test_shutter_register_value(t *testing.T) {
	tests := []struct {
		value int32
		want  uint32
	}{
		{1, 1},
		{128, 525},
		{255, 1049},
	}
	for _, tt := range tests {
		c := DefaultConfig().Exposure
		c.Value = tt.value
		got, err := ShutterRegisterValue(c)
		if err != nil || got != tt.want {
			t.Errorf("ShutterRegisterValue(%d) = %d, %v, want %d", tt.value, got, err, tt.want)
		}
	}

	empty := Control{Minimum: 5, Maximum: 5, Default: 5, Value: 5}
	if _, err := ShutterRegisterValue(empty); !errors.Is(err, regio.ErrInvalidRequest) {
		t.Errorf("ShutterRegisterValue(empty range) = %v, want invalid request", err)
	}
}

func Test_exposure_for_shutter(t *testing.T) {
	c := DefaultConfig().Exposure
	if got := exposureForShutter(c, MaxHeight+VerticalBlank); got != 255 {
		t.Errorf("exposure for a full frame = %d, want 255", got)
	}
	if got := exposureForShutter(c, 1); got != 1 {
		t.Errorf("exposure for one row = %d, want 1", got)
	}
	if got := exposureForShutter(c, 507); got != 83 {
		t.Errorf("exposure for 507 rows = %d, want 83", got)
	}
}
