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

import "hwsynth/src/regio"

// Control is the range and value of an integer control. The mapping
// functions only read it.
type Control struct {
	Minimum, Maximum, Default int32
	Value                     int32
}

func (c Control) check() error {
	if c.Value < c.Minimum || c.Value > c.Maximum {
		return regio.Invalid("control value %d outside [%d, %d]", c.Value, c.Minimum, c.Maximum)
	}
	return nil
}

// ExposureMode selects how the shutter width is chosen.
type ExposureMode int32

const (
	ExposureAuto   ExposureMode = 0 // shutter tracks the frame height
	ExposureManual ExposureMode = 1 // shutter follows the exposure control
)

// ExposureState is what automatic exposure derives from the geometry.
type ExposureState struct {
	TotalLineTime   uint32 // rows per frame, visible plus blanking
	VerticalSkipTop uint32 // rows read and dropped above the window
}

// autoShutter is the total line time of a window of the given height.
func (e ExposureState) autoShutter(height uint32) uint32 {
	return height + e.VerticalSkipTop + VerticalBlank
}

/*
GainRegisterValue converts a gain control into a global gain register code.

Up to the default the control maps linearly onto the analog codes 0..8.
Above it the control maps onto 9..1024, which is encoded as the analog gain
itself up to 32, then through the 2x analog stage up to 64, and beyond that
through the digital gain bits with the analog stage at its maximum. The
digital step is coarse and the low bits are dropped.
*/
func GainRegisterValue(c Control) (uint16, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	if c.Value <= c.Default {
		rng := int64(c.Default) - int64(c.Minimum)
		if rng <= 0 {
			return 0, regio.Invalid("gain default %d is the minimum", c.Default)
		}
		return uint16(((int64(c.Value)-int64(c.Minimum))*8 + rng/2) / rng), nil
	}

	rng := int64(c.Maximum) - int64(c.Default) - 1
	if rng <= 0 {
		return 0, regio.Invalid("gain range [%d, %d] leaves no room above the default", c.Default, c.Maximum)
	}
	gain := ((int64(c.Value)-int64(c.Default)-1)*1015+rng/2)/rng + 9

	switch {
	case gain <= 32:
		return uint16(gain), nil
	case gain <= 64:
		return uint16(((gain-32)*16+16)/32 + 80), nil
	default:
		return uint16(((gain-64+7)*32)&0xff00 | 0x60), nil
	}
}

// ShutterRegisterValue converts a manual exposure control into a shutter
// width in rows, 1..1049.
func ShutterRegisterValue(c Control) (uint32, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	rng := int64(c.Maximum) - int64(c.Minimum)
	if rng <= 0 {
		return 0, regio.Invalid("exposure range [%d, %d] is empty", c.Minimum, c.Maximum)
	}
	return uint32(((int64(c.Value)-int64(c.Minimum))*1048+rng/2)/rng + 1), nil
}

// exposureForShutter maps a total line time back onto the exposure
// control's range, for reporting while exposure is automatic.
func exposureForShutter(c Control, totalLineTime uint32) int32 {
	const shutterMax = MaxHeight + VerticalBlank
	rng := int64(c.Maximum) - int64(c.Minimum)
	t := int64(totalLineTime)
	if t == 0 {
		t = 1
	}
	return int32((shutterMax/2+(t-1)*rng)/shutterMax + int64(c.Minimum))
}

// ControlID names a control the sensor handles.
type ControlID int

const (
	ControlVFlip ControlID = iota + 1
	ControlHFlip
	ControlGain
	ControlExposureAuto
	ControlExposure
)

var controls = []ControlID{ControlVFlip, ControlHFlip, ControlGain, ControlExposureAuto, ControlExposure}

func (id ControlID) String() string {
	switch id {
	case ControlVFlip:
		return "vflip"
	case ControlHFlip:
		return "hflip"
	case ControlGain:
		return "gain"
	case ControlExposureAuto:
		return "exposure_auto"
	case ControlExposure:
		return "exposure"
	}
	return "unknown"
}
