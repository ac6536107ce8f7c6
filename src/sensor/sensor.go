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
Package sensor drives a 3 megapixel Bayer image sensor of the MT9T031 kind
over a 16-bit register channel.

Output geometry is set in two steps. A requested frame size is turned into
skip (decimation) factors and a physical window by SolveWindow; the window is
then programmed with register updates held off, so the sensor switches to
the new geometry on one frame boundary. Gain and exposure controls are mapped
to register codes by GainRegisterValue and ShutterRegisterValue.

The geometry, skip factors and exposure state kept by a Device only change
once every register of a sequence has been written. A failed sequence can
leave the sensor half programmed; the Device still describes the last
complete configuration.
*/
package sensor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/exp/slices"

	"hwsynth/src/regio"
	"hwsynth/src/support"
)

var ErrNoDevice = errors.New("sensor: no MT9T031 found")

// MediaBusCode identifies the pixel encoding on the bus.
type MediaBusCode uint32

// CodeSBGGR10 is 10-bit raw Bayer, BGGR order, one sample per clock.
const CodeSBGGR10 MediaBusCode = 0x3007

type Colorspace uint32

const ColorspaceSRGB Colorspace = 8

type Field uint32

const FieldNone Field = 1

// Format is a frame format on the sensor's single output pad.
type Format struct {
	Width, Height uint32
	Code          MediaBusCode
	Colorspace    Colorspace
	Field         Field
}

// Which selects whether SetFormat only negotiates or also applies.
type Which int

const (
	FormatTry Which = iota
	FormatActive
)

// Config sets the control ranges and readout details of one sensor.
type Config struct {
	Gain            Control
	Exposure        Control
	VerticalSkipTop uint32
}

func DefaultConfig() Config {
	return Config{
		Gain:     Control{Minimum: 0, Maximum: 127, Default: 64, Value: 64},
		Exposure: Control{Minimum: 1, Maximum: 255, Default: 255, Value: 255},
	}
}

// Device is one sensor.
type Device struct {
	mu sync.Mutex
	ch regio.Channel

	rect Rect
	skip SkipFactors
	exp  ExposureState
	mode ExposureMode

	gain         Control
	exposure     Control
	hflip, vflip bool
}

// New binds a sensor reachable through ch. Nothing is written until Probe.
func New(ch regio.Channel, cfg Config) (*Device, error) {
	if err := cfg.Gain.check(); err != nil {
		return nil, fmt.Errorf("sensor: gain: %w", err)
	}
	if err := cfg.Exposure.check(); err != nil {
		return nil, fmt.Errorf("sensor: exposure: %w", err)
	}
	return &Device{
		ch:       ch,
		rect:     defaultRect,
		skip:     SkipFactors{X: 1, Y: 1},
		exp:      ExposureState{VerticalSkipTop: cfg.VerticalSkipTop},
		mode:     ExposureAuto,
		gain:     cfg.Gain,
		exposure: cfg.Exposure,
	}, nil
}

func (d *Device) read(reg uint32) (uint16, error) {
	v, err := d.ch.Read(reg)
	if err != nil {
		return 0, fmt.Errorf("sensor: read %#02x: %w", reg, err)
	}
	return uint16(v), nil
}

func (d *Device) write(reg uint32, v uint16) error {
	if err := d.ch.Write(reg, uint32(v)); err != nil {
		return fmt.Errorf("sensor: write %#02x: %w", reg, err)
	}
	return nil
}

func (d *Device) setBits(reg uint32, bits uint16) error {
	v, err := d.read(reg)
	if err != nil {
		return err
	}
	return d.write(reg, v|bits)
}

func (d *Device) clearBits(reg uint32, bits uint16) error {
	v, err := d.read(reg)
	if err != nil {
		return err
	}
	return d.write(reg, v&^bits)
}

func (d *Device) setShutter(rows uint32) error {
	hi, lo := support.SplitHalves(rows)
	if err := d.write(RegShutterWidthUpper, hi); err != nil {
		return err
	}
	return d.write(RegShutterWidth, lo)
}

func (d *Device) shutter() (uint32, error) {
	hi, err := d.read(RegShutterWidthUpper)
	if err != nil {
		return 0, err
	}
	lo, err := d.read(RegShutterWidth)
	if err != nil {
		return 0, err
	}
	return support.JoinHalves(hi, lo), nil
}

// Probe resets the sensor, checks that it is one, and applies the initial
// value of every control.
func (d *Device) Probe() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.idle(); err != nil {
		glog.Errorf("sensor: failed to initialise: %v", err)
		return err
	}
	v, err := d.read(RegChipVersion)
	if err != nil {
		return err
	}
	if v != chipVersion {
		return fmt.Errorf("%w: chip version %#04x", ErrNoDevice, v)
	}
	glog.Infof("sensor: detected MT9T031 chip ID %#x", v)

	for _, c := range []struct {
		id ControlID
		v  int32
	}{
		{ControlVFlip, 0},
		{ControlHFlip, 0},
		{ControlGain, d.gain.Value},
		{ControlExposure, d.exposure.Value},
		{ControlExposureAuto, int32(d.mode)},
	} {
		if err := d.setControl(c.id, c.v); err != nil {
			return err
		}
	}
	return nil
}

// idle resets the sensor and leaves its output disabled.
func (d *Device) idle() error {
	if err := d.write(RegReset, 1); err != nil {
		return err
	}
	if err := d.write(RegReset, 0); err != nil {
		return err
	}
	return d.clearBits(RegOutputControl, outputEnable)
}

// SetStream starts or stops pixel output.
func (d *Device) SetStream(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if on {
		return d.setBits(RegOutputControl, outputEnable)
	}
	return d.clearBits(RegOutputControl, outputEnable)
}

// Resume rewrites the address mode registers, which the sensor loses when
// powered down.
func (d *Device) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.write(RegColumnAddressMode, d.skip.columnMode().Encode()); err != nil {
		return err
	}
	return d.write(RegRowAddressMode, d.skip.rowMode().Encode())
}

// regWrite is one step of a programming sequence.
type regWrite struct {
	reg uint32
	v   uint16
}

/*
setParams programs a window and decimation.

Register updates are held for the duration so that the sensor picks up the
new geometry atomically. Address modes are only rewritten when the skip
factors change. When exposure is automatic the shutter is stretched to the
new frame height.

The stored configuration is replaced only when every write succeeded.
*/
func (d *Device) setParams(rect Rect, skip SkipFactors) error {
	r := alignWindow(rect, skip)
	glog.V(1).Infof("sensor: skip %d:%d, rect %dx%d@%d:%d", skip.X, skip.Y, r.Width, r.Height, r.Left, r.Top)

	if err := d.setBits(RegOutputControl, outputHold); err != nil {
		return err
	}

	seq := []regWrite{
		{RegHorizontalBlank, HorizontalBlank},
		{RegVerticalBlank, VerticalBlank},
	}
	if skip != d.skip {
		seq = append(seq,
			regWrite{RegColumnAddressMode, skip.columnMode().Encode()},
			regWrite{RegRowAddressMode, skip.rowMode().Encode()})
	}
	seq = append(seq,
		regWrite{RegColumnStart, uint16(r.Left)},
		regWrite{RegRowStart, uint16(r.Top)},
		regWrite{RegWindowWidth, uint16(r.Width - 1)},
		regWrite{RegWindowHeight, uint16(r.Height + d.exp.VerticalSkipTop - 1)})
	glog.V(1).Infof("sensor: new physical left %d, top %d", r.Left, r.Top)

	for _, w := range seq {
		if err := d.write(w.reg, w.v); err != nil {
			glog.Warningf("sensor: window update aborted, registers partially written: %v", err)
			return err
		}
	}

	exp := d.exp
	if d.mode == ExposureAuto {
		exp.TotalLineTime = exp.autoShutter(r.Height)
		if err := d.setShutter(exp.TotalLineTime); err != nil {
			return err
		}
	}

	if err := d.clearBits(RegOutputControl, outputHold); err != nil {
		return err
	}

	d.rect = r
	d.skip = skip
	d.exp = exp
	return nil
}

func checkPad(pad int) error {
	if pad != 0 {
		return regio.Invalid("pad %d", pad)
	}
	return nil
}

func (d *Device) format() Format {
	return Format{
		Width:      d.rect.Width / uint32(d.skip.X),
		Height:     d.rect.Height / uint32(d.skip.Y),
		Code:       CodeSBGGR10,
		Colorspace: ColorspaceSRGB,
		Field:      FieldNone,
	}
}

// Format returns the frame format currently produced.
func (d *Device) Format(pad int) (Format, error) {
	if err := checkPad(pad); err != nil {
		return Format{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.format(), nil
}

// SetFormat adjusts f to the nearest frame size the sensor supports and,
// for FormatActive, reprograms the sensor to produce it.
func (d *Device) SetFormat(pad int, which Which, f Format) (Format, error) {
	if err := checkPad(pad); err != nil {
		return Format{}, err
	}
	f.Width, f.Height = BoundAlign(f.Width, f.Height)
	f.Code = CodeSBGGR10
	f.Colorspace = ColorspaceSRGB
	f.Field = FieldNone
	if which == FormatTry {
		return f, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	r, skip := SolveWindow(f.Width, f.Height, d.rect)
	if err := d.setParams(r, skip); err != nil {
		return Format{}, err
	}
	return f, nil
}

// Bounds is the active pixel array.
func (d *Device) Bounds() Rect {
	return defaultRect
}

// Crop returns the physical window being read out.
func (d *Device) Crop() Rect {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rect
}

// Skip returns the decimation in use.
func (d *Device) Skip() SkipFactors {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.skip
}

// ExposureState returns what automatic exposure last derived.
func (d *Device) ExposureState() ExposureState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.exp
}

// SetCrop moves and resizes the physical window, keeping the decimation.
func (d *Device) SetCrop(r Rect) (Rect, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.setParams(limitRect(r), d.skip); err != nil {
		return Rect{}, err
	}
	return d.rect, nil
}

// SetControl changes one control and programs the sensor to match.
func (d *Device) SetControl(id ControlID, value int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setControl(id, value)
}

func (d *Device) setControl(id ControlID, value int32) error {
	if !slices.Contains(controls, id) {
		return regio.Invalid("control %d", id)
	}

	switch id {
	case ControlVFlip, ControlHFlip:
		bit := uint16(readMode2Mirror)
		if id == ControlHFlip {
			bit = readMode2Column
		}
		var err error
		if value != 0 {
			err = d.setBits(RegReadMode2, bit)
		} else {
			err = d.clearBits(RegReadMode2, bit)
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %w", regio.ErrIO, id, err)
		}
		if id == ControlHFlip {
			d.hflip = value != 0
		} else {
			d.vflip = value != 0
		}
		return nil

	case ControlGain:
		c := d.gain
		c.Value = value
		data, err := GainRegisterValue(c)
		if err != nil {
			return err
		}
		if glog.V(1) {
			old, _ := d.read(RegGlobalGain)
			glog.Infof("sensor: set gain from %#x to %#x", old, data)
		}
		if err := d.write(RegGlobalGain, data); err != nil {
			return fmt.Errorf("%w: %s: %w", regio.ErrIO, id, err)
		}
		d.gain = c
		return nil

	case ControlExposure:
		c := d.exposure
		c.Value = value
		if err := c.check(); err != nil {
			return err
		}
		if d.mode == ExposureManual {
			if err := d.manualShutter(c); err != nil {
				return err
			}
		}
		d.exposure = c
		return nil

	default: // ControlExposureAuto
		switch mode := ExposureMode(value); mode {
		case ExposureManual:
			if err := d.manualShutter(d.exposure); err != nil {
				return err
			}
			d.mode = mode
		case ExposureAuto:
			exp := d.exp
			exp.TotalLineTime = exp.autoShutter(d.rect.Height)
			if err := d.setShutter(exp.TotalLineTime); err != nil {
				return fmt.Errorf("%w: %s: %w", regio.ErrIO, id, err)
			}
			d.exp = exp
			d.mode = mode
		default:
			return regio.Invalid("exposure mode %d", value)
		}
		return nil
	}
}

func (d *Device) manualShutter(c Control) error {
	shutter, err := ShutterRegisterValue(c)
	if err != nil {
		return err
	}
	if glog.V(1) {
		old, _ := d.shutter()
		glog.Infof("sensor: set shutter from %d to %d", old, shutter)
	}
	if err := d.setShutter(shutter); err != nil {
		return fmt.Errorf("%w: %s: %w", regio.ErrIO, ControlExposure, err)
	}
	return nil
}

// Control returns the current value of a control. While exposure is
// automatic the exposure control reports the equivalent of the shutter in
// use.
func (d *Device) Control(id ControlID) (int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch id {
	case ControlVFlip:
		return int32(support.BoolToBit[uint32](d.vflip)), nil
	case ControlHFlip:
		return int32(support.BoolToBit[uint32](d.hflip)), nil
	case ControlGain:
		return d.gain.Value, nil
	case ControlExposureAuto:
		return int32(d.mode), nil
	case ControlExposure:
		if d.mode == ExposureAuto {
			return exposureForShutter(d.exposure, d.exp.TotalLineTime), nil
		}
		return d.exposure.Value, nil
	}
	return 0, regio.Invalid("control %d", id)
}

// Shutter reads the shutter width, in rows, from the sensor.
func (d *Device) Shutter() (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutter()
}

// Register reads a raw register, for debugging.
func (d *Device) Register(reg uint32) (uint16, error) {
	if reg > 0xff {
		return 0, regio.Invalid("register %#x", reg)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.read(reg)
}

// SetRegister writes a raw register, for debugging. The Device does not
// notice changes made this way.
func (d *Device) SetRegister(reg uint32, v uint16) error {
	if reg > 0xff {
		return regio.Invalid("register %#x", reg)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(reg, v)
}
