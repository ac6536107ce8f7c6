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


// Package regio is the boundary between the synthesis engines and the
// hardware. Everything above it sees a register file addressed by integer
// offsets; everything below it is a bus.
package regio

import (
	"errors"
	"fmt"
)

// Channel reads and writes an address-indexed register space.
//
// Accesses are synchronous and each may fail. A Channel is not safe for
// concurrent use; devices serialize their own sequences.
type Channel interface {
	Read(addr uint32) (uint32, error)
	Write(addr uint32, value uint32) error
}

var (
	// ErrInvalidRequest is returned before any register is touched.
	ErrInvalidRequest = errors.New("regio: invalid request")
	// ErrIO marks a failure of the underlying register access.
	ErrIO = errors.New("regio: i/o error")
)

// Invalid builds an ErrInvalidRequest with some context.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// IOError wraps err, from an access at addr, as an ErrIO.
func IOError(op string, addr uint32, err error) error {
	return fmt.Errorf("%w: %s %#x: %w", ErrIO, op, addr, err)
}
