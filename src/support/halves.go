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


package support

/*
JoinHalves reassembles a 32-bit value that a device exposes as two 16-bit
registers, an upper and a lower half.

Devices like image sensors keep wide counters (shutter width, for instance) in
a pair of word registers. Writes have to go upper-first so that the device
latches a consistent value when the lower half lands, and reads are
reconstructed here from the two halves in the same order.
*/
func JoinHalves(hi, lo uint16) uint32 {
	return uint32(hi)<<16 | uint32(lo)
}

// SplitHalves is the inverse of JoinHalves.
func SplitHalves(v uint32) (hi, lo uint16) {
	return uint16(v >> 16), uint16(v & 0xffff)
}
