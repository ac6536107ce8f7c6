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

import "golang.org/x/exp/constraints"

// BoolToBit is 1 for true and 0 for false.
func BoolToBit[T constraints.Unsigned](a bool) T {
	if a {
		return 1
	}
	return 0
}

func Max[T constraints.Integer](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func Min[T constraints.Integer](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Clamp limits v to the closed range [lo, hi].
func Clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DivRoundUp is the ceiling of n/d. The divisor must be nonzero.
func DivRoundUp[T constraints.Unsigned](n, d T) T {
	return (n + d - 1) / d
}

// DivRoundClosest divides n by d rounding halves up. The divisor must be nonzero.
func DivRoundClosest[T constraints.Unsigned](n, d T) T {
	return (n + d/2) / d
}

// RoundUp rounds n up to the next multiple of step.
func RoundUp[T constraints.Unsigned](n, step T) T {
	return DivRoundUp(n, step) * step
}
