// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package duration provides a precise duration value type and a pluggable
// clock abstraction used throughout the operation runtime for scheduling,
// backoff, and staleness calculations.
package duration

import (
	"math"
	"math/big"
	"math/rand"
	"time"
)

const attosPerSecond = int64(1_000_000_000_000_000_000)

// Duration represents a signed span of time as whole seconds plus
// attoseconds, normalized so |Attoseconds| < 1e18 and both components carry
// the same sign (or zero).
type Duration struct {
	Seconds     int64
	Attoseconds int64
}

// Zero is the zero-length duration.
var Zero = Duration{}

// FromSeconds creates a Duration from a float64 number of seconds.
func FromSeconds(seconds float64) Duration {
	whole := int64(seconds)
	frac := seconds - float64(whole)
	return normalize(whole, int64(frac*float64(attosPerSecond)))
}

// FromTimeDuration converts a stdlib time.Duration into a Duration.
func FromTimeDuration(d time.Duration) Duration {
	secs := int64(d / time.Second)
	remNanos := int64(d % time.Second)
	return normalize(secs, remNanos*1_000_000_000)
}

// TimeDuration converts back to a stdlib time.Duration, saturating on
// overflow of the representable range.
func (d Duration) TimeDuration() time.Duration {
	total := mulSaturating(d.Seconds, int64(time.Second))
	return time.Duration(addSaturating(total, d.Attoseconds/1_000_000_000))
}

func normalize(seconds, attoseconds int64) Duration {
	// Bring attoseconds into (-attosPerSecond, attosPerSecond) and carry
	// into seconds.
	carry := attoseconds / attosPerSecond
	attoseconds -= carry * attosPerSecond
	seconds += carry

	if attoseconds != 0 && seconds != 0 {
		// Components must share a sign (or one must be zero).
		if (attoseconds > 0) != (seconds > 0) {
			if seconds > 0 {
				seconds--
				attoseconds += attosPerSecond
			} else {
				seconds++
				attoseconds -= attosPerSecond
			}
		}
	}

	return Duration{Seconds: seconds, Attoseconds: attoseconds}
}

// Add returns d+other, saturating on component overflow.
func (d Duration) Add(other Duration) Duration {
	return normalize(addSaturating(d.Seconds, other.Seconds), d.Attoseconds+other.Attoseconds)
}

// Sub returns d-other, saturating on component overflow.
func (d Duration) Sub(other Duration) Duration {
	return d.Add(other.Negate())
}

// Negate returns -d.
func (d Duration) Negate() Duration {
	return Duration{Seconds: -d.Seconds, Attoseconds: -d.Attoseconds}
}

// MulInt returns d*n, saturating on component overflow.
func (d Duration) MulInt(n int64) Duration {
	return normalize(mulSaturating(d.Seconds, n), mulSaturating(d.Attoseconds, n))
}

// DivInt returns d/n. Panics if n is zero.
func (d Duration) DivInt(n int64) Duration {
	if n == 0 {
		panic("duration: division by zero")
	}
	total := new(big.Int).Mul(big.NewInt(d.Seconds), big.NewInt(attosPerSecond))
	total.Add(total, big.NewInt(d.Attoseconds))
	total.Quo(total, big.NewInt(n))
	secs, attos := total.QuoRem(total, big.NewInt(attosPerSecond), new(big.Int))
	return normalize(secs.Int64(), attos.Int64())
}

// Compare returns -1, 0, or 1 if d is less than, equal to, or greater than
// other.
func (d Duration) Compare(other Duration) int {
	switch {
	case d.Seconds != other.Seconds:
		if d.Seconds < other.Seconds {
			return -1
		}
		return 1
	case d.Attoseconds != other.Attoseconds:
		if d.Attoseconds < other.Attoseconds {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// LessThan reports whether d < other.
func (d Duration) LessThan(other Duration) bool { return d.Compare(other) < 0 }

// IsZero reports whether d is the zero duration.
func (d Duration) IsZero() bool { return d.Seconds == 0 && d.Attoseconds == 0 }

// RandomInRange returns a uniformly random Duration in [lo, hi) using rng.
// If hi is not after lo, lo is returned.
func RandomInRange(rng *rand.Rand, lo, hi Duration) Duration {
	if !lo.LessThan(hi) {
		return lo
	}
	span := hi.Sub(lo)
	spanSeconds := float64(span.Seconds) + float64(span.Attoseconds)/float64(attosPerSecond)
	if spanSeconds <= 0 {
		return lo
	}
	offset := FromSeconds(rng.Float64() * spanSeconds)
	return lo.Add(offset)
}

func addSaturating(a, b int64) int64 {
	sum := a + b
	// Overflow check: if signs of a and b are the same but differ from sum.
	if (a > 0 && b > 0 && sum < 0) {
		return int64(^uint64(0) >> 1)
	}
	if (a < 0 && b < 0 && sum > 0) {
		return -int64(^uint64(0)>>1) - 1
	}
	return sum
}

func mulSaturating(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a == math.MinInt64 && b == -1 {
		return math.MaxInt64
	}
	product := a * b
	if product/b != a {
		if (a > 0) == (b > 0) {
			return math.MaxInt64
		}
		return math.MinInt64
	}
	return product
}
