// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files: assertion shortcuts and synthetic audio frames.
package testutil

import (
	"math"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertClose checks that got is within tol of want.
func AssertClose(t testing.TB, name string, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v ± %v", name, got, want, tol)
	}
}

// Sine returns n samples of amp·sin(2π·freq·i/sampleRate).
func Sine(freq, amp, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return out
}

// Bytes quantises samples in [-1, 1] to unsigned 8-bit values centred on 128.
func Bytes(samples []float64) []uint8 {
	out := make([]uint8, len(samples))
	for i, s := range samples {
		v := math.Floor(128 * (1 + s))
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		out[i] = uint8(v)
	}
	return out
}

// SineBytes is Bytes(Sine(...)).
func SineBytes(freq, amp, sampleRate float64, n int) []uint8 {
	return Bytes(Sine(freq, amp, sampleRate, n))
}

// Silent returns n samples at the 8-bit midpoint.
func Silent(n int) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		out[i] = 128
	}
	return out
}
