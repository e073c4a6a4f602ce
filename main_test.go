// SPDX-License-Identifier: MIT
package main

import "testing"

func TestClampStartTimeWithinRangeUnchanged(t *testing.T) {
	got := clampStartTime(3.0, 10.0, 0.04)
	if got != 3.0 {
		t.Errorf("clampStartTime = %v, want 3.0 (unchanged)", got)
	}
}

func TestClampStartTimeBeyondLengthSnapsToLastColumn(t *testing.T) {
	// maxTime=10, secpp=0.04 (ppsec=25): the last column on the grid
	// starts at floor(10/0.04)*0.04 = 10.0.
	got := clampStartTime(15.0, 10.0, 0.04)
	want := 10.0
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("clampStartTime = %v, want %v", got, want)
	}
}

func TestClampStartTimeBeyondLengthNoCrashWithZeroSecPP(t *testing.T) {
	got := clampStartTime(15.0, 10.0, 0)
	if got != 10.0 {
		t.Errorf("clampStartTime = %v, want 10.0 (fall back to maxTime when secpp is 0)", got)
	}
}
