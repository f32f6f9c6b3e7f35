package logic

import "testing"

func TestNewFilterWindowSize(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, 1},
		{1, 1},
		{4, 5},
		{5, 5},
	}
	for _, c := range cases {
		f := NewFilter(c.in)
		if f.Size() != c.want {
			t.Errorf("NewFilter(%d): size %d, want %d", c.in, f.Size(), c.want)
		}
	}
}

func TestFilterDefinedBeforeWindowFills(t *testing.T) {
	f := NewFilter(5)
	f.Push(300)
	if got := f.Value(); got != 300 {
		t.Errorf("after one push, Value() = %d, want 300", got)
	}

	// One more push must still give a sensible median, not a zero-padded one.
	f.Push(304)
	if got := f.Value(); got != 300 {
		t.Errorf("after two pushes, Value() = %d, want 300", got)
	}
}

func TestFilterMedianRejectsSpike(t *testing.T) {
	f := NewFilter(5)
	for _, r := range []int{500, 501, 499, 500, 500} {
		f.Push(r)
	}

	// A single electrical transient should not move the median at all.
	f.Push(1023)
	if got := f.Value(); got != 500 {
		t.Errorf("after spike, Value() = %d, want 500", got)
	}
}

func TestFilterTracksSustainedChange(t *testing.T) {
	f := NewFilter(3)
	for _, r := range []int{500, 500, 500} {
		f.Push(r)
	}

	f.Push(700)
	if got := f.Value(); got != 500 {
		t.Errorf("one high sample moved the median: got %d, want 500", got)
	}
	f.Push(700)
	if got := f.Value(); got != 700 {
		t.Errorf("sustained change not tracked: got %d, want 700", got)
	}
}

func TestFilterSeed(t *testing.T) {
	f := NewFilter(5)
	f.Seed(512)
	if got := f.Value(); got != 512 {
		t.Errorf("after Seed(512), Value() = %d, want 512", got)
	}

	// Seeding replaces all history.
	f.Push(900)
	if got := f.Value(); got != 512 {
		t.Errorf("one push after seed moved the median: got %d, want 512", got)
	}
}

func TestFilterUnseededValue(t *testing.T) {
	f := NewFilter(5)
	if got := f.Value(); got != 0 {
		t.Errorf("unseeded Value() = %d, want 0", got)
	}
}
