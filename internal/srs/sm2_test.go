package srs

import (
	"errors"
	"math"
	"testing"
)

func TestSchedule_FreshRecordPerfectRun(t *testing.T) {
	state := NewRecordState()

	state, err := Schedule(state, 3)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if state.RepetitionCount != 1 || state.Interval != 1 {
		t.Errorf("After first success expected reps=1 interval=1, got reps=%d interval=%d", state.RepetitionCount, state.Interval)
	}

	state, err = Schedule(state, 3)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if state.RepetitionCount != 2 || state.Interval != 6 {
		t.Errorf("After second success expected reps=2 interval=6, got reps=%d interval=%d", state.RepetitionCount, state.Interval)
	}

	easeBefore := state.EaseFactor
	state, err = Schedule(state, 3)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	expected := int(math.Round(6 * easeBefore))
	if state.RepetitionCount != 3 || state.Interval != expected {
		t.Errorf("After third success expected reps=3 interval=%d, got reps=%d interval=%d", expected, state.RepetitionCount, state.Interval)
	}
}

func TestSchedule_FailureResets(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		quality int
	}{
		{"blackout on mature card", State{RepetitionCount: 5, EaseFactor: 2.2, Interval: 20}, 0},
		{"wrong but familiar on mature card", State{RepetitionCount: 3, EaseFactor: 1.8, Interval: 10}, 1},
		{"blackout on fresh card", NewRecordState(), 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Schedule(tc.state, tc.quality)
			if err != nil {
				t.Fatalf("Schedule failed: %v", err)
			}
			if next.RepetitionCount != 0 {
				t.Errorf("Expected repetition count reset to 0, got %d", next.RepetitionCount)
			}
			if next.Interval != MinInterval {
				t.Errorf("Expected interval reset to %d, got %d", MinInterval, next.Interval)
			}
			if next.EaseFactor >= tc.state.EaseFactor && tc.state.EaseFactor > MinEaseFactor {
				t.Errorf("Expected ease factor to decrease from %.2f, got %.2f", tc.state.EaseFactor, next.EaseFactor)
			}
			if next.EaseFactor < MinEaseFactor {
				t.Errorf("Ease factor %.4f below floor %.2f", next.EaseFactor, MinEaseFactor)
			}
		})
	}
}

func TestSchedule_EaseFloorHoldsUnderRepeatedFailure(t *testing.T) {
	state := NewRecordState()
	for i := 0; i < 50; i++ {
		var err error
		state, err = Schedule(state, 0)
		if err != nil {
			t.Fatalf("Schedule failed at iteration %d: %v", i, err)
		}
		if state.EaseFactor < MinEaseFactor {
			t.Fatalf("Ease factor %.4f fell below floor at iteration %d", state.EaseFactor, i)
		}
	}
	if state.EaseFactor != MinEaseFactor {
		t.Errorf("Expected ease factor pinned at %.2f after repeated blackouts, got %.4f", MinEaseFactor, state.EaseFactor)
	}
}

func TestSchedule_SuccessRunGrowsMonotonically(t *testing.T) {
	for _, quality := range []int{2, 3} {
		state := NewRecordState()
		prevInterval := 0
		for n := 1; n <= 12; n++ {
			var err error
			state, err = Schedule(state, quality)
			if err != nil {
				t.Fatalf("Schedule failed: %v", err)
			}
			if state.RepetitionCount != n {
				t.Fatalf("quality %d: after %d successes expected reps=%d, got %d", quality, n, n, state.RepetitionCount)
			}
			if state.Interval < prevInterval {
				t.Fatalf("quality %d: interval shrank from %d to %d at repetition %d", quality, prevInterval, state.Interval, n)
			}
			prevInterval = state.Interval
		}
	}
}

func TestSchedule_EaseUpdatePerQuality(t *testing.T) {
	tests := []struct {
		quality int
		delta   float64
	}{
		{3, 0.1},
		{2, 0.1 - 1*(0.08+1*0.02)},
		{1, 0.1 - 2*(0.08+2*0.02)},
		{0, 0.1 - 3*(0.08+3*0.02)},
	}

	for _, tc := range tests {
		state, err := Schedule(State{RepetitionCount: 2, EaseFactor: 2.5, Interval: 6}, tc.quality)
		if err != nil {
			t.Fatalf("Schedule(q=%d) failed: %v", tc.quality, err)
		}
		expected := 2.5 + tc.delta
		if expected < MinEaseFactor {
			expected = MinEaseFactor
		}
		if math.Abs(state.EaseFactor-expected) > 1e-9 {
			t.Errorf("quality %d: expected ease %.4f, got %.4f", tc.quality, expected, state.EaseFactor)
		}
	}
}

func TestSchedule_InvalidQuality(t *testing.T) {
	for _, quality := range []int{-1, 4, 100} {
		_, err := Schedule(NewRecordState(), quality)
		if !errors.Is(err, ErrInvalidQuality) {
			t.Errorf("quality %d: expected ErrInvalidQuality, got %v", quality, err)
		}
	}
}

func TestSchedule_InputNotMutated(t *testing.T) {
	current := State{RepetitionCount: 4, EaseFactor: 2.1, Interval: 15}
	saved := current
	if _, err := Schedule(current, 2); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if current != saved {
		t.Errorf("Schedule mutated its input: %+v != %+v", current, saved)
	}
}

func TestIsFailure(t *testing.T) {
	for quality, failure := range map[int]bool{0: true, 1: true, 2: false, 3: false} {
		if IsFailure(quality) != failure {
			t.Errorf("IsFailure(%d) = %v, expected %v", quality, IsFailure(quality), failure)
		}
	}
}
