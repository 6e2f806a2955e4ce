package boundary

import (
	"math"
	"testing"
)

func TestSmoothProfileConstant(t *testing.T) {
	profile := make([]float64, 50)
	for i := range profile {
		profile[i] = 0.7
	}
	smoothed := smoothProfile(profile, 11)
	for i, v := range smoothed {
		if math.Abs(v-0.7) > 1e-9 {
			t.Fatalf("smoothed[%d] = %v, want 0.7", i, v)
		}
	}
}

func TestSmoothProfileReducesSpike(t *testing.T) {
	profile := make([]float64, 50)
	profile[25] = 1.0
	smoothed := smoothProfile(profile, 11)
	if smoothed[25] >= 0.5 {
		t.Errorf("spike survived smoothing: %v", smoothed[25])
	}
	if smoothed[25] <= 0 {
		t.Errorf("spike vanished entirely: %v", smoothed[25])
	}
}

func TestContentRunFindsPlateau(t *testing.T) {
	// 200-wide profile, plateau over [60, 140)
	profile := make([]float64, 200)
	for i := 60; i < 140; i++ {
		profile[i] = 1.0
	}

	first, last, ok := contentRun(profile, 1.5, 20)
	if !ok {
		t.Fatal("no run found")
	}
	if first < 55 || first > 65 {
		t.Errorf("first = %d, want near 60", first)
	}
	if last < 135 || last > 145 {
		t.Errorf("last = %d, want near 139", last)
	}
}

func TestContentRunRejectsIsolatedSpikes(t *testing.T) {
	// Isolated above-threshold positions must not register as a boundary.
	profile := make([]float64, 200)
	profile[30] = 1.0
	profile[90] = 1.0
	profile[150] = 1.0

	if _, _, ok := contentRun(profile, 1.5, 20); ok {
		t.Error("isolated spikes were mistaken for a content run")
	}
}

func TestContentRunFlatProfile(t *testing.T) {
	// A flat profile has no position above mean x 1.5.
	profile := make([]float64, 100)
	for i := range profile {
		profile[i] = 0.4
	}
	if _, _, ok := contentRun(profile, 1.5, 20); ok {
		t.Error("flat profile should yield no run")
	}
}

func TestContentRunEmpty(t *testing.T) {
	if _, _, ok := contentRun(nil, 1.5, 20); ok {
		t.Error("empty profile should yield no run")
	}
}

func TestCropsFromRun(t *testing.T) {
	tests := []struct {
		name        string
		first, last int
		size        int
		wantStart   int
		wantEnd     int
	}{
		{"typical", 100, 419, 500, 100, 80},
		{"full content", 0, 499, 500, 0, 0},
		{"start clamped to half", 400, 450, 500, 250, 49},
		{"start only", 50, 499, 500, 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := cropsFromRun(tt.first, tt.last, tt.size)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("cropsFromRun(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.first, tt.last, tt.size, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestCropsFromRunConservativeFallback(t *testing.T) {
	// Content region under 10% of the size triggers the fixed fallback crop.
	start, end := cropsFromRun(240, 260, 500)
	if start != 50 || end != 50 {
		t.Errorf("conservative crop = (%d, %d), want (50, 50)", start, end)
	}

	// Large images cap the fallback at 100px per side.
	start, end = cropsFromRun(1000, 1040, 2000)
	if start != 100 || end != 100 {
		t.Errorf("capped conservative crop = (%d, %d), want (100, 100)", start, end)
	}
}
