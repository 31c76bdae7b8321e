package styles

import "testing"

func TestGetShareStyle(t *testing.T) {
	tests := []struct {
		percent float64
		want    string
	}{
		{80, ShareHighStyle.Render("x")},
		{35, ShareMediumStyle.Render("x")},
		{5, ShareLowStyle.Render("x")},
	}
	for _, tt := range tests {
		if got := GetShareStyle(tt.percent).Render("x"); got != tt.want {
			t.Errorf("GetShareStyle(%v) rendered %q, want %q", tt.percent, got, tt.want)
		}
	}
}

func TestSeriesColor(t *testing.T) {
	n := len(SeriesColors)
	if SeriesColor(0) != SeriesColors[0] {
		t.Error("SeriesColor(0) should be the first color")
	}
	if SeriesColor(n) != SeriesColors[0] {
		t.Error("SeriesColor should wrap around")
	}
	if SeriesColor(-1) != SeriesColors[1] {
		t.Error("negative index should not panic")
	}
}

func TestCenter(t *testing.T) {
	if CenterHorizontal("x", 10) == "" {
		t.Error("CenterHorizontal returned empty")
	}
	if CenterBoth("x", 10, 3) == "" {
		t.Error("CenterBoth returned empty")
	}
}
