package date

import "testing"

func TestAppend(t *testing.T) {
	h := new(History[string])
	d1, v1 := New(2025, 07, 01), "25 Jul 1"
	d2, v2 := New(2024, 07, 01), "24 Jul 1"

	// Appending in reverse order must keep the history sorted.
	h.Append(d1, v1)
	h.Append(d2, v2)
	if h.Len() != 2 {
		t.Fatalf("Len() = %v want 2", h.Len())
	}
	if h.days[0] != d2 || h.days[1] != d1 {
		t.Errorf("history days = %v want [%v %v]", h.days, d2, d1)
	}
	if h.values[0] != v2 || h.values[1] != v1 {
		t.Errorf("history values = %v want [%v %v]", h.values, v2, v1)
	}

	h.Append(d1, "overwritten")
	if h.Len() != 2 {
		t.Errorf("Len() after overwrite = %v want 2", h.Len())
	}
	if got, _ := h.Get(d1); got != "overwritten" {
		t.Errorf("Get(d1) = %q want %q", got, "overwritten")
	}
}

func TestValueAsOf(t *testing.T) {
	h := new(History[float64])
	h.Append(New(2024, 1, 1), 1).Append(New(2024, 1, 10), 10)

	testCases := []struct {
		on     Date
		want   float64
		wantOK bool
	}{
		{New(2023, 12, 31), 0, false},
		{New(2024, 1, 1), 1, true},
		{New(2024, 1, 5), 1, true},
		{New(2024, 1, 10), 10, true},
		{New(2025, 1, 1), 10, true},
	}
	for _, tc := range testCases {
		got, ok := h.ValueAsOf(tc.on)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("ValueAsOf(%v) = %v, %v want %v, %v", tc.on, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestNearest(t *testing.T) {
	h := new(History[float64])
	h.Append(New(2024, 1, 1), 30000).Append(New(2024, 1, 3), 32000).Append(New(2024, 1, 10), 40000)

	testCases := []struct {
		name string
		on   Date
		tie  Tie
		want float64
	}{
		{"exact", New(2024, 1, 3), TieEarlier, 32000},
		{"tie to earlier", New(2024, 1, 2), TieEarlier, 30000},
		{"tie to later", New(2024, 1, 2), TieLater, 32000},
		{"closer to later", New(2024, 1, 9), TieEarlier, 40000},
		{"closer to earlier", New(2024, 1, 5), TieLater, 32000},
		{"before first", New(2023, 6, 1), TieLater, 30000},
		{"after last", New(2025, 6, 1), TieEarlier, 40000},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, got, ok := h.Nearest(tc.on, tc.tie)
			if !ok || got != tc.want {
				t.Errorf("Nearest(%v, %v) = %v, %v want %v", tc.on, tc.tie, got, ok, tc.want)
			}
		})
	}

	var empty History[float64]
	if _, _, ok := empty.Nearest(New(2024, 1, 1), TieEarlier); ok {
		t.Errorf("Nearest on empty history should not be ok")
	}
}
