package elevation

import "testing"

func seriesOf(alts ...float64) Series {
	s := Series{Target: "test"}
	for i, a := range alts {
		s.Samples = append(s.Samples, Sample{Hour: 20 + float64(i)/60, AltitudeDeg: a})
	}
	return s
}

func TestSummarizeRiseAndSet(t *testing.T) {
	s := seriesOf(-5, -1, 2, 10, 30, 25, 8, -2, -10)
	sum := Summarize(s, 0)

	if sum.MaxAltitude != 30 {
		t.Errorf("max altitude = %v, want 30", sum.MaxAltitude)
	}
	if sum.MaxAltitudeAt != s.Samples[4].Hour {
		t.Errorf("max altitude hour = %v, want %v", sum.MaxAltitudeAt, s.Samples[4].Hour)
	}
	if sum.RiseHour == nil || *sum.RiseHour != s.Samples[2].Hour {
		t.Errorf("rise hour = %v, want %v", sum.RiseHour, s.Samples[2].Hour)
	}
	if sum.SetHour == nil || *sum.SetHour != s.Samples[7].Hour {
		t.Errorf("set hour = %v, want %v", sum.SetHour, s.Samples[7].Hour)
	}
	if sum.MinutesVisible != 5 {
		t.Errorf("minutes visible = %d, want 5", sum.MinutesVisible)
	}
	if sum.AlwaysUp || sum.NeverUp {
		t.Errorf("always/never up = %v/%v, want false/false", sum.AlwaysUp, sum.NeverUp)
	}
}

func TestSummarizeThreshold(t *testing.T) {
	sum := Summarize(seriesOf(10, 20, 35, 40, 31, 15), 30)
	if sum.MinutesVisible != 3 {
		t.Errorf("minutes above 30° = %d, want 3", sum.MinutesVisible)
	}
	if sum.RiseHour == nil || sum.SetHour == nil {
		t.Fatal("expected both a rise and a set across 30°")
	}
}

func TestSummarizeAlwaysAndNeverUp(t *testing.T) {
	up := Summarize(seriesOf(40, 50, 60, 50), 0)
	if !up.AlwaysUp || up.NeverUp {
		t.Errorf("always up target: AlwaysUp=%v NeverUp=%v", up.AlwaysUp, up.NeverUp)
	}
	if up.RiseHour != nil || up.SetHour != nil {
		t.Error("always up target should have no crossings")
	}

	down := Summarize(seriesOf(-40, -30, -35), 0)
	if !down.NeverUp || down.AlwaysUp {
		t.Errorf("never up target: AlwaysUp=%v NeverUp=%v", down.AlwaysUp, down.NeverUp)
	}

	empty := Summarize(Series{}, 0)
	if !empty.NeverUp {
		t.Error("empty series should be never up")
	}
}
