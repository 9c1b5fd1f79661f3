package elevation

// Summary condenses a series into the numbers an observer plans around.
// Hours are local clock hours like Sample.Hour.
type Summary struct {
	Target         string   `json:"target"`
	MaxAltitude    float64  `json:"max_altitude"`
	MaxAltitudeAt  float64  `json:"max_altitude_hour"`
	MinAltitude    float64  `json:"min_altitude_threshold"`
	RiseHour       *float64 `json:"rise_hour,omitempty"` // first crossing above the threshold
	SetHour        *float64 `json:"set_hour,omitempty"`  // last crossing below the threshold
	MinutesVisible int      `json:"minutes_visible"`
	AlwaysUp       bool     `json:"always_up"`
	NeverUp        bool     `json:"never_up"`
}

// Summarize scans a series for its maximum and for threshold crossings.
func Summarize(s Series, minAlt float64) Summary {
	sum := Summary{Target: s.Target, MinAltitude: minAlt}
	if len(s.Samples) == 0 {
		sum.NeverUp = true
		return sum
	}

	sum.MaxAltitude = s.Samples[0].AltitudeDeg
	sum.MaxAltitudeAt = s.Samples[0].Hour

	wasAbove := s.Samples[0].AltitudeDeg >= minAlt
	for i, p := range s.Samples {
		above := p.AltitudeDeg >= minAlt
		if above {
			sum.MinutesVisible++
		}
		if p.AltitudeDeg > sum.MaxAltitude {
			sum.MaxAltitude = p.AltitudeDeg
			sum.MaxAltitudeAt = p.Hour
		}
		if i > 0 {
			if above && !wasAbove && sum.RiseHour == nil {
				h := p.Hour
				sum.RiseHour = &h
			}
			if !above && wasAbove {
				h := p.Hour
				sum.SetHour = &h
			}
		}
		wasAbove = above
	}

	sum.AlwaysUp = sum.MinutesVisible == len(s.Samples)
	sum.NeverUp = sum.MinutesVisible == 0
	return sum
}
