package generate

// Symmetry clamp bounds: both ramps of a triangle must keep finite duration.
const (
	SymmetryMin = 1e-3
	SymmetryMax = 1 - 1e-3
)

// TriangleConfig parameterizes a triangle waveform. Symmetry is the fraction
// of the period spent rising.
type TriangleConfig struct {
	LowLevel       float64 `json:"low_level"`
	HighLevel      float64 `json:"high_level"`
	Period         float64 `json:"period"`
	Symmetry       float64 `json:"symmetry"`
	Cycles         int     `json:"cycles"`
	StartTime      float64 `json:"start_time"`
	PreferRelative bool    `json:"prefer_relative"`
}

func (c TriangleConfig) validate() []string {
	var errs []string
	if c.Period <= 0 {
		errs = append(errs, "period must be positive")
	}
	if !(c.Symmetry >= 0 && c.Symmetry <= 1) {
		errs = append(errs, "symmetry must be between 0 and 1 (inclusive)")
	}
	if c.Cycles < 1 {
		errs = append(errs, "cycles must be at least 1")
	}
	if c.StartTime < 0 {
		errs = append(errs, "start_time must be non-negative")
	}
	return errs
}

// Triangle generates a triangle waveform document.
func Triangle(cfg TriangleConfig) (*Result, error) {
	if errs := cfg.validate(); len(errs) > 0 {
		return nil, &ValidationError{Violations: errs}
	}

	symmetry := cfg.Symmetry
	if symmetry < SymmetryMin {
		symmetry = SymmetryMin
	}
	if symmetry > SymmetryMax {
		symmetry = SymmetryMax
	}
	clamped := !isClose(symmetry, cfg.Symmetry, 1e-12)

	rise := cfg.Period * symmetry
	fall := cfg.Period - rise

	var samples []sample
	samples = appendSample(samples, cfg.StartTime, cfg.LowLevel)

	flat := isClose(cfg.HighLevel, cfg.LowLevel, 1e-15)
	for cycle := 0; cycle < cfg.Cycles; cycle++ {
		cycleStart := cfg.StartTime + float64(cycle)*cfg.Period
		samples = appendSample(samples, cycleStart, cfg.LowLevel)

		if flat {
			samples = appendSample(samples, cycleStart+cfg.Period, cfg.LowLevel)
			continue
		}

		peakTime := cycleStart + rise
		if rise <= 0 {
			samples = appendSample(samples, cycleStart, cfg.HighLevel)
		} else {
			samples = appendSample(samples, peakTime, cfg.HighLevel)
		}
		if fall <= 0 {
			samples = appendSample(samples, peakTime, cfg.LowLevel)
		} else {
			samples = appendSample(samples, cycleStart+cfg.Period, cfg.LowLevel)
		}
	}

	var warnings []string
	if cfg.HighLevel != cfg.LowLevel {
		if clamped {
			warnings = append(warnings, "Symmetry adjusted to keep both ramps finite.")
		}
		if rise <= 0 {
			warnings = append(warnings, "Rise segment collapsed to a step.")
		}
		if fall <= 0 {
			warnings = append(warnings, "Fall segment collapsed to a step.")
		}
	}

	return &Result{
		Document: buildDocument(samples, cfg.PreferRelative),
		Warnings: warnings,
	}, nil
}
