package generate

// SawConfig parameterizes a sawtooth waveform. RampFraction is the fraction
// of the period spent ramping from low to high; the rest of the period is
// the reset interval with an EdgePPM-sized falling edge.
type SawConfig struct {
	LowLevel       float64 `json:"low_level"`
	HighLevel      float64 `json:"high_level"`
	Period         float64 `json:"period"`
	RampFraction   float64 `json:"ramp_fraction"`
	Cycles         int     `json:"cycles"`
	StartTime      float64 `json:"start_time"`
	EdgePPM        float64 `json:"edge_ppm"`
	PreferRelative bool    `json:"prefer_relative"`
}

func (c SawConfig) validate() []string {
	var errs []string
	if c.Period <= 0 {
		errs = append(errs, "period must be positive")
	}
	if !(c.RampFraction > 0 && c.RampFraction <= 1) {
		errs = append(errs, "ramp_fraction must be greater than 0 and at most 1")
	}
	if c.Cycles < 1 {
		errs = append(errs, "cycles must be at least 1")
	}
	if c.EdgePPM < 0 {
		errs = append(errs, "edge_ppm must be non-negative")
	}
	if c.StartTime < 0 {
		errs = append(errs, "start_time must be non-negative")
	}
	return errs
}

// Saw generates a sawtooth waveform document.
func Saw(cfg SawConfig) (*Result, error) {
	if errs := cfg.validate(); len(errs) > 0 {
		return nil, &ValidationError{Violations: errs}
	}

	low, high := cfg.LowLevel, cfg.HighLevel
	period := cfg.Period
	flat := isClose(high, low, 1e-18)

	edgeFraction := maxF(cfg.EdgePPM, 0) * 1e-6
	requestedRamp := minF(maxF(cfg.RampFraction, 1e-15), 1)
	maxRamp := 1.0
	if edgeFraction > 0 && !flat {
		maxRamp = maxF(1-edgeFraction, 0)
	}

	rampFraction := requestedRamp
	rampClamped := false
	if requestedRamp > maxRamp {
		rampFraction = maxRamp
		rampClamped = true
	}

	rampDuration := period * rampFraction
	resetBudget := maxF(period-rampDuration, 0)
	effectiveEdge := 0.0
	if resetBudget > 0 && edgeFraction > 0 && !flat {
		effectiveEdge = minF(edgeFraction*period, resetBudget)
	}

	flatLevels := isClose(high, low, 1e-15)

	var samples []sample
	samples = appendSample(samples, cfg.StartTime, low)

	for cycle := 0; cycle < cfg.Cycles; cycle++ {
		cycleStart := cfg.StartTime + float64(cycle)*period
		samples = appendSample(samples, cycleStart, low)

		if rampDuration > 0 && !flatLevels {
			samples = appendSample(samples, cycleStart+rampDuration, high)
		} else if !flatLevels {
			samples = appendSample(samples, cycleStart, high)
		}

		if resetBudget > 0 {
			resetStart := cycleStart + rampDuration
			if effectiveEdge > 0 && !flatLevels {
				samples = appendSample(samples, resetStart+effectiveEdge, low)
			} else if !flatLevels {
				samples = appendSample(samples, resetStart, low)
			}
			samples = appendSample(samples, cycleStart+period, low)
		}
		// A ramp occupying the full period resets at the next cycle start.
	}

	var warnings []string
	if high != low {
		if rampClamped {
			warnings = append(warnings, "Ramp fraction reduced to leave time for reset edge.")
		}
		switch {
		case resetBudget <= 0:
			warnings = append(warnings, "Reset interval collapsed; waveform stays at high level until cycle boundary.")
		case edgeFraction > 0:
			if effectiveEdge+1e-15 < edgeFraction*period {
				warnings = append(warnings, "Reset edge duration limited by available reset interval.")
			}
		}
	}

	return &Result{
		Document: buildDocument(samples, cfg.PreferRelative),
		Warnings: warnings,
	}, nil
}
