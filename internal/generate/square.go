package generate

// SquareConfig parameterizes a square waveform. EdgePPM expresses the rise
// and fall durations as parts-per-million of the period, so an ideal square
// still has finite (simulator-friendly) edges by default.
type SquareConfig struct {
	LowLevel         float64 `json:"low_level"`
	HighLevel        float64 `json:"high_level"`
	Period           float64 `json:"period"`
	DutyCycle        float64 `json:"duty_cycle"`
	Cycles           int     `json:"cycles"`
	StartTime        float64 `json:"start_time"`
	InitialStateHigh bool    `json:"initial_state_high"`
	EdgePPM          float64 `json:"edge_ppm"`
	PreferRelative   bool    `json:"prefer_relative"`
}

// DefaultEdgePPM is the edge duration used when a caller does not care.
const DefaultEdgePPM = 5.0

func (c SquareConfig) validate() []string {
	var errs []string
	if c.Period <= 0 {
		errs = append(errs, "period must be positive")
	}
	if !(c.DutyCycle > 0 && c.DutyCycle < 100) {
		errs = append(errs, "duty_cycle must be between 0 and 100 (exclusive)")
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

// Square generates a square waveform document.
func Square(cfg SquareConfig) (*Result, error) {
	if errs := cfg.validate(); len(errs) > 0 {
		return nil, &ValidationError{Violations: errs}
	}
	samples := squareSamples(cfg)
	return &Result{
		Document: buildDocument(samples, cfg.PreferRelative),
		Warnings: squareWarnings(cfg),
	}, nil
}

func squareSamples(cfg SquareConfig) []sample {
	low, high := cfg.LowLevel, cfg.HighLevel
	amplitudeDelta := high - low

	period := cfg.Period
	highTime := period * cfg.DutyCycle / 100
	lowTime := period - highTime

	edgeDuration := cfg.EdgePPM * 1e-6 * period
	rise, fall := 0.0, 0.0
	if amplitudeDelta != 0 && edgeDuration != 0 {
		rise = minF(edgeDuration, lowTime)
		fall = minF(edgeDuration, highTime)
	}
	highPlateau := maxF(highTime-fall, 0)
	lowPlateau := maxF(lowTime-rise, 0)

	t := cfg.StartTime
	current := low
	if cfg.InitialStateHigh {
		current = high
	}
	samples := []sample{{t: t, v: current}}

	for cycle := 0; cycle < cfg.Cycles; cycle++ {
		if cfg.InitialStateHigh {
			t, current, samples = squareStage(samples, t, highPlateau, fall, current, high, low)
			t, current, samples = squareStage(samples, t, lowPlateau, rise, current, low, high)
		} else {
			t, current, samples = squareStage(samples, t, lowPlateau, rise, current, low, high)
			t, current, samples = squareStage(samples, t, highPlateau, fall, current, high, low)
		}
	}
	return samples
}

// squareStage appends a plateau segment followed by the transition to the
// next level. A zero edge duration emits the transition as a vertical step
// at the same timestamp, so the waveform is an ideal square rather than a
// ramp across the whole half-period.
func squareStage(samples []sample, start, plateau, ramp, current, plateauValue, next float64) (float64, float64, []sample) {
	t := start
	if plateau > 0 {
		t += plateau
		last := samples[len(samples)-1]
		if t > last.t || plateauValue != last.v {
			samples = append(samples, sample{t: t, v: plateauValue})
		}
		current = plateauValue
	}
	if next != current {
		t += ramp
		samples = append(samples, sample{t: t, v: next})
		current = next
	}
	return t, current, samples
}

func squareWarnings(cfg SquareConfig) []string {
	var warnings []string
	if cfg.HighLevel == cfg.LowLevel {
		return warnings
	}
	if cfg.EdgePPM <= 0 {
		return warnings
	}

	period := cfg.Period
	highTime := period * cfg.DutyCycle / 100
	lowTime := period - highTime
	edgeDuration := cfg.EdgePPM * 1e-6 * period

	if lowTime > 0 && edgeDuration > lowTime+1e-15 {
		warnings = append(warnings, "Rising edge duration limited by available low interval.")
	}
	if highTime > 0 && edgeDuration > highTime+1e-15 {
		warnings = append(warnings, "Falling edge duration limited by available high interval.")
	}
	return warnings
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
