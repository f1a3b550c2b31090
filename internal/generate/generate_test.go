package generate

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/dotmjsc/pwl-editor/internal/pwl"
)

func docText(d *pwl.Document) string {
	return d.ToText(pwl.ExportPreserveMixed, 9, true)
}

func TestSquareIdealStepWithZeroEdge(t *testing.T) {
	res, err := Square(SquareConfig{
		LowLevel:  0,
		HighLevel: 5,
		Period:    1e-6,
		DutyCycle: 50,
		Cycles:    1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", res.Warnings)
	}
	want := "0 0\n500n 0\n500n 5\n1u 5\n1u 0"
	if got := docText(res.Document); got != want {
		t.Errorf("document =\n%s\nwant\n%s", got, want)
	}
}

func TestSquareFiniteEdges(t *testing.T) {
	res, err := Square(SquareConfig{
		LowLevel:  0,
		HighLevel: 5,
		Period:    1e-6,
		DutyCycle: 50,
		Cycles:    2,
		EdgePPM:   DefaultEdgePPM,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", res.Warnings)
	}
	if res.Document.Len() != 9 {
		t.Errorf("len = %d, want 9 (1 + 4 per cycle)", res.Document.Len())
	}
	if !res.Document.Validate() {
		t.Error("finite-edge square must be strictly increasing")
	}
}

func TestSquareEdgeClampWarning(t *testing.T) {
	res, err := Square(SquareConfig{
		LowLevel:  0,
		HighLevel: 5,
		Period:    1e-6,
		DutyCycle: 99,
		Cycles:    1,
		EdgePPM:   20000,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) != 1 || res.Warnings[0] != "Rising edge duration limited by available low interval." {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestSquareValidationCollectsAllViolations(t *testing.T) {
	_, err := Square(SquareConfig{
		Period:    0,
		DutyCycle: 0,
		Cycles:    0,
		EdgePPM:   -1,
		StartTime: -1,
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(verr.Violations) != 5 {
		t.Errorf("violations = %v, want 5 entries", verr.Violations)
	}
	if !strings.Contains(verr.Error(), "; ") {
		t.Errorf("violations not joined: %q", verr.Error())
	}
}

func TestTriangleBasicShape(t *testing.T) {
	res, err := Triangle(TriangleConfig{
		LowLevel:  0,
		HighLevel: 1,
		Period:    1e-3,
		Symmetry:  0.5,
		Cycles:    1,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "0 0\n500u 1\n1m 0"
	if got := docText(res.Document); got != want {
		t.Errorf("document =\n%s\nwant\n%s", got, want)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestTriangleRelativeDeltas(t *testing.T) {
	res, err := Triangle(TriangleConfig{
		LowLevel:       0,
		HighLevel:      1,
		Period:         1e-3,
		Symmetry:       0.5,
		Cycles:         1,
		PreferRelative: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "0 0\n+500u 1\n+500u 0"
	if got := docText(res.Document); got != want {
		t.Errorf("document =\n%s\nwant\n%s", got, want)
	}
	if res.Document.DefaultFormat != pwl.FormatRelative {
		t.Errorf("format = %q", res.Document.DefaultFormat)
	}
}

func TestTriangleSymmetryClampWarning(t *testing.T) {
	res, err := Triangle(TriangleConfig{
		LowLevel:  0,
		HighLevel: 1,
		Period:    1e-3,
		Symmetry:  0,
		Cycles:    1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) != 1 || res.Warnings[0] != "Symmetry adjusted to keep both ramps finite." {
		t.Errorf("warnings = %v", res.Warnings)
	}
	if !res.Document.Validate() {
		t.Error("clamped triangle must stay strictly increasing")
	}
}

func TestTriangleFlatLevels(t *testing.T) {
	res, err := Triangle(TriangleConfig{
		LowLevel:  2,
		HighLevel: 2,
		Period:    1e-3,
		Symmetry:  0.5,
		Cycles:    1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Document.Len() != 2 {
		t.Errorf("len = %d, want 2", res.Document.Len())
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestSawBasicShape(t *testing.T) {
	res, err := Saw(SawConfig{
		LowLevel:     0,
		HighLevel:    1,
		Period:       1e-3,
		RampFraction: 0.9,
		Cycles:       1,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "0 0\n900u 1\n900u 0\n1m 0"
	if got := docText(res.Document); got != want {
		t.Errorf("document =\n%s\nwant\n%s", got, want)
	}
}

func TestSawFullRampCollapsesReset(t *testing.T) {
	res, err := Saw(SawConfig{
		LowLevel:     0,
		HighLevel:    1,
		Period:       1e-3,
		RampFraction: 1,
		Cycles:       1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "Reset interval collapsed") {
		t.Errorf("warnings = %v", res.Warnings)
	}
	if res.Document.Len() != 2 {
		t.Errorf("len = %d, want 2", res.Document.Len())
	}
}

func TestSawRampClampWarning(t *testing.T) {
	res, err := Saw(SawConfig{
		LowLevel:     0,
		HighLevel:    1,
		Period:       1e-3,
		RampFraction: 1,
		Cycles:       1,
		EdgePPM:      DefaultEdgePPM,
	})
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, w := range res.Warnings {
		if w == "Ramp fraction reduced to leave time for reset edge." {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want ramp clamp warning", res.Warnings)
	}
	if !res.Document.Validate() {
		t.Error("clamped saw must be strictly increasing")
	}
}

func TestSawValidation(t *testing.T) {
	_, err := Saw(SawConfig{Period: 1e-3, RampFraction: 0, Cycles: 1})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(verr.Violations) != 1 || verr.Violations[0] != "ramp_fraction must be greater than 0 and at most 1" {
		t.Errorf("violations = %v", verr.Violations)
	}
}

func TestAppendShiftsOntoBase(t *testing.T) {
	base, err := pwl.ParseText("0 0\n+1u 5")
	if err != nil {
		t.Fatal(err)
	}
	res, err := Square(SquareConfig{
		LowLevel:       0,
		HighLevel:      5,
		Period:         1e-6,
		DutyCycle:      50,
		Cycles:         1,
		PreferRelative: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	merged := Append(base, res.Document)
	if merged.Len() != base.Len()+res.Document.Len() {
		t.Fatalf("len = %d, want %d", merged.Len(), base.Len()+res.Document.Len())
	}
	times := merged.AbsoluteTimes()
	if math.Abs(times[2]-1e-6) > 1e-15 {
		t.Errorf("first appended point at %g, want base end 1e-6", times[2])
	}
	if math.Abs(times[len(times)-1]-2e-6) > 1e-15 {
		t.Errorf("last point at %g, want 2e-6", times[len(times)-1])
	}
	// Inputs untouched.
	if base.Len() != 2 {
		t.Error("base mutated by Append")
	}
}

func TestAppendOntoEmptyBase(t *testing.T) {
	res, err := Triangle(TriangleConfig{
		LowLevel:  0,
		HighLevel: 1,
		Period:    1e-3,
		Symmetry:  0.5,
		Cycles:    1,
	})
	if err != nil {
		t.Fatal(err)
	}
	merged := Append(pwl.New(), res.Document)
	if docText(merged) != docText(res.Document) {
		t.Error("empty base should take the addition verbatim")
	}
}
