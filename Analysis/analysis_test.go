package Analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ray returns the point at distance r from origin, deg degrees from the
// direction given by base.
func ray(origin Point, base, deg, r float64) Point {
	a := (base + deg) * math.Pi / 180
	return Point{X: origin.X + r*math.Cos(a), Y: origin.Y + r*math.Sin(a)}
}

func lm(abbrev string, p Point) Landmark {
	return Landmark{Abbrev: abbrev, X: p.X, Y: p.Y}
}

// skull builds a landmark set with the given SNA, SNB and FMA.
func skull(sna, snb, fma float64) []Landmark {
	s := Point{X: 0, Y: 0}
	n := Point{X: 100, Y: 0}
	// the N->S direction is 180 degrees; A and B hang below it
	a := ray(n, 180, -sna, 80)
	b := ray(n, 180, -snb, 120)
	po := Point{X: -20, Y: 40}
	or := Point{X: 80, Y: 40}
	goPt := Point{X: 0, Y: 150}
	me := ray(goPt, 0, fma, 100)
	ar := Point{X: -10, Y: 90}
	return []Landmark{
		lm("S", s), lm("N", n), lm("A", a), lm("B", b),
		lm("Po", po), lm("Or", or), lm("Go", goPt), lm("Me", me), lm("Ar", ar),
	}
}

func TestDefaultNormsCatalog(t *testing.T) {
	n := DefaultNorms()
	require.Len(t, n.Landmarks, 19)
	assert.Equal(t, "S", n.Landmarks[0].Abbrev)
	assert.Equal(t, "Ar", n.Landmarks[18].Abbrev)
	assert.Contains(t, n.Angles, "ANB")
}

func TestParseNormsRejectsDuplicates(t *testing.T) {
	_, err := ParseNorms([]byte("landmarks:\n  - {abbrev: S, name: Sella}\n  - {abbrev: S, name: Again}\n"))
	assert.Error(t, err)

	_, err = ParseNorms([]byte("angles: {}\n"))
	assert.Error(t, err)
}

func TestAnglesFromGeometry(t *testing.T) {
	angles := Angles(skull(82, 78, 25))

	assert.InDelta(t, 82, angles["SNA"], 0.01)
	assert.InDelta(t, 78, angles["SNB"], 0.01)
	assert.InDelta(t, 4, angles["ANB"], 0.02)
	assert.InDelta(t, 25, angles["FMA"], 0.01)
	assert.InDelta(t, 25, angles["SN-GoMe"], 0.01)
	assert.Contains(t, angles, "Gonial")
}

func TestAnalyzeClassification(t *testing.T) {
	cases := []struct {
		name          string
		sna, snb, fma float64
		class, growth string
		airway        string
	}{
		{"class I average", 82, 80, 25, ClassI, GrowthAverage, AirwayNormal},
		{"class II vertical", 84, 77, 34, ClassII, GrowthVertical, AirwayNormal},
		{"class III horizontal", 80, 85, 15, ClassIII, GrowthHorizontal, AirwayEnlarged},
		{"retrognathic mandible", 80, 74, 25, ClassII, GrowthAverage, AirwayRestricted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Analyze(skull(tc.sna, tc.snb, tc.fma), nil)
			assert.Equal(t, tc.class, res.SkeletalClass)
			assert.Equal(t, tc.growth, res.GrowthPattern)
			assert.Equal(t, tc.airway, res.AirwayMandible)
			assert.Equal(t, tc.class, res.Interpretations["Skeletal class"])
		})
	}
}

func TestAnalyzeMissingLandmarks(t *testing.T) {
	res := Analyze([]Landmark{lm("S", Point{}), lm("N", Point{X: 1})}, nil)

	assert.Empty(t, res.Angles)
	assert.Empty(t, res.Measurements)
	assert.Equal(t, Unknown, res.SkeletalClass)
	assert.Equal(t, Unknown, res.GrowthPattern)
}

func TestMeasurementsSortedAndInterpreted(t *testing.T) {
	res := Analyze(skull(90, 80, 25), nil)

	require.NotEmpty(t, res.Measurements)
	for i := 1; i < len(res.Measurements); i++ {
		assert.Less(t, res.Measurements[i-1].Name, res.Measurements[i].Name)
	}
	assert.Equal(t, Increased, res.Interpretations["SNA"])
	assert.Equal(t, Normal, res.Interpretations["SNB"])
}

func TestInterpret(t *testing.T) {
	n := Norm{Mean: 10, SD: 2}
	assert.Equal(t, Normal, Interpret(11.9, n))
	assert.Equal(t, Increased, Interpret(12.5, n))
	assert.Equal(t, Decreased, Interpret(7, n))
}

func TestResolveNormalized(t *testing.T) {
	raw := []RawLandmark{{Name: "P1", X: 0.5, Y: 0.25}, {Name: "P2", X: 1, Y: 0}, {Name: "P40", X: 0.1, Y: 0.1}}
	out := Resolve(raw, 200, 400, DefaultNorms())

	require.Len(t, out, 3)
	assert.Equal(t, "S", out[0].Abbrev)
	assert.Equal(t, "Sella", out[0].Name)
	assert.Equal(t, 100.0, out[0].X)
	assert.Equal(t, 100.0, out[0].Y)
	assert.Equal(t, 50.0, out[0].XPercent)
	assert.Equal(t, 25.0, out[0].YPercent)
	assert.Equal(t, "N", out[1].Abbrev)
	assert.Empty(t, out[2].Abbrev, "index past the catalog stays unmapped")
}

func TestResolvePixels(t *testing.T) {
	raw := []RawLandmark{{Name: "Nasion", X: 150, Y: 30}, {Name: "Go", X: 10, Y: 0.5}}
	out := Resolve(raw, 300, 300, DefaultNorms())

	assert.Equal(t, "N", out[0].Abbrev)
	assert.Equal(t, 150.0, out[0].X)
	assert.Equal(t, 50.0, out[0].XPercent)
	assert.Equal(t, "Go", out[1].Abbrev)
	assert.Equal(t, 0.5, out[1].Y)
}

func TestClassificationBoundariesAreInclusive(t *testing.T) {
	norms := DefaultNorms()
	tests := []struct {
		name     string
		classify func(float64, *Norms) string
		value    float64
		want     string
	}{
		{"ANB below range", SkeletalClass, -0.01, ClassIII},
		{"ANB lower edge", SkeletalClass, 0, ClassI},
		{"ANB upper edge", SkeletalClass, 4, ClassI},
		{"ANB above range", SkeletalClass, 4.01, ClassII},
		{"FMA below range", GrowthPattern, 19.99, GrowthHorizontal},
		{"FMA lower edge", GrowthPattern, 20, GrowthAverage},
		{"FMA upper edge", GrowthPattern, 30, GrowthAverage},
		{"FMA above range", GrowthPattern, 30.01, GrowthVertical},
		{"SNB below range", AirwayMandible, 75.99, AirwayRestricted},
		{"SNB lower edge", AirwayMandible, 76, AirwayNormal},
		{"SNB upper edge", AirwayMandible, 84, AirwayNormal},
		{"SNB above range", AirwayMandible, 84.01, AirwayEnlarged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.classify(tt.value, norms))
		})
	}
}
