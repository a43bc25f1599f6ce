package Analysis

import "sort"

const (
	ClassI   = "Class I"
	ClassII  = "Class II"
	ClassIII = "Class III"

	GrowthHorizontal = "Horizontal"
	GrowthVertical   = "Vertical"
	GrowthAverage    = "Average"

	AirwayRestricted = "Restricted"
	AirwayNormal     = "Normal"
	AirwayEnlarged   = "Enlarged"

	Normal    = "Normal"
	Increased = "Increased"
	Decreased = "Decreased"

	Unknown = "Undetermined"
)

type Measurement struct {
	Name           string  `json:"name"`
	Value          float64 `json:"value"`
	Mean           float64 `json:"mean"`
	SD             float64 `json:"sd"`
	Interpretation string  `json:"interpretation"`
}

// Result is the angle set and the classifications derived from it.
type Result struct {
	Angles          map[string]float64 `json:"angles"`
	Measurements    []Measurement      `json:"measurements"`
	SkeletalClass   string             `json:"skeletal_class"`
	GrowthPattern   string             `json:"growth_pattern"`
	AirwayMandible  string             `json:"airway_mandible"`
	Interpretations map[string]string  `json:"interpretations"`
}

type angleDef struct {
	name  string
	needs []string
	calc  func(p map[string]Point) float64
}

var angleDefs = []angleDef{
	{"SNA", []string{"S", "N", "A"}, func(p map[string]Point) float64 {
		return angleAt(p["N"], p["S"], p["A"])
	}},
	{"SNB", []string{"S", "N", "B"}, func(p map[string]Point) float64 {
		return angleAt(p["N"], p["S"], p["B"])
	}},
	{"ANB", []string{"S", "N", "A", "B"}, func(p map[string]Point) float64 {
		return angleAt(p["N"], p["S"], p["A"]) - angleAt(p["N"], p["S"], p["B"])
	}},
	{"FMA", []string{"Po", "Or", "Go", "Me"}, func(p map[string]Point) float64 {
		return lineAngle(p["Po"], p["Or"], p["Go"], p["Me"])
	}},
	{"SN-GoMe", []string{"S", "N", "Go", "Me"}, func(p map[string]Point) float64 {
		return lineAngle(p["S"], p["N"], p["Go"], p["Me"])
	}},
	{"Gonial", []string{"Ar", "Go", "Me"}, func(p map[string]Point) float64 {
		return angleAt(p["Go"], p["Ar"], p["Me"])
	}},
}

// Angles computes every angle whose landmarks are all present.
func Angles(landmarks []Landmark) map[string]float64 {
	points := Index(landmarks)
	out := make(map[string]float64, len(angleDefs))
	for _, def := range angleDefs {
		ok := true
		for _, key := range def.needs {
			if _, found := points[key]; !found {
				ok = false
				break
			}
		}
		if ok {
			out[def.name] = round2(def.calc(points))
		}
	}
	return out
}

func Analyze(landmarks []Landmark, norms *Norms) Result {
	if norms == nil {
		norms = DefaultNorms()
	}
	angles := Angles(landmarks)
	res := Result{
		Angles:          angles,
		SkeletalClass:   Unknown,
		GrowthPattern:   Unknown,
		AirwayMandible:  Unknown,
		Interpretations: map[string]string{},
	}
	if anb, ok := angles["ANB"]; ok {
		res.SkeletalClass = SkeletalClass(anb, norms)
	}
	if fma, ok := angles["FMA"]; ok {
		res.GrowthPattern = GrowthPattern(fma, norms)
	}
	if snb, ok := angles["SNB"]; ok {
		res.AirwayMandible = AirwayMandible(snb, norms)
	}

	names := make([]string, 0, len(angles))
	for name := range angles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m := Measurement{Name: name, Value: angles[name]}
		if norm, ok := norms.Angles[name]; ok {
			m.Mean, m.SD = norm.Mean, norm.SD
			m.Interpretation = Interpret(m.Value, norm)
			res.Interpretations[name] = m.Interpretation
		}
		res.Measurements = append(res.Measurements, m)
	}
	res.Interpretations["Skeletal class"] = res.SkeletalClass
	res.Interpretations["Growth pattern"] = res.GrowthPattern
	res.Interpretations["Airway-mandible"] = res.AirwayMandible
	return res
}

func SkeletalClass(anb float64, norms *Norms) string {
	t := norms.Classification.Skeletal
	switch {
	case anb < t.ClassIIIBelow:
		return ClassIII
	case anb > t.ClassIIAbove:
		return ClassII
	default:
		return ClassI
	}
}

func GrowthPattern(fma float64, norms *Norms) string {
	t := norms.Classification.Growth
	switch {
	case fma < t.HorizontalBelow:
		return GrowthHorizontal
	case fma > t.VerticalAbove:
		return GrowthVertical
	default:
		return GrowthAverage
	}
}

func AirwayMandible(snb float64, norms *Norms) string {
	t := norms.Classification.Airway
	switch {
	case snb < t.RestrictedBelow:
		return AirwayRestricted
	case snb > t.EnlargedAbove:
		return AirwayEnlarged
	default:
		return AirwayNormal
	}
}

func Interpret(value float64, norm Norm) string {
	switch {
	case value > norm.Mean+norm.SD:
		return Increased
	case value < norm.Mean-norm.SD:
		return Decreased
	default:
		return Normal
	}
}
