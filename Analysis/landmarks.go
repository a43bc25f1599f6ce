package Analysis

import (
	"strconv"
	"strings"
)

// Landmark is a detected anatomical point. X and Y are pixel coordinates in
// the original image; the percent fields place it independently of size.
type Landmark struct {
	Abbrev   string  `json:"abbrev"`
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	XPercent float64 `json:"x_percent"`
	YPercent float64 `json:"y_percent"`
}

type Point struct {
	X, Y float64
}

func (l Landmark) Point() Point {
	return Point{X: l.X, Y: l.Y}
}

// RawLandmark is a point as returned by a predictor, before it is matched
// against the catalog. Coordinates are either normalized (0..1) or pixels.
type RawLandmark struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Resolve maps raw predictor output onto the catalog and converts the
// coordinates to pixels of a width x height image. Points named "P<n>" take
// the n-th catalog entry. A set whose coordinates all fall inside [0,1] is
// treated as normalized.
func Resolve(raw []RawLandmark, width, height int, norms *Norms) []Landmark {
	normalized := true
	for _, r := range raw {
		if r.X > 1 || r.Y > 1 || r.X < 0 || r.Y < 0 {
			normalized = false
			break
		}
	}

	w, h := float64(width), float64(height)
	out := make([]Landmark, 0, len(raw))
	for _, r := range raw {
		lm := Landmark{Name: r.Name, X: r.X, Y: r.Y}
		if normalized {
			lm.X, lm.Y = r.X*w, r.Y*h
		}
		if w > 0 && h > 0 {
			lm.XPercent = lm.X / w * 100
			lm.YPercent = lm.Y / h * 100
		}
		if entry, ok := catalogEntry(r.Name, norms); ok {
			lm.Abbrev = entry.Abbrev
			lm.Name = entry.Name
		}
		out = append(out, lm)
	}
	return out
}

func catalogEntry(name string, norms *Norms) (CatalogEntry, bool) {
	if entry, _, ok := norms.lookup(name); ok {
		return entry, true
	}
	if len(name) > 1 && (name[0] == 'P' || name[0] == 'p') {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 1 && n <= len(norms.Landmarks) {
			return norms.Landmarks[n-1], true
		}
	}
	return CatalogEntry{}, false
}

// Index returns landmarks keyed by abbreviation; entries without one are
// skipped.
func Index(landmarks []Landmark) map[string]Point {
	out := make(map[string]Point, len(landmarks))
	for _, lm := range landmarks {
		if lm.Abbrev == "" {
			continue
		}
		out[strings.TrimSpace(lm.Abbrev)] = lm.Point()
	}
	return out
}
