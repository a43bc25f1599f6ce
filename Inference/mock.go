package Inference

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"

	"github.com/gurunathasmb/Major-project/Analysis"
)

// MockPredictor places every catalog landmark at a random position inside
// the 10%-90% band of the image, in normalized coordinates.
type MockPredictor struct {
	Norms *Analysis.Norms

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewMockPredictor(norms *Analysis.Norms, seed int64) *MockPredictor {
	return &MockPredictor{Norms: norms, rnd: rand.New(rand.NewSource(seed))}
}

func (m *MockPredictor) Name() string {
	return "mock"
}

func (m *MockPredictor) Predict(ctx context.Context, image []byte, filename string) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := Prediction{ModelName: m.Name(), ModelVersion: "v1.0"}
	for _, abbrev := range m.Norms.Abbrevs() {
		out.Landmarks = append(out.Landmarks, Analysis.RawLandmark{
			Name: abbrev,
			X:    (m.rnd.Float64()*80 + 10) / 100,
			Y:    (m.rnd.Float64()*80 + 10) / 100,
		})
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return Prediction{}, err
	}
	out.Raw = raw
	return out, nil
}
