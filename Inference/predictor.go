package Inference

import (
	"context"
	"encoding/json"

	"github.com/gurunathasmb/Major-project/Analysis"
)

// Prediction is the raw output of a landmark model.
type Prediction struct {
	ModelName    string                 `json:"model_name"`
	ModelVersion string                 `json:"model_version"`
	Landmarks    []Analysis.RawLandmark `json:"landmarks"`
	Raw          json.RawMessage        `json:"-"`
}

type Predictor interface {
	Predict(ctx context.Context, image []byte, filename string) (Prediction, error)
	Name() string
}
