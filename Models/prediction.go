package Models

import (
	"github.com/gurunathasmb/Major-project/Analysis"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Prediction is one landmark-detection run. The cephalogram keeps the
// latest; predictions keep the history.
type Prediction struct {
	gorm.Model
	CephalogramID  uint                                   `gorm:"index;not null" json:"cephalogram_id"`
	PatientID      uint                                   `gorm:"index;not null" json:"patient_id"`
	ModelName      string                                 `json:"model_name"`
	ModelVersion   string                                 `json:"model_version"`
	Status         string                                 `json:"status"`
	ProcessingTime float64                                `json:"processing_time"`
	Landmarks      datatypes.JSONSlice[Analysis.Landmark] `json:"landmarks"`
	Raw            datatypes.JSON                         `json:"-"`
}

func (p Prediction) NumLandmarks() int {
	return len(p.Landmarks)
}

func ListPredictions(patientID uint) ([]Prediction, error) {
	var preds []Prediction
	err := DB.Where("patient_id = ?", patientID).Order("created_at desc, id desc").Find(&preds).Error
	return preds, err
}
