package Controllers

import (
	"net/http"

	"github.com/gurunathasmb/Major-project/Models"

	"github.com/gin-gonic/gin"
)

type CreatePatientInput struct {
	Models.PatientInput
	// Only admins choose the owner; doctors always own what they create.
	DoctorCode string `json:"doctor_code"`
}

func CreatePatient(c *gin.Context) {
	var input CreatePatientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doctor, isDoctor := currentDoctor(c)
	switch {
	case isDoctor:
		if input.DoctorCode != "" && input.DoctorCode != doctor.Code {
			respondError(c, Models.ErrForbidden, "")
			return
		}
	case input.DoctorCode == "":
		c.JSON(http.StatusBadRequest, gin.H{"error": "doctor_code is required"})
		return
	default:
		var err error
		doctor, err = Models.GetDoctorByCode(input.DoctorCode)
		if err != nil {
			respondError(c, err, "Doctor not found")
			return
		}
	}

	patient, err := Models.CreatePatient(doctor, input.PatientInput)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, patient)
}

func FetchPatients(c *gin.Context) {
	patients, err := Models.ListPatients(getScope(c))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, patients)
}

func GetPatient(c *gin.Context) {
	scope := getScope(c)
	patient, err := Models.GetPatientByCode(scope, c.Param("code"))
	if err != nil {
		respondError(c, err, "Patient not found")
		return
	}
	cephs, err := Models.ListCephalograms(scope, patient.ID)
	if err != nil {
		respondError(c, err, "")
		return
	}
	patient.Cephalograms = cephs
	c.JSON(http.StatusOK, patient)
}

func UpdatePatient(c *gin.Context) {
	var input Models.PatientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patient, err := Models.GetPatientByCode(getScope(c), c.Param("code"))
	if err != nil {
		respondError(c, err, "Patient not found")
		return
	}
	if err := Models.UpdatePatient(&patient, input); err != nil {
		respondError(c, err, "Patient not found")
		return
	}
	c.JSON(http.StatusOK, patient)
}

func DeletePatient(c *gin.Context) {
	patient, err := Models.GetPatientByCode(getScope(c), c.Param("code"))
	if err != nil {
		respondError(c, err, "Patient not found")
		return
	}
	removed, err := Models.DeletePatient(&patient)
	if err != nil {
		respondError(c, err, "Patient not found")
		return
	}
	for _, ceph := range removed {
		removeCephalogramFiles(ceph)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Patient deleted", "cephalograms_removed": len(removed)})
}

func FetchPatientCephalograms(c *gin.Context) {
	scope := getScope(c)
	patient, err := Models.GetPatientByCode(scope, c.Param("code"))
	if err != nil {
		respondError(c, err, "Patient not found")
		return
	}
	cephs, err := Models.ListCephalograms(scope, patient.ID)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, cephs)
}

func FetchPatientPredictions(c *gin.Context) {
	patient, err := Models.GetPatientByCode(getScope(c), c.Param("code"))
	if err != nil {
		respondError(c, err, "Patient not found")
		return
	}
	preds, err := Models.ListPredictions(patient.ID)
	if err != nil {
		respondError(c, err, "")
		return
	}

	type predictionView struct {
		Models.Prediction
		NumLandmarks int `json:"num_landmarks"`
	}
	out := make([]predictionView, len(preds))
	for i, p := range preds {
		out[i] = predictionView{Prediction: p, NumLandmarks: p.NumLandmarks()}
	}
	c.JSON(http.StatusOK, gin.H{"patient_code": patient.Code, "predictions": out})
}

func DoctorStats(c *gin.Context) {
	stats, err := Models.GetStats(getScope(c))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, stats)
}
