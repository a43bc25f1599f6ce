package Controllers

import (
	"errors"
	"net/http"

	"github.com/gurunathasmb/Major-project/Models"

	"github.com/gin-gonic/gin"
)

type CreateDoctorInput struct {
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=6"`
	Name           string `json:"name" binding:"required"`
	Specialization string `json:"specialization"`
	LicenseNumber  string `json:"license_number"`
	Phone          string `json:"phone"`
}

func CreateDoctor(c *gin.Context) {
	var input CreateDoctorInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile := Models.DoctorProfile{
		Name:           input.Name,
		Specialization: input.Specialization,
		LicenseNumber:  input.LicenseNumber,
		Phone:          input.Phone,
	}
	doctor, err := Models.CreateDoctor(input.Email, input.Password, profile, currentUser(c).Username)
	if errors.Is(err, Models.ErrDuplicate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A user with this email already exists"})
		return
	}
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, doctor)
}

func ListDoctors(c *gin.Context) {
	doctors, err := Models.ListDoctors()
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, doctors)
}

func GetDoctor(c *gin.Context) {
	doctor, err := Models.GetDoctorByCode(c.Param("code"))
	if err != nil {
		respondError(c, err, "Doctor not found")
		return
	}
	c.JSON(http.StatusOK, doctor)
}

func UpdateDoctor(c *gin.Context) {
	var input Models.DoctorProfile
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doctor, err := Models.GetDoctorByCode(c.Param("code"))
	if err != nil {
		respondError(c, err, "Doctor not found")
		return
	}
	if err := Models.UpdateDoctor(&doctor, input); err != nil {
		respondError(c, err, "Doctor not found")
		return
	}
	c.JSON(http.StatusOK, doctor)
}

func DeactivateDoctor(c *gin.Context) {
	setDoctorActive(c, false)
}

func ActivateDoctor(c *gin.Context) {
	setDoctorActive(c, true)
}

func setDoctorActive(c *gin.Context, active bool) {
	doctor, err := Models.GetDoctorByCode(c.Param("code"))
	if err != nil {
		respondError(c, err, "Doctor not found")
		return
	}
	if err := Models.SetDoctorActive(&doctor, active); err != nil {
		respondError(c, err, "Doctor not found")
		return
	}
	c.JSON(http.StatusOK, doctor)
}

func AdminStats(c *gin.Context) {
	stats, err := Models.GetStats(Models.AdminScope())
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, stats)
}
