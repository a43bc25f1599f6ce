package Models

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

type Doctor struct {
	gorm.Model
	Code           string `gorm:"size:48;uniqueIndex" json:"code"`
	UserID         uint   `json:"user_id"`
	Name           string `gorm:"size:255;not null" json:"name"`
	Email          string `gorm:"size:255;not null" json:"email"`
	Specialization string `json:"specialization"`
	LicenseNumber  string `json:"license_number"`
	Phone          string `json:"phone"`
	IsActive       bool   `gorm:"not null;default:true" json:"is_active"`
	CreatedBy      string `json:"created_by"`
	PatientCount   int64  `gorm:"-" json:"patient_count"`
}

func (d *Doctor) BeforeCreate(tx *gorm.DB) error {
	if d.Code == "" {
		d.Code = placeholderCode()
	}
	return nil
}

func (d *Doctor) AfterCreate(tx *gorm.DB) error {
	return assignCode(tx, d, DoctorPrefix, d.ID, &d.Code)
}

// DoctorProfile is the editable part of a doctor record.
type DoctorProfile struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	LicenseNumber  string `json:"license_number"`
	Phone          string `json:"phone"`
}

// CreateDoctor creates the login and the doctor record in one transaction.
func CreateDoctor(email, password string, profile DoctorProfile, createdBy string) (*Doctor, error) {
	var doctor Doctor
	err := DB.Transaction(func(tx *gorm.DB) error {
		user := User{Username: email, Password: password, Role: RoleDoctor, IsActive: true}
		if _, err := user.SaveUserTx(tx); err != nil {
			return err
		}
		doctor = Doctor{
			UserID:         user.ID,
			Name:           strings.TrimSpace(profile.Name),
			Email:          user.Username,
			Specialization: profile.Specialization,
			LicenseNumber:  profile.LicenseNumber,
			Phone:          profile.Phone,
			IsActive:       true,
			CreatedBy:      createdBy,
		}
		return tx.Create(&doctor).Error
	})
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

func GetDoctorByCode(code string) (Doctor, error) {
	var doctor Doctor
	err := DB.Where("code = ?", strings.ToUpper(code)).Take(&doctor).Error
	return doctor, notFound(err)
}

func GetDoctorByID(id uint) (Doctor, error) {
	var doctor Doctor
	err := DB.First(&doctor, id).Error
	return doctor, notFound(err)
}

func GetDoctorByUserID(uid uint) (Doctor, error) {
	var doctor Doctor
	err := DB.Where("user_id = ?", uid).Take(&doctor).Error
	return doctor, notFound(err)
}

func ListDoctors() ([]Doctor, error) {
	var doctors []Doctor
	if err := DB.Order("id").Find(&doctors).Error; err != nil {
		return nil, err
	}

	type row struct {
		DoctorID uint
		Count    int64
	}
	var counts []row
	if err := DB.Model(&Patient{}).Select("doctor_id, count(*) as count").Group("doctor_id").Scan(&counts).Error; err != nil {
		return nil, err
	}
	byDoctor := make(map[uint]int64, len(counts))
	for _, r := range counts {
		byDoctor[r.DoctorID] = r.Count
	}
	for i := range doctors {
		doctors[i].PatientCount = byDoctor[doctors[i].ID]
	}
	return doctors, nil
}

// UpdateDoctor applies the profile and rewrites the denormalized doctor name
// on patients and cephalograms when it changed.
func UpdateDoctor(doctor *Doctor, profile DoctorProfile) error {
	return DB.Transaction(func(tx *gorm.DB) error {
		renamed := profile.Name != "" && profile.Name != doctor.Name
		if profile.Name != "" {
			doctor.Name = strings.TrimSpace(profile.Name)
		}
		doctor.Specialization = profile.Specialization
		doctor.LicenseNumber = profile.LicenseNumber
		doctor.Phone = profile.Phone
		if err := tx.Save(doctor).Error; err != nil {
			return err
		}
		if !renamed {
			return nil
		}
		if err := tx.Model(&Patient{}).Where("doctor_id = ?", doctor.ID).Update("doctor_name", doctor.Name).Error; err != nil {
			return err
		}
		return tx.Model(&Cephalogram{}).Where("doctor_id = ?", doctor.ID).Update("doctor_name", doctor.Name).Error
	})
}

// SetDoctorActive flips both the doctor record and its login.
func SetDoctorActive(doctor *Doctor, active bool) error {
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(doctor).Update("is_active", active).Error; err != nil {
			return err
		}
		res := tx.Model(&User{}).Where("id = ?", doctor.UserID).Update("is_active", active)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New("doctor has no login")
		}
		doctor.IsActive = active
		return nil
	})
}
