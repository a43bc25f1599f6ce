package Models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Patient struct {
	gorm.Model
	Code         string        `gorm:"size:48;uniqueIndex" json:"code"`
	DoctorID     uint          `gorm:"index;not null" json:"doctor_id"`
	DoctorName   string        `json:"doctor_name"`
	Name         string        `gorm:"size:255;not null" json:"name"`
	Age          int           `json:"age"`
	Gender       string        `gorm:"size:16" json:"gender"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone"`
	Address      string        `json:"address"`
	DOB          string        `json:"dob"`
	Notes        string        `json:"notes"`
	Cephalograms []Cephalogram `json:"cephalograms,omitempty"`
}

func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.Code == "" {
		p.Code = placeholderCode()
	}
	return nil
}

func (p *Patient) AfterCreate(tx *gorm.DB) error {
	return assignCode(tx, p, PatientPrefix, p.ID, &p.Code)
}

// PatientInput carries the caller-editable fields.
type PatientInput struct {
	Name    string `json:"name" binding:"required"`
	Age     int    `json:"age" binding:"gte=0,lte=150"`
	Gender  string `json:"gender"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	DOB     string `json:"dob"`
	Notes   string `json:"notes"`
}

func (in PatientInput) apply(p *Patient) {
	p.Name = strings.TrimSpace(in.Name)
	p.Age = in.Age
	p.Gender = in.Gender
	p.Email = strings.TrimSpace(in.Email)
	p.Phone = strings.TrimSpace(in.Phone)
	p.Address = in.Address
	p.DOB = in.DOB
	p.Notes = in.Notes
}

// CreatePatient stores a patient owned by doctor; the doctor name copy is
// taken from the doctor record, never from the caller.
func CreatePatient(doctor Doctor, in PatientInput) (*Patient, error) {
	patient := Patient{DoctorID: doctor.ID, DoctorName: doctor.Name}
	in.apply(&patient)
	if err := DB.Create(&patient).Error; err != nil {
		return nil, err
	}
	return &patient, nil
}

func GetPatientByCode(scope Scope, code string) (Patient, error) {
	var patient Patient
	err := scope.DB(DB, "").Where("code = ?", strings.ToUpper(code)).Take(&patient).Error
	return patient, notFound(err)
}

func GetPatientByID(id uint) (Patient, error) {
	var patient Patient
	err := DB.First(&patient, id).Error
	return patient, notFound(err)
}

func ListPatients(scope Scope) ([]Patient, error) {
	var patients []Patient
	err := scope.DB(DB, "").Order("id").Find(&patients).Error
	return patients, err
}

func UpdatePatient(patient *Patient, in PatientInput) error {
	in.apply(patient)
	return DB.Save(patient).Error
}

// DeletePatient removes the patient with its cephalograms and predictions and
// returns the cephalograms so the caller can drop their files.
func DeletePatient(patient *Patient) ([]Cephalogram, error) {
	var cephs []Cephalogram
	err := DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("patient_id = ?", patient.ID).Find(&cephs).Error; err != nil {
			return err
		}
		if err := tx.Where("patient_id = ?", patient.ID).Delete(&Prediction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("patient_id = ?", patient.ID).Delete(&Cephalogram{}).Error; err != nil {
			return err
		}
		return tx.Delete(patient).Error
	})
	return cephs, err
}

// ListPatientsBetween lists patients registered in [from, to); a zero bound is
// open.
func ListPatientsBetween(scope Scope, from, to time.Time) ([]Patient, error) {
	q := scope.DB(DB, "").Order("id")
	if !from.IsZero() {
		q = q.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("created_at < ?", to)
	}
	var patients []Patient
	err := q.Find(&patients).Error
	return patients, err
}

// CountCephalograms returns the number of cephalograms per patient id.
func CountCephalograms(scope Scope) (map[uint]int64, error) {
	type row struct {
		PatientID uint
		Count     int64
	}
	var rows []row
	err := scope.DB(DB.Model(&Cephalogram{}), "").Select("patient_id, count(*) as count").Group("patient_id").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, r := range rows {
		out[r.PatientID] = r.Count
	}
	return out, nil
}
