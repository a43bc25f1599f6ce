package Models

import (
	"errors"
	"strings"
	"time"

	"github.com/gurunathasmb/Major-project/Analysis"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusPending    = "Pending"
	StatusProcessing = "Processing"
	StatusCompleted  = "Completed"
	StatusFailed     = "Failed"
)

// ErrStaleRun is returned when a run no longer owns the cephalogram: it was
// deleted meanwhile, or another run took over after the lease expired.
var ErrStaleRun = errors.New("cephalogram was deleted or reclaimed during analysis")

type Cephalogram struct {
	gorm.Model
	Code          string                                 `gorm:"size:48;uniqueIndex" json:"code"`
	PatientID     uint                                   `gorm:"index;not null;uniqueIndex:idx_cephalogram_patient_hash,where:deleted_at IS NULL AND content_hash <> ''" json:"patient_id"`
	PatientCode   string                                 `json:"patient_code"`
	DoctorID      uint                                   `gorm:"index;not null" json:"doctor_id"`
	DoctorName    string                                 `json:"doctor_name"`
	FileName      string                                 `json:"file_name"`
	ContentType   string                                 `json:"content_type"`
	ImagePath     string                                 `json:"-"`
	ContentHash   string                                 `gorm:"size:64;uniqueIndex:idx_cephalogram_patient_hash,where:deleted_at IS NULL AND content_hash <> ''" json:"content_hash"`
	Width         int                                    `json:"width"`
	Height        int                                    `json:"height"`
	Status        string                                 `gorm:"size:16;index;not null;default:Pending" json:"status"`
	Landmarks     datatypes.JSONSlice[Analysis.Landmark] `json:"landmarks"`
	Result        datatypes.JSONType[Analysis.Result]    `json:"-"`
	AnnotatedPath string                                 `json:"-"`
	ExcelPath     string                                 `json:"-"`
	ReportPath    string                                 `json:"-"`
	ModelName     string                                 `json:"model_name"`
	Error         string                                 `json:"error,omitempty"`
	Attempts      int                                    `json:"attempts"`
	RunID         string                                 `gorm:"size:36" json:"-"`
	AnalyzedAt    *time.Time                             `json:"analyzed_at"`
}

func (c *Cephalogram) BeforeCreate(tx *gorm.DB) error {
	if c.Code == "" {
		c.Code = placeholderCode()
	}
	if c.Status == "" {
		c.Status = StatusPending
	}
	return nil
}

func (c *Cephalogram) AfterCreate(tx *gorm.DB) error {
	return assignCode(tx, c, CephalogramPrefix, c.ID, &c.Code)
}

// Analysis returns the stored analysis, or nil before one completed.
func (c *Cephalogram) Analysis() *Analysis.Result {
	if c.Status != StatusCompleted {
		return nil
	}
	res := c.Result.Data()
	return &res
}

// CreateCephalogram inserts the record. A live cephalogram of the same
// patient with the same content hash makes it fail with ErrDuplicate.
func CreateCephalogram(ceph *Cephalogram) error {
	err := DB.Create(ceph).Error
	if err != nil && ceph.ContentHash != "" {
		if _, ferr := FindCephalogramByHash(ceph.PatientID, ceph.ContentHash); ferr == nil {
			return ErrDuplicate
		}
	}
	return err
}

// FindCephalogramByHash finds an earlier upload of the same image for the
// patient.
func FindCephalogramByHash(patientID uint, hash string) (Cephalogram, error) {
	var ceph Cephalogram
	err := DB.Where("patient_id = ? AND content_hash = ?", patientID, hash).Take(&ceph).Error
	return ceph, notFound(err)
}

func GetCephalogramByCode(scope Scope, code string) (Cephalogram, error) {
	var ceph Cephalogram
	err := scope.DB(DB, "").Where("code = ?", strings.ToUpper(code)).Take(&ceph).Error
	return ceph, notFound(err)
}

func GetCephalogramByID(id uint) (Cephalogram, error) {
	var ceph Cephalogram
	err := DB.First(&ceph, id).Error
	return ceph, notFound(err)
}

func ListCephalograms(scope Scope, patientID uint) ([]Cephalogram, error) {
	var cephs []Cephalogram
	err := scope.DB(DB, "").Where("patient_id = ?", patientID).Order("id").Find(&cephs).Error
	return cephs, err
}

// MarkProcessing moves a cephalogram into Processing under a new run id
// unless another run holds it. A Processing row untouched for longer than
// lease is taken over, since its run died. It reports whether this caller won.
func MarkProcessing(ceph *Cephalogram, lease time.Duration) (bool, error) {
	runID := uuid.NewString()
	res := DB.Model(&Cephalogram{}).
		Where("id = ? AND (status <> ? OR updated_at < ?)", ceph.ID, StatusProcessing, time.Now().Add(-lease)).
		Updates(map[string]interface{}{"status": StatusProcessing, "error": "", "run_id": runID})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	ceph.Status = StatusProcessing
	ceph.Error = ""
	ceph.RunID = runID
	return true, nil
}

// owned restricts an update to the row still held by the caller's run.
func owned(tx *gorm.DB, ceph *Cephalogram) *gorm.DB {
	return tx.Model(&Cephalogram{}).Where("id = ? AND status = ? AND run_id = ?", ceph.ID, StatusProcessing, ceph.RunID)
}

// CompleteAnalysis records the prediction and writes the analysis columns in
// one transaction. Only the analysis columns are written, so concurrent
// renames survive; a run that lost the row gets ErrStaleRun and nothing is
// stored.
func CompleteAnalysis(ceph *Cephalogram, pred *Prediction) error {
	now := time.Now()
	return DB.Transaction(func(tx *gorm.DB) error {
		pred.CephalogramID = ceph.ID
		pred.PatientID = ceph.PatientID
		pred.Status = StatusCompleted
		if err := tx.Create(pred).Error; err != nil {
			return err
		}
		res := owned(tx, ceph).Updates(map[string]interface{}{
			"status":         StatusCompleted,
			"error":          "",
			"landmarks":      pred.Landmarks,
			"result":         ceph.Result,
			"annotated_path": ceph.AnnotatedPath,
			"excel_path":     ceph.ExcelPath,
			"report_path":    ceph.ReportPath,
			"model_name":     pred.ModelName,
			"attempts":       ceph.Attempts + 1,
			"analyzed_at":    now,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleRun
		}
		ceph.Status = StatusCompleted
		ceph.Error = ""
		ceph.Landmarks = pred.Landmarks
		ceph.ModelName = pred.ModelName
		ceph.Attempts++
		ceph.AnalyzedAt = &now
		return nil
	})
}

func FailAnalysis(ceph *Cephalogram, cause error) error {
	res := owned(DB, ceph).Updates(map[string]interface{}{
		"status":   StatusFailed,
		"error":    cause.Error(),
		"attempts": ceph.Attempts + 1,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleRun
	}
	ceph.Status = StatusFailed
	ceph.Error = cause.Error()
	ceph.Attempts++
	return nil
}

// ListRetryable returns failed cephalograms still under the attempt limit,
// pending ones that were never picked up and processing ones whose run died
// (untouched since processingBefore).
func ListRetryable(maxAttempts int, pendingBefore, processingBefore time.Time) ([]Cephalogram, error) {
	var cephs []Cephalogram
	err := DB.Where("(status = ? AND attempts < ?) OR (status = ? AND updated_at < ?) OR (status = ? AND updated_at < ?)",
		StatusFailed, maxAttempts, StatusPending, pendingBefore, StatusProcessing, processingBefore).
		Order("id").Find(&cephs).Error
	return cephs, err
}

func DeleteCephalogram(ceph *Cephalogram) error {
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cephalogram_id = ?", ceph.ID).Delete(&Prediction{}).Error; err != nil {
			return err
		}
		return tx.Delete(ceph).Error
	})
}
