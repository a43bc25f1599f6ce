package Controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gurunathasmb/Major-project/Models"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// parseDateRange reads from/to query dates; to is inclusive of the whole day.
func parseDateRange(c *gin.Context) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if v := c.Query("date_from"); v != "" {
		if from, err = time.ParseInLocation(dateLayout, v, time.Local); err != nil {
			return from, to, fmt.Errorf("date_from: %w", err)
		}
	}
	if v := c.Query("date_to"); v != "" {
		if to, err = time.ParseInLocation(dateLayout, v, time.Local); err != nil {
			return from, to, fmt.Errorf("date_to: %w", err)
		}
		to = to.AddDate(0, 0, 1)
	}
	return from, to, nil
}

// ExportPatients downloads the visible patients as a workbook, optionally
// limited to a registration date range.
func ExportPatients(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scope := getScope(c)
	patients, err := Models.ListPatientsBetween(scope, from, to)
	if err != nil {
		respondError(c, err, "")
		return
	}
	counts, err := Models.CountCephalograms(scope)
	if err != nil {
		respondError(c, err, "")
		return
	}

	headers := map[string]string{
		"A1": "Code",
		"B1": "Name",
		"C1": "Age",
		"D1": "Gender",
		"E1": "Doctor",
		"F1": "Cephalograms",
		"G1": "Registered",
	}
	file := excelize.NewFile()
	sheet := "Patients"
	file.NewSheet(sheet)
	file.DeleteSheet("Sheet1")
	for k, v := range headers {
		file.SetCellValue(sheet, k, v)
	}
	for i := range patients {
		appendRowPatient(sheet, file, i, patients, counts)
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		respondError(c, err, "")
		return
	}
	filename := fmt.Sprintf("patients_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func appendRowPatient(sheet string, file *excelize.File, index int, rows []Models.Patient, counts map[uint]int64) {
	rowCount := index + 2
	file.SetCellValue(sheet, fmt.Sprintf("A%v", rowCount), rows[index].Code)
	file.SetCellValue(sheet, fmt.Sprintf("B%v", rowCount), rows[index].Name)
	file.SetCellValue(sheet, fmt.Sprintf("C%v", rowCount), rows[index].Age)
	file.SetCellValue(sheet, fmt.Sprintf("D%v", rowCount), rows[index].Gender)
	file.SetCellValue(sheet, fmt.Sprintf("E%v", rowCount), rows[index].DoctorName)
	file.SetCellValue(sheet, fmt.Sprintf("F%v", rowCount), counts[rows[index].ID])
	file.SetCellValue(sheet, fmt.Sprintf("G%v", rowCount), rows[index].CreatedAt.Format(dateLayout))
}
