package Reports

import (
	"fmt"

	"github.com/gurunathasmb/Major-project/Analysis"

	"github.com/360EntSecGroup-Skylar/excelize"
)

// WriteExcel saves the landmark coordinates and the angle table as a
// two-sheet workbook.
func WriteExcel(path string, landmarks []Analysis.Landmark, result Analysis.Result) error {
	file := excelize.NewFile()

	sheet := "Landmarks"
	file.NewSheet(sheet)
	file.DeleteSheet("Sheet1")
	headers := map[string]string{
		"A1": "#",
		"B1": "Abbrev",
		"C1": "Name",
		"D1": "X (px)",
		"E1": "Y (px)",
		"F1": "X (%)",
		"G1": "Y (%)",
	}
	for k, v := range headers {
		file.SetCellValue(sheet, k, v)
	}
	for i := range landmarks {
		appendRowLandmark(sheet, file, i, landmarks)
	}

	sheet = "Angles"
	file.NewSheet(sheet)
	headers = map[string]string{
		"A1": "Measurement",
		"B1": "Degrees",
		"C1": "Norm Mean",
		"D1": "Norm SD",
		"E1": "Interpretation",
	}
	for k, v := range headers {
		file.SetCellValue(sheet, k, v)
	}
	for i := range result.Measurements {
		appendRowMeasurement(sheet, file, i, result.Measurements)
	}
	row := len(result.Measurements) + 3
	summary := [][2]string{
		{"Skeletal class", result.SkeletalClass},
		{"Growth pattern", result.GrowthPattern},
		{"Airway-mandible", result.AirwayMandible},
	}
	for i, s := range summary {
		file.SetCellValue(sheet, fmt.Sprintf("A%v", row+i), s[0])
		file.SetCellValue(sheet, fmt.Sprintf("B%v", row+i), s[1])
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func appendRowLandmark(sheet string, file *excelize.File, index int, rows []Analysis.Landmark) {
	rowCount := index + 2
	file.SetCellValue(sheet, fmt.Sprintf("A%v", rowCount), index+1)
	file.SetCellValue(sheet, fmt.Sprintf("B%v", rowCount), rows[index].Abbrev)
	file.SetCellValue(sheet, fmt.Sprintf("C%v", rowCount), rows[index].Name)
	file.SetCellValue(sheet, fmt.Sprintf("D%v", rowCount), rows[index].X)
	file.SetCellValue(sheet, fmt.Sprintf("E%v", rowCount), rows[index].Y)
	file.SetCellValue(sheet, fmt.Sprintf("F%v", rowCount), rows[index].XPercent)
	file.SetCellValue(sheet, fmt.Sprintf("G%v", rowCount), rows[index].YPercent)
}

func appendRowMeasurement(sheet string, file *excelize.File, index int, rows []Analysis.Measurement) {
	rowCount := index + 2
	file.SetCellValue(sheet, fmt.Sprintf("A%v", rowCount), rows[index].Name)
	file.SetCellValue(sheet, fmt.Sprintf("B%v", rowCount), rows[index].Value)
	file.SetCellValue(sheet, fmt.Sprintf("C%v", rowCount), rows[index].Mean)
	file.SetCellValue(sheet, fmt.Sprintf("D%v", rowCount), rows[index].SD)
	file.SetCellValue(sheet, fmt.Sprintf("E%v", rowCount), rows[index].Interpretation)
}
