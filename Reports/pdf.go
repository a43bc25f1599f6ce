package Reports

import (
	"bytes"
	"fmt"
	"image"
	"sort"
	"time"

	"github.com/gurunathasmb/Major-project/Analysis"

	"github.com/go-pdf/fpdf"
)

type ReportInput struct {
	PatientName     string
	PatientCode     string
	DoctorName      string
	CephalogramCode string
	Notes           string
	Annotated       image.Image
	Landmarks       []Analysis.Landmark
	Result          Analysis.Result
	GeneratedAt     time.Time
}

// WritePDF renders a one-page landscape A4 report: annotated image on the
// left, angle table and interpretation on the right.
func WritePDF(path string, in ReportInput) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Cephalometric Analysis Report", true)
	pdf.SetAutoPageBreak(false, 10)
	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(10, 12)
	pdf.CellFormat(pageW-20, 10, "Cephalometric Analysis Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(10, 8)
	pdf.CellFormat(pageW-20, 5, "Generated: "+in.GeneratedAt.Format("2006-01-02 15:04:05"), "", 0, "R", false, 0, "")

	y := 26.0
	pdf.SetXY(10, y)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(20, 6, "Patient:", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(90, 6, tr(in.PatientName), "", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, "ID: "+in.PatientCode, "", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, "Cephalogram: "+in.CephalogramCode, "", 0, "L", false, 0, "")
	if in.DoctorName != "" {
		pdf.CellFormat(0, 6, tr("Doctor: "+in.DoctorName), "", 0, "L", false, 0, "")
	}
	y += 10

	boxW, boxH := pageW*0.5-20, pageH-y-25
	if in.Annotated != nil {
		data, err := EncodePNG(in.Annotated)
		if err != nil {
			return fmt.Errorf("encode annotated image: %w", err)
		}
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("annotated", opts, bytes.NewReader(data))
		b := in.Annotated.Bounds()
		scale := min(boxW/float64(b.Dx()), boxH/float64(b.Dy()))
		pdf.ImageOptions("annotated", 10, y, float64(b.Dx())*scale, float64(b.Dy())*scale, false, opts, 0, "")
	}

	colX := 10 + boxW + 10
	colY := y
	pdf.SetXY(colX, colY)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "Angular Measurements", "", 1, "L", false, 0, "")
	colY += 9

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	widths := []float64{40, 25, 30, 35}
	header := []string{"Measurement", "Degrees", "Norm", "Interpretation"}
	pdf.SetXY(colX, colY)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	colY += 7
	pdf.SetFont("Helvetica", "", 10)
	if len(in.Result.Measurements) == 0 {
		pdf.SetXY(colX, colY)
		pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3], 7, "(no angles)", "1", 0, "C", false, 0, "")
		colY += 7
	}
	for _, m := range in.Result.Measurements {
		pdf.SetXY(colX, colY)
		pdf.CellFormat(widths[0], 7, m.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, fmt.Sprintf("%.2f", m.Value), "1", 0, "R", false, 0, "")
		norm := ""
		if m.SD > 0 {
			norm = tr(fmt.Sprintf("%.1f ± %.1f", m.Mean, m.SD))
		}
		pdf.CellFormat(widths[2], 7, norm, "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, m.Interpretation, "1", 0, "L", false, 0, "")
		colY += 7
	}
	colY += 6

	pdf.SetXY(colX, colY)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "Interpretation / Diagnosis", "", 1, "L", false, 0, "")
	colY += 8
	pdf.SetFont("Helvetica", "", 10)
	keys := make([]string, 0, len(in.Result.Interpretations))
	for k := range in.Result.Interpretations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pdf.SetXY(colX, colY)
		pdf.MultiCell(pageW-colX-10, 5, tr(k+": "+in.Result.Interpretations[k]), "", "L", false)
		colY = pdf.GetY() + 1
	}

	footerY := pageH - 15
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(10, footerY)
	pdf.CellFormat(70, 5, "Report generated by CephaloAI", "", 0, "L", false, 0, "")
	if in.Notes != "" {
		pdf.CellFormat(150, 5, tr("Notes: "+in.Notes), "", 0, "L", false, 0, "")
	}
	pdf.SetXY(10, footerY)
	pdf.CellFormat(pageW-20, 5, fmt.Sprintf("Total landmarks: %d", len(in.Landmarks)), "", 0, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
