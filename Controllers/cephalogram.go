package Controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gurunathasmb/Major-project/Analysis"
	"github.com/gurunathasmb/Major-project/Config"
	"github.com/gurunathasmb/Major-project/Models"
	"github.com/gurunathasmb/Major-project/Pipeline"
	"github.com/gurunathasmb/Major-project/Storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type cephalogramView struct {
	Models.Cephalogram
	Analysis *Analysis.Result `json:"analysis"`
	Assets   map[string]string `json:"assets"`
}

func newCephalogramView(ceph Models.Cephalogram) cephalogramView {
	base := fmt.Sprintf("/api/protected/cephalograms/%s/", ceph.Code)
	assets := map[string]string{"image": base + "image"}
	if ceph.AnnotatedPath != "" {
		assets["annotated"] = base + "annotated"
	}
	if ceph.ExcelPath != "" {
		assets["excel"] = base + "excel"
	}
	if ceph.ReportPath != "" {
		assets["report"] = base + "report"
	}
	return cephalogramView{Cephalogram: ceph, Analysis: ceph.Analysis(), Assets: assets}
}

func UploadCephalogram(c *gin.Context) {
	patient, err := Models.GetPatientByCode(getScope(c), c.Param("code"))
	if err != nil {
		respondError(c, err, "Patient not found")
		return
	}

	limit := Config.C.MaxUploadMB << 20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+1<<20)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("File exceeds %d MB", Config.C.MaxUploadMB)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > limit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("File exceeds %d MB", Config.C.MaxUploadMB)})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := Models.FindCephalogramByHash(patient.ID, Storage.Hash(data))
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"duplicate": true, "cephalogram": newCephalogramView(existing)})
		return
	} else if !errors.Is(err, Models.ErrNotFound) {
		respondError(c, err, "")
		return
	}

	upload, err := Files.SaveUpload(patient.Code, fileHeader.Filename, data)
	if errors.Is(err, Storage.ErrNotImage) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be an image"})
		return
	}
	if errors.Is(err, Storage.ErrImageTooLarge) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Image exceeds %d pixels", Files.MaxPixels)})
		return
	}
	if err != nil {
		respondError(c, err, "")
		return
	}

	ceph := Models.Cephalogram{
		PatientID:   patient.ID,
		PatientCode: patient.Code,
		DoctorID:    patient.DoctorID,
		DoctorName:  patient.DoctorName,
		FileName:    fileHeader.Filename,
		ContentType: upload.ContentType,
		ImagePath:   upload.Path,
		ContentHash: upload.Hash,
		Width:       upload.Width,
		Height:      upload.Height,
	}
	if err := Models.CreateCephalogram(&ceph); err != nil {
		Files.Remove(upload.Path)
		// A concurrent upload of the same image won the insert.
		if errors.Is(err, Models.ErrDuplicate) {
			if existing, ferr := Models.FindCephalogramByHash(patient.ID, upload.Hash); ferr == nil {
				c.JSON(http.StatusOK, gin.H{"duplicate": true, "cephalogram": newCephalogramView(existing)})
				return
			}
		}
		respondError(c, err, "")
		return
	}
	log.Info().Str("cephalogram", ceph.Code).Str("patient", patient.Code).Int("width", ceph.Width).Int("height", ceph.Height).Msg("cephalogram uploaded")

	queued := false
	if analyze, _ := strconv.ParseBool(c.DefaultQuery("analyze", "true")); analyze && Analyzer != nil {
		queued = Analyzer.Enqueue(ceph.ID)
	}
	c.JSON(http.StatusCreated, gin.H{"duplicate": false, "queued": queued, "cephalogram": newCephalogramView(ceph)})
}

func GetCephalogram(c *gin.Context) {
	ceph, err := Models.GetCephalogramByCode(getScope(c), c.Param("code"))
	if err != nil {
		respondError(c, err, "Cephalogram not found")
		return
	}
	c.JSON(http.StatusOK, newCephalogramView(ceph))
}

// AnalyzeCephalogram runs the pipeline in the request and returns the result.
func AnalyzeCephalogram(c *gin.Context) {
	ceph, err := Models.GetCephalogramByCode(getScope(c), c.Param("code"))
	if err != nil {
		respondError(c, err, "Cephalogram not found")
		return
	}
	if Analyzer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Analysis is not configured"})
		return
	}

	result, err := Analyzer.Run(c.Request.Context(), &ceph)
	if errors.Is(err, Pipeline.ErrBusy) || errors.Is(err, Models.ErrStaleRun) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "cephalogram": newCephalogramView(ceph)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cephalogram": newCephalogramView(ceph), "analysis": result})
}

func DeleteCephalogram(c *gin.Context) {
	ceph, err := Models.GetCephalogramByCode(getScope(c), c.Param("code"))
	if err != nil {
		respondError(c, err, "Cephalogram not found")
		return
	}
	if err := Models.DeleteCephalogram(&ceph); err != nil {
		respondError(c, err, "Cephalogram not found")
		return
	}
	removeCephalogramFiles(ceph)
	c.JSON(http.StatusOK, gin.H{"message": "Cephalogram deleted"})
}

func CephalogramImage(c *gin.Context) {
	serveAsset(c, "image")
}

func CephalogramAnnotated(c *gin.Context) {
	serveAsset(c, "annotated")
}

func CephalogramExcel(c *gin.Context) {
	serveAsset(c, "excel")
}

func CephalogramReport(c *gin.Context) {
	serveAsset(c, "report")
}

func serveAsset(c *gin.Context, kind string) {
	ceph, err := Models.GetCephalogramByCode(getScope(c), c.Param("code"))
	if err != nil {
		respondError(c, err, "Cephalogram not found")
		return
	}

	var path, name string
	switch kind {
	case "image":
		path, name = ceph.ImagePath, ceph.FileName
	case "annotated":
		path, name = ceph.AnnotatedPath, ceph.Code+"_"+Pipeline.AnnotatedFile
	case "excel":
		path, name = ceph.ExcelPath, ceph.Code+"_"+Pipeline.ExcelFile
	case "report":
		path, name = ceph.ReportPath, ceph.Code+"_"+Pipeline.ReportFile
	}
	if path == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Analysis not available yet"})
		return
	}
	if kind == "image" || kind == "annotated" {
		c.File(path)
		return
	}
	c.FileAttachment(path, name)
}

func removeCephalogramFiles(ceph Models.Cephalogram) {
	if Files == nil {
		return
	}
	Files.Remove(ceph.ImagePath)
	Files.RemoveOutputs(ceph.Code)
}
