package Pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gurunathasmb/Major-project/Analysis"
	"github.com/gurunathasmb/Major-project/Inference"
	"github.com/gurunathasmb/Major-project/Models"
	"github.com/gurunathasmb/Major-project/Reports"
	"github.com/gurunathasmb/Major-project/Storage"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// ErrBusy is returned when another run already holds the cephalogram.
var ErrBusy = errors.New("analysis already in progress")

const (
	AnnotatedFile = "annotated.png"
	ExcelFile     = "landmarks.xlsx"
	ReportFile    = "report.pdf"
)

// Pipeline turns an uploaded cephalogram into landmarks, an analysis and the
// rendered report files.
type Pipeline struct {
	Store     *Storage.Store
	Predictor Inference.Predictor
	Norms     *Analysis.Norms
	Timeout   time.Duration

	// Optional hooks, called after every status change.
	Publish func(Models.AnalysisEvent)
	Notify  func(Models.NotificationRequest) error

	mu      sync.Mutex
	queue   chan uint
	stopped bool
	wg      sync.WaitGroup
}

// Lease is how long a Processing cephalogram stays claimed by its run. Past
// that, the run is presumed dead and another may take the row over.
func (p *Pipeline) Lease() time.Duration {
	return p.Timeout + time.Minute
}

func New(store *Storage.Store, predictor Inference.Predictor, norms *Analysis.Norms) *Pipeline {
	if norms == nil {
		norms = Analysis.DefaultNorms()
	}
	return &Pipeline{Store: store, Predictor: predictor, Norms: norms, Timeout: 2 * time.Minute}
}

// Start launches the worker pool serving Enqueue.
func (p *Pipeline) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = make(chan uint, 256)
	p.stopped = false
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(p.queue)
	}
	log.Info().Int("workers", workers).Msg("analysis workers started")
}

// Stop closes the queue and waits for queued runs to finish.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if p.queue != nil && !p.stopped {
		p.stopped = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Enqueue schedules an asynchronous run. It reports false when the pool is
// not running or the queue is full; the retry worker picks those up later.
func (p *Pipeline) Enqueue(cephalogramID uint) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.queue == nil || p.stopped {
		return false
	}
	select {
	case p.queue <- cephalogramID:
		return true
	default:
		log.Warn().Uint("cephalogram_id", cephalogramID).Msg("analysis queue full")
		return false
	}
}

func (p *Pipeline) worker(queue <-chan uint) {
	defer p.wg.Done()
	for id := range queue {
		ceph, err := Models.GetCephalogramByID(id)
		if err != nil {
			log.Warn().Err(err).Uint("cephalogram_id", id).Msg("queued cephalogram not found")
			continue
		}
		if ceph.Status == Models.StatusCompleted {
			continue
		}
		if _, err := p.Run(context.Background(), &ceph); err != nil && !errors.Is(err, ErrBusy) && !errors.Is(err, Models.ErrStaleRun) {
			log.Error().Err(err).Str("cephalogram", ceph.Code).Msg("analysis failed")
		}
	}
}

// Run analyzes the cephalogram synchronously. Failures are recorded on the
// cephalogram before being returned. A run that lost the row, because it was
// deleted or reclaimed, returns Models.ErrStaleRun and records nothing.
func (p *Pipeline) Run(ctx context.Context, ceph *Models.Cephalogram) (*Analysis.Result, error) {
	won, err := Models.MarkProcessing(ceph, p.Lease())
	if err != nil {
		return nil, fmt.Errorf("mark processing: %w", err)
	}
	if !won {
		return nil, ErrBusy
	}
	p.publish(ceph)

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	result, err := p.analyze(ctx, ceph)
	if errors.Is(err, Models.ErrStaleRun) {
		p.discard(ceph)
		return nil, err
	}
	if err != nil {
		if ferr := Models.FailAnalysis(ceph, err); ferr != nil {
			if errors.Is(ferr, Models.ErrStaleRun) {
				p.discard(ceph)
				return nil, ferr
			}
			log.Error().Err(ferr).Str("cephalogram", ceph.Code).Msg("failed to record analysis failure")
		}
		p.publish(ceph)
		p.notify(ceph, "Analysis failed", fmt.Sprintf("Cephalogram %s of patient %s could not be analyzed", ceph.Code, ceph.PatientCode))
		return nil, err
	}

	log.Info().Str("cephalogram", ceph.Code).Str("skeletal_class", result.SkeletalClass).Msg("analysis completed")
	p.publish(ceph)
	p.notify(ceph, "Analysis complete", fmt.Sprintf("Cephalogram %s of patient %s: %s", ceph.Code, ceph.PatientCode, result.SkeletalClass))
	return result, nil
}

// discard drops the outputs of a run whose cephalogram was deleted. When the
// row was reclaimed instead, the new run owns the outputs and they stay.
func (p *Pipeline) discard(ceph *Models.Cephalogram) {
	log.Warn().Str("cephalogram", ceph.Code).Msg("analysis result discarded, cephalogram changed during run")
	if _, err := Models.GetCephalogramByID(ceph.ID); !errors.Is(err, Models.ErrNotFound) {
		return
	}
	p.Store.RemoveOutputs(ceph.Code)
}

func (p *Pipeline) analyze(ctx context.Context, ceph *Models.Cephalogram) (*Analysis.Result, error) {
	start := time.Now()

	data, err := p.Store.Read(ceph.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	patient, err := Models.GetPatientByID(ceph.PatientID)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}

	pred, err := p.Predictor.Predict(ctx, data, ceph.FileName)
	if err != nil {
		return nil, fmt.Errorf("predict landmarks: %w", err)
	}
	landmarks := Analysis.Resolve(pred.Landmarks, ceph.Width, ceph.Height, p.Norms)
	result := Analysis.Analyze(landmarks, p.Norms)

	annotated, err := Reports.Annotate(data, landmarks)
	if err != nil {
		return nil, fmt.Errorf("annotate: %w", err)
	}
	annotatedPath, err := p.Store.OutputPath(ceph.Code, AnnotatedFile)
	if err != nil {
		return nil, err
	}
	if err := Reports.WritePNG(annotated, annotatedPath); err != nil {
		return nil, fmt.Errorf("write annotated image: %w", err)
	}
	excelPath, err := p.Store.OutputPath(ceph.Code, ExcelFile)
	if err != nil {
		return nil, err
	}
	if err := Reports.WriteExcel(excelPath, landmarks, result); err != nil {
		return nil, err
	}
	reportPath, err := p.Store.OutputPath(ceph.Code, ReportFile)
	if err != nil {
		return nil, err
	}
	err = Reports.WritePDF(reportPath, Reports.ReportInput{
		PatientName:     patient.Name,
		PatientCode:     patient.Code,
		DoctorName:      ceph.DoctorName,
		CephalogramCode: ceph.Code,
		Notes:           patient.Notes,
		Annotated:       annotated,
		Landmarks:       landmarks,
		Result:          result,
		GeneratedAt:     time.Now(),
	})
	if err != nil {
		return nil, err
	}

	ceph.Result = datatypes.NewJSONType(result)
	ceph.AnnotatedPath = annotatedPath
	ceph.ExcelPath = excelPath
	ceph.ReportPath = reportPath
	record := &Models.Prediction{
		ModelName:      pred.ModelName,
		ModelVersion:   pred.ModelVersion,
		ProcessingTime: time.Since(start).Seconds(),
		Landmarks:      landmarks,
		Raw:            datatypes.JSON(pred.Raw),
	}
	if err := Models.CompleteAnalysis(ceph, record); err != nil {
		if errors.Is(err, Models.ErrStaleRun) {
			return nil, err
		}
		return nil, fmt.Errorf("save analysis: %w", err)
	}
	return &result, nil
}

func (p *Pipeline) publish(ceph *Models.Cephalogram) {
	if p.Publish == nil {
		return
	}
	p.Publish(Models.AnalysisEvent{
		Cephalogram: ceph.Code,
		Patient:     ceph.PatientCode,
		DoctorID:    ceph.DoctorID,
		Status:      ceph.Status,
		Error:       ceph.Error,
	})
}

// notify pushes to the owning doctor's devices and to admins.
func (p *Pipeline) notify(ceph *Models.Cephalogram, title, body string) {
	if p.Notify == nil {
		return
	}
	tokens, err := Recipients(ceph.DoctorID)
	if err != nil {
		log.Warn().Err(err).Str("cephalogram", ceph.Code).Msg("failed to load device tokens")
		return
	}
	if len(tokens) == 0 {
		return
	}
	err = p.Notify(Models.NotificationRequest{
		Tokens: tokens,
		Title:  title,
		Body:   body,
		Data: map[string]string{
			"cephalogram": ceph.Code,
			"patient":     ceph.PatientCode,
			"status":      ceph.Status,
		},
	})
	if err != nil {
		log.Warn().Err(err).Str("cephalogram", ceph.Code).Msg("failed to send push notification")
	}
}

// Recipients returns the device tokens of the doctor and of every admin,
// without duplicates.
func Recipients(doctorID uint) ([]string, error) {
	var tokens []string
	doctor, err := Models.GetDoctorByID(doctorID)
	switch {
	case err == nil:
		tokens, err = Models.GetFCMsByID(doctor.UserID)
		if err != nil {
			return nil, err
		}
	case !errors.Is(err, Models.ErrNotFound):
		return nil, err
	}
	admins, err := Models.GetAdminFCMs()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(tokens)+len(admins))
	out := make([]string, 0, len(tokens)+len(admins))
	for _, t := range append(tokens, admins...) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out, nil
}
