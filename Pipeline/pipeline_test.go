package Pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gurunathasmb/Major-project/Analysis"
	"github.com/gurunathasmb/Major-project/Config"
	"github.com/gurunathasmb/Major-project/Inference"
	"github.com/gurunathasmb/Major-project/Models"
	"github.com/gurunathasmb/Major-project/Storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPredictor struct{}

func (failingPredictor) Name() string { return "broken" }

func (failingPredictor) Predict(ctx context.Context, image []byte, filename string) (Inference.Prediction, error) {
	return Inference.Prediction{}, errors.New("model offline")
}

// hookPredictor runs during Predict, where a real model call would block.
type hookPredictor struct {
	Inference.Predictor
	during func()
}

func (h hookPredictor) Predict(ctx context.Context, image []byte, filename string) (Inference.Prediction, error) {
	h.during()
	return h.Predictor.Predict(ctx, image, filename)
}

type recorder struct {
	mu     sync.Mutex
	events []Models.AnalysisEvent
	pushes []Models.NotificationRequest
}

func (r *recorder) publish(e Models.AnalysisEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) notify(req Models.NotificationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, req)
	return nil
}

func (r *recorder) statuses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Status
	}
	return out
}

type fixture struct {
	pipeline *Pipeline
	rec      *recorder
	doctor   *Models.Doctor
	ceph     Models.Cephalogram
}

func setup(t *testing.T, predictor Inference.Predictor) fixture {
	t.Helper()
	Config.C = Config.Default()
	db, err := Models.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))
	Models.DB = db
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	doctor, err := Models.CreateDoctor("doc@x.com", "doctor123", Models.DoctorProfile{Name: "Dr. Smith"}, "admin@x.com")
	require.NoError(t, err)
	require.NoError(t, Models.SaveDeviceToken(doctor.UserID, "doctor-phone"))
	patient, err := Models.CreatePatient(*doctor, Models.PatientInput{Name: "Alice", Age: 14})
	require.NoError(t, err)

	dir := t.TempDir()
	store := Storage.New(filepath.Join(dir, "uploads"), filepath.Join(dir, "outputs"))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 400, 300))))
	up, err := store.SaveUpload(patient.Code, "skull.png", buf.Bytes())
	require.NoError(t, err)

	ceph := Models.Cephalogram{
		PatientID:   patient.ID,
		PatientCode: patient.Code,
		DoctorID:    doctor.ID,
		DoctorName:  doctor.Name,
		FileName:    "skull.png",
		ImagePath:   up.Path,
		ContentHash: up.Hash,
		Width:       up.Width,
		Height:      up.Height,
	}
	require.NoError(t, Models.CreateCephalogram(&ceph))

	rec := &recorder{}
	p := New(store, predictor, Analysis.DefaultNorms())
	p.Publish = rec.publish
	p.Notify = rec.notify
	return fixture{pipeline: p, rec: rec, doctor: doctor, ceph: ceph}
}

func TestRunCompletesAnalysis(t *testing.T) {
	f := setup(t, Inference.NewMockPredictor(Analysis.DefaultNorms(), 42))

	result, err := f.pipeline.Run(context.Background(), &f.ceph)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Contains(t, result.Angles, "ANB")
	assert.NotEmpty(t, result.SkeletalClass)

	stored, err := Models.GetCephalogramByID(f.ceph.ID)
	require.NoError(t, err)
	assert.Equal(t, Models.StatusCompleted, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	assert.Equal(t, "mock", stored.ModelName)
	assert.Len(t, stored.Landmarks, 19)
	require.NotNil(t, stored.Analysis())
	assert.Equal(t, result.SkeletalClass, stored.Analysis().SkeletalClass)
	for _, lm := range stored.Landmarks {
		assert.InDelta(t, 50, lm.XPercent, 40.01)
		assert.LessOrEqual(t, lm.X, 400.0)
	}

	for _, path := range []string{stored.AnnotatedPath, stored.ExcelPath, stored.ReportPath} {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}
	assert.Equal(t, ReportFile, filepath.Base(stored.ReportPath))

	preds, err := Models.ListPredictions(stored.PatientID)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, "v1.0", preds[0].ModelVersion)

	assert.Equal(t, []string{Models.StatusProcessing, Models.StatusCompleted}, f.rec.statuses())
	require.Len(t, f.rec.pushes, 1)
	assert.Equal(t, []string{"doctor-phone"}, f.rec.pushes[0].Tokens)
	assert.Equal(t, f.ceph.Code, f.rec.pushes[0].Data["cephalogram"])
}

func TestRunRecordsFailure(t *testing.T) {
	f := setup(t, failingPredictor{})

	_, err := f.pipeline.Run(context.Background(), &f.ceph)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model offline")

	stored, err := Models.GetCephalogramByID(f.ceph.ID)
	require.NoError(t, err)
	assert.Equal(t, Models.StatusFailed, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	assert.Contains(t, stored.Error, "model offline")
	assert.Nil(t, stored.Analysis())

	assert.Equal(t, []string{Models.StatusProcessing, Models.StatusFailed}, f.rec.statuses())
	assert.Equal(t, "Analysis failed", f.rec.pushes[0].Title)
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	f := setup(t, Inference.NewMockPredictor(Analysis.DefaultNorms(), 1))
	running := f.ceph
	won, err := Models.MarkProcessing(&running, f.pipeline.Lease())
	require.NoError(t, err)
	require.True(t, won)

	_, err = f.pipeline.Run(context.Background(), &f.ceph)
	assert.ErrorIs(t, err, ErrBusy)
}

func TestRunTakesOverExpiredRun(t *testing.T) {
	f := setup(t, Inference.NewMockPredictor(Analysis.DefaultNorms(), 3))
	crashed := f.ceph
	won, err := Models.MarkProcessing(&crashed, f.pipeline.Lease())
	require.NoError(t, err)
	require.True(t, won)
	expired := time.Now().Add(-f.pipeline.Lease() - time.Minute)
	require.NoError(t, Models.DB.Model(&Models.Cephalogram{}).Where("id = ?", f.ceph.ID).UpdateColumn("updated_at", expired).Error)

	_, err = f.pipeline.Run(context.Background(), &f.ceph)
	require.NoError(t, err)
	stored, err := Models.GetCephalogramByID(f.ceph.ID)
	require.NoError(t, err)
	assert.Equal(t, Models.StatusCompleted, stored.Status)
}

func TestRunDiscardsDeletedCephalogram(t *testing.T) {
	var f fixture
	f = setup(t, hookPredictor{
		Predictor: Inference.NewMockPredictor(Analysis.DefaultNorms(), 5),
		during: func() {
			ceph, err := Models.GetCephalogramByID(f.ceph.ID)
			require.NoError(t, err)
			require.NoError(t, Models.DeleteCephalogram(&ceph))
		},
	})

	_, err := f.pipeline.Run(context.Background(), &f.ceph)
	assert.ErrorIs(t, err, Models.ErrStaleRun)

	_, err = Models.GetCephalogramByID(f.ceph.ID)
	assert.ErrorIs(t, err, Models.ErrNotFound)
	preds, err := Models.ListPredictions(f.ceph.PatientID)
	require.NoError(t, err)
	assert.Empty(t, preds)
	_, err = os.Stat(filepath.Join(f.pipeline.Store.OutputDir, f.ceph.Code))
	assert.True(t, os.IsNotExist(err), "outputs of a deleted cephalogram are removed")

	assert.Equal(t, []string{Models.StatusProcessing}, f.rec.statuses())
	assert.Empty(t, f.rec.pushes)
}

func TestRunKeepsConcurrentRename(t *testing.T) {
	var f fixture
	f = setup(t, hookPredictor{
		Predictor: Inference.NewMockPredictor(Analysis.DefaultNorms(), 5),
		during: func() {
			require.NoError(t, Models.UpdateDoctor(f.doctor, Models.DoctorProfile{Name: "Dr. Renamed"}))
		},
	})

	_, err := f.pipeline.Run(context.Background(), &f.ceph)
	require.NoError(t, err)

	stored, err := Models.GetCephalogramByID(f.ceph.ID)
	require.NoError(t, err)
	assert.Equal(t, Models.StatusCompleted, stored.Status)
	assert.Equal(t, "Dr. Renamed", stored.DoctorName)
}

func TestWorkerPool(t *testing.T) {
	f := setup(t, Inference.NewMockPredictor(Analysis.DefaultNorms(), 7))
	assert.False(t, f.pipeline.Enqueue(f.ceph.ID), "pool not started")

	f.pipeline.Start(2)
	assert.True(t, f.pipeline.Enqueue(f.ceph.ID))
	assert.True(t, f.pipeline.Enqueue(9999))

	require.Eventually(t, func() bool {
		stored, err := Models.GetCephalogramByID(f.ceph.ID)
		return err == nil && stored.Status == Models.StatusCompleted
	}, 5*time.Second, 20*time.Millisecond)

	f.pipeline.Stop()
	assert.False(t, f.pipeline.Enqueue(f.ceph.ID))
}

func TestRecipientsIncludeAdmins(t *testing.T) {
	f := setup(t, failingPredictor{})
	_, err := Models.EnsureAdmin("admin@x.com", "admin123")
	require.NoError(t, err)
	admin, err := Models.GetUserByUsername("admin@x.com")
	require.NoError(t, err)
	require.NoError(t, Models.SaveDeviceToken(admin.ID, "admin-tablet"))

	tokens, err := Recipients(f.doctor.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"doctor-phone", "admin-tablet"}, tokens)

	tokens, err = Recipients(424242)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin-tablet"}, tokens)
}
