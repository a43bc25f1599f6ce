package CronJobs

import (
	"errors"
	"testing"
	"time"

	"github.com/gurunathasmb/Major-project/Config"
	"github.com/gurunathasmb/Major-project/Models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	ids    []uint
	accept bool
}

func (q *fakeQueue) Enqueue(id uint) bool {
	if q.accept {
		q.ids = append(q.ids, id)
	}
	return q.accept
}

func setupTestDB(t *testing.T) {
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
}

func cephalogram(t *testing.T, patient *Models.Patient) *Models.Cephalogram {
	t.Helper()
	ceph := &Models.Cephalogram{PatientID: patient.ID, PatientCode: patient.Code, DoctorID: patient.DoctorID, FileName: "x.png"}
	require.NoError(t, Models.CreateCephalogram(ceph))
	return ceph
}

func fail(t *testing.T, ceph *Models.Cephalogram) {
	t.Helper()
	won, err := Models.MarkProcessing(ceph, time.Hour)
	require.NoError(t, err)
	require.True(t, won)
	require.NoError(t, Models.FailAnalysis(ceph, errors.New("timeout")))
}

func TestRequeue(t *testing.T) {
	setupTestDB(t)
	doctor, err := Models.CreateDoctor("doc@x.com", "doctor123", Models.DoctorProfile{Name: "Dr. A"}, "admin")
	require.NoError(t, err)
	patient, err := Models.CreatePatient(*doctor, Models.PatientInput{Name: "Bob"})
	require.NoError(t, err)

	failedOnce := cephalogram(t, patient)
	fail(t, failedOnce)

	exhausted := cephalogram(t, patient)
	for i := 0; i < 3; i++ {
		fail(t, exhausted)
	}

	fresh := cephalogram(t, patient)

	stale := cephalogram(t, patient)
	require.NoError(t, Models.DB.Model(stale).UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)

	running := cephalogram(t, patient)
	won, err := Models.MarkProcessing(running, time.Hour)
	require.NoError(t, err)
	require.True(t, won)

	crashed := cephalogram(t, patient)
	won, err = Models.MarkProcessing(crashed, time.Hour)
	require.NoError(t, err)
	require.True(t, won)
	require.NoError(t, Models.DB.Model(crashed).UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)

	q := &fakeQueue{accept: true}
	n, err := NewAnalysisRetry(q, 3, 10*time.Minute).Requeue()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.ElementsMatch(t, []uint{failedOnce.ID, stale.ID, crashed.ID}, q.ids)
	assert.NotContains(t, q.ids, running.ID)
	assert.NotContains(t, q.ids, fresh.ID)
	assert.NotContains(t, q.ids, exhausted.ID)

	rejected, err := NewAnalysisRetry(&fakeQueue{}, 3, 10*time.Minute).Requeue()
	require.NoError(t, err)
	assert.Zero(t, rejected)
}

func TestStartRetryCron(t *testing.T) {
	setupTestDB(t)
	s, err := NewAnalysisRetry(&fakeQueue{accept: true}, 3, 10*time.Minute).StartRetryCron(0)
	require.NoError(t, err)
	defer s.Stop()
	assert.True(t, s.IsRunning())
	assert.Len(t, s.Jobs(), 1)
}
