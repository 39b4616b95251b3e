package transfer

import (
	"strings"
	"testing"

	"github.com/crmportal/backend/internal/domain/contact"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contactFixture() contact.Record {
	return contact.Record{
		FirstName:   "Иван",
		LastName:    "Петров",
		Phone:       "+79161234567",
		Email:       "ivan@example.com",
		CompanyName: "ООО Ромашка",
	}
}

func TestJobStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status JobStatus
		want   bool
	}{
		{"pending", StatusPending, false},
		{"processing", StatusProcessing, false},
		{"completed", StatusCompleted, true},
		{"failed", StatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsTerminal())
		})
	}
}

func TestFileFormat_IsValid(t *testing.T) {
	assert.True(t, FormatCSV.IsValid())
	assert.True(t, FormatXLSX.IsValid())
	assert.False(t, FileFormat("pdf").IsValid())
	assert.False(t, FileFormat("").IsValid())
}

func TestNewImportJob(t *testing.T) {
	ownerID := uuid.New()

	t.Run("success", func(t *testing.T) {
		job, err := NewImportJob(ownerID, FormatCSV, "contacts.csv")
		require.NoError(t, err)

		assert.Equal(t, JobTypeImport, job.JobType)
		assert.Equal(t, StatusPending, job.Status)
		assert.Equal(t, ownerID, job.OwnerID)
		assert.Equal(t, "contacts.csv", job.FileName)
		assert.NotEqual(t, uuid.Nil, job.ID)
		assert.Nil(t, job.CompletedAt)
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		_, err := NewImportJob(ownerID, FileFormat("ods"), "contacts.ods")
		assert.Error(t, err)
	})
}

func TestJob_StateMachine(t *testing.T) {
	newProcessingJob := func(t *testing.T) *Job {
		job, err := NewImportJob(uuid.New(), FormatCSV, "contacts.csv")
		require.NoError(t, err)
		require.NoError(t, job.Start())
		return job
	}

	t.Run("pending to processing", func(t *testing.T) {
		job, err := NewImportJob(uuid.New(), FormatCSV, "contacts.csv")
		require.NoError(t, err)

		require.NoError(t, job.Start())
		assert.Equal(t, StatusProcessing, job.Status)

		// a second start is rejected
		assert.Error(t, job.Start())
	})

	t.Run("processing to completed stamps completion time", func(t *testing.T) {
		job := newProcessingJob(t)

		require.NoError(t, job.Complete())
		assert.Equal(t, StatusCompleted, job.Status)
		require.NotNil(t, job.CompletedAt)
	})

	t.Run("processing to failed records the message", func(t *testing.T) {
		job := newProcessingJob(t)

		require.NoError(t, job.Fail("файл не содержит контактов"))
		assert.Equal(t, StatusFailed, job.Status)
		assert.Equal(t, "файл не содержит контактов", job.ErrorMessage)
		require.NotNil(t, job.CompletedAt)
	})

	t.Run("no transition leaves a terminal state", func(t *testing.T) {
		job := newProcessingJob(t)
		require.NoError(t, job.Complete())

		assert.Error(t, job.Start())
		assert.Error(t, job.Complete())
		assert.Error(t, job.Fail("boom"))
	})

	t.Run("pending job cannot fail directly", func(t *testing.T) {
		job, err := NewImportJob(uuid.New(), FormatCSV, "contacts.csv")
		require.NoError(t, err)

		assert.Error(t, job.Fail("boom"))
		assert.Equal(t, StatusPending, job.Status)
	})
}

func TestJob_UpdateProgress(t *testing.T) {
	job, err := NewImportJob(uuid.New(), FormatCSV, "contacts.csv")
	require.NoError(t, err)
	require.NoError(t, job.Start())
	require.NoError(t, job.SetTotal(100))

	require.NoError(t, job.UpdateProgress(50, 3))
	assert.Equal(t, 50, job.ProcessedRecords)
	assert.Equal(t, 3, job.FailedRecords)

	t.Run("counters are monotonic", func(t *testing.T) {
		assert.Error(t, job.UpdateProgress(40, 3))
		assert.Error(t, job.UpdateProgress(50, 2))
	})

	t.Run("processed cannot exceed total", func(t *testing.T) {
		assert.Error(t, job.UpdateProgress(101, 3))
	})

	t.Run("failed cannot exceed processed", func(t *testing.T) {
		assert.Error(t, job.UpdateProgress(60, 61))
	})
}

func TestJob_ArtifactFileName(t *testing.T) {
	job, err := NewExportJob(uuid.New(), FormatXLSX, "month")
	require.NoError(t, err)

	assert.Equal(t, "export_"+job.ID.String()+".xlsx", job.ArtifactFileName())
}

func TestJob_SetArtifact(t *testing.T) {
	importJob, err := NewImportJob(uuid.New(), FormatCSV, "contacts.csv")
	require.NoError(t, err)
	assert.Error(t, importJob.SetArtifact("export_x.csv"))

	exportJob, err := NewExportJob(uuid.New(), FormatCSV, "")
	require.NoError(t, err)
	require.NoError(t, exportJob.SetArtifact("export_y.csv"))
	assert.Equal(t, "export_y.csv", exportJob.ArtifactKey)
}

func TestTruncateError(t *testing.T) {
	assert.Equal(t, "short", TruncateError("short"))

	long := strings.Repeat("я", 600)
	truncated := TruncateError(long)
	assert.Equal(t, 500, len([]rune(truncated)))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Импорт", JobTypeImport.Label())
	assert.Equal(t, "Экспорт", JobTypeExport.Label())
	assert.Equal(t, "Ожидает", StatusPending.Label())
	assert.Equal(t, "Обрабатывается", StatusProcessing.Label())
	assert.Equal(t, "Завершено", StatusCompleted.Label())
	assert.Equal(t, "Ошибка", StatusFailed.Label())
}

func TestNewRecord(t *testing.T) {
	jobID := uuid.New()

	t.Run("success", func(t *testing.T) {
		rec, err := NewRecord(jobID, 0, contactFixture(), RecordStatusSuccess, "", "42")
		require.NoError(t, err)
		assert.Equal(t, jobID, rec.JobID)
		assert.Equal(t, 0, rec.RecordIndex)
		assert.Equal(t, "42", rec.RemoteContactID)
	})

	t.Run("requires a job", func(t *testing.T) {
		_, err := NewRecord(uuid.Nil, 0, contactFixture(), RecordStatusSuccess, "", "")
		assert.Error(t, err)
	})

	t.Run("rejects negative index", func(t *testing.T) {
		_, err := NewRecord(jobID, -1, contactFixture(), RecordStatusSuccess, "", "")
		assert.Error(t, err)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := NewRecord(jobID, 0, contactFixture(), RecordStatus("queued"), "", "")
		assert.Error(t, err)
	})

	t.Run("truncates long error message", func(t *testing.T) {
		rec, err := NewRecord(jobID, 1, contactFixture(), RecordStatusFailed, strings.Repeat("x", 600), "")
		require.NoError(t, err)
		assert.Len(t, rec.ErrorMessage, 500)
	})
}
