package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crmportal/backend/internal/domain/shared"
	"github.com/crmportal/backend/internal/domain/transfer"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockJobRepository creates a GormJobRepository with a mocked SQL connection
func newMockJobRepository(t *testing.T) (*GormJobRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormJobRepository(gormDB), mock, mockDB
}

func TestGormJobRepository_FindByID(t *testing.T) {
	t.Run("finds job within owner scope", func(t *testing.T) {
		repo, mock, mockDB := newMockJobRepository(t)
		defer mockDB.Close()

		jobID := uuid.New()
		ownerID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "owner_id", "version", "job_type", "file_format", "file_name", "status", "total_records", "processed_records", "failed_records"}).
			AddRow(jobID, ownerID, 1, "import", "csv", "contacts.csv", "completed", 120, 120, 4)

		mock.ExpectQuery(`SELECT \* FROM "transfer_jobs" WHERE owner_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(ownerID, jobID, 1).
			WillReturnRows(rows)

		job, err := repo.FindByID(context.Background(), ownerID, jobID)

		assert.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, jobID, job.ID)
		assert.Equal(t, ownerID, job.OwnerID)
		assert.Equal(t, transfer.JobTypeImport, job.JobType)
		assert.Equal(t, 120, job.TotalRecords)
		assert.Equal(t, 4, job.FailedRecords)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing job", func(t *testing.T) {
		repo, mock, mockDB := newMockJobRepository(t)
		defer mockDB.Close()

		jobID := uuid.New()
		ownerID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "transfer_jobs" WHERE owner_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(ownerID, jobID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		job, err := repo.FindByID(context.Background(), ownerID, jobID)

		assert.Nil(t, job)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("does not leak other owners' jobs", func(t *testing.T) {
		repo, mock, mockDB := newMockJobRepository(t)
		defer mockDB.Close()

		jobID := uuid.New()
		ownerID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "transfer_jobs" WHERE owner_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(ownerID, jobID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByID(context.Background(), ownerID, jobID)
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestGormJobRepository_FindRecent(t *testing.T) {
	t.Run("orders newest first and limits", func(t *testing.T) {
		repo, mock, mockDB := newMockJobRepository(t)
		defer mockDB.Close()

		ownerID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "owner_id", "version", "job_type", "file_format", "status"}).
			AddRow(uuid.New(), ownerID, 1, "export", "xlsx", "completed").
			AddRow(uuid.New(), ownerID, 1, "import", "csv", "failed")

		mock.ExpectQuery(`SELECT \* FROM "transfer_jobs" WHERE owner_id = \$1 ORDER BY created_at DESC LIMIT .*`).
			WithArgs(ownerID, 20).
			WillReturnRows(rows)

		jobs, err := repo.FindRecent(context.Background(), ownerID, 20)

		assert.NoError(t, err)
		require.Len(t, jobs, 2)
		assert.Equal(t, transfer.JobTypeExport, jobs[0].JobType)
		assert.Equal(t, transfer.StatusFailed, jobs[1].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormJobRepository_MarkStaleProcessing(t *testing.T) {
	t.Run("fails stuck processing jobs", func(t *testing.T) {
		repo, mock, mockDB := newMockJobRepository(t)
		defer mockDB.Close()

		cutoff := time.Now().Add(-time.Hour)

		mock.ExpectExec(`UPDATE "transfer_jobs" SET .* WHERE status = \$\d+ AND updated_at < \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 3))

		touched, err := repo.MarkStaleProcessing(context.Background(), cutoff, "прервано перезапуском сервиса")

		assert.NoError(t, err)
		assert.Equal(t, int64(3), touched)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRecordRepository_SaveAll(t *testing.T) {
	t.Run("no-op for empty slice", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()

		gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
			SkipDefaultTransaction: true,
		})
		require.NoError(t, err)

		repo := NewGormRecordRepository(gormDB)
		assert.NoError(t, repo.SaveAll(context.Background(), nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRecordRepository_FindByJob(t *testing.T) {
	t.Run("returns records ordered by input position", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()

		gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
			SkipDefaultTransaction: true,
		})
		require.NoError(t, err)

		repo := NewGormRecordRepository(gormDB)
		jobID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "job_id", "record_index", "first_name", "status", "remote_contact_id"}).
			AddRow(uuid.New(), jobID, 0, "Иван", "success", "101").
			AddRow(uuid.New(), jobID, 1, "Анна", "failed", "")

		mock.ExpectQuery(`SELECT \* FROM "transfer_records" WHERE job_id = \$1 ORDER BY record_index ASC`).
			WithArgs(jobID).
			WillReturnRows(rows)

		records, err := repo.FindByJob(context.Background(), jobID)

		assert.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, 0, records[0].RecordIndex)
		assert.Equal(t, "Иван", records[0].ContactData.FirstName)
		assert.Equal(t, transfer.RecordStatusFailed, records[1].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
