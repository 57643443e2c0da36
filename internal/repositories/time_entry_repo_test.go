package repositories

import (
	"context"
	"testing"
	"time"

	"timetracker/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var timeEntryRowColumns = []string{"id", "employee_id", "company_id", "check_in", "check_out", "work_date", "total_hours", "created_at", "updated_at"}

type TimeEntryRepoTestSuite struct {
	suite.Suite
	mock       pgxmock.PgxPoolIface
	repo       TimeEntryRepository
	ctx        context.Context
	companyID  uuid.UUID
	employeeID uuid.UUID
	checkIn    time.Time
}

func (suite *TimeEntryRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.mock = mock
	suite.repo = NewTimeEntryRepo(mock)
	suite.ctx = context.Background()
	suite.companyID = uuid.New()
	suite.employeeID = uuid.New()
	suite.checkIn = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
}

func (suite *TimeEntryRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestTimeEntryRepoTestSuite(t *testing.T) {
	suite.Run(t, new(TimeEntryRepoTestSuite))
}

func (suite *TimeEntryRepoTestSuite) TestCreate_OpenEntry() {
	entry := &models.TimeEntry{
		ID:         uuid.New(),
		EmployeeID: suite.employeeID,
		CompanyID:  suite.companyID,
		CheckIn:    suite.checkIn,
		Date:       "2024-01-01",
	}

	suite.mock.ExpectQuery(`INSERT INTO time_entries`).
		WithArgs(entry.ID, entry.EmployeeID, entry.CompanyID, entry.CheckIn, entry.CheckOut, "2024-01-01", entry.TotalHours).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(suite.checkIn, suite.checkIn))

	err := suite.repo.Create(suite.ctx, entry)
	assert.NoError(suite.T(), err)
}

func (suite *TimeEntryRepoTestSuite) TestGetByID_ClosedEntry() {
	id := uuid.New()
	checkOut := suite.checkIn.Add(8 * time.Hour)
	hours := 8.0

	suite.mock.ExpectQuery(`FROM time_entries WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(timeEntryRowColumns).
			AddRow(id, suite.employeeID, suite.companyID, suite.checkIn, &checkOut, "2024-01-01", &hours, suite.checkIn, suite.checkIn))

	entry, err := suite.repo.GetByID(suite.ctx, id)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), entry.CheckOut)
	require.NotNil(suite.T(), entry.TotalHours)
	assert.Equal(suite.T(), 8.0, *entry.TotalHours)
	assert.Equal(suite.T(), "2024-01-01", entry.Date)
}

func (suite *TimeEntryRepoTestSuite) TestUpdate_NotFound() {
	entry := &models.TimeEntry{ID: uuid.New(), EmployeeID: suite.employeeID, CompanyID: suite.companyID, CheckIn: suite.checkIn, Date: "2024-01-01"}

	suite.mock.ExpectQuery(`UPDATE time_entries`).
		WithArgs(entry.EmployeeID, entry.CompanyID, entry.CheckIn, entry.CheckOut, entry.Date, entry.TotalHours, entry.ID).
		WillReturnError(pgx.ErrNoRows)

	err := suite.repo.Update(suite.ctx, entry)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *TimeEntryRepoTestSuite) TestList_DateRangeIsPassedAsDates() {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	filter := models.TimeEntryFilter{CompanyID: &suite.companyID, From: &from, To: &to, Limit: 50}

	fromArg, toArg := "2024-01-01", "2024-01-31"
	suite.mock.ExpectQuery(`FROM time_entries`).
		WithArgs(filter.CompanyID, filter.EmployeeID, &fromArg, &toArg, 50, 0).
		WillReturnRows(pgxmock.NewRows(timeEntryRowColumns).
			AddRow(uuid.New(), suite.employeeID, suite.companyID, suite.checkIn, nil, "2024-01-01", nil, suite.checkIn, suite.checkIn))

	entries, err := suite.repo.List(suite.ctx, filter)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), entries, 1)
	assert.Nil(suite.T(), entries[0].CheckOut)
	assert.Nil(suite.T(), entries[0].TotalHours)
}

func (suite *TimeEntryRepoTestSuite) TestSummarize() {
	filter := models.TimeEntryFilter{CompanyID: &suite.companyID}

	suite.mock.ExpectQuery(`GROUP BY e.id, e.name, e.company_id`).
		WithArgs(filter.CompanyID, filter.EmployeeID, (*string)(nil), (*string)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "company_id", "entries", "open_entries", "total_hours"}).
			AddRow(suite.employeeID, "Bob", suite.companyID, 3, 1, 16.5))

	summaries, err := suite.repo.Summarize(suite.ctx, filter)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), summaries, 1)
	assert.Equal(suite.T(), 3, summaries[0].Entries)
	assert.Equal(suite.T(), 1, summaries[0].OpenEntries)
	assert.InDelta(suite.T(), 16.5, summaries[0].TotalHours, 1e-9)
}

func (suite *TimeEntryRepoTestSuite) TestListOpenBefore() {
	cutoff := suite.checkIn.Add(16 * time.Hour)
	suite.mock.ExpectQuery(`WHERE check_out IS NULL AND check_in < \$1`).
		WithArgs(cutoff).
		WillReturnRows(pgxmock.NewRows(timeEntryRowColumns).
			AddRow(uuid.New(), suite.employeeID, suite.companyID, suite.checkIn, nil, "2024-01-01", nil, suite.checkIn, suite.checkIn))

	entries, err := suite.repo.ListOpenBefore(suite.ctx, cutoff)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), entries, 1)
}
