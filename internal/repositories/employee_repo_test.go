package repositories

import (
	"context"
	"testing"
	"time"

	"timetracker/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var employeeRowColumns = []string{"id", "company_id", "name", "code", "is_active", "created_at", "updated_at"}

type EmployeeRepoTestSuite struct {
	suite.Suite
	mock      pgxmock.PgxPoolIface
	repo      EmployeeRepository
	ctx       context.Context
	companyID uuid.UUID
	now       time.Time
}

func (suite *EmployeeRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.mock = mock
	suite.repo = NewEmployeeRepo(mock)
	suite.ctx = context.Background()
	suite.companyID = uuid.New()
	suite.now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (suite *EmployeeRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestEmployeeRepoTestSuite(t *testing.T) {
	suite.Run(t, new(EmployeeRepoTestSuite))
}

func (suite *EmployeeRepoTestSuite) TestCreate_CodeCollision() {
	e := &models.Employee{ID: uuid.New(), CompanyID: suite.companyID, Name: "Bob", Code: "EMP-1", IsActive: true}

	suite.mock.ExpectQuery(`INSERT INTO employees`).
		WithArgs(e.ID, e.CompanyID, e.Name, e.Code, true).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := suite.repo.Create(suite.ctx, e)
	assert.ErrorIs(suite.T(), err, ErrDuplicate)
}

func (suite *EmployeeRepoTestSuite) TestGetByCode_Success() {
	id := uuid.New()
	suite.mock.ExpectQuery(`WHERE code = \$1`).
		WithArgs("EMP-1").
		WillReturnRows(pgxmock.NewRows(employeeRowColumns).
			AddRow(id, suite.companyID, "Bob", "EMP-1", true, suite.now, suite.now))

	e, err := suite.repo.GetByCode(suite.ctx, "EMP-1")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), id, e.ID)
	assert.Equal(suite.T(), suite.companyID, e.CompanyID)
	assert.True(suite.T(), e.IsActive)
}

func (suite *EmployeeRepoTestSuite) TestGetByID_NotFound() {
	id := uuid.New()
	suite.mock.ExpectQuery(`FROM employees WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	e, err := suite.repo.GetByID(suite.ctx, id)
	assert.Nil(suite.T(), e)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *EmployeeRepoTestSuite) TestUpdate_KeepsCode() {
	e := &models.Employee{ID: uuid.New(), CompanyID: suite.companyID, Name: "Robert", Code: "tampered", IsActive: false}

	suite.mock.ExpectQuery(`(?s)UPDATE employees.*UPDATE time_entries t\s+SET company_id = moved.company_id`).
		WithArgs("Robert", suite.companyID, false, e.ID).
		WillReturnRows(pgxmock.NewRows([]string{"code", "created_at", "updated_at"}).
			AddRow("EMP-1", suite.now, suite.now))

	err := suite.repo.Update(suite.ctx, e)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "EMP-1", e.Code)
}

func (suite *EmployeeRepoTestSuite) TestList_ActiveOnly() {
	active := true
	filter := models.EmployeeFilter{CompanyID: &suite.companyID, Active: &active, Limit: 20, Offset: 5}

	suite.mock.ExpectQuery(`FROM employees`).
		WithArgs(filter.CompanyID, filter.Active, 20, 5).
		WillReturnRows(pgxmock.NewRows(employeeRowColumns).
			AddRow(uuid.New(), suite.companyID, "Bob", "EMP-1", true, suite.now, suite.now))

	employees, err := suite.repo.List(suite.ctx, filter)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), employees, 1)
}
