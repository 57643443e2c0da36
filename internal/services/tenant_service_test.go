package services

import (
	"context"
	"errors"
	"testing"

	"timetracker/internal/common"
	"timetracker/internal/models"
	"timetracker/internal/repositories"
	"timetracker/testhelpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) Create(ctx context.Context, company *models.Company) error {
	args := m.Called(ctx, company)
	return args.Error(0)
}

func (m *MockCompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Company), args.Error(1)
}

func (m *MockCompanyRepository) Update(ctx context.Context, company *models.Company) error {
	args := m.Called(ctx, company)
	return args.Error(0)
}

func (m *MockCompanyRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCompanyRepository) List(ctx context.Context, limit, offset int) ([]*models.Company, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Company), args.Error(1)
}

type CompanyServiceTestSuite struct {
	suite.Suite
	mockRepo *MockCompanyRepository
	service  CompanyService
}

func (suite *CompanyServiceTestSuite) SetupTest() {
	suite.mockRepo = &MockCompanyRepository{}
	suite.service = NewCompanyService(suite.mockRepo, nil, nil, NewAccessPolicy(nil))

	suite.mockRepo.Test(suite.T())
}

func (suite *CompanyServiceTestSuite) TearDownTest() {
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestCompanyServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CompanyServiceTestSuite))
}

func (suite *CompanyServiceTestSuite) TestCreate_Success() {
	ctx := context.Background()
	req := &CreateCompanyRequest{Name: "  Acme  "}

	suite.mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Company")).Return(nil).Run(func(args mock.Arguments) {
		company := args.Get(1).(*models.Company)
		assert.Equal(suite.T(), "Acme", company.Name)
		assert.NotEqual(suite.T(), uuid.Nil, company.ID)
	})

	company, err := suite.service.Create(ctx, ownerP, req)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Acme", company.Name)
}

func (suite *CompanyServiceTestSuite) TestCreate_AdminForbidden() {
	company, err := suite.service.Create(context.Background(), adminA, &CreateCompanyRequest{Name: "Acme"})
	assert.ErrorIs(suite.T(), err, common.ErrForbidden)
	assert.Nil(suite.T(), company)
}

func (suite *CompanyServiceTestSuite) TestCreate_ValidationEmptyName() {
	company, err := suite.service.Create(context.Background(), ownerP, &CreateCompanyRequest{Name: "   "})
	assert.ErrorIs(suite.T(), err, common.ErrValidation)
	assert.Nil(suite.T(), company)
	assert.Contains(suite.T(), err.Error(), "name is required")
}

func (suite *CompanyServiceTestSuite) TestCreate_DuplicateName() {
	ctx := context.Background()
	suite.mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Company")).
		Return(repositories.ErrDuplicate)

	company, err := suite.service.Create(ctx, ownerP, &CreateCompanyRequest{Name: "Acme"})
	assert.ErrorIs(suite.T(), err, common.ErrConflict)
	assert.Nil(suite.T(), company)
}

func (suite *CompanyServiceTestSuite) TestCreate_RepositoryError() {
	ctx := context.Background()
	suite.mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Company")).
		Return(errors.New("database connection failed"))

	company, err := suite.service.Create(ctx, ownerP, &CreateCompanyRequest{Name: "Acme"})
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), company)
	assert.Contains(suite.T(), err.Error(), "database connection failed")
}

func (suite *CompanyServiceTestSuite) TestGetByID_Success() {
	ctx := context.Background()
	expected := &models.Company{ID: tenantA, Name: "Acme"}
	suite.mockRepo.On("GetByID", ctx, tenantA).Return(expected, nil)

	company, err := suite.service.GetByID(ctx, ownerP, tenantA)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), expected, company)
}

func (suite *CompanyServiceTestSuite) TestGetByID_NotFound() {
	ctx := context.Background()
	id := uuid.New()
	suite.mockRepo.On("GetByID", ctx, id).Return(nil, repositories.ErrNotFound)

	company, err := suite.service.GetByID(ctx, ownerP, id)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
	assert.Nil(suite.T(), company)
}

func (suite *CompanyServiceTestSuite) TestGetByID_AdminOwnCompanyForbidden() {
	ctx := context.Background()
	suite.mockRepo.On("GetByID", ctx, tenantA).Return(&models.Company{ID: tenantA, Name: "Acme"}, nil)

	company, err := suite.service.GetByID(ctx, adminA, tenantA)
	assert.ErrorIs(suite.T(), err, common.ErrForbidden)
	assert.Nil(suite.T(), company)
}

func (suite *CompanyServiceTestSuite) TestUpdate_Success() {
	ctx := context.Background()
	suite.mockRepo.On("GetByID", ctx, tenantA).Return(&models.Company{ID: tenantA, Name: "Acme"}, nil)
	suite.mockRepo.On("Update", ctx, mock.AnythingOfType("*models.Company")).Return(nil)

	company, err := suite.service.Update(ctx, ownerP, tenantA, &UpdateCompanyRequest{Name: "Acme Ltd"})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Acme Ltd", company.Name)
}

func (suite *CompanyServiceTestSuite) TestDelete_Success() {
	ctx := context.Background()
	suite.mockRepo.On("GetByID", ctx, tenantA).Return(&models.Company{ID: tenantA, Name: "Acme"}, nil)
	suite.mockRepo.On("Delete", ctx, tenantA).Return(true, nil)

	assert.NoError(suite.T(), suite.service.Delete(ctx, ownerP, tenantA))
}

func (suite *CompanyServiceTestSuite) TestDelete_VanishedBetweenReadAndDelete() {
	ctx := context.Background()
	suite.mockRepo.On("GetByID", ctx, tenantA).Return(&models.Company{ID: tenantA, Name: "Acme"}, nil)
	suite.mockRepo.On("Delete", ctx, tenantA).Return(false, nil)

	assert.ErrorIs(suite.T(), suite.service.Delete(ctx, ownerP, tenantA), common.ErrNotFound)
}

func (suite *CompanyServiceTestSuite) TestList_ClampsPagination() {
	ctx := context.Background()
	expected := []*models.Company{{ID: tenantA, Name: "Acme"}}
	suite.mockRepo.On("List", ctx, 50, 0).Return(expected, nil)

	companies, err := suite.service.List(ctx, ownerP, 0, -3)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), expected, companies)
}

func (suite *CompanyServiceTestSuite) TestList_UserForbidden() {
	companies, err := suite.service.List(context.Background(), userA, 10, 0)
	assert.ErrorIs(suite.T(), err, common.ErrForbidden)
	assert.Nil(suite.T(), companies)
}

func TestCompanyDelete_DropsCachedEmployeeCodes(t *testing.T) {
	ctx := context.Background()
	dir := testhelpers.NewDirectory()
	cache := testhelpers.NewMemoryCache()
	policy := NewAccessPolicy(nil)
	companies := NewCompanyService(dir.Companies(), dir.Employees(), cache, policy)
	employees := NewEmployeeService(dir.Employees(), dir.Companies(), cache, NewQRService(), nil, 0, policy)

	doomed := testhelpers.SeedCompany(t, dir, "Doomed")
	kept := testhelpers.SeedCompany(t, dir, "Kept")
	alice := testhelpers.SeedEmployee(t, dir, doomed, "Alice")
	bob := testhelpers.SeedEmployee(t, dir, kept, "Bob")

	for _, code := range []string{alice.Code, bob.Code} {
		_, err := employees.GetByCode(ctx, testhelpers.Owner(), code)
		assert.NoError(t, err)
	}
	assert.True(t, cache.HasEmployee(alice.Code))

	assert.NoError(t, companies.Delete(ctx, testhelpers.Owner(), doomed))

	assert.False(t, cache.HasEmployee(alice.Code))
	assert.True(t, cache.HasEmployee(bob.Code))
	_, err := employees.GetByCode(ctx, testhelpers.Owner(), alice.Code)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
