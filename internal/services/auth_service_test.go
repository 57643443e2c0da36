package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"timetracker/internal/common"
	"timetracker/internal/config"
	"timetracker/internal/metrics"
	"timetracker/internal/models"
	"timetracker/testhelpers"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type recordingMetrics struct {
	metrics.Nop
	tokenFailures []string
	logins        []string
}

func (r *recordingMetrics) RecordTokenFailure(reason string) { r.tokenFailures = append(r.tokenFailures, reason) }
func (r *recordingMetrics) RecordLogin(outcome string)       { r.logins = append(r.logins, outcome) }

type AuthServiceTestSuite struct {
	suite.Suite
	dir    *testhelpers.Directory
	cache  *testhelpers.MemoryCache
	creds  CredentialStore
	rec    *recordingMetrics
	cfg    *config.Config
	clock  time.Time
	tokens TokenService
	auth   AuthService
	alice  *models.User
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.dir = testhelpers.NewDirectory()
	suite.cache = testhelpers.NewMemoryCache()
	suite.rec = &recordingMetrics{}
	suite.cfg = &config.Config{
		JWTSecret:        []byte("test-secret"),
		TokenTTL:         time.Hour,
		LoginMaxAttempts: 3,
		LoginWindow:      time.Minute,
	}
	suite.clock = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	creds, err := NewCredentialStore(suite.dir.Users(), bcrypt.MinCost)
	suite.Require().NoError(err)
	suite.creds = creds

	suite.tokens = NewTokenService(suite.cfg, creds, suite.rec, WithClock(func() time.Time { return suite.clock }))
	suite.auth = NewAuthService(suite.cfg, creds, suite.tokens, suite.cache, suite.rec)

	companyID := testhelpers.SeedCompany(suite.T(), suite.dir, "Acme")
	hash, err := creds.HashPassword("s3cret!")
	suite.Require().NoError(err)
	suite.alice = &models.User{ID: uuid.New(), Username: "alice", PasswordHash: hash, Role: models.RoleAdmin, CompanyID: &companyID}
	suite.Require().NoError(suite.dir.Users().Create(context.Background(), suite.alice))
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (suite *AuthServiceTestSuite) TestLogin_Success() {
	result, err := suite.auth.Login(context.Background(), "alice", "s3cret!", "10.0.0.1")
	suite.Require().NoError(err)
	suite.Equal(suite.alice.ID, result.User.ID)
	suite.Equal("Bearer", result.Token.TokenType)
	suite.Equal(3600, result.Token.ExpiresIn)
	suite.Equal(suite.clock.Add(time.Hour), result.Token.ExpiresAt)
	suite.Equal([]string{"success"}, suite.rec.logins)
}

func (suite *AuthServiceTestSuite) TestLogin_WrongPasswordAndUnknownUserLookAlike() {
	_, errWrong := suite.auth.Login(context.Background(), "alice", "nope-nope", "10.0.0.1")
	_, errUnknown := suite.auth.Login(context.Background(), "mallory", "nope-nope", "10.0.0.1")

	suite.ErrorIs(errWrong, common.ErrUnauthenticated)
	suite.ErrorIs(errUnknown, common.ErrUnauthenticated)
	suite.Equal(errWrong.Error(), errUnknown.Error())
	suite.Equal([]string{"failure", "failure"}, suite.rec.logins)
}

func (suite *AuthServiceTestSuite) TestLogin_MissingFields() {
	_, err := suite.auth.Login(context.Background(), "  ", "x", "10.0.0.1")
	suite.ErrorIs(err, common.ErrValidation)
}

func (suite *AuthServiceTestSuite) TestLogin_Throttled() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := suite.auth.Login(ctx, "alice", "wrong-pass", "10.0.0.1")
		suite.ErrorIs(err, common.ErrUnauthenticated)
	}

	_, err := suite.auth.Login(ctx, "alice", "s3cret!", "10.0.0.1")
	suite.ErrorIs(err, common.ErrTooManyRequests)

	// another address is not affected
	_, err = suite.auth.Login(ctx, "alice", "s3cret!", "10.0.0.2")
	suite.NoError(err)
}

func (suite *AuthServiceTestSuite) TestLogin_SuccessResetsThrottle() {
	ctx := context.Background()
	_, _ = suite.auth.Login(ctx, "alice", "wrong-pass", "10.0.0.1")
	_, _ = suite.auth.Login(ctx, "alice", "wrong-pass", "10.0.0.1")
	_, err := suite.auth.Login(ctx, "alice", "s3cret!", "10.0.0.1")
	suite.Require().NoError(err)

	for i := 0; i < 2; i++ {
		_, err = suite.auth.Login(ctx, "alice", "wrong-pass", "10.0.0.1")
		suite.ErrorIs(err, common.ErrUnauthenticated)
	}
}

func (suite *AuthServiceTestSuite) TestLogin_CacheOutageFailsOpen() {
	suite.cache.Fail = errors.New("redis down")

	result, err := suite.auth.Login(context.Background(), "alice", "s3cret!", "10.0.0.1")
	suite.Require().NoError(err)
	suite.Equal("alice", result.User.Username)
}

func (suite *AuthServiceTestSuite) TestResolve_ValidUntilExpiry() {
	token, err := suite.tokens.Issue(suite.alice)
	suite.Require().NoError(err)

	suite.clock = suite.clock.Add(time.Hour - time.Second)
	user, err := suite.tokens.Resolve(context.Background(), token.AccessToken)
	suite.Require().NoError(err)
	suite.Equal(suite.alice.ID, user.ID)
}

func (suite *AuthServiceTestSuite) TestResolve_ExpiredAtWindowEnd() {
	token, err := suite.tokens.Issue(suite.alice)
	suite.Require().NoError(err)

	suite.clock = suite.clock.Add(time.Hour)
	_, err = suite.tokens.Resolve(context.Background(), token.AccessToken)
	suite.ErrorIs(err, common.ErrUnauthenticated)
	suite.ErrorIs(err, ErrTokenExpired)
	suite.Equal([]string{"expired"}, suite.rec.tokenFailures)
}

func (suite *AuthServiceTestSuite) TestResolve_SubSecondIssuance() {
	start := suite.clock
	suite.clock = start.Add(700 * time.Millisecond)
	token, err := suite.tokens.Issue(suite.alice)
	suite.Require().NoError(err)
	suite.Equal(start, token.IssuedAt)
	suite.Equal(start.Add(time.Hour), token.ExpiresAt)

	suite.clock = start.Add(time.Hour - time.Nanosecond)
	_, err = suite.tokens.Resolve(context.Background(), token.AccessToken)
	suite.Require().NoError(err)

	suite.clock = start.Add(time.Hour)
	_, err = suite.tokens.Resolve(context.Background(), token.AccessToken)
	suite.ErrorIs(err, ErrTokenExpired)
}

func (suite *AuthServiceTestSuite) TestResolve_DeletedSubject() {
	token, err := suite.tokens.Issue(suite.alice)
	suite.Require().NoError(err)

	_, err = suite.dir.Users().Delete(context.Background(), suite.alice.ID)
	suite.Require().NoError(err)

	_, err = suite.tokens.Resolve(context.Background(), token.AccessToken)
	suite.ErrorIs(err, common.ErrUnauthenticated)
	suite.ErrorIs(err, ErrUnknownSubject)
	suite.Equal([]string{"subject_unknown"}, suite.rec.tokenFailures)
}

func (suite *AuthServiceTestSuite) TestResolve_ReflectsCurrentRole() {
	token, err := suite.tokens.Issue(suite.alice)
	suite.Require().NoError(err)

	demoted := *suite.alice
	demoted.Role = models.RoleUser
	suite.Require().NoError(suite.dir.Users().Update(context.Background(), &demoted))

	user, err := suite.tokens.Resolve(context.Background(), token.AccessToken)
	suite.Require().NoError(err)
	suite.Equal(models.RoleUser, user.Role)
}

func (suite *AuthServiceTestSuite) TestResolve_Malformed() {
	_, err := suite.tokens.Resolve(context.Background(), "not-a-token")
	suite.ErrorIs(err, ErrTokenMalformed)
	suite.ErrorIs(err, common.ErrUnauthenticated)
}

func (suite *AuthServiceTestSuite) TestResolve_WrongSignature() {
	other := NewTokenService(&config.Config{JWTSecret: []byte("other-secret"), TokenTTL: time.Hour}, suite.creds, nil,
		WithClock(func() time.Time { return suite.clock }))
	token, err := other.Issue(suite.alice)
	suite.Require().NoError(err)

	_, err = suite.tokens.Resolve(context.Background(), token.AccessToken)
	suite.ErrorIs(err, ErrTokenMalformed)
}

func (suite *AuthServiceTestSuite) TestResolve_RejectsOtherAlgorithms() {
	claims := jwt.RegisteredClaims{
		Subject:   suite.alice.ID.String(),
		ExpiresAt: jwt.NewNumericDate(suite.clock.Add(time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(suite.cfg.JWTSecret)
	suite.Require().NoError(err)

	_, err = suite.tokens.Resolve(context.Background(), signed)
	suite.ErrorIs(err, ErrTokenMalformed)
}

func (suite *AuthServiceTestSuite) TestResolve_RequiresExpiry() {
	claims := jwt.RegisteredClaims{Subject: suite.alice.ID.String()}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(suite.cfg.JWTSecret)
	suite.Require().NoError(err)

	_, err = suite.tokens.Resolve(context.Background(), signed)
	suite.ErrorIs(err, common.ErrUnauthenticated)
}

func TestCredentialStore_HashIsNotPlaintext(t *testing.T) {
	creds, err := NewCredentialStore(testhelpers.NewDirectory().Users(), bcrypt.MinCost)
	require.NoError(t, err)

	hash, err := creds.HashPassword("password1")
	require.NoError(t, err)
	assert.NotEqual(t, "password1", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("password1")))
}

func TestCredentialStore_OutOfRangeCostFallsBack(t *testing.T) {
	creds, err := NewCredentialStore(testhelpers.NewDirectory().Users(), 1)
	require.NoError(t, err)

	hash, err := creds.HashPassword("password1")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestCredentialStore_LookupMissing(t *testing.T) {
	creds, err := NewCredentialStore(testhelpers.NewDirectory().Users(), bcrypt.MinCost)
	require.NoError(t, err)

	_, err = creds.Lookup(context.Background(), uuid.New())
	assert.Error(t, err)
}
