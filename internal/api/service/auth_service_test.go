package service

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"titlehub/internal/api/models"
	"titlehub/internal/api/repository"
	"titlehub/internal/config"
	"titlehub/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// stubMailer records the last code handed to it.
type stubMailer struct {
	mu       sync.Mutex
	lastTo   string
	lastCode string
	sent     int
}

func (m *stubMailer) SendConfirmationCode(ctx context.Context, to, username, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTo = to
	m.lastCode = code
	m.sent++
	return nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, testMigrate(db))
	return db
}

func testMigrate(db *gorm.DB) error {
	return database.Migrate(db)
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:      "test-secret-test-secret-test-secret!",
		AccessTokenTTL: time.Hour,
	}
}

func newTestAuthService(t *testing.T) (AuthService, repository.UserRepository, *stubMailer) {
	t.Helper()
	db := openTestDB(t)
	userRepo := repository.NewUserRepository(db)
	m := &stubMailer{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return NewAuthService(userRepo, m, logger, testConfig()), userRepo, m
}

func TestSignUp_CreatesUserAndSendsCode(t *testing.T) {
	svc, userRepo, m := newTestAuthService(t)

	user, err := svc.SignUp(context.Background(), "alice", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)

	assert.Equal(t, 1, m.sent)
	assert.Equal(t, "a@x.com", m.lastTo)
	assert.NotEmpty(t, m.lastCode)

	stored, err := userRepo.FindByUsername("alice")
	require.NoError(t, err)
	// the plaintext code never lands in the store
	assert.NotEqual(t, m.lastCode, stored.ConfirmationCode)
}

func TestSignUp_UsernameMeReserved(t *testing.T) {
	svc, _, m := newTestAuthService(t)

	_, err := svc.SignUp(context.Background(), "me", "me@x.com")
	assert.ErrorIs(t, err, ErrUsernameReserved)
	assert.Equal(t, 0, m.sent)
}

func TestSignUp_InvalidUsername(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.SignUp(context.Background(), "no spaces allowed", "x@x.com")
	assert.ErrorIs(t, err, ErrInvalidUsername)
}

func TestSignUp_RepeatPairReissuesCode(t *testing.T) {
	svc, _, m := newTestAuthService(t)

	_, err := svc.SignUp(context.Background(), "alice", "a@x.com")
	require.NoError(t, err)
	firstCode := m.lastCode

	_, err = svc.SignUp(context.Background(), "alice", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 2, m.sent)
	assert.NotEqual(t, firstCode, m.lastCode)

	// the old code no longer works, the fresh one does
	_, err = svc.IssueToken(context.Background(), "alice", firstCode)
	assert.ErrorIs(t, err, ErrInvalidCode)
	_, err = svc.IssueToken(context.Background(), "alice", m.lastCode)
	assert.NoError(t, err)
}

func TestSignUp_ConflictsWithDifferentRecord(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.SignUp(context.Background(), "alice", "a@x.com")
	require.NoError(t, err)

	_, err = svc.SignUp(context.Background(), "alice", "other@x.com")
	assert.ErrorIs(t, err, ErrNameInUse)

	_, err = svc.SignUp(context.Background(), "bob", "a@x.com")
	assert.ErrorIs(t, err, ErrEmailInUse)
}

// racingUserRepo inserts a rival record at the last moment, after the
// service's existence checks but before its own create hits the store.
type racingUserRepo struct {
	repository.UserRepository
	db    *gorm.DB
	rival models.User
	once  sync.Once
}

func (r *racingUserRepo) Create(user *models.User) error {
	r.once.Do(func() {
		if err := r.db.Create(&r.rival).Error; err != nil {
			panic(err)
		}
	})
	return r.UserRepository.Create(user)
}

func newRacingAuthService(t *testing.T, rival models.User) AuthService {
	t.Helper()
	db := openTestDB(t)
	repo := &racingUserRepo{
		UserRepository: repository.NewUserRepository(db),
		db:             db,
		rival:          rival,
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return NewAuthService(repo, &stubMailer{}, logger, testConfig())
}

func TestSignUp_LostRaceOnUsername(t *testing.T) {
	svc := newRacingAuthService(t, models.User{
		Username: "alice", Email: "rival@x.com",
		Role: models.RoleUser, ConfirmationCode: "x",
	})

	_, err := svc.SignUp(context.Background(), "alice", "a@x.com")
	assert.ErrorIs(t, err, ErrNameInUse)
}

func TestSignUp_LostRaceOnEmail(t *testing.T) {
	svc := newRacingAuthService(t, models.User{
		Username: "rival", Email: "a@x.com",
		Role: models.RoleUser, ConfirmationCode: "x",
	})

	_, err := svc.SignUp(context.Background(), "bob", "a@x.com")
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestIssueToken_RoundTrip(t *testing.T) {
	svc, _, m := newTestAuthService(t)

	user, err := svc.SignUp(context.Background(), "alice", "a@x.com")
	require.NoError(t, err)

	token, err := svc.IssueToken(context.Background(), "alice", m.lastCode)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestIssueToken_UnknownUser(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.IssueToken(context.Background(), "ghost", "whatever")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestIssueToken_WrongCode(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.SignUp(context.Background(), "alice", "a@x.com")
	require.NoError(t, err)

	_, err = svc.IssueToken(context.Background(), "alice", "not-the-code")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
