package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vanvan1998/todoApp/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}
func (m *mockUserStore) SoftDelete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSessionStore) DisableByUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID, sessionID string) (string, error) {
	args := m.Called(userID, sessionID)
	return args.String(0), args.Error(1)
}

// --- helpers ---

func newSvc(us *mockUserStore, ss *mockSessionStore, jwt *mockJWTSigner) Service {
	return NewService(ServiceDeps{
		UserRepo:        us,
		SessionRepo:     ss,
		JWTProvider:     jwt,
		RefreshTokenDur: 24 * time.Hour,
	})
}

func strPtr(s string) *string { return &s }

// --- Register ---

func TestRegister_Success(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	var saved *domain.User
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.User) }).
		Return(nil)

	u, err := newSvc(us, ss, jwt).Register(context.Background(), domain.CreateUserRequest{
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
		Name:     "Alice",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, u.UserID)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "Alice", u.Name)
	assert.True(t, u.Enable)
	require.NotNil(t, saved)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(saved.PasswordHash), []byte("hunter2hunter2")))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{UserID: "existing"}, nil)

	_, err := newSvc(us, ss, jwt).Register(context.Background(), domain.CreateUserRequest{
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRegisterWithSession_SignsStraightIn(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	jwt.On("Sign", mock.Anything, mock.Anything).Return("bearer", nil)

	sess, bearer, refresh, err := newSvc(us, ss, jwt).RegisterWithSession(context.Background(), domain.CreateUserRequest{
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
		Name:     "Alice",
	})

	require.NoError(t, err)
	assert.Equal(t, "bearer", bearer)
	assert.NotEmpty(t, refresh)
	require.NotNil(t, sess.User)
	assert.Equal(t, sess.UserID, sess.User.UserID)
	assert.True(t, sess.Enable)
}

// --- Update ---

func TestUpdate_PartialFields(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	var updates map[string]interface{}
	us.On("Update", mock.Anything, "user-123", mock.Anything).
		Run(func(args mock.Arguments) { updates = args.Get(2).(map[string]interface{}) }).
		Return(nil)
	us.On("Get", mock.Anything, "user-123").Return(&domain.User{UserID: "user-123", Name: "Alice B"}, nil)

	u, err := newSvc(us, ss, jwt).Update(context.Background(), "user-123", domain.UpdateUserRequest{
		Name:     strPtr("Alice B"),
		PhotoURL: strPtr("https://cdn.example.com/alice.png"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Alice B", u.Name)
	assert.Equal(t, map[string]interface{}{
		"name":      "Alice B",
		"photo_url": "https://cdn.example.com/alice.png",
	}, updates)
}

func TestUpdate_EmailTakenByAnotherAccount(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	us.On("GetByEmail", mock.Anything, "taken@example.com").Return(&domain.User{UserID: "someone-else"}, nil)

	_, err := newSvc(us, ss, jwt).Update(context.Background(), "user-123", domain.UpdateUserRequest{
		Email: strPtr("taken@example.com"),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_NoFieldsIsRead(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	us.On("Get", mock.Anything, "user-123").Return(&domain.User{UserID: "user-123"}, nil)

	u, err := newSvc(us, ss, jwt).Update(context.Background(), "user-123", domain.UpdateUserRequest{})

	require.NoError(t, err)
	assert.Equal(t, "user-123", u.UserID)
	us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

// --- Delete ---

func TestDelete_DisablesAccountAndSessions(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	us.On("SoftDelete", mock.Anything, "user-123").Return(nil)
	ss.On("DisableByUser", mock.Anything, "user-123").Return(nil)

	require.NoError(t, newSvc(us, ss, jwt).Delete(context.Background(), "user-123"))
	us.AssertCalled(t, "SoftDelete", mock.Anything, "user-123")
	ss.AssertCalled(t, "DisableByUser", mock.Anything, "user-123")
}

// --- ChangePassword ---

func TestChangePassword_WrongCurrentPassword(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)
	us.On("Get", mock.Anything, "user-123").Return(&domain.User{UserID: "user-123", PasswordHash: string(hash)}, nil)

	err = newSvc(us, ss, jwt).ChangePassword(context.Background(), "user-123", "wrong", "new-password-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestChangePassword_StoresNewHash(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)
	us.On("Get", mock.Anything, "user-123").Return(&domain.User{UserID: "user-123", PasswordHash: string(hash)}, nil)

	var updates map[string]interface{}
	us.On("Update", mock.Anything, "user-123", mock.Anything).
		Run(func(args mock.Arguments) { updates = args.Get(2).(map[string]interface{}) }).
		Return(nil)

	require.NoError(t, newSvc(us, ss, jwt).ChangePassword(context.Background(), "user-123", "correct-password", "new-password-1"))

	newHash, ok := updates["password_hash"].(string)
	require.True(t, ok)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(newHash), []byte("new-password-1")))
}
