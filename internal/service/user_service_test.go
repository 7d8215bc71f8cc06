package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type memUserRepo struct {
	mu       sync.Mutex
	users    map[uuid.UUID]model.User
	tokens   map[string]model.RefreshToken
	officers map[uuid.UUID]model.HROfficer
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users:    make(map[uuid.UUID]model.User),
		tokens:   make(map[string]model.RefreshToken),
		officers: make(map[uuid.UUID]model.HROfficer),
	}
}

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := u
	return &copied, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			copied := u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			copied := u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) GetByStaffID(ctx context.Context, staffID uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.StaffID != nil && *u.StaffID == staffID {
			copied := u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (r *memUserRepo) Update(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) StoreRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	r.tokens[token.Token] = *token
	return nil
}

func (r *memUserRepo) GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := t
	return &copied, nil
}

func (r *memUserRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.tokens, token)
	return nil
}

func (r *memUserRepo) GetActiveOfficer(ctx context.Context, userID uuid.UUID) (*model.HROfficer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.officers[userID]
	if !ok || !o.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	copied := o
	return &copied, nil
}

func (r *memUserRepo) ListActiveOfficers(ctx context.Context) ([]model.HROfficer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.HROfficer
	for _, o := range r.officers {
		if o.IsActive {
			out = append(out, o)
		}
	}
	return out, nil
}

type userFixture struct {
	svc    UserService
	repo   *memUserRepo
	staff  *memStaffRepo
	member model.Staff
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()

	staff := newMemStaffRepo()
	member := model.Staff{
		ID:          uuid.New(),
		StaffNumber: "SU0001",
		FirstName:   "Aminata",
		LastName:    "Kargbo",
		Email:       "AKargbo@example.edu",
		Status:      model.StaffStatusActive,
	}
	staff.add(member)

	repo := newMemUserRepo()
	return &userFixture{
		svc:    NewUserService(repo, staff),
		repo:   repo,
		staff:  staff,
		member: member,
	}
}

func (f *userFixture) register(t *testing.T) *UserResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), RegisterRequest{
		Username:    "akargbo",
		Email:       "akargbo@example.edu",
		Password:    "s3cret-pass",
		Role:        model.RoleStaff,
		StaffNumber: "SU0001",
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterLinksStaffByNumber(t *testing.T) {
	f := newUserFixture(t)

	resp := f.register(t)

	require.NotNil(t, resp.StaffID)
	assert.Equal(t, f.member.ID, *resp.StaffID)

	stored, err := f.repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("s3cret-pass")))
}

func TestRegisterRejectsEmailMismatch(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Username:    "impostor",
		Email:       "someoneelse@example.edu",
		Password:    "s3cret-pass",
		Role:        model.RoleStaff,
		StaffNumber: "SU0001",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match the staff record")
}

func TestRegisterRequiresStaffNumberForStaffRole(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Username: "orphan",
		Email:    "orphan@example.edu",
		Password: "s3cret-pass",
		Role:     model.RoleStaff,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staff_number is required")
}

func TestRegisterRejectsSecondAccountForSameStaff(t *testing.T) {
	f := newUserFixture(t)
	f.register(t)

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Username:    "akargbo2",
		Email:       "akargbo@example.edu",
		Password:    "another-pass",
		Role:        model.RoleStaff,
		StaffNumber: "SU0001",
	})
	require.Error(t, err)
}

func TestLoginIssuesTokensWithRoleClaims(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-signing-key")

	f := newUserFixture(t)
	f.register(t)

	tokens, err := f.svc.Login(context.Background(), LoginRequest{
		Email:    "akargbo@example.edu",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	parsed, err := jwt.Parse(tokens.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-signing-key"), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, model.RoleStaff, claims["role"])
	assert.Equal(t, f.member.ID.String(), claims["staff_id"])

	_, err = f.repo.GetRefreshToken(context.Background(), tokens.RefreshToken)
	assert.NoError(t, err)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	f := newUserFixture(t)
	f.register(t)

	_, err := f.svc.Login(context.Background(), LoginRequest{
		Email:    "akargbo@example.edu",
		Password: "wrong-pass",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email or password")
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newUserFixture(t)
	f.register(t)

	tokens, err := f.svc.Login(context.Background(), LoginRequest{
		Email:    "akargbo@example.edu",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	rotated, err := f.svc.Refresh(context.Background(), RefreshRequest{RefreshToken: tokens.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// The presented token is single use
	_, err = f.svc.Refresh(context.Background(), RefreshRequest{RefreshToken: tokens.RefreshToken})
	require.Error(t, err)
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	f := newUserFixture(t)
	resp := f.register(t)

	expired := "deadbeef"
	require.NoError(t, f.repo.StoreRefreshToken(context.Background(), &model.RefreshToken{
		UserID:    resp.ID,
		Token:     expired,
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	_, err := f.svc.Refresh(context.Background(), RefreshRequest{RefreshToken: expired})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")

	// Expired tokens are purged on sight
	_, err = f.repo.GetRefreshToken(context.Background(), expired)
	assert.Error(t, err)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	f := newUserFixture(t)
	f.register(t)

	tokens, err := f.svc.Login(context.Background(), LoginRequest{
		Email:    "akargbo@example.edu",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), tokens.RefreshToken))

	_, err = f.svc.Refresh(context.Background(), RefreshRequest{RefreshToken: tokens.RefreshToken})
	require.Error(t, err)
}
