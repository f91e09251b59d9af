package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/gac-api/internal/dto"
	"github.com/noah-isme/gac-api/internal/models"
	appErrors "github.com/noah-isme/gac-api/pkg/errors"
)

type userStoreStub struct {
	users   map[string]*models.User
	deleted []string
}

func newUserStoreStub() *userStoreStub {
	return &userStoreStub{users: map[string]*models.User{}}
}

func (s *userStoreStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *userStoreStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userStoreStub) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (s *userStoreStub) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "usr-new"
	}
	s.users[user.ID] = user
	return nil
}

func (s *userStoreStub) Update(ctx context.Context, user *models.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *userStoreStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func newUserService() (*UserService, *userStoreStub, *auditStub) {
	repo := newUserStoreStub()
	audit := &auditStub{}
	return NewUserService(repo, audit, nil, nil), repo, audit
}

func strPtr(v string) *string {
	return &v
}

func TestUserServiceCreateStudent(t *testing.T) {
	svc, repo, audit := newUserService()

	user, err := svc.Create(context.Background(), dto.CreateUserRequest{
		Email:      "Aluno@Example.com",
		Password:   "segredo1",
		FullName:   "Aluno Teste",
		Role:       models.RoleStudent,
		Enrollment: strPtr("20260001"),
		Course:     strPtr("Sistemas de Informação"),
		Shift:      models.ShiftEvening,
	}, adminClaims())

	require.NoError(t, err)
	require.Equal(t, "aluno@example.com", user.Email)
	require.True(t, user.Active)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("segredo1")))
	require.Len(t, repo.users, 1)
	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionUserCreate, audit.logs[0].Action)
}

func TestUserServiceCreateStudentRequiresEnrollment(t *testing.T) {
	svc, _, _ := newUserService()

	_, err := svc.Create(context.Background(), dto.CreateUserRequest{
		Email:    "aluno@example.com",
		Password: "segredo1",
		FullName: "Aluno Teste",
		Role:     models.RoleStudent,
	}, adminClaims())

	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateManagerMustBeProfessor(t *testing.T) {
	svc, _, _ := newUserService()

	_, err := svc.Create(context.Background(), dto.CreateUserRequest{
		Email:    "adm2@example.com",
		Password: "segredo1",
		FullName: "Admin Dois",
		Role:     models.RoleAdmin,
		Manager:  true,
	}, adminClaims())

	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	svc, repo, _ := newUserService()
	repo.users["usr-1"] = &models.User{ID: "usr-1", Email: "prof@example.com", Role: models.RoleProfessor}

	_, err := svc.Create(context.Background(), dto.CreateUserRequest{
		Email:    "prof@example.com",
		Password: "segredo1",
		FullName: "Professor",
		Role:     models.RoleProfessor,
	}, adminClaims())

	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateForbiddenForStaff(t *testing.T) {
	svc, _, _ := newUserService()

	_, err := svc.Create(context.Background(), dto.CreateUserRequest{
		Email:    "x@example.com",
		Password: "segredo1",
		FullName: "X",
		Role:     models.RoleProfessor,
	}, reviewerClaims())

	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestUserServiceUpdatePartial(t *testing.T) {
	svc, repo, _ := newUserService()
	repo.users["usr-1"] = &models.User{ID: "usr-1", Email: "prof@example.com", FullName: "Antes", Role: models.RoleProfessor}

	updated, err := svc.Update(context.Background(), "usr-1", dto.UpdateUserRequest{
		FullName: strPtr("Depois"),
		Manager:  boolPtr(true),
	}, adminClaims())

	require.NoError(t, err)
	require.Equal(t, "Depois", updated.FullName)
	require.True(t, updated.Manager)
	require.Equal(t, "prof@example.com", updated.Email)
}

func TestUserServiceGetScopesStudents(t *testing.T) {
	svc, repo, _ := newUserService()
	repo.users["stu-1"] = &models.User{ID: "stu-1", Role: models.RoleStudent}
	repo.users["stu-2"] = &models.User{ID: "stu-2", Role: models.RoleStudent}

	own, err := svc.Get(context.Background(), "stu-1", studentClaims("stu-1"))
	require.NoError(t, err)
	require.Equal(t, "stu-1", own.ID)

	_, err = svc.Get(context.Background(), "stu-2", studentClaims("stu-1"))
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestUserServiceDeleteRejectsSelf(t *testing.T) {
	svc, repo, _ := newUserService()
	admin := adminClaims()
	repo.users[admin.UserID] = &models.User{ID: admin.UserID, Role: models.RoleAdmin}

	err := svc.Delete(context.Background(), admin.UserID, admin)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	require.Empty(t, repo.deleted)
}

func TestUserServiceDelete(t *testing.T) {
	svc, repo, audit := newUserService()
	repo.users["stu-1"] = &models.User{ID: "stu-1", Role: models.RoleStudent}

	err := svc.Delete(context.Background(), "stu-1", adminClaims())
	require.NoError(t, err)
	require.Equal(t, []string{"stu-1"}, repo.deleted)
	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionUserDelete, audit.logs[0].Action)
}

func boolPtr(v bool) *bool {
	return &v
}
