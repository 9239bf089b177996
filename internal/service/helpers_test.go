package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/employee-onboarding/internal/auth"
	"github.com/spec-kit/employee-onboarding/internal/domain"
	"github.com/spec-kit/employee-onboarding/internal/events"
	"github.com/spec-kit/employee-onboarding/internal/repository"
	apperrors "github.com/spec-kit/employee-onboarding/pkg/util/errorutil"
)

type fixture struct {
	repo       repository.EmployeeRepository
	hasher     *auth.PasswordHasher
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	published  *[]events.Event
	employees  *EmployeeService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := repository.NewEmployeeRepository(repository.NewMemoryStore())
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	dispatcher := events.NewInMemoryDispatcher()
	published := &[]events.Event{}
	record := func(_ context.Context, e events.Event) error {
		*published = append(*published, e)
		return nil
	}
	events.SubscribeAll(dispatcher, record, events.AuditEvents...)
	return fixture{
		repo:       repo,
		hasher:     hasher,
		tokens:     auth.NewTokenManager("service-test-secret", "employee-onboarding-api", 30*time.Minute),
		dispatcher: dispatcher,
		published:  published,
		employees:  NewEmployeeService(repo, hasher, dispatcher, zap.NewNop()),
	}
}

func (f fixture) seed(t *testing.T, username string, role domain.Role) *domain.Employee {
	t.Helper()
	hash, err := f.hasher.Hash("Password123!")
	require.NoError(t, err)
	e := &domain.Employee{
		ID:           "id-" + username,
		Username:     username,
		PasswordHash: hash,
		FirstName:    "First" + username,
		LastName:     "Last",
		JobTitle:     "Engineer",
		Department:   "R&D",
		Email:        username + "@example.com",
		Role:         role,
	}
	require.NoError(t, f.repo.Create(context.Background(), e))
	return e
}

func input(username string) CreateEmployeeInput {
	return CreateEmployeeInput{
		Username:   username,
		Password:   "Password123!",
		FirstName:  "New",
		LastName:   "Hire",
		JobTitle:   "Analyst",
		Department: "Finance",
		Email:      username + "@example.com",
	}
}

func requireStatus(t *testing.T, err error, status int) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	require.Equal(t, status, de.HTTPStatus, de.Message)
	return de
}
