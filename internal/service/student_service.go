package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/keyon-access/parent-api/internal/models"
	appErrors "github.com/keyon-access/parent-api/pkg/errors"
)

type studentRoster interface {
	GetByID(ctx context.Context, id string) (*models.Student, error)
	ListByGuardian(ctx context.Context, guardianID string) ([]models.Student, error)
}

// StudentService resolves students and enforces who may see them. Parents
// only reach students linked to their own account; staff and admins reach
// everyone.
type StudentService struct {
	repo   studentRoster
	logger *zap.Logger
}

// NewStudentService constructs the service.
func NewStudentService(repo studentRoster, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, logger: logger}
}

// ListMine returns the students linked to the caller's guardian account.
func (s *StudentService) ListMine(ctx context.Context, guardianID string) ([]models.Student, error) {
	students, err := s.repo.ListByGuardian(ctx, guardianID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// Authorize loads a student and verifies the caller may access them.
func (s *StudentService) Authorize(ctx context.Context, claims *models.JWTClaims, studentID string) (*models.Student, error) {
	student, err := s.repo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	switch claims.Role {
	case models.RoleAdmin, models.RoleStaff:
		return student, nil
	case models.RoleParent:
		if student.GuardianID != nil && *student.GuardianID == claims.UserID {
			return student, nil
		}
		return nil, appErrors.ErrForbidden
	default:
		return nil, appErrors.ErrForbidden
	}
}
