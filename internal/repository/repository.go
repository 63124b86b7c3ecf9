package repository

import (
	"github.com/carbonforge/onboarding-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindByVerificationToken finds a user holding the given verification token
	FindByVerificationToken(token string) (*models.User, error)

	// Update updates a user
	Update(user *models.User) error
}

// OnboardingRepository defines data access for the role ledger, profiles
// and questionnaire answers.
type OnboardingRepository interface {
	// CreateRoleAssignment inserts a new ledger entry. The unique index on
	// (user_id, role) rejects duplicates.
	CreateRoleAssignment(assignment *models.RoleAssignment) error

	// FindRoleAssignment finds the single ledger entry for (user, role)
	FindRoleAssignment(userID uint64, role models.Role) (*models.RoleAssignment, error)

	// ListRoleAssignments lists all roles a user has onboarded into
	ListRoleAssignments(userID uint64) ([]models.RoleAssignment, error)

	// UpdateRoleAssignment updates an existing ledger entry
	UpdateRoleAssignment(assignment *models.RoleAssignment) error

	// FindProfileByUserID finds a user's profile; gorm.ErrRecordNotFound when absent
	FindProfileByUserID(userID uint64) (*models.Profile, error)

	// CreateProfile creates a profile
	CreateProfile(profile *models.Profile) error

	// UpdateProfile updates a profile
	UpdateProfile(profile *models.Profile) error

	// UpsertAnswers upserts a batch of answers on (user_id, role, question_key)
	UpsertAnswers(answers []models.Answer) error

	// ListAnswers lists a user's answers for a role
	ListAnswers(userID uint64, role models.Role) ([]models.Answer, error)
}

// TemplateRepository defines read access to the task template catalog
type TemplateRepository interface {
	// ListByRole lists templates for a role ordered by sort_order
	ListByRole(role models.Role) ([]models.TaskTemplate, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	UserID   uint64
	Status   *models.TaskStatus
	Page     int
	PageSize int
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// CreateBatch inserts a batch of tasks
	CreateBatch(tasks []models.Task) error

	// FindByIDForUser finds a task by ID scoped to its owner
	FindByIDForUser(id, userID uint64) (*models.Task, error)

	// List retrieves a user's tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// ListAllByUser retrieves every task owned by a user
	ListAllByUser(userID uint64) ([]models.Task, error)

	// Update updates a task
	Update(task *models.Task) error
}
