package repository

import (
	"github.com/carbonforge/onboarding-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOnboardingRepository is a GORM implementation of OnboardingRepository
type GormOnboardingRepository struct {
	db *gorm.DB
}

// NewOnboardingRepository creates a new OnboardingRepository
func NewOnboardingRepository(db *gorm.DB) OnboardingRepository {
	return &GormOnboardingRepository{db: db}
}

// CreateRoleAssignment inserts a new ledger entry
func (r *GormOnboardingRepository) CreateRoleAssignment(assignment *models.RoleAssignment) error {
	return r.db.Create(assignment).Error
}

// FindRoleAssignment finds the single ledger entry for (user, role)
func (r *GormOnboardingRepository) FindRoleAssignment(userID uint64, role models.Role) (*models.RoleAssignment, error) {
	var assignment models.RoleAssignment
	if err := r.db.Where("user_id = ? AND role = ?", userID, role).
		First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListRoleAssignments lists all roles a user has onboarded into
func (r *GormOnboardingRepository) ListRoleAssignments(userID uint64) ([]models.RoleAssignment, error) {
	var assignments []models.RoleAssignment
	if err := r.db.Where("user_id = ?", userID).
		Order("added_at ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

// UpdateRoleAssignment updates an existing ledger entry
func (r *GormOnboardingRepository) UpdateRoleAssignment(assignment *models.RoleAssignment) error {
	return r.db.Save(assignment).Error
}

// FindProfileByUserID finds a user's profile
func (r *GormOnboardingRepository) FindProfileByUserID(userID uint64) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateProfile creates a profile
func (r *GormOnboardingRepository) CreateProfile(profile *models.Profile) error {
	return r.db.Create(profile).Error
}

// UpdateProfile updates a profile
func (r *GormOnboardingRepository) UpdateProfile(profile *models.Profile) error {
	return r.db.Save(profile).Error
}

// UpsertAnswers upserts a batch of answers keyed on (user_id, role, question_key).
// Re-submitted answers overwrite the stored value instead of duplicating rows.
func (r *GormOnboardingRepository) UpsertAnswers(answers []models.Answer) error {
	if len(answers) == 0 {
		return nil
	}

	return r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "role"}, {Name: "question_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&answers).Error
}

// ListAnswers lists a user's answers for a role
func (r *GormOnboardingRepository) ListAnswers(userID uint64, role models.Role) ([]models.Answer, error) {
	var answers []models.Answer
	if err := r.db.Where("user_id = ? AND role = ?", userID, role).
		Order("question_key ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}
