package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/carbonforge/onboarding-api/internal/models"
	"github.com/carbonforge/onboarding-api/internal/repository"
	"github.com/carbonforge/onboarding-api/pkg/logger"
)

var (
	ErrInvalidRole            = errors.New("unknown role")
	ErrRoleAssignmentNotFound = errors.New("role assignment not found")
)

// OnboardingService owns the role ledger, the answer store, and the
// orchestration of a full onboarding submission.
type OnboardingService struct {
	onboardingRepo repository.OnboardingRepository
	taskService    *TaskService
	authService    *AuthService
	log            *zerolog.Logger
}

// NewOnboardingService creates a new OnboardingService
func NewOnboardingService(onboardingRepo repository.OnboardingRepository, taskService *TaskService, authService *AuthService) *OnboardingService {
	return &OnboardingService{
		onboardingRepo: onboardingRepo,
		taskService:    taskService,
		authService:    authService,
		log:            logger.Get(),
	}
}

// SaveRoleInput represents parameters for recording a role in the ledger.
type SaveRoleInput struct {
	UserID       uint64
	Role         models.Role
	Name         string
	Organization string
}

// SaveRole records that a user onboarded into a role. Saving the same role
// again refreshes the existing ledger entry instead of appending a duplicate.
// The profile is upserted as a side effect when a name or organization is
// supplied; a profile failure is logged but never fails the role save.
func (s *OnboardingService) SaveRole(input SaveRoleInput) (*models.RoleAssignment, error) {
	if !input.Role.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, input.Role)
	}

	assignment, err := s.onboardingRepo.FindRoleAssignment(input.UserID, input.Role)
	switch {
	case err == nil:
		// Already in the ledger; the unique index on (user, role) keeps
		// re-onboarding from producing a second row.
	case errors.Is(err, gorm.ErrRecordNotFound):
		assignment = &models.RoleAssignment{
			UserID:  input.UserID,
			Role:    input.Role,
			AddedAt: time.Now(),
		}
		if err := s.onboardingRepo.CreateRoleAssignment(assignment); err != nil {
			return nil, fmt.Errorf("failed to save role: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to check role assignment: %w", err)
	}

	if input.Name != "" || input.Organization != "" {
		if err := s.upsertProfile(input); err != nil {
			s.log.Error().Err(err).
				Uint64("user_id", input.UserID).
				Str("role", string(input.Role)).
				Msg("profile update failed during role save")
		}
	}

	return assignment, nil
}

// MarkQuestionnaireComplete flags the (user, role) ledger entry as completed.
func (s *OnboardingService) MarkQuestionnaireComplete(userID uint64, role models.Role) (*models.RoleAssignment, error) {
	assignment, err := s.onboardingRepo.FindRoleAssignment(userID, role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to find role assignment: %w", err)
	}

	now := time.Now()
	assignment.QuestionnaireCompleted = true
	assignment.CompletedAt = &now

	if err := s.onboardingRepo.UpdateRoleAssignment(assignment); err != nil {
		return nil, fmt.Errorf("failed to mark questionnaire complete: %w", err)
	}

	if profile, err := s.onboardingRepo.FindProfileByUserID(userID); err == nil && !profile.Completed {
		profile.Completed = true
		if err := s.onboardingRepo.UpdateProfile(profile); err != nil {
			s.log.Error().Err(err).Uint64("user_id", userID).Msg("failed to flag profile completed")
		}
	}

	return assignment, nil
}

// GetProfile returns the user's profile, or nil when none exists yet. A
// missing profile is the normal state for an identity that has not picked a
// role.
func (s *OnboardingService) GetProfile(userID uint64) (*models.Profile, error) {
	profile, err := s.onboardingRepo.FindProfileByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	return profile, nil
}

// ListRoles returns the user's role ledger.
func (s *OnboardingService) ListRoles(userID uint64) ([]models.RoleAssignment, error) {
	assignments, err := s.onboardingRepo.ListRoleAssignments(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list role assignments: %w", err)
	}
	return assignments, nil
}

// GetAnswers returns the user's stored answers for one role.
func (s *OnboardingService) GetAnswers(userID uint64, role models.Role) ([]models.Answer, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}
	answers, err := s.onboardingRepo.ListAnswers(userID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, nil
}

// SaveAnswers upserts one answer per question key in a single batch keyed on
// (user, role, question_key). Resubmitting overwrites prior values. Returns
// the stored answers for the submitted keys.
func (s *OnboardingService) SaveAnswers(userID uint64, role models.Role, answers map[string]any) ([]models.Answer, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}
	if len(answers) == 0 {
		return []models.Answer{}, nil
	}

	keys := make([]string, 0, len(answers))
	for key := range answers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	records := make([]models.Answer, 0, len(keys))
	for _, key := range keys {
		value, err := json.Marshal(answers[key])
		if err != nil {
			return nil, fmt.Errorf("failed to encode answer %q: %w", key, err)
		}
		records = append(records, models.Answer{
			UserID:      userID,
			Role:        role,
			QuestionKey: key,
			Value:       datatypes.JSON(value),
		})
	}

	if err := s.onboardingRepo.UpsertAnswers(records); err != nil {
		return nil, fmt.Errorf("failed to save answers: %w", err)
	}

	stored, err := s.onboardingRepo.ListAnswers(userID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to reload answers: %w", err)
	}

	submitted := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		submitted[key] = struct{}{}
	}
	result := make([]models.Answer, 0, len(keys))
	for _, answer := range stored {
		if _, ok := submitted[answer.QuestionKey]; ok {
			result = append(result, answer)
		}
	}

	return result, nil
}

// CompleteOnboardingInput is one full onboarding form submission. UserID is
// the identity resolved from the caller's session; nil means anonymous and
// the credential fields are used to provision a new account.
type CompleteOnboardingInput struct {
	UserID       *uint64
	Email        string
	Password     string
	DisplayName  string
	Role         models.Role
	Name         string
	Organization string
	Answers      map[string]any
}

// OnboardingOutcome reports how a submission ended.
type OnboardingOutcome struct {
	UserID uint64 `json:"user_id"`
	// NewAccount is true when the submission provisioned a fresh identity.
	NewAccount bool `json:"new_account"`
	// PendingVerification is true only for new accounts: a second-role
	// signup by an authenticated user must not re-trigger the email
	// verification detour.
	PendingVerification bool `json:"pending_verification"`
	TasksCreated        int  `json:"tasks_created"`
}

// CompleteOnboarding runs the full pipeline for a form submission:
// resolve identity, then saveRole -> saveAnswers -> generateTasks strictly in
// order. Account provisioning failures abort the flow; every later step is
// best-effort and only logged, since the user can resubmit the questionnaire
// while a lost account cannot be recovered client-side.
func (s *OnboardingService) CompleteOnboarding(input CompleteOnboardingInput) (*OnboardingOutcome, error) {
	if !input.Role.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, input.Role)
	}

	outcome := &OnboardingOutcome{}

	if input.UserID != nil {
		outcome.UserID = *input.UserID
	} else {
		user, err := s.authService.Signup(SignupInput{
			Email:       input.Email,
			Password:    input.Password,
			DisplayName: input.DisplayName,
		})
		if err != nil {
			return nil, err
		}
		outcome.UserID = user.ID
		outcome.NewAccount = true
		outcome.PendingVerification = true
	}

	stepLog := s.log.With().
		Uint64("user_id", outcome.UserID).
		Str("role", string(input.Role)).
		Logger()

	name := input.Name
	if name == "" {
		name = strings.TrimSpace(input.DisplayName)
	}

	if _, err := s.SaveRole(SaveRoleInput{
		UserID:       outcome.UserID,
		Role:         input.Role,
		Name:         name,
		Organization: input.Organization,
	}); err != nil {
		stepLog.Error().Err(err).Msg("onboarding step failed: save role")
	}

	if _, err := s.SaveAnswers(outcome.UserID, input.Role, input.Answers); err != nil {
		stepLog.Error().Err(err).Msg("onboarding step failed: save answers")
	}

	tasks, err := s.taskService.GenerateTasks(outcome.UserID, input.Role)
	if err != nil {
		stepLog.Error().Err(err).Msg("onboarding step failed: generate tasks")
	} else {
		outcome.TasksCreated = len(tasks)
	}

	return outcome, nil
}

func (s *OnboardingService) upsertProfile(input SaveRoleInput) error {
	profile, err := s.onboardingRepo.FindProfileByUserID(input.UserID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to find profile: %w", err)
		}

		role := input.Role
		profile = &models.Profile{
			UserID:       input.UserID,
			DisplayName:  input.Name,
			Organization: input.Organization,
			PrimaryRole:  &role,
		}
		if err := s.onboardingRepo.CreateProfile(profile); err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		return nil
	}

	if input.Name != "" {
		profile.DisplayName = input.Name
	}
	if input.Organization != "" {
		profile.Organization = input.Organization
	}
	if profile.PrimaryRole == nil {
		role := input.Role
		profile.PrimaryRole = &role
	}

	if err := s.onboardingRepo.UpdateProfile(profile); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
