package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/carbonforge/onboarding-api/internal/models"
	"github.com/carbonforge/onboarding-api/internal/repository"
)

type capturingSender struct {
	emails []string
	tokens []string
}

func (s *capturingSender) SendVerification(email, token string) {
	s.emails = append(s.emails, email)
	s.tokens = append(s.tokens, token)
}

type onboardingTestEnv struct {
	db     *gorm.DB
	svc    *OnboardingService
	auth   *AuthService
	tasks  *TaskService
	sender *capturingSender
}

func setupOnboardingTestEnv(t *testing.T) onboardingTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.RoleAssignment{},
		&models.Answer{},
		&models.TaskTemplate{},
		&models.Task{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	sender := &capturingSender{}
	authService := NewAuthService(repository.NewUserRepository(db), sender)
	taskService := NewTaskService(repository.NewTaskRepository(db), repository.NewTemplateRepository(db))
	onboardingService := NewOnboardingService(repository.NewOnboardingRepository(db), taskService, authService)

	return onboardingTestEnv{
		db:     db,
		svc:    onboardingService,
		auth:   authService,
		tasks:  taskService,
		sender: sender,
	}
}

func (env onboardingTestEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "hashedpassword",
	}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func (env onboardingTestEnv) createTemplate(t *testing.T, role models.Role, title string, order int) models.TaskTemplate {
	t.Helper()
	tpl := models.TaskTemplate{Role: role, Title: title, SortOrder: order}
	require.NoError(t, env.db.Create(&tpl).Error)
	return tpl
}

func TestSaveRole_CreatesLedgerEntryAndProfile(t *testing.T) {
	env := setupOnboardingTestEnv(t)
	user := env.createUser(t, "dev@example.com")

	assignment, err := env.svc.SaveRole(SaveRoleInput{
		UserID:       user.ID,
		Role:         models.RoleProjectDeveloper,
		Name:         "Ada",
		Organization: "Forest Labs",
	})
	require.NoError(t, err)
	require.Equal(t, models.RoleProjectDeveloper, assignment.Role)
	require.False(t, assignment.QuestionnaireCompleted)
	require.False(t, assignment.AddedAt.IsZero())

	profile, err := env.svc.GetProfile(user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	require.Equal(t, "Ada", profile.DisplayName)
	require.Equal(t, "Forest Labs", profile.Organization)
	require.NotNil(t, profile.PrimaryRole)
	require.Equal(t, models.RoleProjectDeveloper, *profile.PrimaryRole)
}

func TestSaveRole_SameRoleTwiceKeepsOneLedgerEntry(t *testing.T) {
	env := setupOnboardingTestEnv(t)
	user := env.createUser(t, "dev@example.com")

	first, err := env.svc.SaveRole(SaveRoleInput{UserID: user.ID, Role: models.RolePartner})
	require.NoError(t, err)

	second, err := env.svc.SaveRole(SaveRoleInput{UserID: user.ID, Role: models.RolePartner})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, env.db.Model(&models.RoleAssignment{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestSaveRole_SecondRoleKeepsPrimaryRole(t *testing.T) {
	env := setupOnboardingTestEnv(t)
	user := env.createUser(t, "dev@example.com")

	_, err := env.svc.SaveRole(SaveRoleInput{UserID: user.ID, Role: models.RoleCreditBuyer, Name: "Ada"})
	require.NoError(t, err)
	_, err = env.svc.SaveRole(SaveRoleInput{UserID: user.ID, Role: models.RolePartner, Name: "Ada Lovelace"})
	require.NoError(t, err)

	profile, err := env.svc.GetProfile(user.ID)
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", profile.DisplayName)
	require.Equal(t, models.RoleCreditBuyer, *profile.PrimaryRole)

	roles, err := env.svc.ListRoles(user.ID)
	require.NoError(t, err)
	require.Len(t, roles, 2)
}

func TestSaveRole_InvalidRole(t *testing.T) {
	env := setupOnboardingTestEnv(t)
	user := env.createUser(t, "dev@example.com")

	_, err := env.svc.SaveRole(SaveRoleInput{UserID: user.ID, Role: models.Role("WIZARD")})
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestMarkQuestionnaireComplete(t *testing.T) {
	env := setupOnboardingTestEnv(t)
	user := env.createUser(t, "dev@example.com")

	_, err := env.svc.SaveRole(SaveRoleInput{UserID: user.ID, Role: models.RolePartner, Name: "Ada"})
	require.NoError(t, err)

	assignment, err := env.svc.MarkQuestionnaireComplete(user.ID, models.RolePartner)
	require.NoError(t, err)
	require.True(t, assignment.QuestionnaireCompleted)
	require.NotNil(t, assignment.CompletedAt)

	profile, err := env.svc.GetProfile(user.ID)
	require.NoError(t, err)
	require.True(t, profile.Completed)
}

func TestMarkQuestionnaireComplete_NotFound(t *testing.T) {
	env := setupOnboardingTestEnv(t)
	user := env.createUser(t, "dev@example.com")

	_, err := env.svc.MarkQuestionnaireComplete(user.ID, models.RolePartner)
	require.ErrorIs(t, err, ErrRoleAssignmentNotFound)
}

func TestGetProfile_NilWhenAbsent(t *testing.T) {
	env := setupOnboardingTestEnv(t)
	user := env.createUser(t, "new@example.com")

	profile, err := env.svc.GetProfile(user.ID)
	require.NoError(t, err)
	require.Nil(t, profile)
}

func TestSaveAnswers_UpsertSemantics(t *testing.T) {
	env := setupOnboardingTestEnv(t)
	user := env.createUser(t, "dev@example.com")

	answers, err := env.svc.SaveAnswers(user.ID, models.RoleCreditBuyer, map[string]any{
		"q1": "a",
		"q2": float64(10),
	})
	require.NoError(t, err)
	require.Len(t, answers, 2)

	answers, err = env.svc.SaveAnswers(user.ID, models.RoleCreditBuyer, map[string]any{
		"q1": "b",
	})
	require.NoError(t, err)
	require.Len(t, answers, 1)

	var stored []models.Answer
	require.NoError(t, env.db.Where("user_id = ? AND question_key = ?", user.ID, "q1").
		Find(&stored).Error)
	require.Len(t, stored, 1)

	var value string
	require.NoError(t, json.Unmarshal(stored[0].Value, &value))
	require.Equal(t, "b", value)

	// A bare numeric scalar survives the store and reads back intact.
	require.NoError(t, env.db.Where("user_id = ? AND question_key = ?", user.ID, "q2").
		Find(&stored).Error)
	require.Len(t, stored, 1)

	var number float64
	require.NoError(t, json.Unmarshal(stored[0].Value, &number))
	require.Equal(t, float64(10), number)
}

func TestSaveAnswers_RoleScoped(t *testing.T) {
	env := setupOnboardingTestEnv(t)
	user := env.createUser(t, "dev@example.com")

	_, err := env.svc.SaveAnswers(user.ID, models.RoleCreditBuyer, map[string]any{"q1": "buyer"})
	require.NoError(t, err)
	_, err = env.svc.SaveAnswers(user.ID, models.RolePartner, map[string]any{"q1": "partner"})
	require.NoError(t, err)

	var count int64
	require.NoError(t, env.db.Model(&models.Answer{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestCompleteOnboarding_AnonymousCreatesAccountAndPendsVerification(t *testing.T) {
	env := setupOnboardingTestEnv(t)
	env.createTemplate(t, models.RoleProjectDeveloper, "Complete your project profile", 1)
	env.createTemplate(t, models.RoleProjectDeveloper, "Upload documents", 2)

	outcome, err := env.svc.CompleteOnboarding(CompleteOnboardingInput{
		Email:        "new@example.com",
		Password:     "supersecret",
		DisplayName:  "Ada",
		Role:         models.RoleProjectDeveloper,
		Organization: "Forest Labs",
		Answers:      map[string]any{"project_stage": "pilot"},
	})
	require.NoError(t, err)
	require.True(t, outcome.NewAccount)
	require.True(t, outcome.PendingVerification)
	require.Equal(t, 2, outcome.TasksCreated)
	require.Equal(t, []string{"new@example.com"}, env.sender.emails)

	// Every pipeline step landed for the new identity.
	roles, err := env.svc.ListRoles(outcome.UserID)
	require.NoError(t, err)
	require.Len(t, roles, 1)

	var answerCount int64
	require.NoError(t, env.db.Model(&models.Answer{}).
		Where("user_id = ?", outcome.UserID).Count(&answerCount).Error)
	require.EqualValues(t, 1, answerCount)

	progress, err := env.tasks.ComputeProgress(outcome.UserID)
	require.NoError(t, err)
	require.Equal(t, 2, progress.TotalTasks)
}

func TestCompleteOnboarding_AuthenticatedSkipsVerification(t *testing.T) {
	env := setupOnboardingTestEnv(t)
	env.createTemplate(t, models.RolePartner, "Schedule a call", 1)
	user := env.createUser(t, "existing@example.com")

	userID := user.ID
	outcome, err := env.svc.CompleteOnboarding(CompleteOnboardingInput{
		UserID:  &userID,
		Role:    models.RolePartner,
		Answers: map[string]any{"org_type": "ngo"},
	})
	require.NoError(t, err)
	require.Equal(t, user.ID, outcome.UserID)
	require.False(t, outcome.NewAccount)
	require.False(t, outcome.PendingVerification)
	require.Equal(t, 1, outcome.TasksCreated)
	require.Empty(t, env.sender.emails)
}

func TestCompleteOnboarding_SignupFailureIsFatal(t *testing.T) {
	env := setupOnboardingTestEnv(t)
	env.createTemplate(t, models.RolePartner, "Schedule a call", 1)
	env.createUser(t, "taken@example.com")

	_, err := env.svc.CompleteOnboarding(CompleteOnboardingInput{
		Email:    "taken@example.com",
		Password: "supersecret",
		Role:     models.RolePartner,
	})
	require.ErrorIs(t, err, ErrEmailTaken)

	// The aborted flow must not leave partial provisioning behind.
	var taskCount int64
	require.NoError(t, env.db.Model(&models.Task{}).Count(&taskCount).Error)
	require.EqualValues(t, 0, taskCount)
}

func TestCompleteOnboarding_StepFailureIsNonFatal(t *testing.T) {
	env := setupOnboardingTestEnv(t)
	// No templates configured: generateTasks fails, but the submission
	// still succeeds and the earlier steps stick.
	user := env.createUser(t, "existing@example.com")

	userID := user.ID
	outcome, err := env.svc.CompleteOnboarding(CompleteOnboardingInput{
		UserID:  &userID,
		Role:    models.RoleCreditBuyer,
		Answers: map[string]any{"volume": "10kt"},
	})
	require.NoError(t, err)
	require.Equal(t, 0, outcome.TasksCreated)

	roles, err := env.svc.ListRoles(user.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
}

func TestCompleteOnboarding_RetryCompletesPartialRun(t *testing.T) {
	env := setupOnboardingTestEnv(t)
	env.createTemplate(t, models.RolePartner, "Schedule a call", 1)
	user := env.createUser(t, "existing@example.com")

	userID := user.ID
	input := CompleteOnboardingInput{
		UserID:  &userID,
		Role:    models.RolePartner,
		Answers: map[string]any{"org_type": "ngo"},
	}

	first, err := env.svc.CompleteOnboarding(input)
	require.NoError(t, err)
	require.Equal(t, 1, first.TasksCreated)

	// Resubmitting the same form is a safe no-op end to end.
	second, err := env.svc.CompleteOnboarding(input)
	require.NoError(t, err)
	require.Equal(t, 0, second.TasksCreated)

	progress, err := env.tasks.ComputeProgress(user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, progress.TotalTasks)
}
