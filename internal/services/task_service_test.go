package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/carbonforge/onboarding-api/internal/models"
	"github.com/carbonforge/onboarding-api/internal/repository"
)

func setupTaskTestEnv(t *testing.T) (*gorm.DB, *TaskService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.TaskTemplate{},
		&models.Task{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	taskRepo := repository.NewTaskRepository(db)
	templateRepo := repository.NewTemplateRepository(db)

	return db, NewTaskService(taskRepo, templateRepo)
}

func createTemplates(t *testing.T, db *gorm.DB, role models.Role, titles ...string) []models.TaskTemplate {
	t.Helper()

	templates := make([]models.TaskTemplate, len(titles))
	for i, title := range titles {
		templates[i] = models.TaskTemplate{
			Role:      role,
			Title:     title,
			Required:  i == 0,
			SortOrder: i + 1,
		}
		require.NoError(t, db.Create(&templates[i]).Error)
	}
	return templates
}

func TestGenerateTasks_TemplateCoverage(t *testing.T) {
	db, svc := setupTaskTestEnv(t)
	templates := createTemplates(t, db, models.RoleCreditBuyer, "Set preferences", "Complete verification", "Browse projects")

	tasks, err := svc.GenerateTasks(1, models.RoleCreditBuyer)
	require.NoError(t, err)
	require.Len(t, tasks, len(templates))

	for i, task := range tasks {
		require.Equal(t, models.TaskStatusPending, task.Status)
		require.Equal(t, templates[i].Title, task.Title)
		require.NotNil(t, task.TemplateID)
		require.Equal(t, templates[i].ID, *task.TemplateID)
		require.Nil(t, task.DueDate)
	}
}

func TestGenerateTasks_Idempotent(t *testing.T) {
	db, svc := setupTaskTestEnv(t)
	createTemplates(t, db, models.RolePartner, "Tell us about your org", "Schedule a call")

	first, err := svc.GenerateTasks(1, models.RolePartner)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svc.GenerateTasks(1, models.RolePartner)
	require.NoError(t, err)
	require.Empty(t, second)

	var count int64
	require.NoError(t, db.Model(&models.Task{}).Where("user_id = ?", 1).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestGenerateTasks_PartialProvisioning(t *testing.T) {
	db, svc := setupTaskTestEnv(t)
	templates := createTemplates(t, db, models.RolePartner, "First", "Second", "Third")

	// Simulate a crashed run that only provisioned the first template.
	templateID := templates[0].ID
	require.NoError(t, db.Create(&models.Task{
		UserID:     1,
		TemplateID: &templateID,
		Title:      templates[0].Title,
		Status:     models.TaskStatusPending,
	}).Error)

	tasks, err := svc.GenerateTasks(1, models.RolePartner)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	require.Equal(t, "Second", tasks[0].Title)
	require.Equal(t, "Third", tasks[1].Title)
}

func TestGenerateTasks_SnapshotsTemplates(t *testing.T) {
	db, svc := setupTaskTestEnv(t)
	templates := createTemplates(t, db, models.RoleCreditBuyer, "Original title")

	first, err := svc.GenerateTasks(1, models.RoleCreditBuyer)
	require.NoError(t, err)

	// A later template edit must not change already-generated tasks.
	require.NoError(t, db.Model(&templates[0]).Update("title", "Edited title").Error)

	var task models.Task
	require.NoError(t, db.First(&task, first[0].ID).Error)
	require.Equal(t, "Original title", task.Title)
}

func TestGenerateTasks_NoTemplatesForRole(t *testing.T) {
	_, svc := setupTaskTestEnv(t)

	tasks, err := svc.GenerateTasks(1, models.RoleTechnologyDeveloper)
	require.ErrorIs(t, err, ErrNoTemplatesForRole)
	require.Empty(t, tasks)
}

func TestGenerateTasks_IgnoresTemplatelessTasks(t *testing.T) {
	db, svc := setupTaskTestEnv(t)
	createTemplates(t, db, models.RolePartner, "Only template")

	// A manually created task without a backing template must not block
	// generation.
	require.NoError(t, db.Create(&models.Task{
		UserID: 1,
		Title:  "Ad-hoc task",
		Status: models.TaskStatusPending,
	}).Error)

	tasks, err := svc.GenerateTasks(1, models.RolePartner)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
}

func TestToggleStatus_Symmetry(t *testing.T) {
	db, svc := setupTaskTestEnv(t)
	createTemplates(t, db, models.RolePartner, "Task")

	tasks, err := svc.GenerateTasks(1, models.RolePartner)
	require.NoError(t, err)

	done, err := svc.ToggleStatus(tasks[0].ID, 1)
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusDone, done.Status)

	reopened, err := svc.ToggleStatus(tasks[0].ID, 1)
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusPending, reopened.Status)
}

func TestToggleStatus_CompletesInProgress(t *testing.T) {
	db, svc := setupTaskTestEnv(t)
	createTemplates(t, db, models.RolePartner, "Task")

	tasks, err := svc.GenerateTasks(1, models.RolePartner)
	require.NoError(t, err)

	_, err = svc.SetStatus(tasks[0].ID, 1, models.TaskStatusInProgress)
	require.NoError(t, err)

	toggled, err := svc.ToggleStatus(tasks[0].ID, 1)
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusDone, toggled.Status)
}

func TestToggleStatus_ForeignTaskReadsAsNotFound(t *testing.T) {
	db, svc := setupTaskTestEnv(t)
	createTemplates(t, db, models.RolePartner, "Task")

	tasks, err := svc.GenerateTasks(1, models.RolePartner)
	require.NoError(t, err)

	_, err = svc.ToggleStatus(tasks[0].ID, 99)
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSetStatus_Transitions(t *testing.T) {
	db, svc := setupTaskTestEnv(t)
	createTemplates(t, db, models.RolePartner, "Task")

	tasks, err := svc.GenerateTasks(1, models.RolePartner)
	require.NoError(t, err)
	taskID := tasks[0].ID

	blocked, err := svc.SetStatus(taskID, 1, models.TaskStatusBlocked)
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusBlocked, blocked.Status)

	inProgress, err := svc.SetStatus(taskID, 1, models.TaskStatusInProgress)
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusInProgress, inProgress.Status)

	done, err := svc.SetStatus(taskID, 1, models.TaskStatusDone)
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusDone, done.Status)

	// DONE only reopens back to PENDING.
	_, err = svc.SetStatus(taskID, 1, models.TaskStatusBlocked)
	require.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = svc.SetStatus(taskID, 1, models.TaskStatus("ARCHIVED"))
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestComputeProgress(t *testing.T) {
	db, svc := setupTaskTestEnv(t)
	createTemplates(t, db, models.RoleProjectDeveloper, "One", "Two", "Three", "Four")

	tasks, err := svc.GenerateTasks(1, models.RoleProjectDeveloper)
	require.NoError(t, err)
	require.Len(t, tasks, 4)

	_, err = svc.ToggleStatus(tasks[0].ID, 1)
	require.NoError(t, err)
	_, err = svc.SetStatus(tasks[1].ID, 1, models.TaskStatusInProgress)
	require.NoError(t, err)

	progress, err := svc.ComputeProgress(1)
	require.NoError(t, err)
	require.Equal(t, 4, progress.TotalTasks)
	require.Equal(t, 1, progress.CompletedTasks)
	require.Equal(t, 1, progress.InProgressTasks)
	require.Equal(t, 2, progress.PendingTasks)
	require.Equal(t, 25, progress.PercentComplete)
}

func TestComputeProgress_EmptyChecklist(t *testing.T) {
	_, svc := setupTaskTestEnv(t)

	progress, err := svc.ComputeProgress(42)
	require.NoError(t, err)
	require.Equal(t, 0, progress.TotalTasks)
	require.Equal(t, 0, progress.PercentComplete)
}
