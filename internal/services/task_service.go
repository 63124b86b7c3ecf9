package services

import (
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/carbonforge/onboarding-api/internal/models"
	"github.com/carbonforge/onboarding-api/internal/repository"
)

var (
	ErrTaskNotFound            = errors.New("task not found")
	ErrNoTemplatesForRole      = errors.New("no task templates configured for role")
	ErrInvalidStatus           = errors.New("invalid task status")
	ErrInvalidStatusTransition = errors.New("status transition not allowed")
)

// allowedTransitions encodes the task state machine. PENDING is the initial
// state, BLOCKED is reachable from any non-terminal state, and DONE can be
// reopened back to PENDING.
var allowedTransitions = map[models.TaskStatus][]models.TaskStatus{
	models.TaskStatusPending:    {models.TaskStatusInProgress, models.TaskStatusDone, models.TaskStatusBlocked},
	models.TaskStatusInProgress: {models.TaskStatusDone, models.TaskStatusBlocked},
	models.TaskStatusBlocked:    {models.TaskStatusPending, models.TaskStatusInProgress, models.TaskStatusDone},
	models.TaskStatusDone:       {models.TaskStatusPending},
}

func transitionAllowed(from, to models.TaskStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Progress summarises a user's checklist completion.
type Progress struct {
	TotalTasks      int `json:"total_tasks"`
	CompletedTasks  int `json:"completed_tasks"`
	InProgressTasks int `json:"in_progress_tasks"`
	PendingTasks    int `json:"pending_tasks"`
	PercentComplete int `json:"percent_complete"`
}

// TaskService handles checklist provisioning and task lifecycle.
type TaskService struct {
	taskRepo     repository.TaskRepository
	templateRepo repository.TemplateRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, templateRepo repository.TemplateRepository) *TaskService {
	return &TaskService{
		taskRepo:     taskRepo,
		templateRepo: templateRepo,
	}
}

// GenerateTasks expands the role's template catalog into tasks for the user,
// skipping templates the user already has an instance of. Safe to call any
// number of times; repeated calls return an empty list. Returns only the
// newly created tasks.
func (s *TaskService) GenerateTasks(userID uint64, role models.Role) ([]models.Task, error) {
	templates, err := s.templateRepo.ListByRole(role)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTemplatesForRole, role)
	}

	existing, err := s.taskRepo.ListAllByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing tasks: %w", err)
	}

	instantiated := make(map[uint64]struct{}, len(existing))
	for _, task := range existing {
		if task.TemplateID != nil {
			instantiated[*task.TemplateID] = struct{}{}
		}
	}

	tasks := make([]models.Task, 0, len(templates))
	for _, tpl := range templates {
		if _, exists := instantiated[tpl.ID]; exists {
			continue
		}
		templateID := tpl.ID
		tasks = append(tasks, models.Task{
			UserID:      userID,
			TemplateID:  &templateID,
			Title:       tpl.Title,
			Description: tpl.Description,
			Status:      models.TaskStatusPending,
			Required:    tpl.Required,
			SortOrder:   tpl.SortOrder,
		})
	}

	if len(tasks) == 0 {
		return []models.Task{}, nil
	}

	if err := s.taskRepo.CreateBatch(tasks); err != nil {
		return nil, fmt.Errorf("failed to create tasks: %w", err)
	}

	return tasks, nil
}

// ToggleStatus flips a task between DONE and PENDING. A DONE task reopens to
// PENDING; anything else completes to DONE. IN_PROGRESS and BLOCKED are set
// through SetStatus, never by the toggle.
func (s *TaskService) ToggleStatus(taskID, userID uint64) (*models.Task, error) {
	task, err := s.findOwnedTask(taskID, userID)
	if err != nil {
		return nil, err
	}

	if task.Status == models.TaskStatusDone {
		task.Status = models.TaskStatusPending
	} else {
		task.Status = models.TaskStatusDone
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to toggle status: %w", err)
	}

	return task, nil
}

// SetStatus moves a task to an explicit status, enforcing the state machine.
func (s *TaskService) SetStatus(taskID, userID uint64, status models.TaskStatus) (*models.Task, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	task, err := s.findOwnedTask(taskID, userID)
	if err != nil {
		return nil, err
	}

	if task.Status == status {
		return task, nil
	}
	if !transitionAllowed(task.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, task.Status, status)
	}

	task.Status = status
	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	return task, nil
}

// ListTasks returns a user's tasks for the dashboard checklist.
func (s *TaskService) ListTasks(filter repository.TaskFilter) ([]models.Task, int64, error) {
	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// ComputeProgress derives completion statistics from the user's tasks. Pure
// read; safe to call at any frequency. Percent is 0 for an empty checklist.
func (s *TaskService) ComputeProgress(userID uint64) (*Progress, error) {
	tasks, err := s.taskRepo.ListAllByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	progress := &Progress{TotalTasks: len(tasks)}
	for _, task := range tasks {
		switch task.Status {
		case models.TaskStatusDone:
			progress.CompletedTasks++
		case models.TaskStatusInProgress:
			progress.InProgressTasks++
		default:
			progress.PendingTasks++
		}
	}

	if progress.TotalTasks > 0 {
		ratio := float64(progress.CompletedTasks) / float64(progress.TotalTasks)
		progress.PercentComplete = int(math.Round(ratio * 100))
	}

	return progress, nil
}

func (s *TaskService) findOwnedTask(taskID, userID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByIDForUser(taskID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}
