package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/carbonforge/onboarding-api/internal/constants"
	"github.com/carbonforge/onboarding-api/internal/dto"
	apierrors "github.com/carbonforge/onboarding-api/internal/errors"
	"github.com/carbonforge/onboarding-api/internal/middleware"
	"github.com/carbonforge/onboarding-api/internal/models"
	"github.com/carbonforge/onboarding-api/internal/services"
)

// OnboardingHandler coordinates the onboarding HTTP surface.
type OnboardingHandler struct {
	onboardingService *services.OnboardingService
	taskService       *services.TaskService
}

// NewOnboardingHandler creates a new OnboardingHandler.
func NewOnboardingHandler(onboardingService *services.OnboardingService, taskService *services.TaskService) *OnboardingHandler {
	return &OnboardingHandler{
		onboardingService: onboardingService,
		taskService:       taskService,
	}
}

// Complete handles one full onboarding form submission. Anonymous callers
// must supply credentials and get a new account; authenticated callers reuse
// their session identity and skip the credential step entirely.
func (h *OnboardingHandler) Complete(c *gin.Context) {
	type CompleteRequest struct {
		Role         models.Role    `json:"role" binding:"required"`
		Email        string         `json:"email"`
		Password     string         `json:"password"`
		DisplayName  string         `json:"display_name"`
		Name         string         `json:"name"`
		Organization string         `json:"organization"`
		Answers      map[string]any `json:"answers"`
	}

	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if !req.Role.Valid() {
		apierrors.BadRequest(c, "Unknown role")
		return
	}

	input := services.CompleteOnboardingInput{
		Email:        req.Email,
		Password:     req.Password,
		DisplayName:  req.DisplayName,
		Role:         req.Role,
		Name:         req.Name,
		Organization: req.Organization,
		Answers:      req.Answers,
	}

	userID, authenticated := middleware.GetUserID(c)
	if authenticated {
		input.UserID = &userID
	} else if req.Email == "" || req.Password == "" {
		apierrors.BadRequest(c, "Email and password are required to create an account")
		return
	}

	outcome, err := h.onboardingService.CompleteOnboarding(input)
	if err != nil {
		// Only account provisioning can fail the submission.
		respondAuthError(c, err)
		return
	}

	if outcome.NewAccount {
		session := sessions.Default(c)
		session.Set(constants.ContextKeyUserID, outcome.UserID)
		if err := session.Save(); err != nil {
			apierrors.InternalError(c, "Failed to save session")
			return
		}
		c.JSON(http.StatusCreated, outcome)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// MarkQuestionnaireComplete flags the caller's questionnaire for a role as done.
func (h *OnboardingHandler) MarkQuestionnaireComplete(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	role := models.Role(c.Param("role"))
	if !role.Valid() {
		apierrors.BadRequest(c, "Unknown role")
		return
	}

	assignment, err := h.onboardingService.MarkQuestionnaireComplete(userID, role)
	if err != nil {
		if errors.Is(err, services.ErrRoleAssignmentNotFound) {
			apierrors.NotFound(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to mark questionnaire complete")
		return
	}

	c.JSON(http.StatusOK, dto.ToRoleAssignmentDTO(*assignment))
}

// GetProgress returns the caller's checklist completion statistics.
func (h *OnboardingHandler) GetProgress(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	progress, err := h.taskService.ComputeProgress(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to compute progress")
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetProfile returns the caller's profile. A null profile is the normal
// state for an account that has not yet picked a role.
func (h *OnboardingHandler) GetProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	profile, err := h.onboardingService.GetProfile(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to load profile")
		return
	}

	if profile == nil {
		c.JSON(http.StatusOK, gin.H{"profile": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": dto.ToProfileDTO(*profile)})
}

// GetAnswers returns the caller's stored questionnaire answers for one role.
func (h *OnboardingHandler) GetAnswers(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	role := models.Role(c.Param("role"))
	if !role.Valid() {
		apierrors.BadRequest(c, "Unknown role")
		return
	}

	answers, err := h.onboardingService.GetAnswers(userID, role)
	if err != nil {
		apierrors.InternalError(c, "Failed to list answers")
		return
	}

	c.JSON(http.StatusOK, gin.H{"answers": dto.ToAnswerDTOs(answers)})
}

// ListRoles returns the caller's role ledger.
func (h *OnboardingHandler) ListRoles(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	assignments, err := h.onboardingService.ListRoles(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list roles")
		return
	}

	c.JSON(http.StatusOK, gin.H{"roles": dto.ToRoleAssignmentDTOs(assignments)})
}
