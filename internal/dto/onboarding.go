package dto

import (
	"encoding/json"
	"time"

	"github.com/carbonforge/onboarding-api/internal/models"
)

// ProfileDTO represents a profile in API responses
type ProfileDTO struct {
	UserID       uint64       `json:"user_id"`
	DisplayName  string       `json:"display_name"`
	Organization string       `json:"organization"`
	PrimaryRole  *models.Role `json:"primary_role"`
	Completed    bool         `json:"completed"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// RoleAssignmentDTO represents a role ledger entry in API responses
type RoleAssignmentDTO struct {
	Role                   models.Role `json:"role"`
	QuestionnaireCompleted bool        `json:"questionnaire_completed"`
	AddedAt                time.Time   `json:"added_at"`
	CompletedAt            *time.Time  `json:"completed_at"`
}

// AnswerDTO represents a stored questionnaire answer in API responses
type AnswerDTO struct {
	QuestionKey string          `json:"question_key"`
	Value       json.RawMessage `json:"value"`
}

// ToProfileDTO converts a Profile model to ProfileDTO
func ToProfileDTO(profile models.Profile) ProfileDTO {
	return ProfileDTO{
		UserID:       profile.UserID,
		DisplayName:  profile.DisplayName,
		Organization: profile.Organization,
		PrimaryRole:  profile.PrimaryRole,
		Completed:    profile.Completed,
		UpdatedAt:    profile.UpdatedAt,
	}
}

// ToRoleAssignmentDTO converts a RoleAssignment model to RoleAssignmentDTO
func ToRoleAssignmentDTO(assignment models.RoleAssignment) RoleAssignmentDTO {
	return RoleAssignmentDTO{
		Role:                   assignment.Role,
		QuestionnaireCompleted: assignment.QuestionnaireCompleted,
		AddedAt:                assignment.AddedAt,
		CompletedAt:            assignment.CompletedAt,
	}
}

// ToRoleAssignmentDTOs converts a slice of ledger entries
func ToRoleAssignmentDTOs(assignments []models.RoleAssignment) []RoleAssignmentDTO {
	dtos := make([]RoleAssignmentDTO, len(assignments))
	for i, assignment := range assignments {
		dtos[i] = ToRoleAssignmentDTO(assignment)
	}
	return dtos
}

// ToAnswerDTOs converts a slice of Answer models
func ToAnswerDTOs(answers []models.Answer) []AnswerDTO {
	dtos := make([]AnswerDTO, len(answers))
	for i, answer := range answers {
		dtos[i] = AnswerDTO{
			QuestionKey: answer.QuestionKey,
			Value:       json.RawMessage(answer.Value),
		}
	}
	return dtos
}
