package repository

import (
	"github.com/carbonforge/onboarding-api/internal/models"
	"gorm.io/gorm"
)

// GormTemplateRepository is a GORM implementation of TemplateRepository
type GormTemplateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new TemplateRepository
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &GormTemplateRepository{db: db}
}

// ListByRole lists templates for a role ordered by sort_order
func (r *GormTemplateRepository) ListByRole(role models.Role) ([]models.TaskTemplate, error) {
	var templates []models.TaskTemplate
	if err := r.db.Where("role = ?", role).
		Order("sort_order ASC").
		Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}
