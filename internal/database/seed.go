package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/carbonforge/onboarding-api/internal/models"
	"github.com/carbonforge/onboarding-api/pkg/logger"
)

// DefaultTemplates is the task template catalog. Templates are authored here
// and loaded at startup; they are read-only at runtime.
var DefaultTemplates = []models.TaskTemplate{
	{Role: models.RoleProjectDeveloper, Title: "Complete your project profile", Description: "Describe the project site, methodology, and expected credit volume.", Required: true, SortOrder: 1},
	{Role: models.RoleProjectDeveloper, Title: "Upload project design documents", Description: "Provide the PDD and any supporting feasibility studies.", Required: true, SortOrder: 2},
	{Role: models.RoleProjectDeveloper, Title: "Schedule a validation call", Description: "Book a call with our project review team.", Required: false, SortOrder: 3},
	{Role: models.RoleProjectDeveloper, Title: "Review the listing agreement", Required: true, SortOrder: 4},

	{Role: models.RoleTechnologyDeveloper, Title: "Register your technology", Description: "Add your capture or measurement technology to the registry.", Required: true, SortOrder: 1},
	{Role: models.RoleTechnologyDeveloper, Title: "Submit verification data", Description: "Upload third-party performance data for the technology.", Required: true, SortOrder: 2},
	{Role: models.RoleTechnologyDeveloper, Title: "Connect with project developers", Required: false, SortOrder: 3},

	{Role: models.RoleCreditBuyer, Title: "Set your purchasing preferences", Description: "Tell us the project types, vintages, and volumes you are looking for.", Required: true, SortOrder: 1},
	{Role: models.RoleCreditBuyer, Title: "Complete buyer verification", Description: "Provide company details for compliance checks.", Required: true, SortOrder: 2},
	{Role: models.RoleCreditBuyer, Title: "Browse available projects", Required: false, SortOrder: 3},

	{Role: models.RolePartner, Title: "Tell us about your organization", Required: true, SortOrder: 1},
	{Role: models.RolePartner, Title: "Schedule a partnership call", Description: "Book an intro call with the partnerships team.", Required: true, SortOrder: 2},
}

// SeedTemplates inserts the catalog entries that are not present yet, matched
// by (role, title). Existing rows are left untouched so that reseeding never
// rewrites templates users were already provisioned from.
func SeedTemplates(db *gorm.DB) error {
	for _, tpl := range DefaultTemplates {
		var count int64
		err := db.Model(&models.TaskTemplate{}).
			Where("role = ? AND title = ?", tpl.Role, tpl.Title).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check template %q: %w", tpl.Title, err)
		}
		if count > 0 {
			continue
		}

		if err := db.Create(&tpl).Error; err != nil {
			return fmt.Errorf("failed to seed template %q: %w", tpl.Title, err)
		}
		logger.Get().Debug().Str("role", string(tpl.Role)).Str("title", tpl.Title).Msg("seeded task template")
	}
	return nil
}
