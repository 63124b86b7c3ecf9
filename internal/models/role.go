package models

// Role is one of the closed set of visitor personas. The role drives which
// questionnaire applies and which task templates are provisioned.
type Role string

const (
	RoleProjectDeveloper    Role = "PROJECT_DEVELOPER"
	RoleTechnologyDeveloper Role = "TECHNOLOGY_DEVELOPER"
	RoleCreditBuyer         Role = "CREDIT_BUYER"
	RolePartner             Role = "PARTNER"
)

// AllRoles lists every valid role.
var AllRoles = []Role{
	RoleProjectDeveloper,
	RoleTechnologyDeveloper,
	RoleCreditBuyer,
	RolePartner,
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleProjectDeveloper, RoleTechnologyDeveloper, RoleCreditBuyer, RolePartner:
		return true
	}
	return false
}
