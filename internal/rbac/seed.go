package rbac

// SystemRole describes a role seeded for every new tenant.
type SystemRole struct {
	Name        string
	Description string
	Permissions []string
}

// SystemRoles returns the default role set provisioned at tenant creation.
func SystemRoles() []SystemRole {
	return []SystemRole{
		{
			Name:        "Owner",
			Description: "Full access to everything in the tenant",
			Permissions: []string{WildcardToken},
		},
		{
			Name:        "Project Manager",
			Description: "Manage projects, tasks, and documents",
			Permissions: []string{
				"projects:*",
				"tasks:*",
				"documents:*",
				"users:read",
				"roles:read",
			},
		},
		{
			Name:        "Site Member",
			Description: "Day-to-day field access",
			Permissions: []string{
				"projects:read",
				"tasks:read",
				"tasks:write",
				"documents:read",
			},
		},
	}
}
