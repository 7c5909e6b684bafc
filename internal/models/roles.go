package models

// Stakeholder roles known to the relevance gate. Each role carries
// exactly three topic phrases that act as the label space for
// zero-shot relevance scoring. Roles missing from this map bypass the
// gate entirely, so adding a new role elsewhere never breaks querying.
const (
	RoleProductLead      = "Product Lead"
	RoleTechLead         = "Tech Lead"
	RoleComplianceLead   = "Compliance Lead"
	RoleBankAllianceLead = "Bank Alliance Lead"
)

var roleTopics = map[string][]string{
	RoleProductLead:      {"business metrics", "user behavior", "product performance"},
	RoleTechLead:         {"technical issues", "system performance", "integration status"},
	RoleComplianceLead:   {"regulatory adherence", "risk factors", "audit trails"},
	RoleBankAllianceLead: {"partnership performance", "integration health", "SLA compliance"},
}

// TopicsForRole returns the topic phrases for a role and whether the
// role is one of the known stakeholder personas.
func TopicsForRole(role string) ([]string, bool) {
	topics, ok := roleTopics[role]
	return topics, ok
}

// KnownRoles lists the enumerated stakeholder roles.
func KnownRoles() []string {
	return []string{RoleProductLead, RoleTechLead, RoleComplianceLead, RoleBankAllianceLead}
}
