package authz

// roleTemplates is the single source of truth mapping each role to its
// full capability set. Every role lists every capability explicitly;
// derivation never consults anything else for defaults.
var roleTemplates = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapCasesView:       true,
		CapCasesManage:     true,
		CapReportsView:     true,
		CapReportsGenerate: true,
		CapUsersView:       true,
		CapUsersManage:     true,
		CapMessagesView:    true,
		CapSettingsManage:  true,
	},
	RoleManager: {
		CapCasesView:       true,
		CapCasesManage:     true,
		CapReportsView:     true,
		CapReportsGenerate: true,
		CapUsersView:       true,
		CapUsersManage:     false,
		CapMessagesView:    true,
		CapSettingsManage:  false,
	},
	RoleOperator: {
		CapCasesView:       true,
		CapCasesManage:     false,
		CapReportsView:     false,
		CapReportsGenerate: false,
		CapUsersView:       false,
		CapUsersManage:     false,
		CapMessagesView:    true,
		CapSettingsManage:  false,
	},
}

// Template returns a copy of the role's capability template. Unknown
// roles receive the DefaultRole template.
func Template(role Role) PermissionSet {
	tpl, ok := roleTemplates[role]
	if !ok {
		tpl = roleTemplates[DefaultRole]
	}
	set := make(PermissionSet, len(tpl))
	for c, v := range tpl {
		set[c] = v
	}
	return set
}
