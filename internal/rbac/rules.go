package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"exam:view",
		"question:view",
		"response:submit",
		"response:view-own",
		"result:view-own",
		"reval:request",
		"reval:view",
	},
	"teacher": {
		"exam:create",
		"exam:view",
		"exam:publish",
		"exam:transition",
		"exam:delete",
		"exam:finalize",
		"question:manage",
		"question:view",
		"question:view-keys",
		"response:grade",
		"response:view-all",
		"result:view-all",
		"config:view",
		"reval:review",
		"reval:view",
	},
	"admin": {
		"*", // everything
	},
}
