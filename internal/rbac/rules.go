package rbac

// Default policy. Learners interact with their own lessons and attempts;
// review, clearing, authoring and reporting are admin surfaces.
var RolePermissions = map[string][]string{
	"learner": {
		"lesson:view",
		"attempt:create",
		"attempt:view-own",
		"task:submit",
		"asset:upload",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
