package rbac

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// RolePermissions is the default policy. Ownership of individual quiz sets
// and exams is checked by the services, not here.
var RolePermissions = map[string][]string{
	RoleUser: {
		"quizset:*",
		"question:*",
		"exam:create",
		"exam:take",
		"exam:view-own",
		"wrongbook:*",
		"transfer:*",
		"asset:*",
	},
	RoleAdmin: {
		"*",
	},
}
