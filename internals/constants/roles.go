package constants

import "fmt"

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleOwner   = "owner"
)

// Role yang boleh memegang sesi asesmen & mencatat progres
var ManagerAndAbove = []string{RoleManager, RoleAdmin, RoleOwner}

// Role yang boleh mengelola template goal
var AdminAndAbove = []string{RoleAdmin, RoleOwner}

// Template pesan error role
const (
	ErrOnlyManagersCanAccess = "❌ Hanya manager, admin, atau owner yang boleh mengakses fitur %s."
	ErrOnlyAdminsCanAccess   = "❌ Hanya admin atau owner yang boleh mengakses fitur %s."
)

func RoleErrorManager(feature string) string {
	return fmt.Sprintf(ErrOnlyManagersCanAccess, feature)
}

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}
