package models

type UserRole string

const (
	RoleBuyer     UserRole = "buyer"
	RoleSeller    UserRole = "seller"
	RoleModerator UserRole = "moderator"
)
