package model

import "github.com/google/uuid"

type UserRole string

const (
	UserRoleAdmin      UserRole = "ADMIN"
	UserRoleContractor UserRole = "CONTRACTOR"
	UserRoleCitizen    UserRole = "CITIZEN"
)

type Principal struct {
	UserID       uuid.UUID
	Role         UserRole
	ContractorID *uuid.UUID
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

func (p Principal) IsContractor() bool {
	return p.Role == UserRoleContractor && p.ContractorID != nil
}

func (p Principal) IsCitizen() bool {
	return p.Role == UserRoleCitizen
}
