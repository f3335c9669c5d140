package domain

import "time"

// Roles reconocidos por la plataforma.
const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
	RoleAdmin    = "admin"
)

// Estados de cuenta. Los vendedores pasan por el flujo de aprobación:
// un admin los mueve entre pending, active y suspended.
const (
	AccountActive    = "active"
	AccountPending   = "pending"
	AccountSuspended = "suspended"
)

// ValidAccountStatus indica si el estado de cuenta es uno de los
// reconocidos.
func ValidAccountStatus(status string) bool {
	switch status {
	case AccountActive, AccountPending, AccountSuspended:
		return true
	}
	return false
}

// ValidRole indica si el rol es uno de los reconocidos.
func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	Status       string    `json:"status,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}
