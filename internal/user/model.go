package user

import "time"

type Role string

const (
	RoleVendor      Role = "vendor"
	RoleSupplier    Role = "supplier"
	RoleFarmer      Role = "farmer"
	RoleDistributor Role = "distributor"
	RoleRetailer    Role = "retailer"
	RoleConsumer    Role = "consumer"
)

// ParseRole validates a signup role. Roles are immutable after signup.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleVendor, RoleSupplier, RoleFarmer, RoleDistributor, RoleRetailer, RoleConsumer:
		return Role(s), nil
	}
	return "", ErrInvalidRole
}

type User struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type PasswordReset struct {
	Token     string
	UserID    uint
	ExpiresAt time.Time
	UsedAt    *time.Time
}
