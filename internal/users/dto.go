package users

type CreateUserRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	FirstName  string `json:"first_name" validate:"omitempty,max=100"`
	LastName   string `json:"last_name" validate:"omitempty,max=100"`
	Department string `json:"department" validate:"omitempty,max=200"`
	Role       string `json:"role" validate:"required,oneof=admin manager operator"`
}

type UpdateProfileRequest struct {
	FirstName  *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName   *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Department *string `json:"department,omitempty" validate:"omitempty,max=200"`
	Status     *string `json:"status,omitempty" validate:"omitempty,oneof=active away inactive"`
}

type AssignRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin manager operator"`
}

type SetOverrideRequest struct {
	Grants map[string]bool `json:"grants" validate:"required"`
}
