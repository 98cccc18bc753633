package validate

// Register is the self registration input.
type Register struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,password"`
}

// Login is the login input. Emptiness is rejected as invalid credentials by the authenticator.
type Login struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile is the self service profile update.
type Profile struct {
	Name  string `json:"name"  validate:"required,max=100"`
	Email string `json:"email" validate:"required,email,max=255"`
}

// ChangePassword is the self service password change.
type ChangePassword struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,password,nefield=CurrentPassword"`
}

// CreateUser is the administrative account creation.
type CreateUser struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Email       string `json:"email"       validate:"required,email,max=255"`
	Password    string `json:"password"    validate:"required,password"`
	Role        string `json:"role"        validate:"omitempty,role"`
	AccountName string `json:"accountName" validate:"omitempty,max=20"`
}

// UpdateUser is the administrative account update.
type UpdateUser struct {
	Name  string `json:"name"  validate:"required,max=100"`
	Email string `json:"email" validate:"required,email,max=255"`
	Role  string `json:"role"  validate:"required,role"`
}

// ResetPassword is the administrative password reset. An empty password requests a generated one.
type ResetPassword struct {
	NewPassword string `json:"newPassword" validate:"omitempty,password"`
}
