package auth

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,min=2,max=120"`
	Phone    string `json:"phone" binding:"omitempty,max=32"`
	City     string `json:"city" binding:"omitempty,max=120"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=2,max=120"`
	Phone *string `json:"phone" binding:"omitempty,max=32"`
	City  *string `json:"city" binding:"omitempty,max=120"`
}

type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
