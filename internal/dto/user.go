package dto

import "github.com/noah-isme/gac-api/internal/models"

// CreateUserRequest payload for registering a user.
type CreateUserRequest struct {
	Email      string             `json:"email" validate:"required,email"`
	Password   string             `json:"password" validate:"required,min=6"`
	FullName   string             `json:"full_name" validate:"required"`
	Role       models.UserRole    `json:"role" validate:"required,oneof=ADMIN PROFESSOR STUDENT"`
	Manager    bool               `json:"manager"`
	Enrollment *string            `json:"enrollment"`
	Course     *string            `json:"course"`
	Shift      models.CourseShift `json:"shift" validate:"omitempty,oneof=MATUTINO VESPERTINO NOTURNO"`
}

// UpdateUserRequest payload for partial user updates.
type UpdateUserRequest struct {
	FullName   *string             `json:"full_name"`
	Role       *models.UserRole    `json:"role" validate:"omitempty,oneof=ADMIN PROFESSOR STUDENT"`
	Manager    *bool               `json:"manager"`
	Enrollment *string             `json:"enrollment"`
	Course     *string             `json:"course"`
	Shift      *models.CourseShift `json:"shift" validate:"omitempty,oneof=MATUTINO VESPERTINO NOTURNO"`
	Active     *bool               `json:"active"`
}
