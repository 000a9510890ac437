package auth

import (
	"time"

	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	"github.com/google/uuid"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AdminDTO is the public view of a back-office account.
type AdminDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// LoginResponse carries the access token minted for an admin.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Admin       AdminDTO  `json:"admin"`
}

// SeedRequest describes the account created or reset by the admin CLI.
type SeedRequest struct {
	Email    string
	Name     string
	Password string
}

func adminDTO(admin *models.Admin) AdminDTO {
	return AdminDTO{
		ID:          admin.ID,
		Email:       admin.Email,
		Name:        admin.Name,
		LastLoginAt: admin.LastLoginAt,
	}
}
