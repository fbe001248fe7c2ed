package dto

import "github.com/noah-isme/subnets-api/internal/models"

// UpdateProfileRequest is the payload of PUT /users/:id.
type UpdateProfileRequest struct {
	Username *string `json:"username" validate:"omitempty,min=2,max=50,excludesall=@"`
	Avatar   *string `json:"avatar" validate:"omitempty,url,max=2048"`
	Bio      *string `json:"bio" validate:"omitempty,max=500"`
}

type BadgesResponse struct {
	Badges []models.Badge `json:"badges"`
}
