package dto

import "github.com/noah-isme/subnets-api/internal/models"

// SearchQuery holds the parameters of GET /search.
type SearchQuery struct {
	Query string
	Type  string
}

type SearchResponse struct {
	Posts []models.Post        `json:"posts"`
	Users []models.UserProfile `json:"users"`
}
