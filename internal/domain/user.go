package domain

import "time"

// User es el perfil publico de una identidad. ID coincide siempre con UserID y con la identidad.
type User struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Bio          string            `json:"bio"`
	Avatar       string            `json:"avatar"`
	Website      string            `json:"website"`
	Location     string            `json:"location"`
	Pronouns     string            `json:"pronouns"`
	Availability string            `json:"availability"`
	Skills       []string          `json:"skills"`
	SocialLinks  map[string]string `json:"social_links"`
	UserID       string            `json:"user_id"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}
