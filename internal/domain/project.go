package domain

import "time"

// Project es una tarjeta del portfolio. DisplayOrder no es unico; los empates se resuelven por CreatedAt descendente.
type Project struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Tags         []string  `json:"tags"`
	Images       []string  `json:"images"`
	Videos       []string  `json:"videos"`
	Documents    []string  `json:"documents"`
	IsPublic     bool      `json:"is_public"`
	Featured     bool      `json:"featured"`
	DisplayOrder int       `json:"display_order"`
	UserID       string    `json:"user_id"`
	CoverImage   string    `json:"cover_image"`
	LiveURL      string    `json:"live_url"`
	SourceURL    string    `json:"source_url"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	Highlights   []string  `json:"highlights"`
	TechStack    []string  `json:"tech_stack"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MediaRefs devuelve todas las referencias de media del proyecto, incluida la portada.
func (p Project) MediaRefs() []string {
	refs := make([]string, 0, len(p.Images)+len(p.Videos)+len(p.Documents)+1)
	refs = append(refs, p.Images...)
	refs = append(refs, p.Videos...)
	refs = append(refs, p.Documents...)
	if p.CoverImage != "" {
		refs = append(refs, p.CoverImage)
	}
	return refs
}
