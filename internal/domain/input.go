package domain

// ProfilePatch describe una edicion parcial del perfil; los campos nil no se envian.
type ProfilePatch struct {
	Name         *string           `json:"name" validate:"omitempty,min=1,max=128"`
	Bio          *string           `json:"bio" validate:"omitempty,max=2000"`
	Avatar       *string           `json:"avatar" validate:"omitempty,max=2048"`
	Website      *string           `json:"website" validate:"omitempty,url|len=0"`
	Location     *string           `json:"location" validate:"omitempty,max=128"`
	Pronouns     *string           `json:"pronouns" validate:"omitempty,max=32"`
	Availability *string           `json:"availability" validate:"omitempty,max=64"`
	Skills       []string          `json:"skills" validate:"omitempty,max=50,dive,min=1,max=64"`
	SocialLinks  map[string]string `json:"social_links" validate:"omitempty,max=20,dive,keys,min=1,max=32,endkeys,url"`
}

// Empty indica si el patch no contiene cambios.
func (p ProfilePatch) Empty() bool {
	return p.Name == nil && p.Bio == nil && p.Avatar == nil && p.Website == nil &&
		p.Location == nil && p.Pronouns == nil && p.Availability == nil &&
		p.Skills == nil && p.SocialLinks == nil
}

// ProjectInput son los datos de alta de un proyecto.
type ProjectInput struct {
	Title        string   `json:"title" validate:"required,min=1,max=200"`
	Description  string   `json:"description" validate:"max=5000"`
	Category     string   `json:"category" validate:"max=64"`
	Tags         []string `json:"tags" validate:"max=30,dive,min=1,max=48"`
	Images       []string `json:"images" validate:"max=30,dive,min=1"`
	Videos       []string `json:"videos" validate:"max=10,dive,min=1"`
	Documents    []string `json:"documents" validate:"max=10,dive,min=1"`
	IsPublic     bool     `json:"is_public"`
	Featured     bool     `json:"featured"`
	DisplayOrder int      `json:"display_order" validate:"gte=0"`
	CoverImage   string   `json:"cover_image"`
	LiveURL      string   `json:"live_url" validate:"omitempty,url"`
	SourceURL    string   `json:"source_url" validate:"omitempty,url"`
	StartDate    string   `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate      string   `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Highlights   []string `json:"highlights" validate:"max=20,dive,min=1,max=280"`
	TechStack    []string `json:"tech_stack" validate:"max=40,dive,min=1,max=48"`
}

// ProjectPatch describe una edicion parcial de un proyecto.
type ProjectPatch struct {
	Title        *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string   `json:"description" validate:"omitempty,max=5000"`
	Category     *string   `json:"category" validate:"omitempty,max=64"`
	Tags         *[]string `json:"tags" validate:"omitempty,max=30,dive,min=1,max=48"`
	Images       *[]string `json:"images" validate:"omitempty,max=30,dive,min=1"`
	Videos       *[]string `json:"videos" validate:"omitempty,max=10,dive,min=1"`
	Documents    *[]string `json:"documents" validate:"omitempty,max=10,dive,min=1"`
	IsPublic     *bool     `json:"is_public"`
	Featured     *bool     `json:"featured"`
	DisplayOrder *int      `json:"display_order" validate:"omitempty,gte=0"`
	CoverImage   *string   `json:"cover_image"`
	LiveURL      *string   `json:"live_url" validate:"omitempty,url|len=0"`
	SourceURL    *string   `json:"source_url" validate:"omitempty,url|len=0"`
	StartDate    *string   `json:"start_date" validate:"omitempty,datetime=2006-01-02|len=0"`
	EndDate      *string   `json:"end_date" validate:"omitempty,datetime=2006-01-02|len=0"`
	Highlights   *[]string `json:"highlights" validate:"omitempty,max=20,dive,min=1,max=280"`
	TechStack    *[]string `json:"tech_stack" validate:"omitempty,max=40,dive,min=1,max=48"`
}
