package domain

// Nombres de atributos en el backend.
const (
	AttrName         = "name"
	AttrEmail        = "email"
	AttrBio          = "bio"
	AttrAvatar       = "avatar"
	AttrWebsite      = "website"
	AttrLocation     = "location"
	AttrPronouns     = "pronouns"
	AttrAvailability = "availability"
	AttrSkills       = "skills"
	AttrSocialLinks  = "socialLinks"
	AttrUserID       = "userId"

	AttrTitle        = "title"
	AttrDescription  = "description"
	AttrCategory     = "category"
	AttrTags         = "tags"
	AttrImages       = "images"
	AttrVideos       = "videos"
	AttrDocuments    = "documents"
	AttrIsPublic     = "isPublic"
	AttrFeatured     = "featured"
	AttrDisplayOrder = "displayOrder"
	AttrCoverImage   = "coverImage"
	AttrLiveURL      = "liveUrl"
	AttrSourceURL    = "sourceUrl"
	AttrStartDate    = "startDate"
	AttrEndDate      = "endDate"
	AttrHighlights   = "highlights"
	AttrTechStack    = "techStack"
)
