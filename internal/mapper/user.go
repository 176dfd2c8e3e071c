package mapper

import (
	"folio/internal/backend"
	"folio/internal/domain"
)

// UserFromRecord convierte un documento de perfil en un domain.User completo.
func UserFromRecord(r backend.Record) domain.User {
	id := stringOf(r, backend.AttrID)
	userID := stringOf(r, domain.AttrUserID)
	if userID == "" {
		userID = id
	}
	return domain.User{
		ID:           id,
		Name:         stringOf(r, domain.AttrName),
		Email:        stringOf(r, domain.AttrEmail),
		Bio:          stringOf(r, domain.AttrBio),
		Avatar:       stringOf(r, domain.AttrAvatar),
		Website:      stringOf(r, domain.AttrWebsite),
		Location:     stringOf(r, domain.AttrLocation),
		Pronouns:     stringOf(r, domain.AttrPronouns),
		Availability: stringOf(r, domain.AttrAvailability),
		Skills:       stringsOf(r, domain.AttrSkills),
		SocialLinks:  stringMapOf(r, domain.AttrSocialLinks),
		UserID:       userID,
		CreatedAt:    timeOf(r, backend.AttrCreatedAt),
		UpdatedAt:    timeOf(r, backend.AttrUpdatedAt),
	}
}

func UsersFromRecords(records []backend.Record) []domain.User {
	out := make([]domain.User, 0, len(records))
	for _, r := range records {
		out = append(out, UserFromRecord(r))
	}
	return out
}

// UserPayload arma el payload completo de escritura de un perfil.
func UserPayload(u domain.User) backend.Record {
	skills := u.Skills
	if skills == nil {
		skills = []string{}
	}
	return backend.Record{
		domain.AttrName:         u.Name,
		domain.AttrEmail:        u.Email,
		domain.AttrBio:          u.Bio,
		domain.AttrAvatar:       u.Avatar,
		domain.AttrWebsite:      u.Website,
		domain.AttrLocation:     u.Location,
		domain.AttrPronouns:     u.Pronouns,
		domain.AttrAvailability: u.Availability,
		domain.AttrSkills:       copyStrings(skills),
		domain.AttrSocialLinks:  encodeStringMap(u.SocialLinks),
		domain.AttrUserID:       u.UserID,
	}
}

// ProfilePatch arma el payload parcial con los campos presentes en el patch.
func ProfilePatch(p domain.ProfilePatch) backend.Record {
	out := backend.Record{}
	setString(out, domain.AttrName, p.Name)
	setString(out, domain.AttrBio, p.Bio)
	setString(out, domain.AttrAvatar, p.Avatar)
	setString(out, domain.AttrWebsite, p.Website)
	setString(out, domain.AttrLocation, p.Location)
	setString(out, domain.AttrPronouns, p.Pronouns)
	setString(out, domain.AttrAvailability, p.Availability)
	if p.Skills != nil {
		out[domain.AttrSkills] = copyStrings(p.Skills)
	}
	if p.SocialLinks != nil {
		out[domain.AttrSocialLinks] = encodeStringMap(p.SocialLinks)
	}
	return out
}

func setString(out backend.Record, key string, v *string) {
	if v != nil {
		out[key] = *v
	}
}
