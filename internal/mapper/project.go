package mapper

import (
	"folio/internal/backend"
	"folio/internal/domain"
)

// ProjectFromRecord convierte un documento de proyecto en un domain.Project completo.
func ProjectFromRecord(r backend.Record) domain.Project {
	return domain.Project{
		ID:           stringOf(r, backend.AttrID),
		Title:        stringOf(r, domain.AttrTitle),
		Description:  stringOf(r, domain.AttrDescription),
		Category:     stringOf(r, domain.AttrCategory),
		Tags:         stringsOf(r, domain.AttrTags),
		Images:       stringsOf(r, domain.AttrImages),
		Videos:       stringsOf(r, domain.AttrVideos),
		Documents:    stringsOf(r, domain.AttrDocuments),
		IsPublic:     boolOf(r, domain.AttrIsPublic),
		Featured:     boolOf(r, domain.AttrFeatured),
		DisplayOrder: intOf(r, domain.AttrDisplayOrder),
		UserID:       stringOf(r, domain.AttrUserID),
		CoverImage:   stringOf(r, domain.AttrCoverImage),
		LiveURL:      stringOf(r, domain.AttrLiveURL),
		SourceURL:    stringOf(r, domain.AttrSourceURL),
		StartDate:    stringOf(r, domain.AttrStartDate),
		EndDate:      stringOf(r, domain.AttrEndDate),
		Highlights:   stringsOf(r, domain.AttrHighlights),
		TechStack:    stringsOf(r, domain.AttrTechStack),
		CreatedAt:    timeOf(r, backend.AttrCreatedAt),
		UpdatedAt:    timeOf(r, backend.AttrUpdatedAt),
	}
}

func ProjectsFromRecords(records []backend.Record) []domain.Project {
	out := make([]domain.Project, 0, len(records))
	for _, r := range records {
		out = append(out, ProjectFromRecord(r))
	}
	return out
}

// ProjectPayload arma el payload completo de alta de un proyecto.
func ProjectPayload(ownerID string, in domain.ProjectInput) backend.Record {
	return backend.Record{
		domain.AttrTitle:        in.Title,
		domain.AttrDescription:  in.Description,
		domain.AttrCategory:     in.Category,
		domain.AttrTags:         copyStrings(in.Tags),
		domain.AttrImages:       copyStrings(in.Images),
		domain.AttrVideos:       copyStrings(in.Videos),
		domain.AttrDocuments:    copyStrings(in.Documents),
		domain.AttrIsPublic:     in.IsPublic,
		domain.AttrFeatured:     in.Featured,
		domain.AttrDisplayOrder: in.DisplayOrder,
		domain.AttrUserID:       ownerID,
		domain.AttrCoverImage:   in.CoverImage,
		domain.AttrLiveURL:      in.LiveURL,
		domain.AttrSourceURL:    in.SourceURL,
		domain.AttrStartDate:    in.StartDate,
		domain.AttrEndDate:      in.EndDate,
		domain.AttrHighlights:   copyStrings(in.Highlights),
		domain.AttrTechStack:    copyStrings(in.TechStack),
	}
}

// ProjectPatch arma el payload parcial con los campos presentes en el patch.
func ProjectPatch(p domain.ProjectPatch) backend.Record {
	out := backend.Record{}
	setString(out, domain.AttrTitle, p.Title)
	setString(out, domain.AttrDescription, p.Description)
	setString(out, domain.AttrCategory, p.Category)
	setStrings(out, domain.AttrTags, p.Tags)
	setStrings(out, domain.AttrImages, p.Images)
	setStrings(out, domain.AttrVideos, p.Videos)
	setStrings(out, domain.AttrDocuments, p.Documents)
	if p.IsPublic != nil {
		out[domain.AttrIsPublic] = *p.IsPublic
	}
	if p.Featured != nil {
		out[domain.AttrFeatured] = *p.Featured
	}
	if p.DisplayOrder != nil {
		out[domain.AttrDisplayOrder] = *p.DisplayOrder
	}
	setString(out, domain.AttrCoverImage, p.CoverImage)
	setString(out, domain.AttrLiveURL, p.LiveURL)
	setString(out, domain.AttrSourceURL, p.SourceURL)
	setString(out, domain.AttrStartDate, p.StartDate)
	setString(out, domain.AttrEndDate, p.EndDate)
	setStrings(out, domain.AttrHighlights, p.Highlights)
	setStrings(out, domain.AttrTechStack, p.TechStack)
	return out
}

func setStrings(out backend.Record, key string, v *[]string) {
	if v != nil {
		out[key] = copyStrings(*v)
	}
}
