package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/vidyasetu/vidyasetu/internal/middleware"
	"github.com/vidyasetu/vidyasetu/internal/models"
	"github.com/vidyasetu/vidyasetu/internal/service"
)

// ProfileService defines the profile operations required by ProfileHandler.
type ProfileService interface {
	Profile(ctx context.Context, userID string) (models.User, error)
	UpdateProfile(ctx context.Context, userID string, upd service.ProfileUpdate, photo *service.Upload) (models.User, error)
}

// ProfileHandler serves the authenticated user's own record.
type ProfileHandler struct {
	ProfileService ProfileService
}

// Get handles GET /profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.ProfileService.Profile(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ProfileResponse{Success: true, User: &user})
}

// Update handles PUT /profile/update with a multipart form. Fields that are
// present replace the stored value; an optional "profilePhoto" file part
// replaces the photo. The response carries the complete updated record.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(service.MaxPhotoSize + 1<<20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	field := func(name string) *string {
		if vals, ok := r.MultipartForm.Value[name]; ok && len(vals) > 0 {
			v := vals[0]
			return &v
		}
		return nil
	}
	upd := service.ProfileUpdate{
		Name:           field("name"),
		ContactNumber:  field("contactNumber"),
		WhatsappNumber: field("whatsappNumber"),
		Address:        field("address"),
		Qualifications: field("qualifications"),
		Subject:        field("subject"),
		CoachingName:   field("coachingName"),
	}

	photo, err := readPhoto(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid photo")
		return
	}

	user, err := h.ProfileService.UpdateProfile(r.Context(), middleware.GetUserIDFromContext(r.Context()), upd, photo)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ProfileResponse{Success: true, User: &user, Message: "Profile updated"})
}

func readPhoto(r *http.Request) (*service.Upload, error) {
	file, header, err := r.FormFile("profilePhoto")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxPhotoSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > service.MaxPhotoSize {
		return nil, errors.New("photo too large")
	}
	return &service.Upload{Filename: header.Filename, Data: data}, nil
}
