package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidyasetu/vidyasetu/internal/middleware"
	"github.com/vidyasetu/vidyasetu/internal/models"
	"github.com/vidyasetu/vidyasetu/internal/service"
)

// fakeProfileService implements ProfileService for testing.
type fakeProfileService struct {
	user models.User
	err  error

	gotUserID string
	gotUpdate service.ProfileUpdate
	gotPhoto  *service.Upload
}

func (f *fakeProfileService) Profile(_ context.Context, userID string) (models.User, error) {
	f.gotUserID = userID
	return f.user, f.err
}

func (f *fakeProfileService) UpdateProfile(_ context.Context, userID string, upd service.ProfileUpdate, photo *service.Upload) (models.User, error) {
	f.gotUserID, f.gotUpdate, f.gotPhoto = userID, upd, photo
	if upd.Name != nil {
		f.user.Name = *upd.Name
	}
	return f.user, f.err
}

func multipartBody(t *testing.T, fields map[string]string, photo []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if photo != nil {
		part, err := w.CreateFormFile("profilePhoto", "me.jpg")
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write(photo)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func TestProfileHandler_Get(t *testing.T) {
	svc := &fakeProfileService{user: models.User{ID: "s1", Role: models.RoleStudent, Name: "Ravi"}}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), "s1"))

	(&ProfileHandler{ProfileService: svc}).Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.gotUserID != "s1" {
		t.Errorf("user id = %q", svc.gotUserID)
	}
	var resp models.ProfileResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.User == nil || resp.User.Name != "Ravi" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestProfileHandler_GetNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	(&ProfileHandler{ProfileService: &fakeProfileService{err: service.ErrNotFound}}).Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d; want 404", rec.Code)
	}
}

func TestProfileHandler_Update(t *testing.T) {
	svc := &fakeProfileService{user: models.User{ID: "t1", Role: models.RoleTeacher, Name: "A"}}
	body, ct := multipartBody(t, map[string]string{"name": "Asha", "subject": ""}, []byte("jpeg"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/profile/update", body)
	req.Header.Set("Content-Type", ct)
	req = req.WithContext(middleware.WithUserID(req.Context(), "t1"))

	(&ProfileHandler{ProfileService: svc}).Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.gotUpdate.Name == nil || *svc.gotUpdate.Name != "Asha" {
		t.Errorf("name not forwarded: %+v", svc.gotUpdate)
	}
	if svc.gotUpdate.Subject == nil || *svc.gotUpdate.Subject != "" {
		t.Errorf("present empty field should be forwarded: %+v", svc.gotUpdate)
	}
	if svc.gotUpdate.Address != nil {
		t.Errorf("absent field should stay nil")
	}
	if svc.gotPhoto == nil || svc.gotPhoto.Filename != "me.jpg" || string(svc.gotPhoto.Data) != "jpeg" {
		t.Errorf("photo = %+v", svc.gotPhoto)
	}

	var resp models.ProfileResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User == nil || resp.User.Name != "Asha" || resp.User.Role != models.RoleTeacher {
		t.Errorf("response should carry the full record: %+v", resp.User)
	}
}

func TestProfileHandler_UpdateWithoutPhoto(t *testing.T) {
	svc := &fakeProfileService{user: models.User{ID: "t1", Role: models.RoleTeacher}}
	body, ct := multipartBody(t, map[string]string{"name": "Asha"}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/profile/update", body)
	req.Header.Set("Content-Type", ct)

	(&ProfileHandler{ProfileService: svc}).Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.gotPhoto != nil {
		t.Errorf("photo = %+v; want nil", svc.gotPhoto)
	}
}

func TestProfileHandler_UpdateRejectsNonMultipart(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/profile/update", bytes.NewBufferString(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	(&ProfileHandler{ProfileService: &fakeProfileService{}}).Update(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", rec.Code)
	}
}
