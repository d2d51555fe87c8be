package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vidyasetu/vidyasetu/internal/client/api"
	"github.com/vidyasetu/vidyasetu/internal/client/clienterr"
	"github.com/vidyasetu/vidyasetu/internal/client/credstore"
	"github.com/vidyasetu/vidyasetu/internal/client/gateway"
	"github.com/vidyasetu/vidyasetu/internal/client/session"
)

const teacherJSON = `{"_id":"t1","role":"TEACHER","name":"A","contactNumber":"111"}`

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(api.PathLogin, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			EmailOrID string `json:"emailOrId"`
			Password  string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Invalid credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"token":"tok-123","user":`+teacherJSON+`}`)
	})
	mux.HandleFunc(api.PathProfile, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"user":{"_id":"t1","role":"TEACHER","name":"A","subject":"Maths"}}`)
	})
	mux.HandleFunc(api.PathUpdateProfile, func(w http.ResponseWriter, r *http.Request) {
		mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mt != "multipart/form-data" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		photo := ""
		if _, fh, err := r.FormFile("profilePhoto"); err == nil {
			photo = "/uploads/" + fh.Filename
		}
		user := map[string]string{
			"_id": "t1", "role": "TEACHER",
			"name": r.FormValue("name"), "contactNumber": r.FormValue("contactNumber"),
			"profilePhoto": photo,
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "user": user})
	})
	mux.HandleFunc("/teacher/my-students", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Not authorized"}`)
			return
		}
		_, _ = io.WriteString(w, `{"students":[{"name":"Ravi"}]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func runShell(t *testing.T, store credstore.Store, input string) (string, *session.Manager) {
	t.Helper()
	srv := fakeBackend(t)
	gw, err := gateway.New(gateway.Config{BaseURL: srv.URL}, store, nil)
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}
	client := api.New(gw)
	m := session.NewManager(store, client, nil)
	m.Hydrate(context.Background())

	var out bytes.Buffer
	New(Config{In: strings.NewReader(input), Out: &out, Manager: m, Gateway: gw, API: client}).Run(context.Background())
	return out.String(), m
}

func TestShell_LoginRoutesGetLogout(t *testing.T) {
	out, m := runShell(t, credstore.NewMemory(),
		"login teacher1\npw\nroutes\nget /teacher/my-students\nlogout\nwhoami\nexit\n")

	for _, want := range []string{
		"Welcome, A (TEACHER)",
		"Home screen: TeacherHome",
		"MarkAttendance",
		`"name": "Ravi"`,
		"Logged out",
		"Not logged in (anonymous)",
		"Bye",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if m.Session().IsAuthenticated() {
		t.Error("expected anonymous after logout")
	}
}

func TestShell_LoginFailureShowsServerMessage(t *testing.T) {
	out, m := runShell(t, credstore.NewMemory(), "login\nteacher1\nwrong\n")

	if !strings.Contains(out, "Login failed: Invalid credentials") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if m.Session().IsAuthenticated() {
		t.Error("should stay anonymous")
	}
}

func TestShell_RefreshAndUpdateProfile(t *testing.T) {
	photo := filepath.Join(t.TempDir(), "me.png")
	if err := os.WriteFile(photo, []byte("\x89PNG"), 0o600); err != nil {
		t.Fatal(err)
	}
	input := strings.Join([]string{
		"login teacher1", "pw",
		"refresh",
		"update-profile", "Asha", "", photo,
		"exit",
	}, "\n") + "\n"

	out, m := runShell(t, credstore.NewMemory(), input)

	if !strings.Contains(out, "Profile reloaded for A") || !strings.Contains(out, "Profile updated") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	user := m.Session().User
	if user.Name != "Asha" || user.ProfilePhoto != "/uploads/me.png" {
		t.Errorf("user = %+v", user)
	}
	if user.Subject != "" {
		t.Errorf("update should replace the whole record, Subject = %q", user.Subject)
	}
}

type stuckStore struct {
	credstore.Store
	fail bool
}

func (s *stuckStore) RemoveMany(ctx context.Context, keys ...string) error {
	if s.fail {
		s.fail = false
		return errors.New("keychain locked")
	}
	return s.Store.RemoveMany(ctx, keys...)
}

func TestShell_LogoutRetry(t *testing.T) {
	store := &stuckStore{Store: credstore.NewMemory(), fail: true}
	out, m := runShell(t, store, "login teacher1\npw\nlogout\ny\n")

	if !strings.Contains(out, "you are still logged in") || !strings.Contains(out, "Logged out") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if m.Session().IsAuthenticated() {
		t.Error("retry should have logged out")
	}
}

func TestShell_UnknownAndUsage(t *testing.T) {
	out, _ := runShell(t, credstore.NewMemory(), "frobnicate\nget\nroutes\nhelp\n")

	for _, want := range []string{"Unknown command", "Usage: get <path>", "Login", "ForgotPassword", "update-profile"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{clienterr.New(clienterr.KindNetwork, "op", "x"), "cannot reach the server"},
		{clienterr.New(clienterr.KindTimeout, "op", "x"), "took too long"},
		{clienterr.HTTP("op", 422, []byte(`{"message":"Email is required"}`)), "Email is required"},
		{clienterr.HTTP("op", 500, []byte(`oops`)), "server answered 500"},
		{errors.New("plain"), "plain"},
	}
	for _, tt := range tests {
		if got := Describe(tt.err); !strings.Contains(got, tt.want) {
			t.Errorf("Describe(%v) = %q; want it to contain %q", tt.err, got, tt.want)
		}
	}
}
