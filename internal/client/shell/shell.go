// Package shell is an interactive terminal front end over the session core.
package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/vidyasetu/vidyasetu/internal/client/api"
	"github.com/vidyasetu/vidyasetu/internal/client/clienterr"
	"github.com/vidyasetu/vidyasetu/internal/client/gateway"
	"github.com/vidyasetu/vidyasetu/internal/client/router"
	"github.com/vidyasetu/vidyasetu/internal/client/session"
	"github.com/vidyasetu/vidyasetu/internal/models"
)

const helpText = `Available commands:
  help                     show this text
  login [id]               log in with e-mail or student id
  logout                   log out and forget stored credentials
  whoami                   print the session
  routes                   list reachable screens
  get <path>               authenticated GET, prints JSON
  send-otp [email]         mail a password reset code
  reset-password           set a new password with a reset code
  refresh                  reload the profile from the server
  update-profile           edit name, phone and photo
  exit                     quit`

// Config wires the shell to the core.
type Config struct {
	In      io.Reader
	Out     io.Writer
	Manager *session.Manager
	Gateway *gateway.Client
	API     *api.Client
	Log     *zap.Logger
}

// Shell runs the command loop.
type Shell struct {
	p       *prompter
	out     io.Writer
	manager *session.Manager
	gw      *gateway.Client
	api     *api.Client
	log     *zap.Logger
}

// New builds a Shell from cfg.
func New(cfg Config) *Shell {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Shell{
		p:       newPrompter(cfg.In, cfg.Out),
		out:     cfg.Out,
		manager: cfg.Manager,
		gw:      cfg.Gateway,
		api:     cfg.API,
		log:     log,
	}
}

// Run reads commands until exit, EOF or ctx cancellation.
func (s *Shell) Run(ctx context.Context) {
	for ctx.Err() == nil {
		line, ok := s.p.ask("vidyasetu> ")
		if !ok {
			return
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			s.println("Bye")
			return
		}
		s.dispatch(ctx, args)
	}
}

func (s *Shell) dispatch(ctx context.Context, args []string) {
	switch args[0] {
	case "help":
		s.println(helpText)
	case "login":
		s.login(ctx, args[1:])
	case "logout":
		s.logout(ctx)
	case "whoami":
		s.whoami()
	case "routes":
		s.routes()
	case "get":
		if len(args) < 2 {
			s.println("Usage: get <path>")
			return
		}
		s.get(ctx, args[1])
	case "send-otp":
		s.sendOTP(ctx, args[1:])
	case "reset-password":
		s.resetPassword(ctx)
	case "refresh":
		s.refresh(ctx)
	case "update-profile":
		s.updateProfile(ctx)
	default:
		s.println("Unknown command. Type 'help' for a list of commands.")
	}
}

func (s *Shell) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func (s *Shell) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}

func (s *Shell) login(ctx context.Context, args []string) {
	var identifier string
	if len(args) > 0 {
		identifier = args[0]
	} else {
		var ok bool
		if identifier, ok = s.p.ask("E-mail or student id: "); !ok {
			return
		}
	}
	password, ok := s.p.ask("Password: ")
	if !ok {
		return
	}

	user, err := s.manager.Login(ctx, identifier, password)
	if err != nil {
		s.fail("Login failed", err)
		return
	}
	s.printf("Welcome, %s (%s)\n", user.Name, user.Role)
	s.printHome()
}

func (s *Shell) logout(ctx context.Context) {
	err := s.manager.Logout(ctx)
	for err != nil {
		var logoutErr *session.LogoutError
		if !errors.As(err, &logoutErr) {
			s.fail("Logout failed", err)
			return
		}
		s.fail("Logout failed, you are still logged in", err)
		if !s.p.confirm("Retry?") {
			return
		}
		err = logoutErr.Retry(ctx)
	}
	s.println("Logged out")
}

func (s *Shell) whoami() {
	sess := s.manager.Session()
	if !sess.IsAuthenticated() {
		s.printf("Not logged in (%s)\n", sess.State)
		return
	}
	b, _ := json.MarshalIndent(sess.User, "", "  ")
	s.println(string(b))
}

func (s *Shell) routes() {
	set := router.Resolve(s.manager.Session())
	if set.Loading {
		s.println("Loading...")
		return
	}
	if len(set.Routes) == 0 {
		s.println("No screens available")
		return
	}
	for _, r := range set.Routes {
		s.println(" ", r)
	}
}

func (s *Shell) printHome() {
	if home := router.Resolve(s.manager.Session()).Home(); home != "" {
		s.printf("Home screen: %s\n", home)
	}
}

func (s *Shell) get(ctx context.Context, path string) {
	var raw json.RawMessage
	if err := s.gw.Get(ctx, path, &raw); err != nil {
		s.fail("Request failed", err)
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		s.println(string(raw))
		return
	}
	s.println(buf.String())
}

func (s *Shell) sendOTP(ctx context.Context, args []string) {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var ok bool
		if email, ok = s.p.ask("E-mail: "); !ok {
			return
		}
	}
	if err := s.manager.SendOTP(ctx, email); err != nil {
		s.fail("Could not send code", err)
		return
	}
	s.println("Reset code sent")
}

func (s *Shell) resetPassword(ctx context.Context) {
	email, ok := s.p.ask("E-mail: ")
	if !ok {
		return
	}
	otp, ok := s.p.ask("Code: ")
	if !ok {
		return
	}
	password, ok := s.p.ask("New password: ")
	if !ok {
		return
	}

	loggedIn, err := s.manager.ResetPassword(ctx, email, otp, password)
	if err != nil {
		s.fail("Password reset failed", err)
		return
	}
	if loggedIn {
		s.println("Password changed, you are logged in")
		s.printHome()
		return
	}
	s.println("Password changed, please log in")
}

func (s *Shell) refresh(ctx context.Context) {
	user, err := s.manager.RefreshProfile(ctx, api.PathProfile)
	if err != nil {
		s.fail("Refresh failed", err)
		return
	}
	s.printf("Profile reloaded for %s\n", user.Name)
}

func (s *Shell) updateProfile(ctx context.Context) {
	sess := s.manager.Session()
	if !sess.IsAuthenticated() {
		s.println("Not logged in")
		return
	}
	cur := sess.User

	name, ok := s.p.askDefault("Name ", cur.Name)
	if !ok {
		return
	}
	phone, ok := s.p.askDefault("Contact number ", cur.ContactNumber)
	if !ok {
		return
	}
	photo, ok := s.p.ask("Photo file (leave empty to keep): ")
	if !ok {
		return
	}

	form := gateway.NewMultipart().
		AddField("name", name).
		AddField("contactNumber", phone)
	if photo != "" {
		data, err := os.ReadFile(photo)
		if err != nil {
			s.printf("Failed to read file %q: %v\n", photo, err)
			return
		}
		form.AddFile("profilePhoto", filepath.Base(photo), "", data)
	}

	user, err := s.api.UpdateProfile(ctx, api.PathUpdateProfile, form)
	if err != nil {
		s.fail("Update failed", err)
		return
	}
	if err := s.manager.UpdateUser(ctx, &user); err != nil {
		s.fail("Update saved on the server but not locally", err)
		return
	}
	s.println("Profile updated")
}

// fail prints a message suited to the error kind.
func (s *Shell) fail(prefix string, err error) {
	s.log.Debug("command failed", zap.Error(err))
	s.printf("%s: %s\n", prefix, Describe(err))
}

// Describe turns a core error into a user-facing sentence.
func Describe(err error) string {
	switch clienterr.KindOf(err) {
	case clienterr.KindNetwork:
		return "cannot reach the server, check your connection"
	case clienterr.KindTimeout:
		return "the server took too long to answer"
	case clienterr.KindHTTP:
		var typed *clienterr.Error
		errors.As(err, &typed)
		var body models.ErrorResponse
		if json.Unmarshal(typed.Body, &body) == nil && body.Message != "" {
			return body.Message
		}
		return fmt.Sprintf("server answered %d", typed.Status)
	case clienterr.KindStorage:
		return "could not access saved credentials: " + err.Error()
	}
	return err.Error()
}
