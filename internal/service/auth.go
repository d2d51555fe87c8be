// Package service provides the development backend's authentication and
// profile logic, delegating persistence to a UserRepository.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidyasetu/vidyasetu/internal/models"
	"github.com/vidyasetu/vidyasetu/internal/repository"
)

// Errors mapped to HTTP statuses by the handlers.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidOTP         = errors.New("invalid or expired code")
	ErrNotFound           = errors.New("user not found")
	ErrUnauthorized       = errors.New("not authorized")
)

const (
	// OTPTTL is how long a reset code stays valid.
	OTPTTL = 10 * time.Minute
	// MinPasswordLength applies to new passwords.
	MinPasswordLength = 6
	// MaxPhotoSize bounds profile photo uploads.
	MaxPhotoSize = 5 << 20
	// UploadURLPrefix is prepended to stored photo names.
	UploadURLPrefix = "/uploads/"
)

// UserRepository defines the persistence operations required by AuthService.
type UserRepository interface {
	FindByIdentifier(ctx context.Context, identifier string) (models.Account, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	CreateUser(ctx context.Context, acct models.Account) error
	UpdateProfile(ctx context.Context, u models.User) error
	UpdatePassword(ctx context.Context, email, hash string) error
	CreateSession(ctx context.Context, token, userID string) error
	UserIDForToken(ctx context.Context, token string) (string, error)
	SaveResetCode(ctx context.Context, email, code string, expiresAt time.Time) error
	ConsumeResetCode(ctx context.Context, email, code string, now time.Time) (bool, error)
}

// CodeSender delivers password reset codes.
type CodeSender interface {
	SendResetCode(ctx context.Context, email, code string) error
}

// LogCodeSender writes reset codes to the log instead of mailing them.
type LogCodeSender struct {
	Log *zap.Logger
}

func (s LogCodeSender) SendResetCode(_ context.Context, email, code string) error {
	s.Log.Info("password reset code issued", zap.String("email", email), zap.String("code", code))
	return nil
}

// AuthService implements login, password reset and profile operations.
type AuthService struct {
	repo      UserRepository
	sender    CodeSender
	uploadDir string

	now     func() time.Time
	newCode func() (string, error)
}

// NewAuthService constructs an AuthService. Photos are written to uploadDir.
func NewAuthService(repo UserRepository, sender CodeSender, uploadDir string) *AuthService {
	return &AuthService{
		repo:      repo,
		sender:    sender,
		uploadDir: uploadDir,
		now:       time.Now,
		newCode:   randomCode,
	}
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Login checks the password of the user identified by e-mail or id and
// issues a new bearer token.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (string, models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return "", models.User{}, ErrInvalidInput
	}

	acct, err := s.repo.FindByIdentifier(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		return "", models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return "", models.User{}, ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := s.repo.CreateSession(ctx, token, acct.ID); err != nil {
		return "", models.User{}, err
	}
	return token, acct.User, nil
}

// EnsureUser creates u with password unless the id already exists.
func (s *AuthService) EnsureUser(ctx context.Context, u models.User, password string) error {
	if strings.TrimSpace(u.ID) == "" || !u.Role.Valid() || len(password) < MinPasswordLength {
		return ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.CreateUser(ctx, models.Account{User: u, PasswordHash: string(hash)})
}

// SendOTP issues a reset code for the account registered under email.
func (s *AuthService) SendOTP(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrInvalidInput
	}

	acct, err := s.repo.FindByIdentifier(ctx, email)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !strings.EqualFold(acct.Email, email)) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	code, err := s.newCode()
	if err != nil {
		return err
	}
	if err := s.repo.SaveResetCode(ctx, email, code, s.now().Add(OTPTTL)); err != nil {
		return err
	}
	return s.sender.SendResetCode(ctx, acct.Email, code)
}

// ResetPassword consumes a valid code and replaces the password.
func (s *AuthService) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	email, otp = strings.TrimSpace(email), strings.TrimSpace(otp)
	if email == "" || otp == "" || len(newPassword) < MinPasswordLength {
		return ErrInvalidInput
	}

	ok, err := s.repo.ConsumeResetCode(ctx, email, otp, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidOTP
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	err = s.repo.UpdatePassword(ctx, email, string(hash))
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// Authenticate resolves a bearer token to a user id.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	id, err := s.repo.UserIDForToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrUnauthorized
	}
	return id, err
}

// Profile returns the full record of userID.
func (s *AuthService) Profile(ctx context.Context, userID string) (models.User, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.User{}, ErrNotFound
	}
	return u, err
}

// ProfileUpdate carries the fields present in an update request; nil
// fields keep their stored value.
type ProfileUpdate struct {
	Name           *string
	ContactNumber  *string
	WhatsappNumber *string
	Address        *string
	Qualifications *string
	Subject        *string
	CoachingName   *string
}

func (p ProfileUpdate) apply(u *models.User) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&u.Name, p.Name)
	set(&u.ContactNumber, p.ContactNumber)
	set(&u.WhatsappNumber, p.WhatsappNumber)
	set(&u.Address, p.Address)
	set(&u.Qualifications, p.Qualifications)
	set(&u.Subject, p.Subject)
	set(&u.CoachingName, p.CoachingName)
}

// Upload is a received file.
type Upload struct {
	Filename string
	Data     []byte
}

// UpdateProfile applies upd and an optional photo to userID and returns the
// complete stored record. Id, role and e-mail never change here.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate, photo *Upload) (models.User, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	upd.apply(&u)
	if upd.Name != nil && u.Name == "" {
		return models.User{}, ErrInvalidInput
	}

	if photo != nil {
		ref, err := s.savePhoto(photo)
		if err != nil {
			return models.User{}, err
		}
		u.ProfilePhoto = ref
	}

	err = s.repo.UpdateProfile(ctx, u)
	if errors.Is(err, repository.ErrNotFound) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *AuthService) savePhoto(photo *Upload) (string, error) {
	if len(photo.Data) == 0 || len(photo.Data) > MaxPhotoSize {
		return "", ErrInvalidInput
	}
	ext := strings.ToLower(filepath.Ext(photo.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	name := uuid.NewString() + ext

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.uploadDir, name), photo.Data, 0o644); err != nil {
		return "", fmt.Errorf("save photo: %w", err)
	}
	return UploadURLPrefix + name, nil
}
