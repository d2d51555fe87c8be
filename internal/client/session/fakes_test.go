package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/vidyasetu/vidyasetu/internal/client/credstore"
	"github.com/vidyasetu/vidyasetu/internal/models"
)

// fakeAuth answers Authenticator calls from canned values.
type fakeAuth struct {
	mu         sync.Mutex
	loginResp  models.LoginResponse
	loginErr   error
	resetResp  models.ResetPasswordResponse
	resetErr   error
	otpErr     error
	profile    models.User
	profileErr error
	// profileGate, when set, holds Profile until it is closed; profileStarted
	// is signalled once the call is in flight.
	profileGate    chan struct{}
	profileStarted chan struct{}

	loginCalls   atomic.Int32
	profileCalls atomic.Int32
}

func (f *fakeAuth) Login(_ context.Context, _, _ string) (models.LoginResponse, error) {
	f.loginCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginResp, f.loginErr
}

func (f *fakeAuth) SendOTP(context.Context, string) error {
	return f.otpErr
}

func (f *fakeAuth) ResetPassword(context.Context, string, string, string) (models.ResetPasswordResponse, error) {
	return f.resetResp, f.resetErr
}

func (f *fakeAuth) Profile(ctx context.Context, _ string) (models.User, error) {
	f.profileCalls.Add(1)
	if f.profileGate != nil {
		if f.profileStarted != nil {
			f.profileStarted <- struct{}{}
		}
		select {
		case <-f.profileGate:
		case <-ctx.Done():
			return models.User{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profile, f.profileErr
}

func (f *fakeAuth) respondWith(token string, user models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginResp = models.LoginResponse{Token: token, User: &user}
}

// faultyStore wraps a real store and fails selected operations.
type faultyStore struct {
	credstore.Store

	mu        sync.Mutex
	getErr    error
	setErr    map[string]error
	removeErr error
}

func newFaultyStore() *faultyStore {
	return &faultyStore{Store: credstore.NewMemory(), setErr: map[string]error{}}
}

func (s *faultyStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	err := s.getErr
	s.mu.Unlock()
	if err != nil {
		return "", false, err
	}
	return s.Store.Get(ctx, key)
}

func (s *faultyStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	err := s.setErr[key]
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Store.Set(ctx, key, value)
}

func (s *faultyStore) RemoveMany(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	err := s.removeErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Store.RemoveMany(ctx, keys...)
}

func (s *faultyStore) failRemove(err error) {
	s.mu.Lock()
	s.removeErr = err
	s.mu.Unlock()
}

var errDisk = errors.New("disk unavailable")

func teacher() models.User {
	return models.User{
		ID:            "t1",
		Role:          models.RoleTeacher,
		Name:          "Asha",
		Email:         "asha@example.com",
		ContactNumber: "9876543210",
		Subject:       "Physics",
	}
}
