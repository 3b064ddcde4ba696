package service

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/anirpro14/tidykitty/internal/model"
	"github.com/anirpro14/tidykitty/internal/store"
)

// SessionService issues kiosk-style sessions: a user picks their profile and
// enters a PIN if one is set.
type SessionService struct {
	users    *store.UserStore
	sessions *store.SessionStore
	logger   *slog.Logger
	pinCost  int
}

func NewSessionService(us *store.UserStore, ss *store.SessionStore, logger *slog.Logger) *SessionService {
	return &SessionService{users: us, sessions: ss, logger: logger, pinCost: bcrypt.DefaultCost}
}

// RegisterInput describes a new standalone user. Children normally join
// through FamilyService.AddChild or an invite code instead.
type RegisterInput struct {
	Name    string     `json:"name"`
	Avatar  string     `json:"avatar"`
	Role    model.Role `json:"role"`
	FunFact string     `json:"fun_fact"`
	PIN     string     `json:"pin"`
}

// Register creates a user and signs them in.
func (s *SessionService) Register(in RegisterInput) (*model.User, *model.Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, nil, invalid("name", "is required")
	}
	if in.Role == "" {
		in.Role = model.RoleParent
	}
	if !in.Role.Valid() {
		return nil, nil, invalid("role", "must be parent or child")
	}
	if in.Role == model.RoleParent && in.PIN == "" {
		return nil, nil, invalid("pin", "is required for parents")
	}
	hash, err := s.hashPIN(in.PIN)
	if err != nil {
		return nil, nil, err
	}

	u, err := s.users.Create(model.User{
		Name: in.Name, Avatar: in.Avatar, Role: in.Role, FunFact: strings.TrimSpace(in.FunFact),
	}, hash)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.sessions.Create(u.ID)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("user registered", "user_id", u.ID, "role", u.Role)
	return u, sess, nil
}

// Login opens a session for userID. A child without a PIN signs in with an
// empty one.
func (s *SessionService) Login(userID, pin string) (*model.User, *model.Session, error) {
	u, err := loadUser(s.users.GetByID, userID)
	if err != nil {
		return nil, nil, err
	}
	hash, err := s.users.PINHash(u.ID)
	if err != nil {
		return nil, nil, err
	}
	if hash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
			s.logger.Warn("login failed", "user_id", u.ID)
			return nil, nil, ErrIncorrectPIN
		}
	}
	sess, err := s.sessions.Create(u.ID)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("user logged in", "user_id", u.ID)
	return u, sess, nil
}

// Authenticate resolves a session token. It returns nils for unknown or
// expired tokens and for sessions whose user was deleted.
func (s *SessionService) Authenticate(token string) (*model.User, *model.Session, error) {
	if token == "" {
		return nil, nil, nil
	}
	sess, err := s.sessions.GetByToken(token)
	if err != nil || sess == nil {
		return nil, nil, err
	}
	u, err := s.users.GetByID(sess.UserID)
	if err != nil || u == nil {
		return nil, nil, err
	}
	return u, sess, nil
}

func (s *SessionService) Logout(sessionID string) error {
	return s.sessions.Delete(sessionID)
}

// SetPIN replaces the user's PIN and revokes every session it guarded. The
// returned session replaces the caller's. An empty pin clears it; parents
// must keep one.
func (s *SessionService) SetPIN(userID, pin string) (*model.User, *model.Session, error) {
	u, err := loadUser(s.users.GetByID, userID)
	if err != nil {
		return nil, nil, err
	}
	if pin == "" && u.Role == model.RoleParent {
		return nil, nil, invalid("pin", "is required for parents")
	}
	hash, err := s.hashPIN(pin)
	if err != nil {
		return nil, nil, err
	}
	if err := s.users.SetPIN(userID, hash); err != nil {
		return nil, nil, err
	}
	if err := s.sessions.DeleteByUserID(userID); err != nil {
		return nil, nil, err
	}
	sess, err := s.sessions.Create(userID)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("pin changed", "user_id", userID, "cleared", pin == "")
	u.HasPIN = hash != ""
	return u, sess, nil
}

// Cleanup removes expired sessions.
func (s *SessionService) Cleanup() (int64, error) {
	return s.sessions.DeleteExpired()
}

func (s *SessionService) hashPIN(pin string) (string, error) {
	return hashPIN(pin, s.pinCost)
}

func hashPIN(pin string, cost int) (string, error) {
	if pin == "" {
		return "", nil
	}
	if len(pin) != 4 || !isDigits(pin) {
		return "", invalid("pin", "must be exactly 4 digits")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), cost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(hash), nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
