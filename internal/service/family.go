package service

import (
	"errors"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/anirpro14/tidykitty/internal/ledger"
	"github.com/anirpro14/tidykitty/internal/model"
	"github.com/anirpro14/tidykitty/internal/store"
	"github.com/anirpro14/tidykitty/internal/websocket"
)

const maxNameLength = 50

// FamilyService is the family directory: creating and joining families,
// adding child profiles and ranking members.
type FamilyService struct {
	users    *store.UserStore
	families *store.FamilyStore
	pub      Publisher
	clock    Clock
	logger   *slog.Logger
	pinCost  int
}

func NewFamilyService(us *store.UserStore, fs *store.FamilyStore, pub Publisher, clock Clock, logger *slog.Logger) *FamilyService {
	return &FamilyService{users: us, families: fs, pub: pub, clock: clock, logger: logger, pinCost: bcrypt.DefaultCost}
}

func (s *FamilyService) GetFamily(id string) (*model.Family, error) {
	if id == "" {
		return nil, notFound("family")
	}
	f, err := s.families.GetByID(id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, notFound("family")
	}
	return f, nil
}

// CreateFamily makes a new family owned by a parent who has none yet.
func (s *FamilyService) CreateFamily(name, ownerID string) (*model.Family, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	owner, err := loadUser(s.users.GetByID, ownerID)
	if err != nil {
		return nil, err
	}
	if !owner.IsParent() {
		return nil, ledger.ErrNotAuthorized
	}
	if owner.FamilyID != "" {
		return nil, invalid("family_id", "already in a family")
	}

	f, err := s.families.Create(name, owner.ID)
	if errors.Is(err, store.ErrAlreadyInFamily) {
		return nil, invalid("family_id", "already in a family")
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("family created", "family_id", f.ID, "owner_id", owner.ID)
	return f, nil
}

// JoinFamily adds userID to the family behind inviteCode. Children are
// linked to the family owner as their parent.
func (s *FamilyService) JoinFamily(inviteCode, userID string) (*model.Family, error) {
	code := store.NormalizeInviteCode(inviteCode)
	if code == "" {
		return nil, ledger.ErrInvalidCode
	}
	u, err := loadUser(s.users.GetByID, userID)
	if err != nil {
		return nil, err
	}
	f, err := s.families.GetByInviteCode(code)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ledger.ErrInvalidCode
	}
	if u.FamilyID == f.ID {
		return f, nil
	}
	if u.FamilyID != "" {
		return nil, invalid("family_id", "already in a family")
	}

	parentID := ""
	if u.Role == model.RoleChild {
		parentID = f.OwnerID
	}
	if err := s.users.Join(u.ID, f.ID, parentID); err != nil {
		if errors.Is(err, store.ErrAlreadyInFamily) {
			return nil, invalid("family_id", "already in a family")
		}
		return nil, err
	}

	s.logger.Info("family joined", "family_id", f.ID, "user_id", u.ID, "role", u.Role)
	publish(s.pub, f.ID, websocket.NewMessage("member", "joined", u.ID, map[string]any{"name": u.Name}))
	return s.GetFamily(f.ID)
}

// AddChildInput describes a child profile a parent creates directly.
type AddChildInput struct {
	Name    string `json:"name"`
	Avatar  string `json:"avatar"`
	FunFact string `json:"fun_fact"`
	PIN     string `json:"pin"`
}

// AddChild creates a child profile inside the parent's family.
func (s *FamilyService) AddChild(parentID string, in AddChildInput) (*model.User, error) {
	parent, err := loadUser(s.users.GetByID, parentID)
	if err != nil {
		return nil, err
	}
	if !parent.IsParent() || parent.FamilyID == "" {
		return nil, ledger.ErrNotAuthorized
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, invalid("name", "is required")
	}
	hash, err := hashPIN(in.PIN, s.pinCost)
	if err != nil {
		return nil, err
	}

	child, err := s.users.Create(model.User{
		Name:     in.Name,
		Avatar:   in.Avatar,
		Role:     model.RoleChild,
		FamilyID: parent.FamilyID,
		ParentID: parent.ID,
		FunFact:  strings.TrimSpace(in.FunFact),
	}, hash)
	if err != nil {
		return nil, err
	}

	s.logger.Info("child added", "family_id", parent.FamilyID, "user_id", child.ID, "parent_id", parent.ID)
	publish(s.pub, parent.FamilyID, websocket.NewMessage("member", "joined", child.ID, map[string]any{"name": child.Name}))
	return child, nil
}

// RenameFamily changes the family name. Only parents of the family may.
func (s *FamilyService) RenameFamily(parentID, name string) (*model.Family, error) {
	parent, err := loadUser(s.users.GetByID, parentID)
	if err != nil {
		return nil, err
	}
	if !parent.IsParent() || parent.FamilyID == "" {
		return nil, ledger.ErrNotAuthorized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	if _, err := s.families.UpdateName(parent.FamilyID, name); err != nil {
		return nil, err
	}
	s.logger.Info("family renamed", "family_id", parent.FamilyID, "by", parent.ID)
	publish(s.pub, parent.FamilyID, websocket.NewMessage("family", "updated", parent.FamilyID, map[string]any{"name": name}))
	return s.GetFamily(parent.FamilyID)
}

// RemoveChild deletes a child profile from the parent's family, with its
// sessions, badges, redemptions and suggestions. Tasks it held become
// unassigned.
func (s *FamilyService) RemoveChild(parentID, childID string) error {
	parent, err := loadUser(s.users.GetByID, parentID)
	if err != nil {
		return err
	}
	if !parent.IsParent() || parent.FamilyID == "" {
		return ledger.ErrNotAuthorized
	}
	child, err := loadUser(s.users.GetByID, childID)
	if err != nil {
		return err
	}
	if child.FamilyID != parent.FamilyID {
		return notFound("user")
	}
	if child.Role != model.RoleChild {
		return invalid("user_id", "only child profiles can be removed")
	}
	if err := s.users.Delete(child.ID); err != nil {
		return err
	}
	s.logger.Info("child removed", "family_id", parent.FamilyID, "user_id", child.ID, "by", parent.ID)
	disconnect(s.pub, child.ID)
	publish(s.pub, parent.FamilyID, websocket.NewMessage("member", "removed", child.ID, nil))
	return nil
}

// ProfileInput holds the fields a user may edit on their own profile.
type ProfileInput struct {
	Name    string `json:"name"`
	Avatar  string `json:"avatar"`
	FunFact string `json:"fun_fact"`
}

// UpdateProfile edits the user's own name, avatar and fun fact.
func (s *FamilyService) UpdateProfile(userID string, in ProfileInput) (*model.User, error) {
	if _, err := loadUser(s.users.GetByID, userID); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, invalid("name", "is required")
	}
	if utf8.RuneCountInString(in.Name) > maxNameLength {
		return nil, invalid("name", "is too long")
	}
	u, err := s.users.UpdateProfile(userID, in.Name, strings.TrimSpace(in.Avatar), strings.TrimSpace(in.FunFact))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, notFound("user")
	}
	if u.FamilyID != "" {
		publish(s.pub, u.FamilyID, websocket.NewMessage("user", "updated", u.ID, map[string]any{"name": u.Name, "avatar": u.Avatar}))
	}
	return u, nil
}

// RotateInviteCode issues a new invite code; the old one stops working.
func (s *FamilyService) RotateInviteCode(parentID string) (string, error) {
	parent, err := loadUser(s.users.GetByID, parentID)
	if err != nil {
		return "", err
	}
	if !parent.IsParent() || parent.FamilyID == "" {
		return "", ledger.ErrNotAuthorized
	}
	code, err := s.families.RotateInviteCode(parent.FamilyID)
	if err != nil {
		return "", err
	}
	if code == "" {
		return "", notFound("family")
	}
	s.logger.Info("invite code rotated", "family_id", parent.FamilyID, "by", parent.ID)
	return code, nil
}

// Leaderboard ranks the family by lifetime experience, then by name.
// Members with equal experience share a rank.
func (s *FamilyService) Leaderboard(familyID string) ([]model.LeaderboardEntry, error) {
	f, err := s.GetFamily(familyID)
	if err != nil {
		return nil, err
	}
	members := f.Members
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].ExperiencePoints != members[j].ExperiencePoints {
			return members[i].ExperiencePoints > members[j].ExperiencePoints
		}
		return members[i].Name < members[j].Name
	})

	today := s.clock.Now()
	entries := make([]model.LeaderboardEntry, 0, len(members))
	for i, m := range members {
		rank := i + 1
		if i > 0 && m.ExperiencePoints == members[i-1].ExperiencePoints {
			rank = entries[i-1].Rank
		}
		entries = append(entries, model.LeaderboardEntry{
			Rank:             rank,
			UserID:           m.ID,
			Name:             m.Name,
			Avatar:           m.Avatar,
			Role:             m.Role,
			Level:            m.Level,
			ExperiencePoints: m.ExperiencePoints,
			WalletBalance:    m.WalletBalance,
			Streak:           ledger.EffectiveStreak(m.Streak, m.LastCompletedOn, ledger.CalendarDay(today)),
		})
	}
	return entries, nil
}
