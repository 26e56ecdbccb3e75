package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"trackmate/internal/cache"
)

var (
	ErrInvalidCredentials = errors.New("user: invalid credentials")
	ErrAlreadyExists      = errors.New("user: email or username already in use")
	ErrSelfBlock          = errors.New("user: cannot block yourself")
	ErrInvalidToken       = errors.New("user: invalid token")
)

const (
	tokenValidity   = 24 * time.Hour
	profileCacheTTL = 5 * time.Minute
)

// MessagePurger is the slice of the inbox store the account feature needs:
// blocking a user or deleting an account also purges the affected messages.
type MessagePurger interface {
	DeleteBetween(ctx context.Context, userA, userB string) error
	DeleteByUser(ctx context.Context, userID string) error
}

type Service struct {
	repo      *Repository
	cache     cache.Cache
	purger    MessagePurger
	jwtSecret string
	log       *logrus.Logger
}

type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

func NewService(repo *Repository, c cache.Cache, purger MessagePurger, jwtSecret string, log *logrus.Logger) *Service {
	return &Service{repo: repo, cache: c, purger: purger, jwtSecret: jwtSecret, log: log}
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	userName := strings.ToLower(strings.TrimSpace(req.UserName))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if userName == "" {
		return nil, errors.New("user: username is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, errors.New("user: invalid email")
	}
	if len(req.Password) < 8 {
		return nil, errors.New("user: password must be at least 8 characters long")
	}

	if taken, err := s.EmailAvailable(ctx, email); err != nil {
		return nil, err
	} else if !taken {
		return nil, ErrAlreadyExists
	}
	if taken, err := s.UserNameAvailable(ctx, userName); err != nil {
		return nil, err
	} else if !taken {
		return nil, ErrAlreadyExists
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:            uuid.NewString(),
		UserName:      userName,
		Email:         email,
		Password:      string(hashedPwd),
		ProfileAvatar: req.ProfileAvatar,
		Bike:          Bike{Name: "No Preference", Color: "#000"},
		Favorites:     []string{},
		Friends:       []string{},
		Blocked:       []string{},
		Owned:         []string{},
	}
	if req.Bike != nil {
		if req.Bike.Name != "" {
			u.Bike.Name = req.Bike.Name
		}
		if req.Bike.Color != "" {
			u.Bike.Color = req.Bike.Color
		}
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	return s.authResponse(u)
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	u, err := s.repo.ByEmailOrUsername(ctx, strings.TrimSpace(req.EmailOrUsername))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.authResponse(u)
}

func (s *Service) authResponse(u *User) (*AuthResponse, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: u.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "trackmate",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenValidity)),
		},
	})

	ss, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token:         ss,
		ID:            u.ID,
		Admin:         u.Admin,
		Email:         u.Email,
		ProfileAvatar: u.ProfileAvatar,
		UserName:      u.UserName,
		Bike:          u.Bike,
		Friends:       u.Friends,
		Favorites:     u.Favorites,
		Blocked:       u.Blocked,
		Owned:         u.Owned,
	}, nil
}

// ValidateToken decodes a signed token back to its user identity.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

func (s *Service) Account(ctx context.Context, id string) (*User, error) {
	return s.repo.ByID(ctx, id)
}

func (s *Service) AccountByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.ByEmail(ctx, email)
}

// Profiles returns the public slice of several users at once.
func (s *Service) Profiles(ctx context.Context, ids []string) ([]*Profile, error) {
	users, err := s.repo.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	profiles := make([]*Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, &Profile{ID: u.ID, UserName: u.UserName, ProfileAvatar: u.ProfileAvatar})
	}
	return profiles, nil
}

// Profile returns a user's public profile, served from the cache when warm.
// The inbox joins a profile onto every message it returns, so this path is
// the hottest read in the system.
func (s *Service) Profile(ctx context.Context, id string) (*Profile, error) {
	key := profileCacheKey(id)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		p := &Profile{}
		if err := json.Unmarshal([]byte(cached), p); err == nil {
			return p, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.WithError(err).Warn("profile cache read failed")
	}

	u, err := s.repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := &Profile{ID: u.ID, UserName: u.UserName, ProfileAvatar: u.ProfileAvatar}

	if raw, err := json.Marshal(p); err == nil {
		if err := s.cache.Set(ctx, key, string(raw), profileCacheTTL); err != nil {
			s.log.WithError(err).Warn("profile cache write failed")
		}
	}
	return p, nil
}

// Delivery returns the messaging delivery view of a user.
func (s *Service) Delivery(ctx context.Context, id string) (*DeliveryInfo, error) {
	u, err := s.repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DeliveryInfo{UserName: u.UserName, PushToken: u.PushToken, Blocked: u.Blocked}, nil
}

// PushTargetsForTrack resolves announcement recipients for a track.
func (s *Service) PushTargetsForTrack(ctx context.Context, trackID string) ([]string, error) {
	return s.repo.PushTokensByFavoriteTrack(ctx, trackID)
}

// AccountUpdate enumerates the fields a client may change. Nil means
// "leave unchanged".
type AccountUpdate struct {
	PushToken     *string  `json:"pushToken"`
	ProfileAvatar *string  `json:"profileAvatar"`
	Bike          *Bike    `json:"userBike"`
	Favorites     []string `json:"favorites"`
	Friends       []string `json:"friendsId"`
	Blocked       []string `json:"blocked"`
	Owned         []string `json:"owned"`
}

// UpdateAccount applies an enumerated set of field updates. Newly blocked
// users are dropped from the friends list and the pair's messages purged.
func (s *Service) UpdateAccount(ctx context.Context, email string, upd *AccountUpdate) (*User, error) {
	u, err := s.repo.ByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if upd.Blocked != nil {
		if slices.Contains(upd.Blocked, u.ID) {
			return nil, ErrSelfBlock
		}
		for _, blockedID := range upd.Blocked {
			u.Friends = slices.DeleteFunc(u.Friends, func(id string) bool { return id == blockedID })
			if err := s.purger.DeleteBetween(ctx, u.ID, blockedID); err != nil {
				return nil, fmt.Errorf("purge blocked conversation: %w", err)
			}
		}
		u.Blocked = upd.Blocked
	}

	if upd.PushToken != nil {
		u.PushToken = *upd.PushToken
	}
	if upd.ProfileAvatar != nil {
		u.ProfileAvatar = *upd.ProfileAvatar
	}
	if upd.Bike != nil {
		u.Bike = *upd.Bike
	}
	if upd.Favorites != nil {
		u.Favorites = upd.Favorites
	}
	if upd.Friends != nil {
		u.Friends = upd.Friends
	}
	if upd.Owned != nil {
		u.Owned = upd.Owned
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	if err := s.cache.Del(ctx, profileCacheKey(u.ID)); err != nil {
		s.log.WithError(err).Warn("profile cache invalidation failed")
	}
	return u, nil
}

// DeleteAccount removes the user and every conversation they took part in.
func (s *Service) DeleteAccount(ctx context.Context, u *User) error {
	if err := s.purger.DeleteByUser(ctx, u.ID); err != nil {
		return fmt.Errorf("purge conversations: %w", err)
	}
	if err := s.repo.Delete(ctx, u.ID); err != nil {
		return err
	}
	if err := s.cache.Del(ctx, profileCacheKey(u.ID)); err != nil {
		s.log.WithError(err).Warn("profile cache invalidation failed")
	}
	return nil
}

// EmailAvailable and UserNameAvailable report whether an identifier is free.
func (s *Service) EmailAvailable(ctx context.Context, email string) (bool, error) {
	exists, err := s.repo.EmailExists(ctx, email)
	return !exists, err
}

func (s *Service) UserNameAvailable(ctx context.Context, userName string) (bool, error) {
	exists, err := s.repo.UserNameExists(ctx, userName)
	return !exists, err
}

func (s *Service) Search(ctx context.Context, query string) ([]*User, error) {
	return s.repo.Search(ctx, query)
}

func profileCacheKey(id string) string {
	return "profile:" + id
}
