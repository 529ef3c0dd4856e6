package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

// MemberStore authenticates member logins.  The MySQL users table and the
// env-seeded static store (memory backend) both satisfy it.
type MemberStore interface {
	Authenticate(ctx context.Context, email, password string) (userID string, err error)
}

// MemberRegistrar is the optional account-creation side of a member
// store.  The MySQL users table supports it; the static store does not.
type MemberRegistrar interface {
	Create(ctx context.Context, email, password string, cost int) (uint64, error)
}

// StaticMembers is a fixed in-process member list used when no database
// is configured.  Credentials are seeded from the environment at startup.
type StaticMembers struct {
	accounts map[string]staticAccount
}

type staticAccount struct {
	id   string
	hash string
}

// NewStaticMembers builds a single-account store.  An empty email or
// password yields a store that rejects every login.
func NewStaticMembers(email, password string, cost int) *StaticMembers {
	s := &StaticMembers{accounts: map[string]staticAccount{}}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return s
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return s
	}
	s.accounts[email] = staticAccount{id: email, hash: hash}
	return s
}

// Authenticate implements MemberStore.
func (s *StaticMembers) Authenticate(ctx context.Context, email, password string) (string, error) {
	acc, ok := s.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok || !utils.VerifyPassword(acc.hash, password) {
		return "", repository.ErrInvalidCredentials
	}
	return acc.id, nil
}

// SessionHandler issues the role tokens the booking engine consumes.  It
// is the entire authentication surface: member login and guest checkout.
type SessionHandler struct {
	Cfg     config.Config
	Members MemberStore
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(cfg config.Config, members MemberStore) *SessionHandler {
	if members == nil {
		panic("nil member store passed to NewSessionHandler")
	}
	return &SessionHandler{Cfg: cfg, Members: members}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /v1/auth/register.  Available only when the
// member store supports account creation; the static single-account
// store answers 501.
func (h *SessionHandler) Register(c echo.Context) error {
	reg, ok := h.Members.(MemberRegistrar)
	if !ok {
		return c.JSON(http.StatusNotImplemented, echo.Map{"error": "registration not available"})
	}
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || len(req.Password) < 4 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and a password of at least 4 characters are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := reg.Create(ctx, email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}
	log.Printf("member registered id=%d", id)
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "email": email})
}

// Login handles POST /v1/auth/login.  On valid credentials it returns a
// member access token.
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Members.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			log.Printf("login failed for %s", req.Email)
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	tok, err := utils.NewMemberToken(h.Cfg.JWTSecret, uid, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token":   tok.Value,
		"expires": tok.Exp,
		"role":    "member",
	})
}

type guestReq struct {
	Email string `json:"email"`
}

// GuestSession handles POST /v1/session/guest.  When guest checkout is
// enabled it issues a short-lived guest token; otherwise the caller is
// directed to log in.
func (h *SessionHandler) GuestSession(c echo.Context) error {
	if !h.Cfg.GuestCheckout {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "guest checkout disabled", "action": "login"})
	}
	var req guestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required for guest checkout"})
	}
	tok, err := utils.NewGuestToken(h.Cfg.JWTSecret, email, h.Cfg.GuestTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	log.Printf("guest checkout started for %s", email)
	return c.JSON(http.StatusCreated, echo.Map{
		"token":   tok.Value,
		"expires": tok.Exp,
		"role":    "guest",
	})
}
