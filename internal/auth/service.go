package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"slpportal/internal/people"
)

// Business outcomes surfaced through the action envelope.
var (
	ErrBadCredentials = errors.New("incorrect email or password")
	ErrEmailTaken     = errors.New("an account with this email already exists")
)

// UserStore is the slice of the user repository the auth service needs.
type UserStore interface {
	Create(ctx context.Context, u people.User) (people.User, error)
	ByEmail(ctx context.Context, email string) (people.User, error)
	ByID(ctx context.Context, id string) (people.User, error)
}

// Principal is the authenticated identity handed to the client at login.
// The token is opaque to the client; only the backend interprets it.
type Principal struct {
	UserID       string `json:"userId"`
	FullName     string `json:"fullName"`
	Role         string `json:"role"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phoneNumber"`
	MatricNumber string `json:"matricNumber,omitempty"`
	EmployeeID   string `json:"employeeId,omitempty"`
	YearCourse   string `json:"yearCourse,omitempty"`
	Token        string `json:"token"`
}

// Service issues and validates portal credentials.
type Service struct {
	users    UserStore
	issuer   string
	key      string
	tokenTTL time.Duration
}

// NewService creates the auth service.
func NewService(users UserStore, issuer, signingKey string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &Service{users: users, issuer: issuer, key: signingKey, tokenTTL: tokenTTL}
}

// Login checks credentials and returns a principal with a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (Principal, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return Principal{}, ErrBadCredentials
	}
	usr, err := s.users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, people.ErrNotFound) {
			return Principal{}, ErrBadCredentials
		}
		return Principal{}, err
	}
	if !CheckPassword(password, usr.PasswordHash) {
		return Principal{}, ErrBadCredentials
	}
	token, _, err := IssueToken(usr.ID, usr.Role, s.issuer, s.key, s.tokenTTL)
	if err != nil {
		return Principal{}, err
	}
	return principalFor(usr, token), nil
}

// SignUpInput carries a registration form.
type SignUpInput struct {
	Role         string
	FullName     string
	Email        string
	PhoneNumber  string
	Password     string
	MatricNumber string
	EmployeeID   string
	Year         string
	Course       string
}

// SignUp registers a new student or supervisor account.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (people.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	switch {
	case in.Role != people.RoleStudent && in.Role != people.RoleSupervisor:
		return people.User{}, errors.New("role must be Student or Supervisor")
	case in.FullName == "":
		return people.User{}, errors.New("full name is required")
	case in.Email == "":
		return people.User{}, errors.New("email is required")
	case in.Role == people.RoleStudent && strings.TrimSpace(in.MatricNumber) == "":
		return people.User{}, errors.New("matric number is required")
	case in.Role == people.RoleSupervisor && strings.TrimSpace(in.EmployeeID) == "":
		return people.User{}, errors.New("employee ID is required")
	}
	if _, err := s.users.ByEmail(ctx, in.Email); err == nil {
		return people.User{}, ErrEmailTaken
	} else if !errors.Is(err, people.ErrNotFound) {
		return people.User{}, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return people.User{}, err
	}
	yearCourse := strings.TrimSpace(strings.TrimSpace(in.Year) + " " + strings.TrimSpace(in.Course))
	return s.users.Create(ctx, people.User{
		Role:         in.Role,
		FullName:     in.FullName,
		Email:        in.Email,
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		MatricNumber: strings.TrimSpace(in.MatricNumber),
		EmployeeID:   strings.TrimSpace(in.EmployeeID),
		YearCourse:   yearCourse,
		PasswordHash: hash,
	})
}

// Validate reports whether (userID, token) is a currently valid pair.
// A false result means the token is invalid, expired, or belongs to
// someone else; errors are reserved for backend faults.
func (s *Service) Validate(ctx context.Context, userID, token string) (bool, error) {
	claims, err := ParseToken(token, s.key, s.issuer)
	if err != nil {
		return false, nil
	}
	if claims.Subject != userID {
		return false, nil
	}
	if _, err := s.users.ByID(ctx, userID); err != nil {
		if errors.Is(err, people.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Authenticate resolves a bearer token into the claims it carries.
func (s *Service) Authenticate(tokenStr string) (Claims, error) {
	return ParseToken(tokenStr, s.key, s.issuer)
}

func principalFor(u people.User, token string) Principal {
	return Principal{
		UserID:       u.ID,
		FullName:     u.FullName,
		Role:         u.Role,
		Email:        u.Email,
		PhoneNumber:  u.PhoneNumber,
		MatricNumber: u.MatricNumber,
		EmployeeID:   u.EmployeeID,
		YearCourse:   u.YearCourse,
		Token:        token,
	}
}
