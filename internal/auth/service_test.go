package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"slpportal/internal/people"
)

// memUsers is an in-memory UserStore.
type memUsers struct {
	byEmail  map[string]people.User
	byID     map[string]people.User
	nextID   int
	failWith error
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: make(map[string]people.User), byID: make(map[string]people.User)}
}

func (m *memUsers) Create(_ context.Context, u people.User) (people.User, error) {
	m.nextID++
	u.ID = string(rune('a' + m.nextID))
	m.byEmail[u.Email] = u
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) ByEmail(_ context.Context, email string) (people.User, error) {
	if m.failWith != nil {
		return people.User{}, m.failWith
	}
	u, ok := m.byEmail[email]
	if !ok {
		return people.User{}, people.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) ByID(_ context.Context, id string) (people.User, error) {
	if m.failWith != nil {
		return people.User{}, m.failWith
	}
	u, ok := m.byID[id]
	if !ok {
		return people.User{}, people.ErrNotFound
	}
	return u, nil
}

const testKey = "test-signing-key"

func seedStudent(t *testing.T, users *memUsers, email, password string) people.User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	u, err := users.Create(context.Background(), people.User{
		Role:         people.RoleStudent,
		FullName:     "Ade Bello",
		Email:        email,
		MatricNumber: "SLP/21/001",
		PasswordHash: hash,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return u
}

func TestIssueAndParseToken(t *testing.T) {
	token, exp, err := IssueToken("user-1", people.RoleStudent, "slp-portal", testKey, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry %v is not in the future", exp)
	}
	claims, err := ParseToken(token, testKey, "slp-portal")
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "user-1" || claims.Role != people.RoleStudent {
		t.Errorf("claims = %+v, want subject user-1 role Student", claims)
	}
}

func TestParseTokenRejections(t *testing.T) {
	token, _, err := IssueToken("user-1", people.RoleStudent, "slp-portal", testKey, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	expired, _, err := IssueToken("user-1", people.RoleStudent, "slp-portal", testKey, -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	tests := []struct {
		name   string
		token  string
		key    string
		issuer string
	}{
		{"wrong key", token, "other-key", "slp-portal"},
		{"wrong issuer", token, testKey, "someone-else"},
		{"expired", expired, testKey, "slp-portal"},
		{"garbage", "not-a-token", testKey, "slp-portal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(tt.token, tt.key, tt.issuer); err == nil {
				t.Error("ParseToken() accepted an invalid token")
			}
		})
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash equals the plaintext")
	}
	if !CheckPassword("s3cret-pass", hash) {
		t.Error("CheckPassword() rejected the right password")
	}
	if CheckPassword("wrong", hash) {
		t.Error("CheckPassword() accepted the wrong password")
	}
}

func TestLogin(t *testing.T) {
	users := newMemUsers()
	seedStudent(t, users, "ade@example.edu", "s3cret-pass")
	svc := NewService(users, "slp-portal", testKey, time.Hour)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		p, err := svc.Login(ctx, "Ade@Example.edu", "s3cret-pass")
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if p.Token == "" {
			t.Error("principal has no token")
		}
		if p.Role != people.RoleStudent || p.FullName != "Ade Bello" {
			t.Errorf("principal = %+v", p)
		}
	})
	t.Run("wrong password", func(t *testing.T) {
		if _, err := svc.Login(ctx, "ade@example.edu", "nope"); !errors.Is(err, ErrBadCredentials) {
			t.Fatalf("Login() error = %v, want ErrBadCredentials", err)
		}
	})
	t.Run("unknown email", func(t *testing.T) {
		if _, err := svc.Login(ctx, "ghost@example.edu", "s3cret-pass"); !errors.Is(err, ErrBadCredentials) {
			t.Fatalf("Login() error = %v, want ErrBadCredentials", err)
		}
	})
	t.Run("blank fields", func(t *testing.T) {
		if _, err := svc.Login(ctx, "", ""); !errors.Is(err, ErrBadCredentials) {
			t.Fatalf("Login() error = %v, want ErrBadCredentials", err)
		}
	})
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()

	valid := SignUpInput{
		Role:         people.RoleStudent,
		FullName:     "Chioma Eze",
		Email:        "chioma@example.edu",
		Password:     "s3cret-pass",
		MatricNumber: "SLP/21/002",
		Year:         "Year 3",
		Course:       "Speech Pathology",
	}

	t.Run("student success", func(t *testing.T) {
		svc := NewService(newMemUsers(), "slp-portal", testKey, time.Hour)
		u, err := svc.SignUp(ctx, valid)
		if err != nil {
			t.Fatalf("SignUp() error = %v", err)
		}
		if u.YearCourse != "Year 3 Speech Pathology" {
			t.Errorf("yearCourse = %q", u.YearCourse)
		}
		if u.PasswordHash == "" || u.PasswordHash == "s3cret-pass" {
			t.Error("password not hashed")
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		users := newMemUsers()
		svc := NewService(users, "slp-portal", testKey, time.Hour)
		if _, err := svc.SignUp(ctx, valid); err != nil {
			t.Fatalf("first SignUp() error = %v", err)
		}
		if _, err := svc.SignUp(ctx, valid); !errors.Is(err, ErrEmailTaken) {
			t.Fatalf("second SignUp() error = %v, want ErrEmailTaken", err)
		}
	})

	rejects := []struct {
		name   string
		mutate func(*SignUpInput)
	}{
		{"bad role", func(in *SignUpInput) { in.Role = people.RoleAdmin }},
		{"missing name", func(in *SignUpInput) { in.FullName = "  " }},
		{"missing email", func(in *SignUpInput) { in.Email = "" }},
		{"student without matric", func(in *SignUpInput) { in.MatricNumber = "" }},
		{"supervisor without employee id", func(in *SignUpInput) {
			in.Role = people.RoleSupervisor
			in.EmployeeID = ""
		}},
	}
	for _, tt := range rejects {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newMemUsers(), "slp-portal", testKey, time.Hour)
			in := valid
			tt.mutate(&in)
			if _, err := svc.SignUp(ctx, in); err == nil {
				t.Error("SignUp() accepted invalid input")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	users := newMemUsers()
	u := seedStudent(t, users, "ade@example.edu", "s3cret-pass")
	svc := NewService(users, "slp-portal", testKey, time.Hour)
	ctx := context.Background()

	token, _, err := IssueToken(u.ID, u.Role, "slp-portal", testKey, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	t.Run("valid pair", func(t *testing.T) {
		ok, err := svc.Validate(ctx, u.ID, token)
		if err != nil || !ok {
			t.Fatalf("Validate() = %v, %v; want true, nil", ok, err)
		}
	})
	t.Run("subject mismatch", func(t *testing.T) {
		ok, err := svc.Validate(ctx, "someone-else", token)
		if err != nil || ok {
			t.Fatalf("Validate() = %v, %v; want false, nil", ok, err)
		}
	})
	t.Run("malformed token", func(t *testing.T) {
		ok, err := svc.Validate(ctx, u.ID, "garbage")
		if err != nil || ok {
			t.Fatalf("Validate() = %v, %v; want false, nil", ok, err)
		}
	})
	t.Run("expired token", func(t *testing.T) {
		old, _, err := IssueToken(u.ID, u.Role, "slp-portal", testKey, -time.Minute)
		if err != nil {
			t.Fatalf("IssueToken() error = %v", err)
		}
		ok, err := svc.Validate(ctx, u.ID, old)
		if err != nil || ok {
			t.Fatalf("Validate() = %v, %v; want false, nil", ok, err)
		}
	})
	t.Run("user gone", func(t *testing.T) {
		ghost, _, err := IssueToken("ghost", people.RoleStudent, "slp-portal", testKey, time.Hour)
		if err != nil {
			t.Fatalf("IssueToken() error = %v", err)
		}
		ok, err := svc.Validate(ctx, "ghost", ghost)
		if err != nil || ok {
			t.Fatalf("Validate() = %v, %v; want false, nil", ok, err)
		}
	})
	t.Run("backend fault surfaces", func(t *testing.T) {
		users.failWith = errors.New("connection reset")
		defer func() { users.failWith = nil }()
		if _, err := svc.Validate(ctx, u.ID, token); err == nil {
			t.Fatal("Validate() swallowed a backend fault")
		}
	})
}
