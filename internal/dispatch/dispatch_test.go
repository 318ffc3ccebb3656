package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"slpportal/internal/auth"
	"slpportal/internal/passcode"
	"slpportal/internal/people"
)

// stubAuth authenticates tokens of the form "<userID>|<role>".
type stubAuth struct{}

func (stubAuth) Login(_ context.Context, email, _ string) (auth.Principal, error) {
	if email != "ade@example.edu" {
		return auth.Principal{}, auth.ErrBadCredentials
	}
	return auth.Principal{UserID: "s1", Role: people.RoleStudent, Token: "s1|Student"}, nil
}

func (stubAuth) SignUp(_ context.Context, _ auth.SignUpInput) (people.User, error) {
	return people.User{}, nil
}

func (stubAuth) Validate(_ context.Context, userID, token string) (bool, error) {
	return token == userID+"|valid", nil
}

func (stubAuth) Authenticate(token string) (auth.Claims, error) {
	parts := strings.SplitN(token, "|", 2)
	if len(parts) != 2 {
		return auth.Claims{}, errors.New("bad token")
	}
	return auth.Claims{Subject: parts[0], Role: parts[1]}, nil
}

// stubPasscodes scripts the passcode service outcomes.
type stubPasscodes struct {
	issued    passcode.Issued
	redeemErr error
	reportErr error
}

func (s *stubPasscodes) Generate(_ context.Context, sessionName, supervisorID string, studentIDs []string) (passcode.Issued, error) {
	if strings.TrimSpace(sessionName) == "" {
		return passcode.Issued{}, passcode.ErrEmptySessionName
	}
	return s.issued, nil
}

func (s *stubPasscodes) Redeem(_ context.Context, code, studentID string) (passcode.Redemption, error) {
	if s.redeemErr != nil {
		return passcode.Redemption{}, s.redeemErr
	}
	return passcode.Redemption{SessionID: "sess-1", StudentID: studentID, Status: passcode.StatusPresent}, nil
}

func (s *stubPasscodes) Report(_ context.Context, _ time.Time) ([]passcode.ReportRow, error) {
	if s.reportErr != nil {
		return nil, s.reportErr
	}
	return []passcode.ReportRow{{StudentName: "Ade Bello", Status: passcode.StatusPresent}}, nil
}

func (s *stubPasscodes) SupervisorHistory(_ context.Context, _ string) ([]passcode.HistoryEntry, error) {
	return nil, nil
}

func (s *stubPasscodes) StudentHistory(_ context.Context, _ string) ([]passcode.StudentHistoryEntry, error) {
	return nil, nil
}

func newTestEngine(passcodes PasscodeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	New(Deps{Auth: stubAuth{}, Passcodes: passcodes}).Register(engine)
	return engine
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doPost(t *testing.T, engine *gin.Engine, token string, body map[string]any) (int, envelope) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return serve(t, engine, req)
}

func doGet(t *testing.T, engine *gin.Engine, token, query string) (int, envelope) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "/api?"+query, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return serve(t, engine, req)
}

func serve(t *testing.T, engine *gin.Engine, req *http.Request) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response %q is not an envelope: %v", rec.Body.String(), err)
	}
	return rec.Code, env
}

func TestUnknownAction(t *testing.T) {
	engine := newTestEngine(&stubPasscodes{})
	code, env := doPost(t, engine, "", map[string]any{"action": "fooBar"})
	if code != http.StatusBadRequest || env.Status != "error" {
		t.Fatalf("got %d %+v, want 400 error envelope", code, env)
	}
	if !strings.Contains(env.Message, "unknown action") {
		t.Errorf("message = %q", env.Message)
	}
}

func TestMissingAction(t *testing.T) {
	engine := newTestEngine(&stubPasscodes{})
	code, env := doPost(t, engine, "", map[string]any{"email": "x"})
	if code != http.StatusBadRequest || env.Status != "error" {
		t.Fatalf("got %d %+v, want 400 error envelope", code, env)
	}
}

func TestTokenInQueryStringRejected(t *testing.T) {
	engine := newTestEngine(&stubPasscodes{})
	code, env := doGet(t, engine, "sup-1|Supervisor", "action=getAttendanceReport&date=2026-04-10&token=abc")
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
	if env.Message != "send the token in the Authorization header, not the URL" {
		t.Errorf("message = %q", env.Message)
	}
}

func TestGetOnWriteActionRejected(t *testing.T) {
	engine := newTestEngine(&stubPasscodes{})
	code, env := doGet(t, engine, "s1|Student", "action=submitAttendance&passcode=123456&studentId=s1")
	if code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", code)
	}
	if env.Status != "error" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestAuthenticationVersusAuthorization(t *testing.T) {
	engine := newTestEngine(&stubPasscodes{})
	body := map[string]any{
		"action":       "generateAttendanceCode",
		"sessionName":  "Clinic",
		"supervisorId": "sup-1",
		"studentIds":   []string{"s1"},
	}

	t.Run("no token is 401", func(t *testing.T) {
		code, env := doPost(t, engine, "", body)
		if code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", code)
		}
		if env.Message != "authentication required, please log in again" {
			t.Errorf("message = %q", env.Message)
		}
	})
	t.Run("garbage token is 401", func(t *testing.T) {
		code, _ := doPost(t, engine, "garbage", body)
		if code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", code)
		}
	})
	t.Run("wrong role is 403 with a distinct message", func(t *testing.T) {
		code, env := doPost(t, engine, "s1|Student", body)
		if code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", code)
		}
		if env.Message != "your account does not have permission for this action" {
			t.Errorf("message = %q", env.Message)
		}
		if env.Message == "authentication required, please log in again" {
			t.Error("authorization failure reused the authentication message")
		}
	})
}

func TestGenerateAttendanceCode(t *testing.T) {
	expires := time.Date(2026, 4, 10, 9, 15, 0, 0, time.UTC)
	engine := newTestEngine(&stubPasscodes{issued: passcode.Issued{Passcode: "123456", Expires: expires}})

	t.Run("success", func(t *testing.T) {
		code, env := doPost(t, engine, "sup-1|Supervisor", map[string]any{
			"action":       "generateAttendanceCode",
			"sessionName":  "Clinic",
			"supervisorId": "sup-1",
			"studentIds":   []string{"s1"},
		})
		if code != http.StatusOK || env.Status != "success" {
			t.Fatalf("got %d %+v, want 200 success", code, env)
		}
		var issued passcode.Issued
		if err := json.Unmarshal(env.Data, &issued); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		if issued.Passcode != "123456" || !issued.Expires.Equal(expires) {
			t.Errorf("issued = %+v", issued)
		}
	})
	t.Run("for someone else is rejected", func(t *testing.T) {
		code, env := doPost(t, engine, "sup-1|Supervisor", map[string]any{
			"action":       "generateAttendanceCode",
			"sessionName":  "Clinic",
			"supervisorId": "sup-2",
			"studentIds":   []string{"s1"},
		})
		if code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", code)
		}
		if env.Message != errNotSelf.Error() {
			t.Errorf("message = %q", env.Message)
		}
	})
	t.Run("business rejection surfaces verbatim", func(t *testing.T) {
		code, env := doPost(t, engine, "sup-1|Supervisor", map[string]any{
			"action":       "generateAttendanceCode",
			"sessionName":  "  ",
			"supervisorId": "sup-1",
			"studentIds":   []string{"s1"},
		})
		if code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", code)
		}
		if env.Message != passcode.ErrEmptySessionName.Error() {
			t.Errorf("message = %q", env.Message)
		}
	})
}

func TestSubmitAttendance(t *testing.T) {
	t.Run("records with status in the message", func(t *testing.T) {
		engine := newTestEngine(&stubPasscodes{})
		code, env := doPost(t, engine, "s1|Student", map[string]any{
			"action":    "submitAttendance",
			"passcode":  "123456",
			"studentId": "s1",
		})
		if code != http.StatusOK || env.Status != "success" {
			t.Fatalf("got %d %+v, want 200 success", code, env)
		}
		if env.Message != "attendance recorded as Present" {
			t.Errorf("message = %q", env.Message)
		}
	})
	t.Run("duplicate submission message is verbatim", func(t *testing.T) {
		engine := newTestEngine(&stubPasscodes{redeemErr: passcode.ErrAlreadySubmitted})
		code, env := doPost(t, engine, "s1|Student", map[string]any{
			"action":    "submitAttendance",
			"passcode":  "123456",
			"studentId": "s1",
		})
		if code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", code)
		}
		if env.Message != passcode.ErrAlreadySubmitted.Error() {
			t.Errorf("message = %q", env.Message)
		}
	})
}

func TestGetAttendanceReport(t *testing.T) {
	t.Run("reads work over GET", func(t *testing.T) {
		engine := newTestEngine(&stubPasscodes{})
		code, env := doGet(t, engine, "sup-1|Supervisor", "action=getAttendanceReport&date=2026-04-10")
		if code != http.StatusOK || env.Status != "success" {
			t.Fatalf("got %d %+v, want 200 success", code, env)
		}
		var rows []passcode.ReportRow
		if err := json.Unmarshal(env.Data, &rows); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		if len(rows) != 1 || rows[0].StudentName != "Ade Bello" {
			t.Errorf("rows = %+v", rows)
		}
	})
	t.Run("bad date", func(t *testing.T) {
		engine := newTestEngine(&stubPasscodes{})
		code, _ := doGet(t, engine, "sup-1|Supervisor", "action=getAttendanceReport&date=april-10")
		if code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", code)
		}
	})
	t.Run("no session maps to 404", func(t *testing.T) {
		engine := newTestEngine(&stubPasscodes{reportErr: passcode.ErrNoSession})
		code, env := doGet(t, engine, "sup-1|Supervisor", "action=getAttendanceReport&date=2026-04-10")
		if code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", code)
		}
		if env.Message != passcode.ErrNoSession.Error() {
			t.Errorf("message = %q", env.Message)
		}
	})
}

func TestValidateTokenIsPublic(t *testing.T) {
	engine := newTestEngine(&stubPasscodes{})

	code, env := doPost(t, engine, "", map[string]any{
		"action": "validateToken",
		"userId": "s1",
		"token":  "s1|valid",
	})
	if code != http.StatusOK || env.Status != "success" {
		t.Fatalf("got %d %+v, want 200 success", code, env)
	}
	var data map[string]bool
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if !data["isValid"] {
		t.Error("isValid = false for a valid pair")
	}

	_, env = doPost(t, engine, "", map[string]any{
		"action": "validateToken",
		"userId": "s1",
		"token":  "expired",
	})
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data["isValid"] {
		t.Error("isValid = true for an invalid pair")
	}
}
