// Package dispatch routes tagged action requests to their handlers and
// enforces the role gate in one place.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"slpportal/internal/absence"
	"slpportal/internal/auth"
	"slpportal/internal/board"
	"slpportal/internal/httpmiddleware"
	"slpportal/internal/passcode"
	"slpportal/internal/people"
)

// AuthService issues and validates credentials.
type AuthService interface {
	Login(ctx context.Context, email, password string) (auth.Principal, error)
	SignUp(ctx context.Context, in auth.SignUpInput) (people.User, error)
	Validate(ctx context.Context, userID, token string) (bool, error)
	Authenticate(tokenStr string) (auth.Claims, error)
}

// PasscodeService owns the attendance passcode lifecycle.
type PasscodeService interface {
	Generate(ctx context.Context, sessionName, supervisorID string, studentIDs []string) (passcode.Issued, error)
	Redeem(ctx context.Context, code, studentID string) (passcode.Redemption, error)
	Report(ctx context.Context, day time.Time) ([]passcode.ReportRow, error)
	SupervisorHistory(ctx context.Context, supervisorID string) ([]passcode.HistoryEntry, error)
	StudentHistory(ctx context.Context, studentID string) ([]passcode.StudentHistoryEntry, error)
}

// AbsenceService owns the absence request workflow.
type AbsenceService interface {
	Submit(ctx context.Context, studentID, supervisorID, absenceDate, reason, fileURL string) (absence.Request, error)
	Pending(ctx context.Context, supervisorID string) ([]absence.Request, error)
	History(ctx context.Context, supervisorID string) ([]absence.Request, error)
	Get(ctx context.Context, id string) (absence.Request, error)
	Decide(ctx context.Context, requestID, newStatus, notes string) error
}

// BoardService owns announcements and resources.
type BoardService interface {
	PostAnnouncement(ctx context.Context, title, category, content, postedBy string) (board.Announcement, error)
	EditAnnouncement(ctx context.Context, id, title, category, content string) error
	RemoveAnnouncement(ctx context.Context, id string) error
	Announcement(ctx context.Context, id string) (board.Announcement, error)
	Latest(ctx context.Context) ([]board.Announcement, error)
	All(ctx context.Context) ([]board.Announcement, error)
	AddResource(ctx context.Context, title, category, url, addedBy string) (board.Resource, error)
	RemoveResource(ctx context.Context, id string) error
	Resources(ctx context.Context) ([]board.Resource, error)
}

// Directory is the user lookup surface.
type Directory interface {
	ListByRole(ctx context.Context, role string) ([]people.Summary, error)
	ByID(ctx context.Context, id string) (people.User, error)
	UpdateAccount(ctx context.Context, id, email, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

// Uploader stores attachments and returns their public URL.
type Uploader interface {
	UploadBase64(data, mimeType, context string) (string, error)
}

// Router dispatches action requests.
type Router struct {
	auth      AuthService
	passcodes PasscodeService
	absences  AbsenceService
	boards    BoardService
	directory Directory
	uploads   Uploader
	metrics   *httpmiddleware.ActionMetrics
	routes    map[string]route
}

// Deps wires the router's collaborators. Uploads and Metrics may be nil.
type Deps struct {
	Auth      AuthService
	Passcodes PasscodeService
	Absences  AbsenceService
	Boards    BoardService
	Directory Directory
	Uploads   Uploader
	Metrics   *httpmiddleware.ActionMetrics
}

// Request is one decoded action request.
type Request struct {
	Action string
	Claims *auth.Claims // nil for public actions
	body   []byte
}

// Bind unmarshals the action fields into v.
func (r *Request) Bind(v any) error {
	if len(r.body) == 0 {
		return errors.New("request body required")
	}
	return json.Unmarshal(r.body, v)
}

// handler returns the response data and an optional success message.
type handler func(ctx context.Context, req *Request) (any, string, error)

type route struct {
	handle handler
	roles  []string // nil means public
	read   bool     // idempotent, allowed via GET
}

// New builds the router with its action table.
func New(d Deps) *Router {
	r := &Router{
		auth:      d.Auth,
		passcodes: d.Passcodes,
		absences:  d.Absences,
		boards:    d.Boards,
		directory: d.Directory,
		uploads:   d.Uploads,
		metrics:   d.Metrics,
	}
	anyRole := []string{people.RoleStudent, people.RoleSupervisor, people.RoleAdmin}
	r.routes = map[string]route{
		// public
		"login":             {handle: r.login},
		"signUp":            {handle: r.signUp},
		"validateToken":     {handle: r.validateToken},
		"getAnnouncements":  {handle: r.getAnnouncements, read: true},
		"getAnnouncementById": {handle: r.getAnnouncementByID, read: true},

		// attendance core
		"generateAttendanceCode":         {handle: r.generateAttendanceCode, roles: []string{people.RoleSupervisor}},
		"submitAttendance":               {handle: r.submitAttendance, roles: []string{people.RoleStudent}},
		"getSupervisorAttendanceHistory": {handle: r.getSupervisorAttendanceHistory, roles: []string{people.RoleSupervisor}, read: true},
		"getAttendanceReport":            {handle: r.getAttendanceReport, roles: []string{people.RoleSupervisor, people.RoleAdmin}, read: true},
		"getStudentAttendanceHistory":    {handle: r.getStudentAttendanceHistory, roles: []string{people.RoleStudent}, read: true},

		// directory
		"getAllStudents": {handle: r.getAllStudents, roles: []string{people.RoleSupervisor, people.RoleAdmin}, read: true},
		"getSupervisors": {handle: r.getSupervisors, roles: anyRole, read: true},
		"getAllUsers":    {handle: r.getAllUsers, roles: []string{people.RoleAdmin}, read: true},
		"getUserById":    {handle: r.getUserByID, roles: []string{people.RoleAdmin}, read: true},
		"updateUser":     {handle: r.updateUser, roles: []string{people.RoleAdmin}},
		"deleteUser":     {handle: r.deleteUser, roles: []string{people.RoleAdmin}},

		// absence workflow
		"submitAbsence":        {handle: r.submitAbsence, roles: []string{people.RoleStudent}},
		"getAbsenceRequests":   {handle: r.getAbsenceRequests, roles: []string{people.RoleSupervisor}, read: true},
		"getAbsenceHistory":    {handle: r.getAbsenceHistory, roles: []string{people.RoleSupervisor}, read: true},
		"getAbsenceRequestById": {handle: r.getAbsenceRequestByID, roles: []string{people.RoleSupervisor}, read: true},
		"updateAbsenceStatus":  {handle: r.updateAbsenceStatus, roles: []string{people.RoleSupervisor}},

		// board
		"getAllAnnouncements": {handle: r.getAllAnnouncements, roles: []string{people.RoleSupervisor, people.RoleAdmin}, read: true},
		"addAnnouncement":     {handle: r.addAnnouncement, roles: []string{people.RoleSupervisor, people.RoleAdmin}},
		"updateAnnouncement":  {handle: r.updateAnnouncement, roles: []string{people.RoleSupervisor, people.RoleAdmin}},
		"deleteAnnouncement":  {handle: r.deleteAnnouncement, roles: []string{people.RoleSupervisor, people.RoleAdmin}},
		"getResources":        {handle: r.getResources, roles: anyRole, read: true},
		"getAllResources":     {handle: r.getAllResources, roles: []string{people.RoleAdmin}, read: true},
		"addResource":         {handle: r.addResource, roles: []string{people.RoleAdmin}},
		"deleteResource":      {handle: r.deleteResource, roles: []string{people.RoleAdmin}},

		// uploads
		"handleFileUpload": {handle: r.handleFileUpload, roles: anyRole},
	}
	return r
}

// Register mounts the action endpoint on the engine.
func (r *Router) Register(engine *gin.Engine) {
	engine.POST("/api", r.handlePost)
	engine.GET("/api", r.handleGet)
}

func (r *Router) handlePost(c *gin.Context) {
	var probe struct {
		Action string `json:"action"`
	}
	body, err := c.GetRawData()
	if err != nil || json.Unmarshal(body, &probe) != nil || probe.Action == "" {
		respondError(c, http.StatusBadRequest, "request must be a JSON object with an action field")
		return
	}
	r.dispatch(c, probe.Action, body, false)
}

func (r *Router) handleGet(c *gin.Context) {
	action := c.Query("action")
	if action == "" {
		respondError(c, http.StatusBadRequest, "action query parameter required")
		return
	}
	// credentials never travel in query strings
	if c.Query("token") != "" {
		respondError(c, http.StatusBadRequest, "send the token in the Authorization header, not the URL")
		return
	}
	fields := make(map[string]string)
	for key, vals := range c.Request.URL.Query() {
		if key == "action" || len(vals) == 0 {
			continue
		}
		fields[key] = vals[0]
	}
	body, _ := json.Marshal(fields)
	r.dispatch(c, action, body, true)
}

func (r *Router) dispatch(c *gin.Context, action string, body []byte, isGet bool) {
	start := time.Now()
	status := "success"
	defer func() {
		r.metrics.Observe(action, status, time.Since(start).Seconds())
	}()

	rt, ok := r.routes[action]
	if !ok {
		status = "error"
		respondError(c, http.StatusBadRequest, "unknown action: "+action)
		return
	}
	if isGet && !rt.read {
		status = "error"
		respondError(c, http.StatusMethodNotAllowed, action+" must be sent as a POST request")
		return
	}

	req := &Request{Action: action, body: body}
	if rt.roles != nil {
		claims, err := r.authenticate(c)
		if err != nil {
			status = "error"
			respondError(c, http.StatusUnauthorized, "authentication required, please log in again")
			return
		}
		if !roleAllowed(rt.roles, claims.Role) {
			// authorization failure is distinct from authentication failure
			status = "error"
			respondError(c, http.StatusForbidden, "your account does not have permission for this action")
			return
		}
		req.Claims = &claims
	}

	data, message, err := rt.handle(c.Request.Context(), req)
	if err != nil {
		status = "error"
		r.respondFailure(c, action, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": message, "data": data})
}

func (r *Router) authenticate(c *gin.Context) (auth.Claims, error) {
	authz := c.GetHeader("Authorization")
	if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return auth.Claims{}, errors.New("missing bearer token")
	}
	return r.auth.Authenticate(strings.TrimSpace(authz[len("bearer "):]))
}

func roleAllowed(roles []string, role string) bool {
	for _, allowed := range roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// errNotSelf guards actions that must be performed as oneself.
var errNotSelf = errors.New("you can only perform this action for your own account")

var notFoundErrors = []error{
	passcode.ErrNoSession,
	absence.ErrNotFound,
	board.ErrNotFound,
	people.ErrNotFound,
}

// respondFailure surfaces business outcomes verbatim; callers rely on
// distinct messages for distinct rejections.
func (r *Router) respondFailure(c *gin.Context, action string, err error) {
	for _, known := range notFoundErrors {
		if errors.Is(err, known) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
	}
	log.Printf("action %s rejected: %v", action, err)
	respondError(c, http.StatusBadRequest, err.Error())
}

func respondError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"status": "error", "message": message})
}
