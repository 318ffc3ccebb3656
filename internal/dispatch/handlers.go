package dispatch

import (
	"context"
	"errors"
	"time"

	"slpportal/internal/auth"
	"slpportal/internal/people"
)

func (r *Router) login(ctx context.Context, req *Request) (any, string, error) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	principal, err := r.auth.Login(ctx, in.Email, in.Password)
	if err != nil {
		return nil, "", err
	}
	return principal, "welcome back", nil
}

func (r *Router) signUp(ctx context.Context, req *Request) (any, string, error) {
	var in struct {
		Role         string `json:"role"`
		FullName     string `json:"fullName"`
		Email        string `json:"email"`
		PhoneNumber  string `json:"phoneNumber"`
		Password     string `json:"password"`
		MatricNumber string `json:"matricNumber"`
		EmployeeID   string `json:"employeeID"`
		Year         string `json:"year"`
		Course       string `json:"course"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	if _, err := r.auth.SignUp(ctx, auth.SignUpInput{
		Role:         in.Role,
		FullName:     in.FullName,
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		Password:     in.Password,
		MatricNumber: in.MatricNumber,
		EmployeeID:   in.EmployeeID,
		Year:         in.Year,
		Course:       in.Course,
	}); err != nil {
		return nil, "", err
	}
	return nil, "account created, you can now log in", nil
}

func (r *Router) validateToken(ctx context.Context, req *Request) (any, string, error) {
	var in struct {
		UserID string `json:"userId"`
		Token  string `json:"token"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	valid, err := r.auth.Validate(ctx, in.UserID, in.Token)
	if err != nil {
		return nil, "", err
	}
	return map[string]bool{"isValid": valid}, "", nil
}

// --- attendance core ---

func (r *Router) generateAttendanceCode(ctx context.Context, req *Request) (any, string, error) {
	var in struct {
		SessionName  string   `json:"sessionName"`
		SupervisorID string   `json:"supervisorId"`
		StudentIDs   []string `json:"studentIds"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	if in.SupervisorID != req.Claims.Subject {
		return nil, "", errNotSelf
	}
	issued, err := r.passcodes.Generate(ctx, in.SessionName, in.SupervisorID, in.StudentIDs)
	if err != nil {
		return nil, "", err
	}
	return issued, "attendance code generated", nil
}

func (r *Router) submitAttendance(ctx context.Context, req *Request) (any, string, error) {
	var in struct {
		Passcode  string `json:"passcode"`
		StudentID string `json:"studentId"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	if in.StudentID != req.Claims.Subject {
		return nil, "", errNotSelf
	}
	red, err := r.passcodes.Redeem(ctx, in.Passcode, in.StudentID)
	if err != nil {
		return nil, "", err
	}
	return nil, "attendance recorded as " + red.Status, nil
}

func (r *Router) getSupervisorAttendanceHistory(ctx context.Context, req *Request) (any, string, error) {
	var in struct {
		SupervisorID string `json:"supervisorId"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	if in.SupervisorID != req.Claims.Subject {
		return nil, "", errNotSelf
	}
	entries, err := r.passcodes.SupervisorHistory(ctx, in.SupervisorID)
	if err != nil {
		return nil, "", err
	}
	return entries, "", nil
}

func (r *Router) getAttendanceReport(ctx context.Context, req *Request) (any, string, error) {
	var in struct {
		Date string `json:"date"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	day, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return nil, "", errors.New("date must be YYYY-MM-DD")
	}
	rows, err := r.passcodes.Report(ctx, day)
	if err != nil {
		return nil, "", err
	}
	return rows, "", nil
}

func (r *Router) getStudentAttendanceHistory(ctx context.Context, req *Request) (any, string, error) {
	var in struct {
		StudentID string `json:"studentId"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	if in.StudentID != req.Claims.Subject {
		return nil, "", errNotSelf
	}
	entries, err := r.passcodes.StudentHistory(ctx, in.StudentID)
	if err != nil {
		return nil, "", err
	}
	return entries, "", nil
}

// --- directory ---

func (r *Router) getAllStudents(ctx context.Context, req *Request) (any, string, error) {
	students, err := r.directory.ListByRole(ctx, people.RoleStudent)
	if err != nil {
		return nil, "", err
	}
	return students, "", nil
}

func (r *Router) getSupervisors(ctx context.Context, req *Request) (any, string, error) {
	supervisors, err := r.directory.ListByRole(ctx, people.RoleSupervisor)
	if err != nil {
		return nil, "", err
	}
	return supervisors, "", nil
}

func (r *Router) getAllUsers(ctx context.Context, req *Request) (any, string, error) {
	supervisors, err := r.directory.ListByRole(ctx, people.RoleSupervisor)
	if err != nil {
		return nil, "", err
	}
	students, err := r.directory.ListByRole(ctx, people.RoleStudent)
	if err != nil {
		return nil, "", err
	}
	return map[string]any{"supervisors": supervisors, "students": students}, "", nil
}

func (r *Router) getUserByID(ctx context.Context, req *Request) (any, string, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	usr, err := r.directory.ByID(ctx, in.ID)
	if err != nil {
		return nil, "", err
	}
	specific := usr.MatricNumber
	if usr.Role == people.RoleSupervisor {
		specific = usr.EmployeeID
	}
	return map[string]string{
		"id":         usr.ID,
		"name":       usr.FullName,
		"email":      usr.Email,
		"role":       usr.Role,
		"specificId": specific,
	}, "", nil
}

func (r *Router) updateUser(ctx context.Context, req *Request) (any, string, error) {
	var in struct {
		UserIDToUpdate string `json:"userIdToUpdate"`
		Email          string `json:"email"`
		NewPassword    string `json:"newPassword"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	if in.UserIDToUpdate == "" || in.Email == "" {
		return nil, "", errors.New("user id and email are required")
	}
	var hash string
	if in.NewPassword != "" {
		var err error
		if hash, err = auth.HashPassword(in.NewPassword); err != nil {
			return nil, "", err
		}
	}
	if err := r.directory.UpdateAccount(ctx, in.UserIDToUpdate, in.Email, hash); err != nil {
		return nil, "", err
	}
	return nil, "user updated", nil
}

func (r *Router) deleteUser(ctx context.Context, req *Request) (any, string, error) {
	var in struct {
		UserIDToDelete string `json:"userIdToDelete"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	if in.UserIDToDelete == req.Claims.Subject {
		return nil, "", errors.New("you cannot delete your own account")
	}
	if err := r.directory.Delete(ctx, in.UserIDToDelete); err != nil {
		return nil, "", err
	}
	return nil, "user deleted", nil
}

// --- absence workflow ---

func (r *Router) submitAbsence(ctx context.Context, req *Request) (any, string, error) {
	var in struct {
		StudentID    string `json:"studentId"`
		SupervisorID string `json:"supervisorId"`
		AbsenceDate  string `json:"absenceDate"`
		Reason       string `json:"reason"`
		FileURL      string `json:"fileUrl"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	if in.StudentID != req.Claims.Subject {
		return nil, "", errNotSelf
	}
	if _, err := r.absences.Submit(ctx, in.StudentID, in.SupervisorID, in.AbsenceDate, in.Reason, in.FileURL); err != nil {
		return nil, "", err
	}
	return nil, "absence request submitted", nil
}

func (r *Router) getAbsenceRequests(ctx context.Context, req *Request) (any, string, error) {
	return r.supervisorAbsences(ctx, req, true)
}

func (r *Router) getAbsenceHistory(ctx context.Context, req *Request) (any, string, error) {
	return r.supervisorAbsences(ctx, req, false)
}

func (r *Router) supervisorAbsences(ctx context.Context, req *Request, pendingOnly bool) (any, string, error) {
	var in struct {
		SupervisorID string `json:"supervisorId"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	if in.SupervisorID != req.Claims.Subject {
		return nil, "", errNotSelf
	}
	list := r.absences.History
	if pendingOnly {
		list = r.absences.Pending
	}
	requests, err := list(ctx, in.SupervisorID)
	if err != nil {
		return nil, "", err
	}
	return requests, "", nil
}

func (r *Router) getAbsenceRequestByID(ctx context.Context, req *Request) (any, string, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	request, err := r.absences.Get(ctx, in.ID)
	if err != nil {
		return nil, "", err
	}
	if request.SupervisorID != req.Claims.Subject {
		return nil, "", errNotSelf
	}
	return request, "", nil
}

func (r *Router) updateAbsenceStatus(ctx context.Context, req *Request) (any, string, error) {
	var in struct {
		RequestID string `json:"requestId"`
		NewStatus string `json:"newStatus"`
		Notes     string `json:"notes"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	request, err := r.absences.Get(ctx, in.RequestID)
	if err != nil {
		return nil, "", err
	}
	if request.SupervisorID != req.Claims.Subject {
		return nil, "", errNotSelf
	}
	if err := r.absences.Decide(ctx, in.RequestID, in.NewStatus, in.Notes); err != nil {
		return nil, "", err
	}
	return nil, "absence request " + in.NewStatus, nil
}

// --- board ---

func (r *Router) getAnnouncements(ctx context.Context, req *Request) (any, string, error) {
	list, err := r.boards.Latest(ctx)
	if err != nil {
		return nil, "", err
	}
	return list, "", nil
}

func (r *Router) getAllAnnouncements(ctx context.Context, req *Request) (any, string, error) {
	list, err := r.boards.All(ctx)
	if err != nil {
		return nil, "", err
	}
	return list, "", nil
}

func (r *Router) getAnnouncementByID(ctx context.Context, req *Request) (any, string, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	ann, err := r.boards.Announcement(ctx, in.ID)
	if err != nil {
		return nil, "", err
	}
	return ann, "", nil
}

func (r *Router) addAnnouncement(ctx context.Context, req *Request) (any, string, error) {
	var in struct {
		Title    string `json:"title"`
		Category string `json:"category"`
		Content  string `json:"content"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	ann, err := r.boards.PostAnnouncement(ctx, in.Title, in.Category, in.Content, req.Claims.Subject)
	if err != nil {
		return nil, "", err
	}
	return ann, "announcement posted", nil
}

func (r *Router) updateAnnouncement(ctx context.Context, req *Request) (any, string, error) {
	var in struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Category string `json:"category"`
		Content  string `json:"content"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	if err := r.boards.EditAnnouncement(ctx, in.ID, in.Title, in.Category, in.Content); err != nil {
		return nil, "", err
	}
	return nil, "announcement updated", nil
}

func (r *Router) deleteAnnouncement(ctx context.Context, req *Request) (any, string, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	if err := r.boards.RemoveAnnouncement(ctx, in.ID); err != nil {
		return nil, "", err
	}
	return nil, "announcement deleted", nil
}

func (r *Router) getResources(ctx context.Context, req *Request) (any, string, error) {
	list, err := r.boards.Resources(ctx)
	if err != nil {
		return nil, "", err
	}
	return list, "", nil
}

func (r *Router) getAllResources(ctx context.Context, req *Request) (any, string, error) {
	return r.getResources(ctx, req)
}

func (r *Router) addResource(ctx context.Context, req *Request) (any, string, error) {
	var in struct {
		Title    string `json:"title"`
		Category string `json:"category"`
		URL      string `json:"url"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	res, err := r.boards.AddResource(ctx, in.Title, in.Category, in.URL, req.Claims.Subject)
	if err != nil {
		return nil, "", err
	}
	return res, "resource added", nil
}

func (r *Router) deleteResource(ctx context.Context, req *Request) (any, string, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	if err := r.boards.RemoveResource(ctx, in.ID); err != nil {
		return nil, "", err
	}
	return nil, "resource deleted", nil
}

// --- uploads ---

func (r *Router) handleFileUpload(ctx context.Context, req *Request) (any, string, error) {
	if r.uploads == nil {
		return nil, "", errors.New("file storage is not configured")
	}
	var in struct {
		FileName      string `json:"fileName"`
		MimeType      string `json:"mimeType"`
		FileData      string `json:"fileData"`
		UploadContext string `json:"uploadContext"`
	}
	if err := req.Bind(&in); err != nil {
		return nil, "", err
	}
	if in.FileData == "" {
		return nil, "", errors.New("file data is required")
	}
	url, err := r.uploads.UploadBase64(in.FileData, in.MimeType, in.UploadContext)
	if err != nil {
		return nil, "", err
	}
	return map[string]string{"fileUrl": url}, "file uploaded", nil
}
