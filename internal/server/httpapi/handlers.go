package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/abalakin-dev/quizkeeper/internal/common"
	"github.com/abalakin-dev/quizkeeper/internal/server/models"
)

const healthCheckTimeout = 2 * time.Second

// userPayload is the outward user representation: no password material.
type userPayload struct {
	Login    string              `json:"login"`
	Admin    bool                `json:"admin"`
	TestInfo []models.TestRecord `json:"test_info"`
}

func toUserPayload(u models.User) userPayload {
	return userPayload{Login: u.Login, Admin: u.Admin, TestInfo: u.TestRecords}
}

// internalError logs the cause server-side and answers with a generic 500.
func (r *Router) internalError(w http.ResponseWriter, req *http.Request, err error) {
	r.log(req).Error(req.Context(), "request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "server error")
}

func decodeBody(w http.ResponseWriter, req *http.Request, dst any) bool {
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
	defer cancel()
	if err := r.dbHealth(ctx); err != nil {
		r.log(req).Error(req.Context(), "health check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if !decodeBody(w, req, &payload) {
		return
	}

	_, err := r.auth.Register(req.Context(), payload.Login, payload.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]string{"message": "registration successful"})
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, "login and password are required")
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusBadRequest, "login already taken")
	default:
		r.internalError(w, req, err)
	}
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if !decodeBody(w, req, &payload) {
		return
	}

	user, err := r.auth.Verify(req.Context(), payload.Login, payload.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "login successful",
			"user":    toUserPayload(*user),
		})
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, "login and password are required")
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, "invalid login or password")
	default:
		r.internalError(w, req, err)
	}
}

func (r *Router) handleUpdateScore(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		Login    string `json:"login"`
		Password string `json:"password"`
		NewScore int64  `json:"newScore"`
	}
	if !decodeBody(w, req, &payload) {
		return
	}

	total, err := r.records.AddScore(req.Context(), payload.Login, payload.Password, payload.NewScore)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"message":       "score updated",
			"newTotalScore": total,
		})
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusBadRequest, "invalid login or password")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	default:
		r.internalError(w, req, err)
	}
}

func (r *Router) handleResetPassword(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		AdminLogin    string `json:"adminLogin"`
		AdminPassword string `json:"adminPassword"`
		TargetLogin   string `json:"targetLogin"`
		NewPassword   string `json:"newPassword"`
	}
	if !decodeBody(w, req, &payload) {
		return
	}

	err := r.records.AdminResetPassword(req.Context(), payload.AdminLogin, payload.AdminPassword, payload.TargetLogin, payload.NewPassword)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
	case errors.Is(err, common.ErrorAccessDenied):
		writeError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, "invalid admin credentials")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "target user not found")
	default:
		r.internalError(w, req, err)
	}
}

func (r *Router) handleDeleteUser(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		AdminLogin    string `json:"adminLogin"`
		AdminPassword string `json:"adminPassword"`
		TargetLogin   string `json:"targetLogin"`
	}
	if !decodeBody(w, req, &payload) {
		return
	}

	deleteError := func(status int, msg string) {
		writeJSON(w, status, map[string]any{"success": false, "error": msg})
	}

	err := r.records.AdminDeleteUser(req.Context(), payload.AdminLogin, payload.AdminPassword, payload.TargetLogin)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": fmt.Sprintf("user %s deleted", payload.TargetLogin),
		})
	case errors.Is(err, common.ErrorAccessDenied):
		deleteError(http.StatusForbidden, "access denied")
	case errors.Is(err, common.ErrorUnauthorized):
		deleteError(http.StatusUnauthorized, "invalid admin credentials")
	case errors.Is(err, common.ErrorSelfDelete):
		deleteError(http.StatusBadRequest, "cannot delete own account")
	case errors.Is(err, common.ErrorNotFound):
		deleteError(http.StatusNotFound, "user not found")
	case errors.Is(err, common.ErrorTargetIsAdmin):
		deleteError(http.StatusForbidden, "cannot delete an administrator")
	default:
		r.internalError(w, req, err)
	}
}

func (r *Router) handleSubmitTestResult(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		Login    string `json:"login"`
		Password string `json:"password"`
		TestDate string `json:"test_date"`
		TestID   int    `json:"test_id"`
		Score    int64  `json:"score"`
	}
	if !decodeBody(w, req, &payload) {
		return
	}

	total, history, err := r.records.SubmitTestResult(req.Context(), payload.Login, payload.Password, payload.TestDate, payload.TestID, payload.Score)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"new_score":     total,
			"updated_tests": history,
		})
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, "all fields are required")
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, "invalid login or password")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	default:
		r.internalError(w, req, err)
	}
}

func (r *Router) handleTestResult(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		Login  string `json:"login"`
		TestID int    `json:"testid"`
		Score  int64  `json:"score"`
	}
	if !decodeBody(w, req, &payload) {
		return
	}

	err := r.records.RecordTestResult(req.Context(), payload.Login, payload.TestID, payload.Score)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": "test result saved"})
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	default:
		r.internalError(w, req, err)
	}
}

func (r *Router) handleListUsers(w http.ResponseWriter, req *http.Request) {
	users, err := r.records.ListUsers(req.Context())
	if err != nil {
		r.internalError(w, req, err)
		return
	}

	payload := make([]userPayload, 0, len(users))
	for _, u := range users {
		payload = append(payload, toUserPayload(u))
	}
	writeJSON(w, http.StatusOK, payload)
}
