package httpapi

import (
	"errors"
	"net/http"

	"authd.org/internal/auth"
	"authd.org/internal/obs"
)

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

type registerResponse struct {
	ID string `json:"id"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := a.svc.Register(r.Context(), req.Username, req.Email, req.FirstName, req.LastName, req.Password)
	if err != nil {
		a.writeAuthError(w, "register", err)
		return
	}

	obs.ObserveAuthOperation("register", "ok")
	writeJSON(w, http.StatusCreated, registerResponse{ID: id})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := a.svc.Login(r.Context(), req.Username, req.Password, clientIP(r))
	if err != nil {
		a.writeAuthError(w, "login", err)
		return
	}

	obs.ObserveAuthOperation("login", "ok")
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := a.svc.Refresh(r.Context(), req.RefreshToken, clientIP(r))
	if err != nil {
		a.writeAuthError(w, "refresh", err)
		return
	}

	obs.ObserveAuthOperation("refresh", "ok")
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (a *API) handleRevoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.svc.Revoke(r.Context(), req.RefreshToken, clientIP(r)); err != nil {
		a.writeAuthError(w, "revoke", err)
		return
	}

	obs.ObserveAuthOperation("revoke", "ok")
	writeJSON(w, http.StatusOK, map[string]any{"status": "revoked"})
}

// handleMe echoes the verified claims of the presented access token, the
// same check resource servers run on every request.
func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       claims.Subject,
		"username": claims.Username,
		"email":    claims.Email,
	})
}

// writeAuthError maps the credential taxonomy onto HTTP statuses. Internal
// faults stay 500 so an outage is never dressed up as a bad credential.
func (a *API) writeAuthError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		obs.ObserveAuthOperation(op, "denied")
		writeError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, auth.ErrDuplicateUsername):
		obs.ObserveAuthOperation(op, "denied")
		writeError(w, http.StatusBadRequest, "username already registered")
	case errors.Is(err, auth.ErrInvalidCredentials):
		obs.ObserveAuthOperation(op, "denied")
		writeError(w, http.StatusUnauthorized, "invalid username or password")
	case errors.Is(err, auth.ErrInvalidToken):
		obs.ObserveAuthOperation(op, "denied")
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
	default:
		obs.ObserveAuthOperation(op, "error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
