package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/taskvault/taskvault/internal/common"
	"github.com/taskvault/taskvault/internal/server/services"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type logonRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse is the nonce-bearing shape shared by registration and
// login. The credential itself travels in the cookie, never the body.
type sessionResponse struct {
	CsrfToken string       `json:"csrfToken"`
	User      userResponse `json:"user"`
}

const minPasswordLength = 8

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	if req.Email == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "email and name are required"})
		return
	}
	if len(req.Password) < minPasswordLength {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "password is too short"})
		return
	}

	user, session, err := s.users.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: "email is already registered"})
			return
		}
		s.logger.Error(r.Context(), "registration failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
		return
	}

	s.logger.Info(r.Context(), "user registered", "user_id", user.ID)

	s.setSessionCookie(w, session)
	writeJSON(w, http.StatusCreated, sessionResponse{
		CsrfToken: session.CsrfToken,
		User:      toUserResponse(user),
	})
}

func (s *HTTPServer) handleLogon(w http.ResponseWriter, r *http.Request) {
	var req logonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	user, session, err := s.users.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		// One outcome for unknown name and wrong password alike.
		if errors.Is(err, common.ErrorUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "authentication failed"})
			return
		}
		s.logger.Error(r.Context(), "login failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
		return
	}

	s.setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, sessionResponse{
		CsrfToken: session.CsrfToken,
		User:      toUserResponse(user),
	})
}

// handleLogoff overwrites the client-held credential with an already-expired
// one. It succeeds whether or not a credential was presented; there is no
// server-side state to destroy.
func (s *HTTPServer) handleLogoff(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusOK)
}

func (s *HTTPServer) setSessionCookie(w http.ResponseWriter, session *services.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		MaxAge:   int(s.sessionValidity.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *HTTPServer) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
