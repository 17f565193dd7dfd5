package server

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"yatube/storage/models"
	"yatube/storage/queries"
)

const sessionCookie = "session"
const sessionLifetime = 24 * time.Hour

func (s *Server) issueToken(username string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": username,
		"exp": time.Now().Add(sessionLifetime).Unix(),
	})
	return token.SignedString(s.jwtSecret)
}

// parseToken validates an HS256 session token and returns the username
// from the "sub" claim.
func (s *Server) parseToken(tok string) (string, error) {
	token, err := jwt.Parse(tok, func(*jwt.Token) (any, error) {
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("bad claims")
	}
	username, _ := claims["sub"].(string)
	if username == "" {
		return "", errors.New("no subject")
	}
	return username, nil
}

func (s *Server) currentUser(r *http.Request) (models.User, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return models.User{}, false
	}
	username, err := s.parseToken(cookie.Value)
	if err != nil {
		return models.User{}, false
	}
	user, err := queries.GetUser(s.db, username)
	if err != nil {
		return models.User{}, false
	}
	return user, true
}

// requireAuth redirects unauthenticated requests to the login page with
// a return path, the way the original auth-required views do.
func (s *Server) requireAuth(next func(http.ResponseWriter, *http.Request, models.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.currentUser(r)
		if !ok {
			http.Redirect(
				w, r,
				"/auth/login/?next="+url.QueryEscape(r.URL.RequestURI()),
				http.StatusFound,
			)
			return
		}
		next(w, r, user)
	}
}

func (s *Server) setSession(w http.ResponseWriter, username string) error {
	token, err := s.issueToken(username)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(sessionLifetime),
		HttpOnly: true,
	})
	return nil
}

func (s *Server) signupForm(w http.ResponseWriter, r *http.Request) {
	writeContext(w, map[string]any{
		"form": map[string]string{"username": "", "password": ""},
	})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	form := parseAuthForm(r)
	formErrors := form.Validate()

	if len(formErrors) == 0 {
		if _, err := queries.GetUser(s.db, form.Username); err == nil {
			formErrors = append(formErrors, FieldError{
				Field:   "username",
				Message: "username is already taken",
			})
		} else if !errors.Is(err, queries.ErrNotFound) {
			sendError(w, http.StatusInternalServerError, "could not check username")
			return
		}
	}
	if len(formErrors) > 0 {
		writeContext(w, map[string]any{"form": form.Context(), "errors": formErrors})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "could not hash password")
		return
	}
	user := models.User{
		Username:     form.Username,
		PasswordHash: string(hash),
	}
	if err := queries.CreateUser(s.db, &user); err != nil {
		log.Errorf("Error creating user '%s': %v", form.Username, err)
		sendError(w, http.StatusInternalServerError, "could not create user")
		return
	}
	http.Redirect(w, r, "/auth/login/", http.StatusFound)
}

func (s *Server) loginForm(w http.ResponseWriter, r *http.Request) {
	writeContext(w, map[string]any{
		"form": map[string]string{"username": "", "password": ""},
		"next": r.URL.Query().Get("next"),
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	form := parseAuthForm(r)
	formErrors := form.Validate()

	if len(formErrors) == 0 {
		user, err := queries.GetUser(s.db, form.Username)
		if err != nil || bcrypt.CompareHashAndPassword(
			[]byte(user.PasswordHash), []byte(form.Password),
		) != nil {
			formErrors = append(formErrors, FieldError{
				Field:   "__all__",
				Message: "invalid username or password",
			})
		}
	}
	if len(formErrors) > 0 {
		writeContext(w, map[string]any{"form": form.Context(), "errors": formErrors})
		return
	}

	if err := s.setSession(w, form.Username); err != nil {
		sendError(w, http.StatusInternalServerError, "could not open session")
		return
	}
	next := r.FormValue("next")
	if next == "" || next[0] != '/' {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusFound)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}
