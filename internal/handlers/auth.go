package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pliu/quickchat/internal/assets"
	"github.com/pliu/quickchat/internal/auth"
	"github.com/pliu/quickchat/internal/middleware"
	"github.com/pliu/quickchat/internal/models"
	"github.com/pliu/quickchat/internal/store"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	Store  store.Store
	Issuer *auth.Issuer
	Assets assets.Store
}

type signupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Bio      string `json:"bio"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.FullName == "" || req.Email == "" || req.Password == "" || req.Bio == "" {
		respondError(w, http.StatusBadRequest, "Missing Details")
		return
	}

	if _, err := h.Store.GetUserByEmail(req.Email); err == nil {
		respondError(w, http.StatusConflict, "User already exists")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	user := &models.User{
		FullName: req.FullName,
		Email:    req.Email,
		Password: string(hashedPassword),
		Bio:      req.Bio,
	}
	if err := h.Store.CreateUser(user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondError(w, http.StatusConflict, "User already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	token, err := h.Issuer.Issue(user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respond(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"userData": user,
		"token":    token,
		"message":  "Account created successfully",
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.Store.GetUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.Issuer.Issue(user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"userData": user,
		"token":    token,
		"message":  "Login successful",
	})
}

// Check returns the authenticated user, proving the token is valid.
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	respond(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

type updateProfileRequest struct {
	FullName   string `json:"fullName"`
	Bio        string `json:"bio"`
	ProfilePic string `json:"profilePic"`
}

// UpdateProfile changes the caller's profile fields. A profilePic
// payload is uploaded to the asset store first and the resulting URL
// is what gets persisted.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	picURL := ""
	if req.ProfilePic != "" {
		url, err := h.Assets.Save(req.ProfilePic)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Image upload failed")
			return
		}
		picURL = url
	}

	updated, err := h.Store.UpdateUser(user.ID, req.FullName, req.Bio, picURL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    updated,
	})
}
