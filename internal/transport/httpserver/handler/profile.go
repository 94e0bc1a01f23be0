package handler

import (
	"net/http"
	"time"

	userdomain "habit-rooms-go/internal/domain/user"
	"habit-rooms-go/internal/transport/httpserver/middleware"
)

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

type profileResponse struct {
	UserID      string    `json:"user_id"`
	DisplayName *string   `json:"display_name"`
	Email       *string   `json:"email"`
	AvatarURL   *string   `json:"avatar_url"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type meResponse struct {
	ID        string           `json:"id"`
	Email     string           `json:"email"`
	Name      string           `json:"name"`
	AvatarURL string           `json:"avatar_url"`
	ExpiresAt *time.Time       `json:"expires_at,omitempty"`
	Profile   *profileResponse `json:"profile"`
}

func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	profile, err := h.Profiles.GetProfile(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "profile.get: get profile failed", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	profile, err := h.Profiles.UpdateProfile(r.Context(), user.Session(), userdomain.ProfileUpdate{
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		h.fail(w, "profile.update: update profile failed", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handlers) AuthMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	response := toMeResponse(user)
	profile, err := h.Profiles.GetProfile(r.Context(), user.ID)
	if err != nil {
		h.log.BusinessError("auth.me: profile unavailable", err, "user_id", user.ID)
	} else {
		p := toProfileResponse(profile)
		response.Profile = &p
	}
	writeJSON(w, http.StatusOK, response)
}

// SignOut forgets per-user session state kept by the server. The token
// itself is revoked by the identity provider.
func (h *Handlers) SignOut(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	h.Rooms.ClearSelection(user.ID)
	h.log.Info("auth.signout: session state cleared", "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}

func toMeResponse(user middleware.User) meResponse {
	response := meResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
	}
	if !user.ExpiresAt.IsZero() {
		expires := user.ExpiresAt
		response.ExpiresAt = &expires
	}
	return response
}

func toProfileResponse(profile *userdomain.Profile) profileResponse {
	return profileResponse{
		UserID:      profile.UserID,
		DisplayName: profile.DisplayName,
		Email:       profile.Email,
		AvatarURL:   profile.AvatarURL,
		UpdatedAt:   profile.UpdatedAt,
	}
}
