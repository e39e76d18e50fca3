package dto

import "github.com/yourusername/learndocs-api/internal/domain/entity"

// SafeUser is the client-facing projection of a user. Password and
// reset-token material never leave through this type.
type SafeUser struct {
	ID                uint   `json:"id"`
	UserName          string `json:"userName"`
	Email             string `json:"email"`
	Role              string `json:"role"`
	IsVerified        bool   `json:"isVerified"`
	AuthProvider      string `json:"authProvider"`
	ProfilePicture    string `json:"profilePicture,omitempty"`
	AdditionalDetails *uint  `json:"additionalDetails,omitempty"`
}

// NewSafeUser projects an entity.User for API responses.
func NewSafeUser(user *entity.User) *SafeUser {
	if user == nil {
		return nil
	}
	return &SafeUser{
		ID:                user.ID,
		UserName:          user.UserName,
		Email:             user.Email,
		Role:              user.Role,
		IsVerified:        user.IsVerified,
		AuthProvider:      user.AuthProvider,
		ProfilePicture:    user.ProfilePicture,
		AdditionalDetails: user.ProfileID,
	}
}

// ProfileResponse is the client-facing projection of a user profile.
type ProfileResponse struct {
	ID            uint   `json:"id"`
	ContactNumber string `json:"contactNumber,omitempty"`
	Bio           string `json:"bio,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty"`
	Location      string `json:"location,omitempty"`
	Gender        string `json:"gender,omitempty"`
}

// NewProfileResponse projects an entity.Profile for API responses.
func NewProfileResponse(profile *entity.Profile) *ProfileResponse {
	if profile == nil {
		return nil
	}
	return &ProfileResponse{
		ID:            profile.ID,
		ContactNumber: profile.ContactNumber,
		Bio:           profile.Bio,
		ImageURL:      profile.ImageURL,
		Location:      profile.Location,
		Gender:        profile.Gender,
	}
}
