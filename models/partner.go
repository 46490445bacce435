package models

import "strings"

// PartnerStatus is the review state of a partner application
type PartnerStatus string

const (
	StatusPending  PartnerStatus = "Pending"
	StatusApproved PartnerStatus = "Approved"
	StatusRejected PartnerStatus = "Rejected"
)

// Earning preferences reported by the partner app
const (
	EarningPreferenceAudio = "audio"
	EarningPreferenceVideo = "video"
)

// KYC holds the identity documents submitted by a partner
type KYC struct {
	PanNumber   string `json:"panNumber,omitempty"`
	PanCardFile string `json:"panCardFile,omitempty"` // url
	Status      string `json:"status,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// Partner is the partner document owned by the remote Partner API.
// Every field is optional on the wire; use the accessors for defaults.
type Partner struct {
	ID                string            `json:"_id"`
	Name              string            `json:"name,omitempty"`
	PhoneNumber       string            `json:"phoneNumber,omitempty"`
	Bio               string            `json:"bio,omitempty"`
	Status            PartnerStatus     `json:"status,omitempty"`
	KYC               *KYC              `json:"kyc,omitempty"`
	BankDetails       map[string]string `json:"bankDetails,omitempty"`
	SpokenLanguages   []string          `json:"spokenLanguages,omitempty"`
	Hobbies           []string          `json:"hobbies,omitempty"`
	Hobby             string            `json:"hobby,omitempty"`
	ProfilePicture    *string           `json:"profilePicture,omitempty"`
	AudioIntro        *string           `json:"audioIntro,omitempty"`
	CapturedPhoto     *string           `json:"capturedPhoto,omitempty"`
	AvatarURL         string            `json:"avatarUrl,omitempty"`
	EarningPreference string            `json:"earningPreference,omitempty"`
	Note              string            `json:"note,omitempty"`
	RejectionReason   string            `json:"rejectionReason,omitempty"`
	CreatedAt         string            `json:"createdAt,omitempty"`
	UpdatedAt         string            `json:"updatedAt,omitempty"`
}

// StatusLabel returns the status shown to operators. Missing status reads as Pending.
func (p *Partner) StatusLabel() PartnerStatus {
	switch p.Status {
	case StatusApproved, StatusRejected:
		return p.Status
	default:
		return StatusPending
	}
}

// SearchPhone is the phone number used by the list search: phoneNumber, then kyc.phone.
func (p *Partner) SearchPhone() string {
	if p.PhoneNumber != "" {
		return p.PhoneNumber
	}
	if p.KYC != nil {
		return p.KYC.Phone
	}
	return ""
}

// UPI returns bankDetails.upiId or an empty string
func (p *Partner) UPI() string {
	if p.BankDetails == nil {
		return ""
	}
	return strings.TrimSpace(p.BankDetails["upiId"])
}

// ProfilePictureURL returns the profile picture url or an empty string
func (p *Partner) ProfilePictureURL() string {
	return deref(p.ProfilePicture)
}

// AudioIntroURL returns the audio intro url or an empty string
func (p *Partner) AudioIntroURL() string {
	return deref(p.AudioIntro)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// Pagination is the paging block returned by the Partner API list endpoint
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// PartnerPage is one page of partners
type PartnerPage struct {
	Partners   []Partner  `json:"partners"`
	Pagination Pagination `json:"pagination"`
}

// Contains reports whether a partner with the given id is on the page
func (pp *PartnerPage) Contains(id string) bool {
	for i := range pp.Partners {
		if pp.Partners[i].ID == id {
			return true
		}
	}
	return false
}

// StatusUpdate is the body accepted by the status update endpoint
type StatusUpdate struct {
	PartnerID       string        `json:"partnerId" validate:"required"`
	Status          PartnerStatus `json:"status" validate:"required,oneof=Pending Approved Rejected"`
	Note            string        `json:"note,omitempty"`
	RejectionReason string        `json:"rejectionReason,omitempty"`
}

// ProfileUpdate is an operator edit of a partner's profile, KYC and bank fields.
// File fields are only sent when a new file was uploaded.
type ProfileUpdate struct {
	Name            string
	Bio             string
	Hobby           string
	SpokenLanguages []string
	Hobbies         []string
	KYCPanNumber    string
	KYCStatus       string
	BankDetails     map[string]string

	PanCardFile    *MediaFile
	ProfilePicture *MediaFile
	AudioIntro     *MediaFile
}
