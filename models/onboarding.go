package models

// Rate-per-minute defaults applied to every partner moved to the team roster
const (
	DefaultVideoRpm       = 29
	DefaultPayoutVideoRpm = 9
	DefaultRpm            = 6
	DefaultPayoutAudioRpm = 2
)

// Fixed roster values for newly onboarded partners
const (
	OnboardingRole   = "friend"
	OnboardingAge    = 22
	OnboardingStatus = "offline"
)

// OnboardingSubmission is the team member record sent to the onboarding service.
// Avatar and Sample are attached as file parts.
type OnboardingSubmission struct {
	Name                    string
	Phone                   string
	About                   string
	VideoRpm                int
	PayoutVideoRpm          int
	Rpm                     int
	PayoutAudioRpm          int
	Role                    string
	Age                     int
	Status                  string
	UPI                     string
	Languages               []string
	IsVideoCallAllowed      bool
	IsVideoCallAllowedAdmin bool

	Avatar *MediaFile
	Sample *MediaFile
}

// MediaFile is a fetched or re-encoded media attachment
type MediaFile struct {
	Filename    string
	ContentType string
	Data        []byte
	SourceURL   string
}

// OnboardingResponse is the body returned by the add-people endpoint
type OnboardingResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
