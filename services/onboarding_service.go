package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/baaten/partner_console/models"
	"go.uber.org/zap"
)

// AddPeoplePath is the onboarding endpoint creating a team roster entry
const AddPeoplePath = "/auth/api/team/add-people"

// ErrOnboardingRejected is returned when the onboarding service does not answer success:true
var ErrOnboardingRejected = errors.New("onboarding service rejected the submission")

// Onboarder submits approved partners to the team onboarding service
type Onboarder interface {
	Submit(ctx context.Context, token string, sub *models.OnboardingSubmission) (*models.OnboardingResponse, error)
}

// OnboardingService handles interactions with the team onboarding API
type OnboardingService struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOnboardingService creates a new onboarding service client
func NewOnboardingService(baseURL string, httpClient *http.Client, logger *zap.Logger) *OnboardingService {
	return &OnboardingService{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger.Named("onboarding"),
	}
}

// Submit posts the submission as multipart form data with the operator's bearer token
func (s *OnboardingService) Submit(ctx context.Context, token string, sub *models.OnboardingSubmission) (*models.OnboardingResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := writeSubmissionForm(w, sub); err != nil {
		return nil, fmt.Errorf("failed to build submission: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to build submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+AddPeoplePath, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result models.OnboardingResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &APIError{Service: "onboarding service", StatusCode: resp.StatusCode, Body: truncate(string(respBody), 512)}
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !result.Success {
		s.logger.Warn("onboarding submission rejected",
			zap.String("phone", sub.Phone),
			zap.Int("status", resp.StatusCode),
			zap.String("message", result.Message))
		if result.Message != "" {
			return &result, fmt.Errorf("%w: %s", ErrOnboardingRejected, result.Message)
		}
		return &result, ErrOnboardingRejected
	}

	s.logger.Info("partner submitted to onboarding", zap.String("phone", sub.Phone))
	return &result, nil
}

func writeSubmissionForm(w *multipart.Writer, sub *models.OnboardingSubmission) error {
	fields := [][2]string{
		{"name", sub.Name},
		{"phone", sub.Phone},
		{"about", sub.About},
		{"videoRpm", strconv.Itoa(sub.VideoRpm)},
		{"payoutVideoRpm", strconv.Itoa(sub.PayoutVideoRpm)},
		{"rpm", strconv.Itoa(sub.Rpm)},
		{"payoutAudioRpm", strconv.Itoa(sub.PayoutAudioRpm)},
		{"role", sub.Role},
		{"age", strconv.Itoa(sub.Age)},
		{"status", sub.Status},
	}
	if sub.UPI != "" {
		fields = append(fields, [2]string{"upi", sub.UPI})
	}
	for _, lang := range sub.Languages {
		fields = append(fields, [2]string{"language", lang})
	}
	if sub.IsVideoCallAllowed {
		fields = append(fields, [2]string{"isVideoCallAllowed", "true"})
	}
	if sub.IsVideoCallAllowedAdmin {
		fields = append(fields, [2]string{"isVideoCallAllowedAdmin", "true"})
	}

	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}

	if sub.Avatar != nil {
		if err := writeFilePart(w, "avatar", sub.Avatar); err != nil {
			return err
		}
	}
	if sub.Sample != nil {
		if err := writeFilePart(w, "sample", sub.Sample); err != nil {
			return err
		}
	}
	return nil
}
