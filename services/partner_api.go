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
	"net/url"
	"strconv"

	"github.com/baaten/partner_console/models"
	"go.uber.org/zap"
)

// ErrPartnerNotFound is returned when the Partner API answers 404
var ErrPartnerNotFound = errors.New("partner not found")

// APIError is a non-2xx answer from a remote API
type APIError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s responded with status %d: %s", e.Service, e.StatusCode, e.Body)
}

// PartnerAPI is the subset of the remote Partner API used by the console
type PartnerAPI interface {
	ListPartners(ctx context.Context, page, limit int) (*models.PartnerPage, error)
	GetPartner(ctx context.Context, id string) (*models.Partner, error)
	UpdateStatus(ctx context.Context, update models.StatusUpdate) error
	UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) error
	DeletePartner(ctx context.Context, id string) error
}

// PartnerAPIClient talks to the remote Partner API over HTTP
type PartnerAPIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewPartnerAPIClient creates a Partner API client
func NewPartnerAPIClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *PartnerAPIClient {
	return &PartnerAPIClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger.Named("partner_api"),
	}
}

func (s *PartnerAPIClient) partnerURL(id string) string {
	return s.baseURL + "/api/partners/" + url.PathEscape(id)
}

// ListPartners fetches one page of partners
func (s *PartnerAPIClient) ListPartners(ctx context.Context, page, limit int) (*models.PartnerPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	endpoint := s.baseURL + "/api/partners"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var result models.PartnerPage
	if err := s.do(req, &result); err != nil {
		return nil, err
	}
	if result.Partners == nil {
		result.Partners = []models.Partner{}
	}
	if result.Pagination.Page == 0 {
		result.Pagination.Page = page
	}
	if result.Pagination.Limit == 0 {
		result.Pagination.Limit = limit
	}
	return &result, nil
}

// GetPartner fetches a single partner. The API wraps the record as
// {"partner": {...}} on some deployments and returns it bare on others.
func (s *PartnerAPIClient) GetPartner(ctx context.Context, id string) (*models.Partner, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.partnerURL(id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var raw json.RawMessage
	if err := s.do(req, &raw); err != nil {
		return nil, err
	}

	var wrapped struct {
		Partner *models.Partner `json:"partner"`
	}
	partner := &models.Partner{}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Partner != nil {
		partner = wrapped.Partner
	} else if err := json.Unmarshal(raw, partner); err != nil {
		return nil, fmt.Errorf("failed to parse partner: %w", err)
	}
	if partner.ID == "" {
		partner.ID = id
	}
	return partner, nil
}

// UpdateStatus writes status, note and rejectionReason onto the partner
func (s *PartnerAPIClient) UpdateStatus(ctx context.Context, update models.StatusUpdate) error {
	body, err := json.Marshal(map[string]interface{}{
		"status":          update.Status,
		"note":            update.Note,
		"rejectionReason": update.RejectionReason,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, s.partnerURL(update.PartnerID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	s.logger.Info("updating partner status",
		zap.String("partnerId", update.PartnerID),
		zap.String("status", string(update.Status)))

	return s.do(req, nil)
}

// UpdateProfile sends an operator edit as multipart form data
func (s *PartnerAPIClient) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := writeProfileForm(w, update); err != nil {
		return fmt.Errorf("failed to build profile form: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to build profile form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, s.partnerURL(id), &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return s.do(req, nil)
}

func writeProfileForm(w *multipart.Writer, update models.ProfileUpdate) error {
	languages, err := json.Marshal(nonNil(update.SpokenLanguages))
	if err != nil {
		return err
	}
	hobbies, err := json.Marshal(nonNil(update.Hobbies))
	if err != nil {
		return err
	}

	fields := [][2]string{
		{"name", update.Name},
		{"bio", update.Bio},
		{"hobby", update.Hobby},
		{"spokenLanguage", string(languages)},
		{"hobbies", string(hobbies)},
		{"kyc[panNumber]", update.KYCPanNumber},
		{"kyc[status]", update.KYCStatus},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(update.BankDetails) {
		if err := w.WriteField("bankDetails["+key+"]", update.BankDetails[key]); err != nil {
			return err
		}
	}

	files := []struct {
		field string
		file  *models.MediaFile
	}{
		{"kyc[panCardFile]", update.PanCardFile},
		{"profilePicture", update.ProfilePicture},
		{"audioIntro", update.AudioIntro},
	}
	for _, f := range files {
		if f.file == nil {
			continue
		}
		if err := writeFilePart(w, f.field, f.file); err != nil {
			return err
		}
	}
	return nil
}

// DeletePartner removes the partner from the remote store
func (s *PartnerAPIClient) DeletePartner(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.partnerURL(id), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	s.logger.Info("deleting partner", zap.String("partnerId", id))

	return s.do(req, nil)
}

// do sends the request and decodes a JSON body into out when out is non-nil
func (s *PartnerAPIClient) do(req *http.Request, out interface{}) error {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrPartnerNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("partner API error",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode))
		return &APIError{Service: "partner API", StatusCode: resp.StatusCode, Body: truncate(string(respBody), 512)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
