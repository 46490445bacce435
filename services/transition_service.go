package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/baaten/partner_console/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Stages of a transition, recorded on failure
const (
	StageBuild   = "build"
	StageAvatar  = "avatar"
	StageSample  = "sample"
	StageOnboard = "onboard"
	StageStatus  = "status"
	StageDelete  = "delete"
	StageDone    = "done"
)

// Event types published after a transition attempt
const (
	EventPartnerApproved  = "partner.approved"
	EventPartnerRejected  = "partner.rejected"
	EventTransitionFailed = "partner.transition_failed"
)

const sideChannelTimeout = 5 * time.Second

var (
	ErrInvalidPartner    = errors.New("partner record is missing required fields")
	ErrMissingAudioIntro = errors.New("partner has no audio intro")
	ErrNoFallbackAvatar  = errors.New("no fallback avatar configured")
)

// TransitionError reports the stage at which a transition stopped.
// Earlier stages are not rolled back.
type TransitionError struct {
	Decision models.Decision
	Stage    string
	Err      error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s failed at %s: %v", e.Decision, e.Stage, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// TransitionRecorder persists the audit record of a transition attempt
type TransitionRecorder interface {
	Record(ctx context.Context, t *models.Transition) error
}

// EventPublisher publishes transition events to other services
type EventPublisher interface {
	Publish(ctx context.Context, event models.TransitionEvent) error
}

// Notifier pushes transition events to connected operators
type Notifier interface {
	BroadcastTransition(event models.TransitionEvent)
}

// TransitionConfig wires the orchestrator. Recorder, Publisher and Notifier are optional.
type TransitionConfig struct {
	Partners  PartnerAPI
	Onboarder Onboarder
	Media     MediaFetcher
	Directory *PartnerDirectory

	Recorder  TransitionRecorder
	Publisher EventPublisher
	Notifier  Notifier

	FallbackAvatars []string
	// VideoFlags enables the video-call flags for partners whose earning
	// preference is video. Off, the flags are never sent.
	VideoFlags bool
	// Pick returns an index in [0, n) for the fallback avatar; defaults to math/rand
	Pick func(n int) int
}

// TransitionResult is returned after a successful transition
type TransitionResult struct {
	TransitionID string               `json:"transitionId"`
	PartnerID    string               `json:"partnerId"`
	Status       models.PartnerStatus `json:"status"`
	Partners     *models.PartnerPage  `json:"partners,omitempty"`
}

// TransitionService coordinates the remote calls behind approve and reject
type TransitionService struct {
	cfg    TransitionConfig
	now    func() time.Time
	logger *zap.Logger
}

// NewTransitionService creates the status transition orchestrator
func NewTransitionService(cfg TransitionConfig, logger *zap.Logger) *TransitionService {
	if cfg.Pick == nil {
		cfg.Pick = rand.Intn
	}
	return &TransitionService{cfg: cfg, now: time.Now, logger: logger.Named("transitions")}
}

// BuildSubmission maps a partner onto the onboarding service's team member shape
func (s *TransitionService) BuildSubmission(p *models.Partner) *models.OnboardingSubmission {
	sub := &models.OnboardingSubmission{
		Name:           p.Name,
		Phone:          p.PhoneNumber,
		About:          p.Bio,
		VideoRpm:       models.DefaultVideoRpm,
		PayoutVideoRpm: models.DefaultPayoutVideoRpm,
		Rpm:            models.DefaultRpm,
		PayoutAudioRpm: models.DefaultPayoutAudioRpm,
		Role:           models.OnboardingRole,
		Age:            models.OnboardingAge,
		Status:         models.OnboardingStatus,
		UPI:            p.UPI(),
	}
	for _, lang := range p.SpokenLanguages {
		if lang = strings.ToLower(strings.TrimSpace(lang)); lang != "" {
			sub.Languages = append(sub.Languages, lang)
		}
	}
	if s.cfg.VideoFlags && strings.ToLower(strings.TrimSpace(p.EarningPreference)) == models.EarningPreferenceVideo {
		sub.IsVideoCallAllowed = true
		sub.IsVideoCallAllowedAdmin = true
	}
	return sub
}

// AvatarURL returns the profile picture, or a pseudo-random fallback avatar
func (s *TransitionService) AvatarURL(p *models.Partner) (string, error) {
	if u := p.ProfilePictureURL(); u != "" {
		return u, nil
	}
	if len(s.cfg.FallbackAvatars) == 0 {
		return "", ErrNoFallbackAvatar
	}
	return s.cfg.FallbackAvatars[s.cfg.Pick(len(s.cfg.FallbackAvatars))], nil
}

// Approve submits the partner to the onboarding service and, only if it
// answered success, marks the partner Approved. Not idempotent: a retry after
// a failed status update submits the partner again.
func (s *TransitionService) Approve(ctx context.Context, partner *models.Partner, note string, op models.Operator, page, limit int) (*TransitionResult, error) {
	rec := s.begin(models.DecisionApprove, models.StatusApproved, op)
	rec.Note = note
	if partner != nil {
		rec.PartnerID = partner.ID
		rec.PartnerName = partner.Name
	}

	fail := func(stage string, err error) (*TransitionResult, error) {
		return nil, s.finish(rec, stage, err)
	}

	if partner == nil || partner.ID == "" || partner.Name == "" || partner.PhoneNumber == "" {
		return fail(StageBuild, ErrInvalidPartner)
	}

	sub := s.BuildSubmission(partner)

	avatarURL, err := s.AvatarURL(partner)
	if err != nil {
		return fail(StageAvatar, err)
	}
	sub.Avatar, err = s.cfg.Media.FetchAvatar(ctx, avatarURL)
	if err != nil {
		return fail(StageAvatar, err)
	}

	audioURL := partner.AudioIntroURL()
	if audioURL == "" {
		return fail(StageSample, ErrMissingAudioIntro)
	}
	sub.Sample, err = s.cfg.Media.FetchSample(ctx, audioURL)
	if err != nil {
		return fail(StageSample, err)
	}

	if _, err := s.cfg.Onboarder.Submit(ctx, op.Token, sub); err != nil {
		return fail(StageOnboard, err)
	}

	update := models.StatusUpdate{PartnerID: partner.ID, Status: models.StatusApproved, Note: note}
	if err := s.cfg.Partners.UpdateStatus(ctx, update); err != nil {
		return fail(StageStatus, err)
	}

	_ = s.finish(rec, StageDone, nil)
	return s.result(ctx, rec, page, limit), nil
}

// Reject marks the partner Rejected and then deletes it. If the delete fails
// the partner stays Rejected.
func (s *TransitionService) Reject(ctx context.Context, partnerID, reason string, op models.Operator, page, limit int) (*TransitionResult, error) {
	rec := s.begin(models.DecisionReject, models.StatusRejected, op)
	rec.PartnerID = partnerID
	rec.RejectionReason = reason

	update := models.StatusUpdate{PartnerID: partnerID, Status: models.StatusRejected, RejectionReason: reason}
	if err := s.cfg.Partners.UpdateStatus(ctx, update); err != nil {
		return nil, s.finish(rec, StageStatus, err)
	}

	if err := s.cfg.Partners.DeletePartner(ctx, partnerID); err != nil {
		return nil, s.finish(rec, StageDelete, err)
	}

	_ = s.finish(rec, StageDone, nil)
	return s.result(ctx, rec, page, limit), nil
}

func (s *TransitionService) begin(decision models.Decision, target models.PartnerStatus, op models.Operator) *models.Transition {
	return &models.Transition{
		TransitionID:  uuid.NewString(),
		Decision:      decision,
		TargetStatus:  target,
		OperatorID:    op.ID,
		OperatorEmail: op.Email,
		StartedAt:     s.now(),
	}
}

// result refreshes the partner list. A failed refresh does not undo the
// transition; the page is left empty and the caller re-fetches.
func (s *TransitionService) result(ctx context.Context, rec *models.Transition, page, limit int) *TransitionResult {
	res := &TransitionResult{
		TransitionID: rec.TransitionID,
		PartnerID:    rec.PartnerID,
		Status:       rec.TargetStatus,
	}
	if s.cfg.Directory == nil {
		return res
	}
	partners, err := s.cfg.Directory.Refresh(ctx, page, limit)
	if err != nil {
		s.logger.Warn("refreshing partner list failed",
			zap.String("transitionId", rec.TransitionID),
			zap.Error(err))
		return res
	}
	res.Partners = partners
	return res
}

// finish completes the audit record and fans it out. It returns the error
// wrapped in a TransitionError, or nil on success.
func (s *TransitionService) finish(rec *models.Transition, stage string, err error) error {
	rec.Stage = stage
	rec.FinishedAt = s.now()
	rec.Succeeded = err == nil

	var terr *TransitionError
	eventType := EventPartnerApproved
	if rec.Decision == models.DecisionReject {
		eventType = EventPartnerRejected
	}

	if err != nil {
		terr = &TransitionError{Decision: rec.Decision, Stage: stage, Err: err}
		rec.Error = err.Error()
		eventType = EventTransitionFailed
		s.logger.Error("partner transition failed",
			zap.String("transitionId", rec.TransitionID),
			zap.String("decision", string(rec.Decision)),
			zap.String("partnerId", rec.PartnerID),
			zap.String("stage", stage),
			zap.Error(err))
	} else {
		s.logger.Info("partner transition completed",
			zap.String("transitionId", rec.TransitionID),
			zap.String("decision", string(rec.Decision)),
			zap.String("partnerId", rec.PartnerID),
			zap.Duration("took", rec.FinishedAt.Sub(rec.StartedAt)))
	}

	event := models.TransitionEvent{
		Type:         eventType,
		TransitionID: rec.TransitionID,
		PartnerID:    rec.PartnerID,
		PartnerName:  rec.PartnerName,
		Status:       rec.TargetStatus,
		Stage:        stage,
		OperatorID:   rec.OperatorID,
		OccurredAt:   rec.FinishedAt,
	}
	s.sideChannels(rec, event)

	if terr != nil {
		return terr
	}
	return nil
}

// sideChannels records and announces the attempt. Their failures are logged only.
func (s *TransitionService) sideChannels(rec *models.Transition, event models.TransitionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), sideChannelTimeout)
	defer cancel()

	if s.cfg.Recorder != nil {
		if err := s.cfg.Recorder.Record(ctx, rec); err != nil {
			s.logger.Warn("recording transition failed", zap.String("transitionId", rec.TransitionID), zap.Error(err))
		}
	}
	if s.cfg.Publisher != nil {
		if err := s.cfg.Publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("publishing transition event failed", zap.String("transitionId", rec.TransitionID), zap.Error(err))
		}
	}
	if s.cfg.Notifier != nil {
		s.cfg.Notifier.BroadcastTransition(event)
	}
}
