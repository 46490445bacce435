package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/baaten/partner_console/middleware"
	"github.com/baaten/partner_console/models"
	"github.com/baaten/partner_console/services"
	"github.com/baaten/partner_console/utils"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TransitionHistory reads the audit trail of a partner
type TransitionHistory interface {
	ListByPartner(ctx context.Context, partnerID string) ([]models.Transition, error)
}

type PartnerController struct {
	Partners    services.PartnerAPI
	Directory   *services.PartnerDirectory
	Transitions *services.TransitionService

	// History is nil when MongoDB is not configured
	History TransitionHistory
	logger  *zap.Logger
}

func NewPartnerController(partners services.PartnerAPI, directory *services.PartnerDirectory, transitions *services.TransitionService, history TransitionHistory, logger *zap.Logger) *PartnerController {
	return &PartnerController{
		Partners:    partners,
		Directory:   directory,
		Transitions: transitions,
		History:     history,
		logger:      logger.Named("partners"),
	}
}

// ListPartners returns one page of partners, filtered by phone when ?search is set
// (GET /api/admin/partners)
func (pc *PartnerController) ListPartners(c echo.Context) error {
	page := queryInt(c, "page", services.DefaultPage)
	limit := queryInt(c, "limit", services.DefaultLimit)

	result, err := pc.Directory.List(c.Request().Context(), page, limit)
	if err != nil {
		pc.logger.Error("listing partners failed", zap.Int("page", page), zap.Int("limit", limit), zap.Error(err))
		return c.JSON(http.StatusBadGateway, models.Response{
			Status:  http.StatusBadGateway,
			Message: "Failed to fetch partners",
		})
	}

	if search := c.QueryParam("search"); search != "" {
		filtered := *result
		filtered.Partners = utils.FilterByPhone(result.Partners, search)
		result = &filtered
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Partners retrieved successfully",
		Data:    result,
	})
}

// GetPartner returns a single partner (GET /api/admin/partners/:id)
func (pc *PartnerController) GetPartner(c echo.Context) error {
	partner, err := pc.Partners.GetPartner(c.Request().Context(), c.Param("id"))
	if err != nil {
		return pc.lookupError(c, err, "Failed to fetch partner")
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Partner retrieved successfully",
		Data:    partner,
	})
}

// UpdatePartner forwards an operator's profile, KYC and bank edit
// (PATCH /api/admin/partners/:id, multipart)
func (pc *PartnerController) UpdatePartner(c echo.Context) error {
	id := c.Param("id")

	update, err := parseProfileUpdate(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.Request().Context()
	if err := pc.Partners.UpdateProfile(ctx, id, *update); err != nil {
		return pc.lookupError(c, err, "Failed to update partner")
	}
	pc.Directory.Invalidate(ctx)

	var data interface{}
	if partner, err := pc.Partners.GetPartner(ctx, id); err == nil {
		data = partner
	} else {
		pc.logger.Warn("re-reading updated partner failed", zap.String("partnerId", id), zap.Error(err))
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Partner updated successfully",
		Data:    data,
	})
}

// ApprovePartner onboards the partner and marks it Approved
// (POST /api/admin/partners/:id/approve)
func (pc *PartnerController) ApprovePartner(c echo.Context) error {
	var req models.ApproveRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.Request().Context()
	partner, err := pc.Partners.GetPartner(ctx, c.Param("id"))
	if err != nil {
		return pc.lookupError(c, err, "Failed to approve partner")
	}
	if partner.StatusLabel() == models.StatusApproved {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Partner is already approved",
		})
	}

	result, err := pc.Transitions.Approve(ctx, partner, utils.SanitizeInput(req.Note), middleware.OperatorFromContext(c), req.Page, req.Limit)
	if err != nil {
		return transitionError(c, err, "Failed to approve partner")
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Partner approved successfully",
		Data:    result,
	})
}

// RejectPartner marks the partner Rejected and deletes it
// (POST /api/admin/partners/:id/reject)
func (pc *PartnerController) RejectPartner(c echo.Context) error {
	var req models.RejectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	reason := utils.SanitizeInput(req.Reason)
	if reason == "" {
		return badRequest(c, "Rejection reason is required")
	}

	ctx := c.Request().Context()
	partner, err := pc.Partners.GetPartner(ctx, c.Param("id"))
	if err != nil {
		return pc.lookupError(c, err, "Failed to reject and delete partner")
	}
	if partner.StatusLabel() == models.StatusRejected {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Partner is already rejected",
		})
	}

	result, err := pc.Transitions.Reject(ctx, c.Param("id"), reason, middleware.OperatorFromContext(c), req.Page, req.Limit)
	if err != nil {
		return transitionError(c, err, "Failed to reject and delete partner")
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Partner rejected and deleted successfully",
		Data:    result,
	})
}

// ListTransitions returns the audit history of a partner
// (GET /api/admin/partners/:id/transitions)
func (pc *PartnerController) ListTransitions(c echo.Context) error {
	if pc.History == nil {
		return c.JSON(http.StatusServiceUnavailable, models.Response{
			Status:  http.StatusServiceUnavailable,
			Message: "Transition history is not configured",
		})
	}

	transitions, err := pc.History.ListByPartner(c.Request().Context(), c.Param("id"))
	if err != nil {
		pc.logger.Error("listing transitions failed", zap.String("partnerId", c.Param("id")), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch transitions",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Transitions retrieved successfully",
		Data:    transitions,
	})
}

// UpdatePartnerStatus is a raw status write with no onboarding
// (PATCH /api/update-partner-status)
func (pc *PartnerController) UpdatePartnerStatus(c echo.Context) error {
	var req models.StatusUpdate
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.Request().Context()
	if err := pc.Partners.UpdateStatus(ctx, req); err != nil {
		return pc.lookupError(c, err, "Failed to update partner status")
	}
	pc.Directory.Invalidate(ctx)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Partner status updated successfully",
	})
}

// lookupError maps Partner API errors: not found is 404, anything else 502
func (pc *PartnerController) lookupError(c echo.Context, err error, message string) error {
	if errors.Is(err, services.ErrPartnerNotFound) {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Partner not found",
		})
	}
	pc.logger.Error(message, zap.String("partnerId", c.Param("id")), zap.Error(err))
	return c.JSON(http.StatusBadGateway, models.Response{
		Status:  http.StatusBadGateway,
		Message: message,
	})
}

// transitionError keeps the generic message; the stage tells the operator
// which earlier steps already took effect
func transitionError(c echo.Context, err error, message string) error {
	status := http.StatusBadGateway
	data := map[string]string{}

	var terr *services.TransitionError
	if errors.As(err, &terr) {
		data["stage"] = terr.Stage
		if terr.Stage == services.StageBuild || errors.Is(err, services.ErrMissingAudioIntro) {
			status = http.StatusBadRequest
		}
	}

	return c.JSON(status, models.Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.New("Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return errors.New("Validation failed: " + err.Error())
	}
	return nil
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, models.Response{
		Status:  http.StatusBadRequest,
		Message: message,
	})
}

func queryInt(c echo.Context, name string, fallback int) int {
	if v := c.QueryParam(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// parseProfileUpdate reads the edit form. Lists arrive as a JSON array, a
// comma separated string or repeated fields.
func parseProfileUpdate(c echo.Context) (*models.ProfileUpdate, error) {
	form, err := c.FormParams()
	if err != nil {
		return nil, errors.New("Invalid form data")
	}

	update := &models.ProfileUpdate{
		Name:            utils.SanitizeInput(form.Get("name")),
		Bio:             utils.SanitizeInput(form.Get("bio")),
		Hobby:           utils.SanitizeInput(form.Get("hobby")),
		SpokenLanguages: utils.SanitizeStringArray(parseList(form["spokenLanguage"])),
		Hobbies:         utils.SanitizeStringArray(parseList(form["hobbies"])),
		KYCPanNumber:    strings.ToUpper(utils.SanitizeInput(form.Get("kyc[panNumber]"))),
		KYCStatus:       utils.SanitizeInput(form.Get("kyc[status]")),
	}
	if update.Name == "" {
		return nil, errors.New("Name is required")
	}

	bank := map[string]string{}
	for key, values := range form {
		if strings.HasPrefix(key, "bankDetails[") && strings.HasSuffix(key, "]") && len(values) > 0 {
			bank[strings.TrimSuffix(strings.TrimPrefix(key, "bankDetails["), "]")] = values[0]
		}
	}
	update.BankDetails = utils.SanitizeMap(bank)

	uploads := []struct {
		field     string
		mediaType string
		dst       **models.MediaFile
	}{
		{"kyc[panCardFile]", utils.MediaDocument, &update.PanCardFile},
		{"profilePicture", utils.MediaImage, &update.ProfilePicture},
		{"audioIntro", utils.MediaAudio, &update.AudioIntro},
	}
	for _, u := range uploads {
		fh, err := c.FormFile(u.field)
		if err != nil {
			continue
		}
		file, err := utils.ReadUpload(fh, u.mediaType)
		if err != nil {
			return nil, err
		}
		*u.dst = file
	}

	return update, nil
}

func parseList(values []string) []string {
	if len(values) == 1 {
		v := strings.TrimSpace(values[0])
		if strings.HasPrefix(v, "[") {
			var list []string
			if err := json.Unmarshal([]byte(v), &list); err == nil {
				return list
			}
		}
		return strings.Split(v, ",")
	}
	return values
}
