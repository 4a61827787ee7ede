package controllers

import (
	"strconv"

	"rescuereach/models"
	"rescuereach/services"
	"rescuereach/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type SOSController struct {
	sosService *services.SOSService
}

func NewSOSController(sosService *services.SOSService) *SOSController {
	return &SOSController{
		sosService: sosService,
	}
}

// TriggerSOS creates and delivers an emergency report
func (sc *SOSController) TriggerSOS(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	var req models.TriggerSOSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid SOS request")
		return
	}

	outcome, err := sc.sosService.TriggerSOS(c.Request.Context(), userID, &req)
	if err != nil {
		logrus.Errorf("Trigger SOS failed for user %s: %v", userID, err)
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, outcome.Message, outcome)
}

// CancelSOS resolves the user's report by cancellation
func (sc *SOSController) CancelSOS(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}
	reportID := c.Param("id")

	var req models.CancelSOSRequest
	// Body is optional
	_ = c.ShouldBindJSON(&req)

	if err := sc.sosService.CancelSOS(c.Request.Context(), userID, reportID, req.Reason); err != nil {
		logrus.Errorf("Cancel SOS %s failed: %v", reportID, err)
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Emergency report cancelled", nil)
}

// GetActiveSOS returns the user's in-flight report, if any
func (sc *SOSController) GetActiveSOS(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	report, err := sc.sosService.GetActiveReport(c.Request.Context(), userID)
	if err != nil {
		logrus.Errorf("Get active SOS failed for user %s: %v", userID, err)
		utils.ServiceErrorResponse(c, err)
		return
	}
	if report == nil {
		utils.SuccessResponse(c, "No active emergency report", nil)
		return
	}

	utils.SuccessResponse(c, "Active emergency report retrieved", report)
}

// GetSOS returns one report by id
func (sc *SOSController) GetSOS(c *gin.Context) {
	reportID := c.Param("id")

	report, err := sc.sosService.GetReport(c.Request.Context(), reportID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Emergency report retrieved", report)
}

// GetSOSStatus returns the live-status projection for a report
func (sc *SOSController) GetSOSStatus(c *gin.Context) {
	reportID := c.Param("id")

	entry, err := sc.sosService.GetLiveStatus(c.Request.Context(), reportID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Live status retrieved", entry)
}

// UpdateSOSStatus advances a report's lifecycle (responder role)
func (sc *SOSController) UpdateSOSStatus(c *gin.Context) {
	reportID := c.Param("id")

	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid status update")
		return
	}

	report, err := sc.sosService.UpdateStatus(c.Request.Context(), reportID, &req)
	if err != nil {
		logrus.Errorf("Update status of %s failed: %v", reportID, err)
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Report status updated", report)
}

// GetHistory lists the user's past reports
func (sc *SOSController) GetHistory(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	reports, err := sc.sosService.GetHistory(c.Request.Context(), userID, limit)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Report history retrieved", reports)
}

// GetRegionReports lists unresolved reports in a state (responder role)
func (sc *SOSController) GetRegionReports(c *gin.Context) {
	state := c.Param("state")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	reports, err := sc.sosService.GetRegionReports(c.Request.Context(), state, limit)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Region reports retrieved", reports)
}

// DeleteSOS removes a report and its index entries
func (sc *SOSController) DeleteSOS(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}
	reportID := c.Param("id")

	if err := sc.sosService.DeleteReport(c.Request.Context(), userID, reportID); err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Emergency report deleted", nil)
}

// AddComment attaches a comment to a report
func (sc *SOSController) AddComment(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}
	reportID := c.Param("id")

	var req models.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid comment")
		return
	}

	comment, err := sc.sosService.AddComment(c.Request.Context(), userID, reportID, &req)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Comment added", comment)
}

// GetComments lists a report's comments
func (sc *SOSController) GetComments(c *gin.Context) {
	reportID := c.Param("id")

	comments, err := sc.sosService.GetComments(c.Request.Context(), reportID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Comments retrieved", comments)
}
