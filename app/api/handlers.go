package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tagvine/postwatch/app/cfg"
	"github.com/tagvine/postwatch/app/database"
	"github.com/tagvine/postwatch/app/tasks"
)

func NewHandler(accountRepo database.AccountRepository, campaignRepo database.CampaignRepository,
	contentRepo database.ContentRepository, metricRepo database.MetricRepository,
	scanLogRepo database.ScanLogRepository, pool PoolStatusProvider,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		accountRepo:  accountRepo,
		campaignRepo: campaignRepo,
		contentRepo:  contentRepo,
		metricRepo:   metricRepo,
		scanLogRepo:  scanLogRepo,
		pool:         pool,
		scheduler:    scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.Get().Version,
	}

	if accountCount, err := h.accountRepo.GetAccountCount(); err == nil {
		health["tracked_accounts"] = accountCount
	}
	if campaignCount, err := h.campaignRepo.GetActiveCampaignCount(time.Now().UTC()); err == nil {
		health["active_campaigns"] = campaignCount
	}
	if contentCount, err := h.contentRepo.GetContentCount(); err == nil {
		health["registered_contents"] = contentCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"cycles":    h.scheduler.CycleStatuses(),
		"pool":      h.pool.Status(),
	})
}

func (h *Handler) APIListAccounts(c *gin.Context) {
	accounts, err := h.accountRepo.ListAccounts()
	if err != nil {
		slog.Error("Database error", "operation", "list_accounts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list := make([]map[string]interface{}, 0, len(accounts))
	for _, account := range accounts {
		list = append(list, map[string]interface{}{
			"id":                 account.ID,
			"platform_uid":       account.PlatformUID,
			"username":           account.Username,
			"scan_priority":      account.ScanPriority,
			"last_checked_at":    account.LastCheckedAt,
			"last_known_post_id": account.LastKnownPostID,
			"full_name":          account.FullName,
			"follower_count":     account.FollowerCount,
			"media_count":        account.MediaCount,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"accounts": list,
		"total":    len(list),
	})
}

func (h *Handler) APIGetAccountLogs(c *gin.Context) {
	accountID := c.Param("id")
	if accountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing account id parameter"})
		return
	}

	account, err := h.accountRepo.GetAccount(accountID)
	if err != nil {
		slog.Error("Database error", "operation", "get_account", "account_id", accountID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if account == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	logs, err := h.scanLogRepo.GetRecentForAccount(accountID, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_scan_logs", "account_id", accountID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	entries := make([]map[string]interface{}, 0, len(logs))
	for _, log := range logs {
		entry := map[string]interface{}{
			"kind":           log.Kind,
			"posts_examined": log.PostsExamined,
			"new_posts":      log.NewPosts,
			"matches":        log.Matches,
			"scanned_at":     log.ScannedAt,
		}
		if log.Error != "" {
			entry["error"] = log.Error
		}
		entries = append(entries, entry)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"account": account.Username,
		"logs":    entries,
		"total":   len(entries),
	})
}

func (h *Handler) APITriggerAccountScan(c *gin.Context) {
	accountID := c.Param("id")
	if accountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing account id parameter"})
		return
	}

	if err := h.scheduler.TriggerAccountScan(accountID); err != nil {
		slog.Error("Error triggering account scan", "account_id", accountID, "error", err)
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Failed to trigger scan",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Scan enqueued",
		"account_id": accountID,
	})
}

func (h *Handler) APITriggerCampaignScan(c *gin.Context) {
	campaignID := c.Param("id")
	if campaignID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing campaign id parameter"})
		return
	}

	enqueued, err := h.scheduler.TriggerCampaignScan(campaignID)
	if err != nil {
		slog.Error("Error triggering campaign scan", "campaign_id", campaignID, "error", err)
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Failed to trigger scan",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Scans enqueued",
		"campaign_id": campaignID,
		"enqueued":    enqueued,
	})
}

func (h *Handler) APIGetContentMetrics(c *gin.Context) {
	contentID := c.Param("id")
	if contentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing content id parameter"})
		return
	}

	content, err := h.contentRepo.GetContent(contentID)
	if err != nil {
		slog.Error("Database error", "operation", "get_content", "content_id", contentID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if content == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return
	}

	samples, err := h.metricRepo.GetSamples(contentID)
	if err != nil {
		slog.Error("Database error", "operation", "get_samples", "content_id", contentID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	points := make([]map[string]interface{}, 0, len(samples))
	for _, sample := range samples {
		point := map[string]interface{}{
			"like_count":    sample.LikeCount,
			"comment_count": sample.CommentCount,
			"collected_at":  sample.CollectedAt,
		}
		if sample.PlayCount != nil {
			point["play_count"] = *sample.PlayCount
		}
		points = append(points, point)
	}

	response := map[string]interface{}{
		"content": map[string]interface{}{
			"id":             content.ID,
			"campaign_id":    content.CampaignID,
			"account_id":     content.AccountID,
			"post_id":        content.PostID,
			"post_url":       content.PostURL,
			"status":         content.Status,
			"coverage_score": content.CoverageScore,
			"posted_at":      content.PostedAt,
		},
		"samples": points,
		"total":   len(points),
	}

	if first, latest, err := h.metricRepo.GetSampleBounds(contentID); err == nil && first != nil && latest != nil {
		growth := map[string]interface{}{
			"likes":    latest.LikeCount - first.LikeCount,
			"comments": latest.CommentCount - first.CommentCount,
			"since":    first.CollectedAt,
			"until":    latest.CollectedAt,
		}
		if first.PlayCount != nil && latest.PlayCount != nil {
			growth["plays"] = *latest.PlayCount - *first.PlayCount
		}
		response["growth"] = growth
	}

	c.JSON(http.StatusOK, response)
}
