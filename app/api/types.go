package api

import (
	"github.com/tagvine/postwatch/app/database"
	"github.com/tagvine/postwatch/app/social"
	"github.com/tagvine/postwatch/app/tasks"
)

type PoolStatusProvider interface {
	Status() social.PoolStatus
}

var _ PoolStatusProvider = (*social.Pool)(nil)

type Handler struct {
	accountRepo  database.AccountRepository
	campaignRepo database.CampaignRepository
	contentRepo  database.ContentRepository
	metricRepo   database.MetricRepository
	scanLogRepo  database.ScanLogRepository
	pool         PoolStatusProvider
	scheduler    tasks.TaskSchedulerInterface
}
