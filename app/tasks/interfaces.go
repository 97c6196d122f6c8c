package tasks

import (
	"context"

	"github.com/tagvine/postwatch/app/social"
)

// TaskSchedulerInterface is the scheduling surface used by the API layer.
// Two queues exist: API tasks call the external platform and run on a small
// worker pool gated by the access pool; local tasks (matching, persistence)
// run on a larger pool and never touch the network.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueAPITask(task TaskInterface) error
	EnqueueLocalTask(task TaskInterface) error
	TriggerAccountScan(accountID string) error
	TriggerCampaignScan(campaignID string) (int, error)
	CycleStatuses() map[CycleKind]CycleStatus
}

// AccessPool is the credential broker every platform call goes through.
type AccessPool interface {
	Acquire(ctx context.Context) (social.Credential, error)
	Release(cred social.Credential, outcome social.Outcome)
}

var _ AccessPool = (*social.Pool)(nil)
