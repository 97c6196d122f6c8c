package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tagvine/postwatch/app/cfg"
	"github.com/tagvine/postwatch/app/database"
	"github.com/tagvine/postwatch/app/matching"
	"github.com/tagvine/postwatch/app/notify"
	"github.com/tagvine/postwatch/app/social"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	accountRepo  database.AccountRepository
	campaignRepo database.CampaignRepository
	contentRepo  database.ContentRepository
	metricRepo   database.MetricRepository
	scanLogRepo  database.ScanLogRepository
	pool         AccessPool
	client       social.Client
	matcher      *matching.Matcher
	notifier     notify.Notifier

	tick              time.Duration
	scanIntervalHigh  time.Duration
	scanIntervalMed   time.Duration
	scanIntervalLow   time.Duration
	metricsInterval   time.Duration
	existenceInterval time.Duration
	profileInterval   time.Duration
	fetchLimit        int
	requestTimeout    time.Duration
	apiWorkerCount    int
	localWorkerCount  int

	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	apiQueue   chan TaskInterface
	localQueue chan TaskInterface

	// Accounts with a scan queued or running; a backlogged API queue must not
	// cause the next tick to spend a second platform call on the same account.
	pendingMu    sync.Mutex
	pendingScans map[string]bool

	cycles map[CycleKind]*cycleGuard
}

func NewScheduler(accountRepo database.AccountRepository, campaignRepo database.CampaignRepository,
	contentRepo database.ContentRepository, metricRepo database.MetricRepository,
	scanLogRepo database.ScanLogRepository, pool AccessPool, client social.Client,
	matcher *matching.Matcher, notifier notify.Notifier) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		accountRepo:  accountRepo,
		campaignRepo: campaignRepo,
		contentRepo:  contentRepo,
		metricRepo:   metricRepo,
		scanLogRepo:  scanLogRepo,
		pool:         pool,
		client:       client,
		matcher:      matcher,
		notifier:     notifier,

		tick:              time.Duration(cfg.SchedulerTick) * time.Second,
		scanIntervalHigh:  time.Duration(cfg.ScanIntervalHigh) * time.Second,
		scanIntervalMed:   time.Duration(cfg.ScanIntervalMedium) * time.Second,
		scanIntervalLow:   time.Duration(cfg.ScanIntervalLow) * time.Second,
		metricsInterval:   time.Duration(cfg.MetricsInterval) * time.Second,
		existenceInterval: time.Duration(cfg.ExistenceInterval) * time.Second,
		profileInterval:   time.Duration(cfg.ProfileInterval) * time.Second,
		fetchLimit:        cfg.ScanFetchLimit,
		requestTimeout:    time.Duration(cfg.RequestTimeout) * time.Second,
		apiWorkerCount:    cfg.APIWorkerCount,
		localWorkerCount:  cfg.LocalWorkerCount,

		ctx:          ctx,
		cancel:       cancel,
		apiQueue:     make(chan TaskInterface, 300),
		localQueue:   make(chan TaskInterface, 300),
		pendingScans: make(map[string]bool),

		cycles: map[CycleKind]*cycleGuard{
			CycleScan:      {},
			CycleMetrics:   {},
			CycleExistence: {},
			CycleProfile:   {},
		},
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.apiWorkerCount; i++ {
		s.wg.Add(1)
		go s.worker("api", i, s.apiQueue)
	}
	for i := 0; i < s.localWorkerCount; i++ {
		s.wg.Add(1)
		go s.worker("local", i, s.localQueue)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()

		s.runCycle(CycleScan, s.runScanCycle)

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.runCycle(CycleScan, s.runScanCycle)
			}
		}
	}()

	s.startCycleLoop(CycleMetrics, s.metricsInterval, s.runMetricsCycle)
	s.startCycleLoop(CycleExistence, s.existenceInterval, s.runExistenceCycle)
	s.startCycleLoop(CycleProfile, s.profileInterval, s.runProfileCycle)
}

// Stop leaves the queues open: a retry goroutine waking after shutdown sees
// the cancelled context in enqueue instead of a closed channel.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueAPITask(task TaskInterface) error {
	return s.enqueue(s.apiQueue, task)
}

func (s *Scheduler) EnqueueLocalTask(task TaskInterface) error {
	return s.enqueue(s.localQueue, task)
}

func (s *Scheduler) enqueue(queue chan TaskInterface, task TaskInterface) error {
	select {
	case queue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// TriggerAccountScan enqueues an immediate scan for one account, bypassing
// the due-time check. An already queued or running scan satisfies the trigger.
func (s *Scheduler) TriggerAccountScan(accountID string) error {
	account, err := s.accountRepo.GetAccount(accountID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return fmt.Errorf("account not found: %s", accountID)
	}

	_, err = s.enqueueScan(*account)
	return err
}

// TriggerCampaignScan enqueues scans for every selected participant of a
// campaign; returns the number of scans enqueued.
func (s *Scheduler) TriggerCampaignScan(campaignID string) (int, error) {
	campaign, err := s.campaignRepo.GetCampaign(campaignID)
	if err != nil {
		return 0, fmt.Errorf("failed to get campaign: %w", err)
	}
	if campaign == nil {
		return 0, fmt.Errorf("campaign not found: %s", campaignID)
	}

	accountIDs, err := s.campaignRepo.GetSelectedParticipants(campaignID)
	if err != nil {
		return 0, fmt.Errorf("failed to get participants: %w", err)
	}

	enqueued := 0
	for _, accountID := range accountIDs {
		account, err := s.accountRepo.GetAccount(accountID)
		if err != nil || account == nil {
			slog.Warn("Skipping participant without account row", "account_id", accountID, "error", err)
			continue
		}
		ok, err := s.enqueueScan(*account)
		if err != nil {
			slog.Warn("Failed to enqueue ScanAccountTask", "account", account.Username, "error", err)
			continue
		}
		if ok {
			enqueued++
		}
	}

	return enqueued, nil
}

func (s *Scheduler) CycleStatuses() map[CycleKind]CycleStatus {
	statuses := make(map[CycleKind]CycleStatus, len(s.cycles))
	for kind, guard := range s.cycles {
		statuses[kind] = guard.status()
	}
	return statuses
}

func (s *Scheduler) startCycleLoop(kind CycleKind, interval time.Duration, run func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.runCycle(kind, run)
			}
		}
	}()
}

func (s *Scheduler) runCycle(kind CycleKind, run func()) {
	guard := s.cycles[kind]
	if !guard.tryStart() {
		slog.Warn("Cycle still running, trigger dropped", "cycle", string(kind))
		return
	}
	defer guard.finish()

	run()
}

func (s *Scheduler) runScanCycle() {
	accounts, err := s.accountRepo.GetAccountsDueForScan(time.Now().UTC(),
		s.scanIntervalHigh, s.scanIntervalMed, s.scanIntervalLow)
	if err != nil {
		slog.Error("Failed to list accounts due for scan", "error", err)
		return
	}
	if len(accounts) == 0 {
		slog.Debug("No accounts due for scan")
		return
	}

	slog.Debug("Enqueueing account scans", "count", len(accounts))

	for _, account := range accounts {
		enqueued, err := s.enqueueScan(account)
		if err != nil {
			slog.Warn("Failed to enqueue ScanAccountTask", "account", account.Username, "error", err)
			continue
		}
		if !enqueued {
			slog.Debug("Scan already in flight, skipping", "account", account.Username)
		}
	}
}

// enqueueScan dispatches a scan unless one is already queued or running for
// the account. Reports whether a task was enqueued.
func (s *Scheduler) enqueueScan(account database.TrackedAccount) (bool, error) {
	s.pendingMu.Lock()
	if s.pendingScans[account.ID] {
		s.pendingMu.Unlock()
		return false, nil
	}
	s.pendingScans[account.ID] = true
	s.pendingMu.Unlock()

	if err := s.EnqueueAPITask(s.newScanTask(account)); err != nil {
		s.clearPendingScan(account.ID)
		return false, err
	}
	return true, nil
}

func (s *Scheduler) clearPendingScan(accountID string) {
	s.pendingMu.Lock()
	delete(s.pendingScans, accountID)
	s.pendingMu.Unlock()
}

// taskFinished releases per-task bookkeeping once a task will not run again,
// either after success or after its last retry.
func (s *Scheduler) taskFinished(task TaskInterface) {
	if scan, ok := task.(*ScanAccountTask); ok {
		s.clearPendingScan(scan.account.ID)
	}
}

func (s *Scheduler) runMetricsCycle() {
	contents, err := s.contentRepo.GetMonitorableContents()
	if err != nil {
		slog.Error("Failed to list monitorable contents", "error", err)
		return
	}

	slog.Debug("Enqueueing metric collections", "count", len(contents))

	for _, content := range contents {
		task := NewCollectMetricsTask(content, s.pool, s.client, s.metricRepo, s.scanLogRepo, s.requestTimeout)
		if err := s.EnqueueAPITask(task); err != nil {
			slog.Warn("Failed to enqueue CollectMetricsTask", "content_id", content.ID, "error", err)
		}
	}
}

func (s *Scheduler) runExistenceCycle() {
	contents, err := s.contentRepo.GetUnsettledContents()
	if err != nil {
		slog.Error("Failed to list unsettled contents", "error", err)
		return
	}

	slog.Debug("Enqueueing existence checks", "count", len(contents))

	for _, content := range contents {
		task := NewCheckExistenceTask(content, s.pool, s.client, s.contentRepo, s.scanLogRepo,
			s.notifier, s.requestTimeout)
		if err := s.EnqueueAPITask(task); err != nil {
			slog.Warn("Failed to enqueue CheckExistenceTask", "content_id", content.ID, "error", err)
		}
	}
}

func (s *Scheduler) runProfileCycle() {
	accounts, err := s.accountRepo.GetAccountsWithOpenCampaigns(time.Now().UTC())
	if err != nil {
		slog.Error("Failed to list accounts for profile refresh", "error", err)
		return
	}

	slog.Debug("Enqueueing profile refreshes", "count", len(accounts))

	for _, account := range accounts {
		task := NewRefreshProfileTask(account, s.pool, s.client, s.accountRepo, s.requestTimeout)
		if err := s.EnqueueAPITask(task); err != nil {
			slog.Warn("Failed to enqueue RefreshProfileTask", "account", account.Username, "error", err)
		}
	}
}

func (s *Scheduler) newScanTask(account database.TrackedAccount) *ScanAccountTask {
	return NewScanAccountTask(account, s.pool, s.client, s.accountRepo, s.scanLogRepo,
		s.fetchLimit, s.requestTimeout,
		func(acc database.TrackedAccount, fetched []social.Post) error {
			matchTask := NewMatchPostsTask(acc, fetched, s.matcher, s.accountRepo,
				s.campaignRepo, s.contentRepo, s.scanLogRepo, s.notifier)
			return s.EnqueueLocalTask(matchTask)
		})
}

func (s *Scheduler) worker(queueName string, id int, queue chan TaskInterface) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-queue:
			if !ok {
				return
			}
			s.executeTask(queueName, id, queue, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(queueName string, workerID int, queue chan TaskInterface, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err == nil {
		s.taskFinished(task)
		return
	}

	slog.Error("Worker task execution failed", "queue", queueName, "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		s.taskFinished(task)
		return
	}

	task.IncrementRetryCount()
	retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
	if retryDelay > 30*time.Second {
		retryDelay = 30 * time.Second
	}

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			return
		case <-time.After(retryDelay):
		}
		if retryErr := s.enqueue(queue, task); retryErr != nil {
			slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			s.taskFinished(task)
		}
	}()
}
