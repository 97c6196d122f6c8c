package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tagvine/postwatch/app/matching"
)

func newTestScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		accountRepo:  &mockAccountRepo{},
		campaignRepo: &mockCampaignRepo{},
		contentRepo:  &mockContentRepo{},
		metricRepo:   &mockMetricRepo{},
		scanLogRepo:  &mockScanLogRepo{},
		pool:         &mockPool{},
		client:       &mockClient{},
		matcher:      matching.NewMatcher(),
		notifier:     &mockNotifier{},

		fetchLimit:     5,
		requestTimeout: time.Second,

		ctx:          ctx,
		cancel:       cancel,
		apiQueue:     make(chan TaskInterface, 10),
		localQueue:   make(chan TaskInterface, 10),
		pendingScans: make(map[string]bool),
	}
}

func TestScheduler_EnqueueScan_SkipsInFlightAccount(t *testing.T) {
	s := newTestScheduler()
	defer s.cancel()

	account := testAccount()

	enqueued, err := s.enqueueScan(account)
	if err != nil {
		t.Fatalf("First enqueue failed: %v", err)
	}
	if !enqueued {
		t.Fatal("Expected first enqueue to dispatch a scan")
	}

	// The account stays pending until its scan task finishes; a second tick
	// arriving before then must not spend another platform call on it
	enqueued, err = s.enqueueScan(account)
	if err != nil {
		t.Fatalf("Second enqueue failed: %v", err)
	}
	if enqueued {
		t.Error("Expected in-flight account to be skipped")
	}

	task := <-s.apiQueue
	s.taskFinished(task)

	enqueued, err = s.enqueueScan(account)
	if err != nil {
		t.Fatalf("Enqueue after completion failed: %v", err)
	}
	if !enqueued {
		t.Error("Expected enqueue to dispatch again after the previous scan finished")
	}
}

func TestScheduler_EnqueueScan_DistinctAccountsUnaffected(t *testing.T) {
	s := newTestScheduler()
	defer s.cancel()

	first := testAccount()
	second := testAccount()
	second.ID = "acc-2"
	second.Username = "creator_two"

	if enqueued, err := s.enqueueScan(first); err != nil || !enqueued {
		t.Fatalf("Expected first account enqueued, got enqueued=%v err=%v", enqueued, err)
	}
	if enqueued, err := s.enqueueScan(second); err != nil || !enqueued {
		t.Errorf("Expected second account enqueued, got enqueued=%v err=%v", enqueued, err)
	}
}

type alwaysFailTask struct {
	Task
}

func (t *alwaysFailTask) Execute(ctx context.Context) error {
	return errors.New("permanent failure")
}

func TestScheduler_StopWithPendingRetry(t *testing.T) {
	s := newTestScheduler()

	s.wg.Add(1)
	go s.worker("api", 0, s.apiQueue)

	task := &alwaysFailTask{Task: NewTask(TaskTypeScanAccount, "creator_one")}
	if err := s.EnqueueAPITask(task); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	// Let the worker fail the task and park a retry
	time.Sleep(50 * time.Millisecond)

	// Stop must return cleanly while the retry is still waiting; the retry
	// goroutine observes the cancelled context instead of a closed queue
	s.Stop()

	if task.GetRetryCount() != 1 {
		t.Errorf("Expected one retry scheduled before stop, got %d", task.GetRetryCount())
	}
}
