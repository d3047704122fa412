// internal/app/system/workers/reminders.go
package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	notificationstore "github.com/dalemusser/taskflow/internal/app/store/notifications"
	taskstore "github.com/dalemusser/taskflow/internal/app/store/tasks"
	userstore "github.com/dalemusser/taskflow/internal/app/store/users"
	"github.com/dalemusser/taskflow/internal/app/system/mailer"
	"github.com/dalemusser/taskflow/internal/app/system/realtime"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

// ReminderWorker is a background worker that creates due-soon
// notifications and drains the email retry queue. Both passes are
// idempotent: the unique notification index absorbs re-scans of the
// same due window, and the email pass only picks up rows still owed
// a delivery.
type ReminderWorker struct {
	tasks         *taskstore.Store
	notifications *notificationstore.Store
	users         *userstore.Store
	sender        mailer.Sender
	broadcaster   realtime.Broadcaster
	log           *zap.Logger

	interval    time.Duration
	leadWindow  time.Duration
	maxAttempts int
	backoff     time.Duration
	siteName    string

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// ReminderConfig bundles the worker's tuning knobs.
type ReminderConfig struct {
	Interval    time.Duration // how often to scan (e.g., 1 minute)
	LeadWindow  time.Duration // how far ahead a task counts as due soon (e.g., 1 hour)
	MaxAttempts int           // email delivery attempts before giving up
	Backoff     time.Duration // wait between failed email attempts
	SiteName    string
}

// NewReminderWorker creates the worker. Sender may be nil when no
// SMTP relay is configured; notifications are still created, only the
// email pass is skipped.
func NewReminderWorker(tasks *taskstore.Store, notifications *notificationstore.Store, users *userstore.Store, sender mailer.Sender, broadcaster realtime.Broadcaster, logger *zap.Logger, cfg ReminderConfig) *ReminderWorker {
	if broadcaster == nil {
		broadcaster = realtime.NopBroadcaster{}
	}
	return &ReminderWorker{
		tasks:         tasks,
		notifications: notifications,
		users:         users,
		sender:        sender,
		broadcaster:   broadcaster,
		log:           logger,
		interval:      cfg.Interval,
		leadWindow:    cfg.LeadWindow,
		maxAttempts:   cfg.MaxAttempts,
		backoff:       cfg.Backoff,
		siteName:      cfg.SiteName,
		stopCh:        make(chan struct{}),
	}
}

// Start begins the background reminder loop.
func (w *ReminderWorker) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("reminder worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("lead_window", w.leadWindow))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *ReminderWorker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("reminder worker stopped")
}

func (w *ReminderWorker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.tick()
		}
	}
}

func (w *ReminderWorker) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	w.createDueReminders(ctx, time.Now().UTC())
	if w.sender != nil {
		w.sendPendingEmails(ctx, time.Now().UTC())
	}
}

// createDueReminders scans the upcoming due window and inserts one
// notification per (recipient, task, deadline). Duplicate inserts from
// overlapping scans are suppressed by the store.
func (w *ReminderWorker) createDueReminders(ctx context.Context, now time.Time) {
	due, err := w.tasks.DueBetween(ctx, now, now.Add(w.leadWindow))
	if err != nil {
		w.log.Error("reminder scan failed", zap.Error(err))
		return
	}

	for i := range due {
		task := &due[i]
		for _, userID := range reminderRecipients(task) {
			w.createReminder(ctx, task, userID)
		}
	}
}

// reminderRecipients is the creator plus every assignee, deduplicated.
func reminderRecipients(t *models.Task) []primitive.ObjectID {
	seen := map[primitive.ObjectID]struct{}{t.UserID: {}}
	out := []primitive.ObjectID{t.UserID}
	for _, id := range t.AssigneeIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (w *ReminderWorker) createReminder(ctx context.Context, task *models.Task, userID primitive.ObjectID) {
	u, err := w.users.ByID(ctx, userID)
	if err != nil {
		if err != userstore.ErrNotFound {
			w.log.Error("reminder recipient lookup failed",
				zap.String("user_id", userID.Hex()), zap.Error(err))
		}
		return
	}
	prefs := u.NotificationPreferences
	if prefs.UnsubscribedAll || (!prefs.InAppDueSoon && !prefs.EmailDueSoon) {
		return
	}

	taskID := task.ID
	n := &models.Notification{
		UserID:  userID,
		TaskID:  &taskID,
		Type:    models.NotificationDueSoon,
		Title:   "Task due soon",
		Message: fmt.Sprintf("%q is due soon", task.Title),
		DueAt:   task.DueDate,
	}
	err = w.notifications.Insert(ctx, n)
	if err == notificationstore.ErrDuplicate {
		return
	}
	if err != nil {
		w.log.Error("reminder insert failed",
			zap.String("task_id", task.ID.Hex()),
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		return
	}

	nid := n.ID
	w.broadcaster.NotifyUser(userID, realtime.NotificationEvent{
		Type:           realtime.EventNotificationCreated,
		UserID:         userID,
		NotificationID: &nid,
	})
}

// sendPendingEmails drains notifications still owed an email, honoring
// the per-notification attempt cap and backoff. A recipient whose
// preferences no longer allow reminder email gets the row marked
// delivered so it drops out of the scan.
func (w *ReminderWorker) sendPendingEmails(ctx context.Context, now time.Time) {
	pending, err := w.notifications.PendingEmails(ctx, w.maxAttempts, now, 100)
	if err != nil {
		w.log.Error("pending email scan failed", zap.Error(err))
		return
	}

	for i := range pending {
		n := &pending[i]
		u, err := w.users.ByID(ctx, n.UserID)
		if err != nil {
			if err != userstore.ErrNotFound {
				w.log.Error("email recipient lookup failed",
					zap.String("user_id", n.UserID.Hex()), zap.Error(err))
			}
			continue
		}
		prefs := u.NotificationPreferences
		if prefs.UnsubscribedAll || !prefs.EmailDueSoon {
			_ = w.notifications.RecordEmailSent(ctx, n.ID, now)
			continue
		}

		title, ok := w.reminderTaskTitle(ctx, n, now)
		if !ok {
			continue
		}

		email := mailer.BuildDueSoonEmail(mailer.DueSoonEmailData{
			SiteName:  w.siteName,
			UserName:  u.Name,
			TaskTitle: title,
			DueAt:     derefTime(n.DueAt, now),
		})
		email.To = u.Email

		if err := w.sender.Send(ctx, email); err != nil {
			if recErr := w.notifications.RecordEmailFailure(ctx, n.ID, err, now.Add(w.backoff)); recErr != nil {
				w.log.Error("recording email failure failed",
					zap.String("notification_id", n.ID.Hex()), zap.Error(recErr))
			}
			continue
		}
		if err := w.notifications.RecordEmailSent(ctx, n.ID, now); err != nil {
			w.log.Error("recording email delivery failed",
				zap.String("notification_id", n.ID.Hex()), zap.Error(err))
		}
	}
}

// reminderTaskTitle resolves the current title of the task a reminder
// points at. A reminder whose task has since been deleted is marked
// delivered so it drops out of the email queue.
func (w *ReminderWorker) reminderTaskTitle(ctx context.Context, n *models.Notification, now time.Time) (string, bool) {
	if n.TaskID == nil {
		return n.Title, true
	}
	task, err := w.tasks.ByID(ctx, *n.TaskID)
	if err == taskstore.ErrNotFound {
		_ = w.notifications.RecordEmailSent(ctx, n.ID, now)
		return "", false
	}
	if err != nil {
		w.log.Error("reminder task lookup failed",
			zap.String("task_id", n.TaskID.Hex()), zap.Error(err))
		return "", false
	}
	return task.Title, true
}

func derefTime(t *time.Time, fallback time.Time) time.Time {
	if t != nil {
		return *t
	}
	return fallback
}
