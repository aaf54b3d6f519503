package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/caseguardian/nexus/internal/notifications"
	"github.com/caseguardian/nexus/internal/reports"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskNotifyFanout delivers one notification to a set of users.
	TaskNotifyFanout = "notify:fanout"
	// TaskReportSnapshot rebuilds the cached report aggregates.
	TaskReportSnapshot = "report:snapshot"
)

// NotifyFanoutPayload describes a notification to fan out.
type NotifyFanoutPayload struct {
	UserIDs []string `json:"user_ids"`
	Kind    string   `json:"kind"`
	Title   string   `json:"title"`
	Body    string   `json:"body"`
}

// NewNotifyFanoutTask constructs an Asynq task.
func NewNotifyFanoutTask(payload NotifyFanoutPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotifyFanout, data), nil
}

// NewNotifyFanoutHandler processes TaskNotifyFanout tasks.
func NewNotifyFanoutHandler(svc *notifications.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload NotifyFanoutPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		delivered := svc.DeliverMany(ctx, payload.UserIDs, notifications.Kind(payload.Kind), payload.Title, payload.Body)
		logger.Info("notification fanout",
			slog.String("kind", payload.Kind),
			slog.Int("recipients", len(payload.UserIDs)),
			slog.Int("delivered", delivered))
		return nil
	}
}

// ReportSnapshotPayload carries options for a snapshot rebuild.
// RequestedBy, when set, names the user who asked for the refresh and
// receives a report notification once the rebuild lands.
type ReportSnapshotPayload struct {
	Invalidate  bool   `json:"invalidate"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// NewReportSnapshotTask constructs an Asynq task.
func NewReportSnapshotTask(payload ReportSnapshotPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportSnapshot, data), nil
}

// NewReportSnapshotHandler processes TaskReportSnapshot tasks.
func NewReportSnapshotHandler(svc *reports.Service, notifier *notifications.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReportSnapshotPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.Invalidate {
			if err := svc.Invalidate(ctx); err != nil {
				return err
			}
		}
		if err := svc.Warm(ctx); err != nil {
			return err
		}
		if payload.RequestedBy != "" && notifier != nil {
			_, err := notifier.Deliver(ctx, payload.RequestedBy, notifications.KindReport,
				"Report refresh complete", "Dashboard aggregates were rebuilt.")
			if err != nil {
				logger.Warn("report notification", slog.Any("error", err))
			}
		}
		logger.Info("report snapshot refreshed", slog.Bool("invalidated", payload.Invalidate))
		return nil
	}
}
