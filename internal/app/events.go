package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/caseguardian/nexus/internal/authz"
	"github.com/caseguardian/nexus/internal/cases"
	"github.com/caseguardian/nexus/internal/messages"
	"github.com/caseguardian/nexus/internal/notifications"
	"github.com/caseguardian/nexus/internal/profiles"
	"github.com/caseguardian/nexus/internal/reports"
	"github.com/caseguardian/nexus/internal/settings"
	"github.com/caseguardian/nexus/jobs"
)

// Audience resolves which users should hear about case activity.
type Audience interface {
	CaseWatchers(ctx context.Context, excludeUserID string) ([]string, error)
}

// EventBridge fans domain events out to the report cache and the
// notification queue. Failures are logged, never surfaced: the
// triggering request already committed.
type EventBridge struct {
	Reports       *reports.Service
	Queue         *jobs.Client
	Notifications *notifications.Service
	Settings      *settings.Service
	Audience      Audience
	Logger        *slog.Logger
}

// CaseChanged invalidates cached aggregates and, on intake, alerts the
// actor's peers and schedules a snapshot rebuild.
func (b *EventBridge) CaseChanged(ctx context.Context, action string, c cases.Case, actorID string) {
	if b.Reports != nil {
		if err := b.Reports.Invalidate(ctx); err != nil {
			b.Logger.Warn("report cache bump failed", slog.Any("error", err))
		}
	}
	if action != "created" {
		return
	}
	if b.Queue != nil {
		if _, err := b.Queue.EnqueueReportSnapshot(ctx, jobs.ReportSnapshotPayload{}); err != nil {
			b.Logger.Warn("report snapshot enqueue failed", slog.Any("error", err))
		}
	}
	if !b.notifyEnabled(ctx, func(s settings.Settings) bool { return s.NotifyOnCase }) {
		return
	}
	recipients := b.caseWatchers(ctx, actorID)
	if len(recipients) == 0 {
		return
	}
	b.fanout(ctx, recipients, string(notifications.KindCase),
		"New case", fmt.Sprintf("Case %s was opened.", c.Number))
}

// MessageDelivered alerts the recipient through the notification feed.
func (b *EventBridge) MessageDelivered(ctx context.Context, m messages.Message) {
	if !b.notifyEnabled(ctx, func(s settings.Settings) bool { return s.NotifyOnMessage }) {
		return
	}
	b.fanout(ctx, []string{m.RecipientID}, string(notifications.KindMessage),
		"New message", "You have received a new message.")
}

// AccessChanged tells a user their role or permissions moved.
func (b *EventBridge) AccessChanged(ctx context.Context, userID, summary string) {
	b.fanout(ctx, []string{userID}, string(notifications.KindSystem), "Access updated", summary)
}

func (b *EventBridge) caseWatchers(ctx context.Context, actorID string) []string {
	if b.Audience == nil {
		// Without a configured audience the intake alert goes to the creator.
		if actorID == "" {
			return nil
		}
		return []string{actorID}
	}
	ids, err := b.Audience.CaseWatchers(ctx, actorID)
	if err != nil {
		b.Logger.Warn("case audience lookup failed", slog.Any("error", err))
		return nil
	}
	return ids
}

func (b *EventBridge) notifyEnabled(ctx context.Context, pick func(settings.Settings) bool) bool {
	if b.Settings == nil {
		return true
	}
	s, err := b.Settings.Get(ctx)
	if err != nil {
		// Delivery over silence when the toggle cannot be read.
		b.Logger.Warn("settings load for notification", slog.Any("error", err))
		return true
	}
	return pick(s)
}

func (b *EventBridge) fanout(ctx context.Context, userIDs []string, kind, title, body string) {
	if b.Queue != nil {
		_, err := b.Queue.EnqueueNotifyFanout(ctx, jobs.NotifyFanoutPayload{
			UserIDs: userIDs, Kind: kind, Title: title, Body: body,
		})
		if err == nil {
			return
		}
		b.Logger.Warn("notify fanout enqueue failed", slog.Any("error", err))
	}
	// No queue (test mode or degraded): deliver inline.
	if b.Notifications != nil {
		b.Notifications.DeliverMany(ctx, userIDs, notifications.Kind(kind), title, body)
		return
	}
	b.Logger.Warn("notification dropped", slog.String("title", fmt.Sprintf("%s: %s", kind, title)))
}

// ProfileAudience lists active admins and managers as case watchers.
type ProfileAudience struct {
	Profiles *profiles.Service
}

// CaseWatchers returns the user IDs that receive case intake alerts.
func (a ProfileAudience) CaseWatchers(ctx context.Context, excludeUserID string) ([]string, error) {
	var ids []string
	status := profiles.StatusActive
	for _, role := range []authz.Role{authz.RoleAdmin, authz.RoleManager} {
		items, _, err := a.Profiles.List(ctx, profiles.ListFilter{Role: &role, Status: &status, Limit: 200})
		if err != nil {
			return nil, err
		}
		for _, p := range items {
			if p.UserID != excludeUserID {
				ids = append(ids, p.UserID)
			}
		}
	}
	return ids, nil
}

var (
	_ cases.Events      = (*EventBridge)(nil)
	_ messages.Notifier = (*EventBridge)(nil)
	_ Audience          = ProfileAudience{}
)
