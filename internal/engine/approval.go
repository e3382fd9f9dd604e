package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harunnryd/hisho/internal/dedup"
	hishoErrors "github.com/harunnryd/hisho/internal/errors"
	"github.com/harunnryd/hisho/internal/logger"
	"github.com/harunnryd/hisho/internal/notify"
	"github.com/harunnryd/hisho/internal/ratelimit"
	"github.com/harunnryd/hisho/internal/sender"
	"github.com/harunnryd/hisho/internal/vault"
)

// Gate processes the Approved stage. A record passes through the gate at
// most once: the dedup record and an attempt journal entry are durable
// before the channel is called, so a crash at any point either never sent or
// is recovered as a duplicate on the next pass, never re-sent.
type Gate struct {
	vault    *vault.Vault
	dedup    *dedup.Store
	limiter  *ratelimit.Limiter
	journal  *Journal
	client   sender.Client
	notifier notify.Notifier
	now      func() time.Time
}

func NewGate(v *vault.Vault, d *dedup.Store, l *ratelimit.Limiter, j *Journal, client sender.Client, notifier notify.Notifier) *Gate {
	if notifier == nil {
		notifier = notify.Null{}
	}
	return &Gate{
		vault:    v,
		dedup:    d,
		limiter:  l,
		journal:  j,
		client:   client,
		notifier: notifier,
		now:      time.Now,
	}
}

// ProcessApprovals walks Approved in lexical id order and dispatches every
// eligible record. Records that are not yet eligible (scheduled for later,
// channel out of budget) stay in Approved for a future pass.
func (g *Gate) ProcessApprovals(ctx context.Context) error {
	ids, err := g.vault.ListIDs(vault.StageApproved)
	if err != nil {
		return err
	}

	exhausted := make(map[string]bool)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := g.vault.Read(vault.StageApproved, id)
		if err != nil {
			slog.WarnContext(ctx, "Cannot read approved record", "id", id, "error", err)
			continue
		}

		channel := channelFor(rec.Kind)

		if g.dedup.Contains(id) {
			g.finalizeDuplicate(ctx, rec, channel)
			continue
		}

		if ts, ok := rec.ScheduledTime(); ok && ts.After(g.now()) {
			slog.DebugContext(ctx, "Record scheduled for later", "id", id, "scheduled", ts)
			continue
		}

		// An exhausted channel stops processing its remaining records for
		// the cycle; nothing past this point happens for them, not even
		// validation. Other channels keep going.
		if exhausted[channel] {
			continue
		}
		if !g.limiter.Allow(channel) {
			slog.WarnContext(ctx, "Hourly limit reached, deferring remaining records",
				"channel", channel, "id", id)
			exhausted[channel] = true
			continue
		}

		msg, reason := g.buildMessage(rec, channel)
		if reason != "" {
			g.reject(ctx, rec, channel, reason)
			continue
		}

		g.dispatch(ctx, rec, channel, msg)
	}
	return nil
}

// buildMessage validates the record for its channel and assembles the
// outbound message. A non-empty reason means the record is invalid.
func (g *Gate) buildMessage(rec *vault.Record, channel string) (sender.Message, string) {
	msg := sender.Message{
		ID:      rec.ID,
		Channel: channel,
		To:      strings.TrimSpace(rec.Fields.Get("to")),
		Subject: strings.TrimSpace(rec.Fields.Get("subject")),
		Body:    rec.Body,
	}

	if channel == sender.ChannelLinkedIn {
		if strings.TrimSpace(msg.Body) == "" {
			return msg, "social post has empty body"
		}
		return msg, ""
	}

	if !strings.Contains(msg.To, "@") {
		if resolved := g.lookupReplyRecipient(rec); resolved != "" {
			msg.To = resolved
		}
	}
	if !strings.Contains(msg.To, "@") {
		return msg, fmt.Sprintf("invalid recipient %q", msg.To)
	}
	if msg.Subject == "" {
		return msg, "email has empty subject"
	}
	return msg, ""
}

// lookupReplyRecipient resolves a reply's recipient from the inbound record
// it correlates to. One lookup, no retries: Done first, then NeedsAction.
func (g *Gate) lookupReplyRecipient(rec *vault.Record) string {
	originalID := rec.OriginalID()
	if originalID == "" {
		return ""
	}

	for _, stage := range []vault.Stage{vault.StageDone, vault.StageNeedsAction} {
		original, err := g.vault.Read(stage, originalID)
		if err != nil {
			continue
		}
		if from := strings.TrimSpace(original.Fields.Get("from")); strings.Contains(from, "@") {
			return from
		}
	}
	return ""
}

// dispatch performs the at-most-once protocol: attempt entry and dedup
// record first, then the single channel call, then the terminal entry and
// stage move.
func (g *Gate) dispatch(ctx context.Context, rec *vault.Record, channel string, msg sender.Message) {
	log := g.journal.For(channel)

	if err := log.Log(&SendEntry{
		RunID:    logger.GetRunID(ctx),
		RecordID: rec.ID,
		Channel:  channel,
		To:       msg.To,
		Subject:  msg.Subject,
		Status:   StatusAttempt,
	}); err != nil {
		slog.ErrorContext(ctx, "Cannot journal attempt, deferring dispatch", "id", rec.ID, "error", err)
		return
	}
	if err := g.dedup.Record(rec.ID); err != nil {
		slog.ErrorContext(ctx, "Cannot record dedup entry, deferring dispatch", "id", rec.ID, "error", err)
		return
	}

	g.limiter.Record(channel)

	result, err := g.client.Send(ctx, msg)
	if err != nil {
		mapped := hishoErrors.MapExternal(err)
		if errors.Is(mapped, hishoErrors.ErrDuplicateEvent) {
			// Provider says it already has this one; that is a delivery.
			result = sender.Result{Status: sender.StatusDuplicate, Detail: mapped.Error()}
		} else {
			result = sender.Result{Status: sender.StatusFailed, Detail: mapped.Error()}
		}
	}

	entry := &SendEntry{
		RunID:      logger.GetRunID(ctx),
		RecordID:   rec.ID,
		Channel:    channel,
		To:         msg.To,
		Subject:    msg.Subject,
		Status:     result.Status,
		TrackingID: result.TrackingID,
		Detail:     result.Detail,
	}
	if err := log.Log(entry); err != nil {
		slog.ErrorContext(ctx, "Cannot journal dispatch outcome", "id", rec.ID, "error", err)
	}

	switch result.Status {
	case sender.StatusSent, sender.StatusDuplicate:
		g.finalize(ctx, rec, channel, result.Status)
	default:
		g.reject(ctx, rec, channel, fmt.Sprintf("dispatch failed: %s", result.Detail))
	}
}

// finalizeDuplicate recovers a record whose dedup entry exists but which is
// still in Approved: the dispatch already happened (or was attempted) before
// a crash. It is finalized as delivered without calling the channel again.
func (g *Gate) finalizeDuplicate(ctx context.Context, rec *vault.Record, channel string) {
	slog.WarnContext(ctx, "Record already dispatched, finalizing without send",
		"id", rec.ID, "channel", channel)

	if err := g.journal.For(channel).Log(&SendEntry{
		RunID:    logger.GetRunID(ctx),
		RecordID: rec.ID,
		Channel:  channel,
		Status:   sender.StatusDuplicate,
		Detail:   "recovered after interrupted dispatch",
	}); err != nil {
		slog.ErrorContext(ctx, "Cannot journal recovery", "id", rec.ID, "error", err)
	}
	g.finalize(ctx, rec, channel, sender.StatusDuplicate)
}

func (g *Gate) finalize(ctx context.Context, rec *vault.Record, channel string, status sender.Status) {
	dest := vault.StageSent
	if channel == sender.ChannelLinkedIn {
		dest = vault.StageLinkedInPosted
	}

	if err := g.vault.Move(rec.ID, vault.StageApproved, dest); err != nil {
		slog.ErrorContext(ctx, "Cannot move dispatched record", "id", rec.ID, "to", dest, "error", err)
		return
	}
	slog.InfoContext(ctx, "Record dispatched", "id", rec.ID, "channel", channel, "status", status)

	subject := rec.Fields.Get("subject")
	if subject == "" {
		subject = rec.ID
	}
	_ = g.notifier.Announce(ctx,
		fmt.Sprintf("Dispatched %s via %s (%s)", subject, channel, status))
}

func (g *Gate) reject(ctx context.Context, rec *vault.Record, channel string, reason string) {
	if err := g.journal.For(channel).Log(&SendEntry{
		RunID:    logger.GetRunID(ctx),
		RecordID: rec.ID,
		Channel:  channel,
		Status:   sender.StatusFailed,
		Detail:   reason,
	}); err != nil {
		slog.ErrorContext(ctx, "Cannot journal rejection", "id", rec.ID, "error", err)
	}

	if err := g.vault.Reject(rec.ID, vault.StageApproved, reason); err != nil {
		slog.ErrorContext(ctx, "Cannot reject record", "id", rec.ID, "error", err)
		return
	}
	slog.WarnContext(ctx, "Record rejected", "id", rec.ID, "reason", reason)

	_ = g.notifier.Announce(ctx,
		fmt.Sprintf("Rejected %s: %s", rec.ID, reason))
}

func channelFor(kind vault.Kind) string {
	if kind == vault.KindSocialPost {
		return sender.ChannelLinkedIn
	}
	return sender.ChannelEmail
}
