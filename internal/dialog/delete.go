package dialog

import (
	"context"
	"log/slog"

	"github.com/vantagehq/console/internal/models"
)

// DeleteConfirmation is the two-step delete guard. Opening it never touches
// the upstream; only an explicit confirm does.
type DeleteConfirmation struct {
	TargetID string `json:"targetId"`
	Visible  bool   `json:"visible"`
	InFlight bool   `json:"inFlight"`
}

// OpenDelete stages a delete for confirmation.
func (c *Controller) OpenDelete(targetID string) (*DeleteConfirmation, error) {
	if targetID == "" {
		return nil, models.ErrBadRequest
	}
	return &DeleteConfirmation{
		TargetID: targetID,
		Visible:  true,
	}, nil
}

// ConfirmDelete performs the staged delete. While a request is in flight
// further confirms are rejected. Success dismisses the confirmation; the
// caller refetches the current directory page. Failure leaves it open so
// the operator can retry or cancel.
func (c *Controller) ConfirmDelete(ctx context.Context, token string, conf *DeleteConfirmation) error {
	if conf == nil || !conf.Visible {
		return models.ErrNoDeletePending
	}
	if conf.InFlight {
		return models.ErrDeleteInFlight
	}
	conf.InFlight = true

	err := c.client.DeleteUser(ctx, token, conf.TargetID)
	conf.InFlight = false
	if err != nil {
		c.logger.Error("delete failed",
			slog.String("user_id", conf.TargetID),
			slog.Any("error", err))
		return err
	}

	conf.Visible = false
	return nil
}
