// Package push implements the delivery transports for milestone
// notifications. The scheduler only sees the Pusher interface; platform
// selection happens in the router.
package push

import (
	"context"

	"github.com/pkg/errors"
)

// Payload carries everything a transport needs to render a reminder.
// DeliveryID is unique per delivery attempt so receivers that retry or
// replay can deduplicate.
type Payload struct {
	DeliveryID     string `json:"deliveryId"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	MilestoneName  string `json:"milestoneName"`
	LeadDays       int32  `json:"leadDays"`
	OccurrenceDate string `json:"occurrenceDate"`
}

// Pusher delivers a payload to a device. The failure reason is opaque to
// the caller beyond success/failure.
type Pusher interface {
	Push(ctx context.Context, deviceToken string, platform string, payload *Payload) error
}

// Router dispatches to a registered transport by platform name.
type Router struct {
	transports map[string]Pusher
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{transports: map[string]Pusher{}}
}

// Register binds a transport to a platform name.
func (r *Router) Register(platform string, pusher Pusher) {
	r.transports[platform] = pusher
}

func (r *Router) Push(ctx context.Context, deviceToken string, platform string, payload *Payload) error {
	pusher, ok := r.transports[platform]
	if !ok {
		return errors.Errorf("no transport registered for platform %q", platform)
	}
	return pusher.Push(ctx, deviceToken, platform, payload)
}
