// Package listeners reacts to domain events fired on the event bus.
package listeners

import (
	"context"
	"encoding/json"

	"github.com/shashiranjanraj/littlelemon/app/models"
	"github.com/shashiranjanraj/littlelemon/app/resources"
	"github.com/shashiranjanraj/littlelemon/app/services"
	"github.com/shashiranjanraj/littlelemon/pkg/event"
	"github.com/shashiranjanraj/littlelemon/pkg/logger"
	"github.com/shashiranjanraj/littlelemon/pkg/rbac"
	"github.com/shashiranjanraj/littlelemon/pkg/resource"
	"github.com/shashiranjanraj/littlelemon/pkg/sse"
	"github.com/shashiranjanraj/littlelemon/pkg/ws"
)

// Publisher is a feed transport.
type Publisher interface {
	Publish(data []byte, allow func(subject any) bool)
}

var (
	_ Publisher = (*ws.Hub)(nil)
	_ Publisher = (*sse.Broker)(nil)
)

// FeedMessage is one frame on the order feed.
type FeedMessage struct {
	Event string       `json:"event"`
	Order resource.Map `json:"order"`
}

// RegisterOrderFeed forwards order events to the subscribers of every
// transport. Managers and administrators receive every order; delivery crew
// only the orders assigned to them.
func RegisterOrderFeed(bus *event.Bus, transports ...Publisher) {
	forward := func(ctx context.Context, e event.Event) {
		o, ok := e.Payload.(models.Order)
		if !ok {
			return
		}
		data, err := json.Marshal(FeedMessage{Event: e.Name, Order: resources.Order(o)})
		if err != nil {
			logger.WithCtx(ctx).Error("order feed: encode", "event", e.Name, "error", err)
			return
		}
		allow := func(subject any) bool {
			p, ok := subject.(rbac.Principal)
			return ok && CanFollow(p, o)
		}
		for _, t := range transports {
			t.Publish(data, allow)
		}
	}

	for _, name := range []string{services.OrderPlaced, services.OrderUpdated, services.OrderDeleted} {
		bus.Listen(name, forward)
	}
}

// CanFollow reports whether p may see live changes to o.
func CanFollow(p rbac.Principal, o models.Order) bool {
	switch p.Effective() {
	case rbac.Administrator, rbac.Manager:
		return true
	case rbac.DeliveryCrew:
		return o.DeliveryCrewID != nil && *o.DeliveryCrewID == p.UserID
	default:
		return false
	}
}
