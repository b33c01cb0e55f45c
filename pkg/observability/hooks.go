package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/threeview/pkg/domain"
)

// LogHooks returns hooks that log every event. Dispatches are logged at
// debug level since there is one per command per socket.
func LogHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			logger.DebugContext(ctx, "command_dispatch",
				"page_id", e.PageID,
				"socket_id", e.SocketID,
				"kind", e.Command.Kind,
				"object_id", e.Command.ObjectID,
				"replay", e.Replay,
			)
		},
		OnDeliveryError: func(ctx context.Context, e *domain.DeliveryErrorEvent) {
			logger.WarnContext(ctx, "command_delivery_failed",
				"page_id", e.PageID,
				"socket_id", e.SocketID,
				"kind", e.Command.Kind,
				"err", e.Err,
			)
		},
		OnReplay: func(ctx context.Context, e *domain.ReplayEvent) {
			logger.InfoContext(ctx, "scene_replay",
				"page_id", e.PageID,
				"socket_id", e.SocketID,
				"objects", e.Objects,
			)
		},
		OnClick: func(ctx context.Context, e *domain.ClickEvent, handled bool) {
			logger.InfoContext(ctx, "click",
				"page_id", e.PageID,
				"socket_id", e.SocketID,
				"object_id", e.ObjectID,
				"handled", handled,
			)
		},
	}
}

// Chain combines hook sets. Each callback runs the non-nil callbacks of
// every set in order.
func Chain(sets ...domain.Hooks) domain.Hooks {
	var out domain.Hooks
	for _, h := range sets {
		out.OnDispatch = chain2(out.OnDispatch, h.OnDispatch)
		out.OnDeliveryError = chain2(out.OnDeliveryError, h.OnDeliveryError)
		out.OnReplay = chain2(out.OnReplay, h.OnReplay)
		out.OnClick = chainClick(out.OnClick, h.OnClick)
	}
	return out
}

func chain2[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainClick(a, b func(context.Context, *domain.ClickEvent, bool)) func(context.Context, *domain.ClickEvent, bool) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.ClickEvent, handled bool) {
		a(ctx, e, handled)
		b(ctx, e, handled)
	}
}
