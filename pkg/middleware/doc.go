// Package middleware provides instrumentation hooks for observe
// notification rounds.
//
// Both providers return an observe.NotifyHook. Install one with
// observe.WithNotifyHook, with the "instrument" extender, or combine several
// with observe.ChainHooks.
//
// # OpenTelemetry
//
// OpenTelemetry starts one span per notification round. The span carries the
// source ID, the event name and the number of subscribers, and its status is
// set to Error when a subscriber panics.
//
//	arr := observe.NewObservableArray(items,
//	    observe.WithNotifyHook(middleware.OpenTelemetry(
//	        middleware.WithTracerName("todo-list"),
//	    )),
//	)
//
// # Prometheus Metrics
//
// Prometheus collects:
//   - observe_notifications_total: rounds by event and status
//   - observe_notification_duration_seconds: round duration histogram
//   - observe_notification_subscribers: subscribers per round
//   - observe_stream_clients: connected websocket clients
//   - observe_stream_messages_total: messages by outcome (sent, dropped)
//   - observe_snapshots_total: snapshot uploads by status
//
//	hook := middleware.Prometheus(middleware.WithNamespace("todo"))
//	arr.Extend(observe.Extenders{"instrument": hook})
//
//	http.Handle("/metrics", promhttp.Handler())
package middleware
