// Package stream serves an observable array over HTTP.
//
// A Server exposes the current contents and edit script as JSON, accepts
// mutations as POSTed operations and fans every derived array event out to
// WebSocket clients:
//
//	arr := observe.NewObservableArray([]any{"milk"})
//	srv := stream.New(arr, stream.WithLogger(logger))
//	defer srv.Close()
//	http.ListenAndServe(":8080", srv.Handler())
//
// Routes:
//
//	GET  /healthz       liveness
//	GET  /array         current contents
//	GET  /array/script  edit script of the last change
//	POST /array/ops     {"op": "push", "args": ["eggs"]}
//	GET  /ws            WebSocket event stream
//	GET  /metrics       Prometheus metrics
//
// Each WebSocket client first receives a snapshot message, then one message
// per non-empty derived event:
//
//	{"event":"snapshot","values":["milk"]}
//	{"event":"changes","edits":[{"status":"added","index":1,"value":"eggs"}]}
//
// Clients that fall behind lose messages rather than stall notification
// rounds; a client can resync by reconnecting.
package stream
