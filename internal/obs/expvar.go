package obs

import (
	"expvar"
	"fmt"
	"sync/atomic"
	"time"
)

var expvarSeq uint64

// SessionSnapshot is the expvar-published view of a live session, for
// deployments that prefer process-local introspection over a scrape
// endpoint.
type SessionSnapshot struct {
	State       string    `json:"state"`
	StoreStatus string    `json:"store_status"`
	Fields      int       `json:"fields"`
	History     int       `json:"history"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// PublishSession publishes snapshot under name via expvar. When name is
// empty, or already taken by an earlier session in the same process, a
// unique identifier is generated instead. Returns the name used.
func PublishSession(name string, snapshot func() SessionSnapshot) string {
	if name == "" || expvar.Get(name) != nil {
		id := atomic.AddUint64(&expvarSeq, 1)
		name = fmt.Sprintf("fieldscope_session_%d", id)
	}
	expvar.Publish(name, expvar.Func(func() any {
		return snapshot()
	}))
	return name
}
