// Package health serves the liveness probe endpoint. It reads the same
// heartbeat key the publisher writes and classifies it for external
// monitors.
package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cmdrkael/kaelbot/heartbeat"
	"github.com/cmdrkael/kaelbot/store"
)

// Handler returns a gin engine exposing GET /healthz. A fresh heartbeat
// answers 200; stale or never-started answers 503 with the state named so
// probes can tell the difference.
func Handler(st *store.Store, ttl time.Duration) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) {
		beat, state, err := heartbeat.Check(c.Request.Context(), st, ttl)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": state, "error": err.Error()})
			return
		}
		body := gin.H{"status": state}
		if state != heartbeat.StateNeverStarted {
			body["timestamp"] = beat.Timestamp
			body["instance"] = beat.Instance
			body["host"] = beat.Host
			body["ready"] = beat.Ready
		}
		code := http.StatusOK
		if state != heartbeat.StateFresh {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, body)
	})
	return r
}

// Serve runs the health endpoint on addr. It blocks; run it in its own
// goroutine.
func Serve(st *store.Store, ttl time.Duration, addr string) error {
	return Handler(st, ttl).Run(addr)
}
