package httpapi

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"mlxd/pkg/types"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once
var defaultLogLevel = func() LogLevel {
	if os.Getenv("MLXD_LOG_COMPLETION") == "1" {
		return LevelDebug
	}
	return parseLevel(os.Getenv("MLXD_LOG_LEVEL"))
}()

func requestLogLevel(r *http.Request) LogLevel {
	// Per-request overrides
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// logRequest emits one start/end line for a handler. status 0 marks a start
// line; err may be nil.
func logRequest(r *http.Request, msg string, status int, start time.Time, err error) {
	if requestLogLevel(r) < LevelInfo {
		return
	}
	if zlog != nil {
		z := zlog.Info().Str("path", r.URL.Path)
		if status != 0 {
			z = z.Int("status", status).Dur("dur", time.Since(start))
		}
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		if err != nil {
			z = z.Err(err)
		}
		z.Msg(msg)
		return
	}
	if status != 0 {
		log.Printf("%s path=%s status=%d dur=%s err=%v", msg, r.URL.Path, status, time.Since(start), err)
		return
	}
	log.Printf("%s path=%s", msg, r.URL.Path)
}

// logCompletionEvent traces one streamed event at debug level.
func logCompletionEvent(ev types.CompletionEvent) {
	if zlog != nil {
		zlog.Debug().
			Bool("done", ev.Done).
			Str("done_reason", ev.DoneReason).
			Int("eval_count", ev.EvalCount).
			Msg("completion event")
		return
	}
	log.Printf("completion> done=%v reason=%s eval_count=%d", ev.Done, ev.DoneReason, ev.EvalCount)
}
