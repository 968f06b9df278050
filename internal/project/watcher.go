package project

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/AdanAlnoor/costportal/internal/supabase"
)

// Watcher invalidates cached project snapshots when the backend reports a
// change on the projects table.
type Watcher struct {
	realtime *supabase.Realtime
	cache    *Cache
	log      zerolog.Logger
}

// NewWatcher creates a watcher over the client's realtime socket.
func NewWatcher(client *supabase.Client, cache *Cache, log zerolog.Logger) *Watcher {
	return &Watcher{
		realtime: client.NewRealtime(),
		cache:    cache,
		log:      log,
	}
}

// Start connects and subscribes. Events without a recognizable record ID
// are logged and dropped; the cache then simply serves until its snapshot
// is next refetched.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.realtime.Connect(ctx); err != nil {
		return err
	}
	return w.realtime.Watch(projectsTable, w.handle)
}

// Close tears the subscription down.
func (w *Watcher) Close() error {
	return w.realtime.Close()
}

func (w *Watcher) handle(event *supabase.ChangeEvent) {
	id := recordID(event.Payload)
	if id == "" {
		w.log.Debug().Str("topic", event.Topic).Str("event", event.Event).
			Msg("change event without record id")
		return
	}
	w.log.Debug().Str("project_id", id).Str("event", event.Event).
		Msg("invalidating project snapshot")
	w.cache.Invalidate(id)
}

// recordID digs the changed row's ID out of a realtime payload. Deletes
// carry the row under old_record instead of record.
func recordID(payload map[string]any) string {
	for _, key := range []string{"record", "old_record"} {
		rec, ok := payload[key].(map[string]any)
		if !ok {
			continue
		}
		if id, ok := rec["id"].(string); ok && id != "" {
			return id
		}
	}
	return ""
}
