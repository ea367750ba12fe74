// README: One-way audit sink appending action records to the system_logs collection.
package audit

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const CollectionLogs = "system_logs"

type Entry struct {
	AdminEmail string    `firestore:"adminEmail"`
	Section    string    `firestore:"section"`
	Action     string    `firestore:"action"`
	Details    string    `firestore:"details"`
	TargetID   string    `firestore:"targetId,omitempty"`
	TargetName string    `firestore:"targetName,omitempty"`
	Timestamp  time.Time `firestore:"timestamp"`
}

// Writer is the narrow surface the sink needs; nil-able in tests.
type Writer interface {
	Append(ctx context.Context, e Entry) error
}

// Sink records admin actions fire-and-forget: failures are logged and never
// propagate to the triggering operation.
type Sink struct {
	writer Writer
	log    zerolog.Logger
}

func NewSink(writer Writer, log zerolog.Logger) *Sink {
	return &Sink{writer: writer, log: log}
}

// Record appends e asynchronously. An abandoned write on shutdown is a
// tolerated loss.
func (s *Sink) Record(e Entry) {
	if s == nil || s.writer == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.writer.Append(ctx, e); err != nil {
			s.log.Warn().Err(err).Str("action", e.Action).Msg("audit append failed")
		}
	}()
}

// FirestoreWriter appends entries as documents in system_logs.
type FirestoreWriter struct {
	client *firestore.Client
}

func NewFirestoreWriter(client *firestore.Client) *FirestoreWriter {
	return &FirestoreWriter{client: client}
}

func (w *FirestoreWriter) Append(ctx context.Context, e Entry) error {
	_, err := w.client.Collection(CollectionLogs).Doc(uuid.NewString()).Create(ctx, e)
	return err
}
