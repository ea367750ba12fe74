// README: Firestore query subscription feeding a Snapshot cache.
package store

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
)

// Watch subscribes to q and replaces snap with the full decoded result set on
// every change notification. It blocks until ctx is cancelled. Decode
// failures skip the document; subscription failures are logged and end the
// watch, matching the no-retry error policy.
func Watch[T any](ctx context.Context, q firestore.Query, snap *Snapshot[T], decode func(*firestore.DocumentSnapshot) (T, error), log zerolog.Logger) {
	it := q.Snapshots(ctx)
	defer it.Stop()

	for {
		qs, err := it.Next()
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("collection watch ended")
			return
		}

		var items []T
		docs := qs.Documents
		for {
			doc, err := docs.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				log.Error().Err(err).Msg("reading watched snapshot")
				break
			}
			v, err := decode(doc)
			if err != nil {
				log.Warn().Err(err).Str("doc", doc.Ref.ID).Msg("skipping undecodable document")
				continue
			}
			items = append(items, v)
		}
		snap.Replace(items)
	}
}
