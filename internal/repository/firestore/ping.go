package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// Pinger checks that Firestore answers queries. It satisfies the health
// endpoint's PingContext contract.
type Pinger struct {
	client *firestore.Client
}

func NewPinger(client *firestore.Client) *Pinger {
	return &Pinger{client: client}
}

func (p *Pinger) PingContext(ctx context.Context) error {
	it := p.client.Collection(colOrganizations).Limit(1).Documents(ctx)
	defer it.Stop()
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore ping: %w", err)
	}
	return nil
}
