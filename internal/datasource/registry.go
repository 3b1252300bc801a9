// Package datasource tracks connections to external marketing data sources.
//
// A connect attempts a real provider connection when real sources are
// enabled and falls back to a mock connection on any failure. Every entry
// carries its provenance so callers can tell the two apart.
package datasource

import (
	"context"
	"fmt"
	"maps"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/marketing/internal/adapter/provider"
	"github.com/xiaot623/gogo/marketing/internal/domain"
	"github.com/xiaot623/gogo/marketing/internal/shard"
)

// DefaultMockDelay simulates the latency of a provider handshake.
const DefaultMockDelay = 500 * time.Millisecond

const idTimeLayout = "20060102_150405"

// Dialer opens real provider connections.
type Dialer interface {
	Dial(ctx context.Context, sourceID string, creds map[string]any) (provider.Connector, error)
}

// Options configures a Registry.
type Options struct {
	UseRealSources bool
	Dialer         Dialer
	// ProviderTimeout bounds each real dial and fetch.
	ProviderTimeout time.Duration
	MockDelay       time.Duration
	Now             func() time.Time
	Logger          *zap.Logger
}

type entry struct {
	conn      domain.SourceConnection
	connector provider.Connector
	seq       uint64
}

// Registry holds the current source connections keyed by connection id.
type Registry struct {
	entries *shard.Map[*entry]
	seq     atomic.Uint64
	opts    Options
	logger  *zap.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts Options) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Registry{
		entries: shard.New[*entry](),
		opts:    opts,
		logger:  opts.Logger,
	}
}

// Connect registers a connection for sourceID. Real connection failures are
// absorbed into a mock connection; the returned entry's Provenance tells
// which one was made.
func (r *Registry) Connect(ctx context.Context, sourceID string, connectionData map[string]any) (domain.SourceConnection, error) {
	if sourceID == "" {
		return domain.SourceConnection{}, &domain.ValidationError{Field: "source_id", Reason: "must not be empty"}
	}

	connector := r.dialReal(ctx, sourceID, connectionData)
	provenance := domain.ProvenanceReal
	if connector == nil {
		provenance = domain.ProvenanceMock
		r.simulateDelay(ctx)
	}

	now := r.opts.Now()
	e := &entry{
		conn: domain.SourceConnection{
			SourceID:       sourceID,
			Status:         domain.ConnectionStatusConnected,
			ConnectedAt:    now,
			ConnectionData: maps.Clone(connectionData),
			Provenance:     provenance,
		},
		connector: connector,
		seq:       r.seq.Add(1),
	}
	e.conn.ConnectionID = r.claimID(fmt.Sprintf("%s_%s", sourceID, now.Format(idTimeLayout)), e)

	r.logger.Info("data source connected",
		zap.String("source_id", sourceID),
		zap.String("connection_id", e.conn.ConnectionID),
		zap.String("provenance", string(provenance)),
	)
	return e.conn, nil
}

// dialReal returns nil when the real path is disabled or fails.
func (r *Registry) dialReal(ctx context.Context, sourceID string, creds map[string]any) provider.Connector {
	if !r.opts.UseRealSources || r.opts.Dialer == nil {
		return nil
	}
	dctx, cancel := context.WithTimeout(ctx, r.opts.ProviderTimeout)
	defer cancel()

	c, err := r.opts.Dialer.Dial(dctx, sourceID, creds)
	if err != nil {
		r.logger.Warn("real connection failed, falling back to mock",
			zap.String("source_id", sourceID),
			zap.Error(err),
		)
		return nil
	}
	return c
}

func (r *Registry) simulateDelay(ctx context.Context) {
	if r.opts.MockDelay <= 0 {
		return
	}
	t := time.NewTimer(r.opts.MockDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// claimID stores e under base, or base_2, base_3, ... when base is taken.
// Existing entries are never overwritten.
func (r *Registry) claimID(base string, e *entry) string {
	for n := 1; ; n++ {
		id := base
		if n > 1 {
			id = fmt.Sprintf("%s_%d", base, n)
		}
		claimed := false
		r.entries.Update(id, func(old *entry, exists bool) (*entry, bool) {
			if exists {
				return old, true
			}
			claimed = true
			return e, true
		})
		if claimed {
			return id
		}
	}
}

// Disconnect removes a connection.
func (r *Registry) Disconnect(connectionID string) error {
	if !r.entries.Delete(connectionID) {
		return domain.NewConnectionNotFound(connectionID)
	}
	r.logger.Info("data source disconnected", zap.String("connection_id", connectionID))
	return nil
}

// List returns a snapshot of all connections, unordered.
func (r *Registry) List() []domain.SourceConnection {
	out := []domain.SourceConnection{}
	r.entries.Range(func(_ string, e *entry) bool {
		out = append(out, e.conn)
		return true
	})
	return out
}

// Connected reports whether any entry references sourceID.
func (r *Registry) Connected(sourceID string) bool {
	found := false
	r.entries.Range(func(_ string, e *entry) bool {
		found = e.conn.SourceID == sourceID
		return !found
	})
	return found
}

// RealConnector returns the connector of the most recent real connection to sourceID.
func (r *Registry) RealConnector(sourceID string) (provider.Connector, bool) {
	var latest *entry
	r.entries.Range(func(_ string, e *entry) bool {
		if e.conn.SourceID == sourceID && e.connector != nil && (latest == nil || e.seq > latest.seq) {
			latest = e
		}
		return true
	})
	if latest == nil {
		return nil, false
	}
	return latest.connector, true
}

// DataFor returns the fixture payload of a connected source.
func (r *Registry) DataFor(sourceID string) (domain.Payload, error) {
	if !r.Connected(sourceID) {
		return nil, &domain.NotConnectedError{SourceID: sourceID}
	}
	p, ok := MockPayload(sourceID)
	if !ok {
		return nil, &domain.NotFoundError{Kind: "source data", ID: sourceID}
	}
	return p, nil
}

// Fetch returns live data from the source's real connector when there is one,
// and the fixture otherwise or on any provider failure.
func (r *Registry) Fetch(ctx context.Context, sourceID string) (domain.Sourced[domain.Payload], error) {
	if !r.Connected(sourceID) {
		return domain.Sourced[domain.Payload]{}, &domain.NotConnectedError{SourceID: sourceID}
	}
	if c, ok := r.RealConnector(sourceID); ok {
		fctx, cancel := context.WithTimeout(ctx, r.opts.ProviderTimeout)
		p, err := c.Fetch(fctx)
		cancel()
		if err == nil {
			return domain.Real(p), nil
		}
		r.logger.Warn("real fetch failed, serving fixture",
			zap.String("source_id", sourceID),
			zap.Error(err),
		)
	}

	p, err := r.DataFor(sourceID)
	if err != nil {
		return domain.Sourced[domain.Payload]{}, err
	}
	return domain.Mock(p), nil
}
