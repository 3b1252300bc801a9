package campaign

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/marketing/internal/domain"
	"github.com/xiaot623/gogo/marketing/internal/shard"
)

// Archive mirrors store writes to durable storage.
type Archive interface {
	SaveCampaign(ctx context.Context, c *domain.Campaign) error
	UpdateCampaignStatus(ctx context.Context, campaignID string, status domain.CampaignStatus) error
	SaveExecution(ctx context.Context, rec *domain.ExecutionRecord) error
}

// ArchiveReader is implemented by archives that can serve records the
// in-memory store no longer holds, e.g. after a restart.
type ArchiveReader interface {
	GetCampaign(ctx context.Context, campaignID string) (*domain.Campaign, error)
	ListCampaigns(ctx context.Context, clientID string) ([]domain.Campaign, error)
	ListExecutions(ctx context.Context, campaignID string) ([]domain.ExecutionRecord, error)
}

type storedCampaign struct {
	campaign *domain.Campaign
	seq      uint64
}

// Store holds campaigns and execution records in memory. Stored values are
// never mutated in place; updates swap in a fresh copy.
type Store struct {
	campaigns  *shard.Map[storedCampaign]
	executions *shard.Map[*domain.ExecutionRecord]
	seq        atomic.Uint64
	archive    Archive
	reader     ArchiveReader
	logger     *zap.Logger
}

// NewStore creates a Store. archive may be nil.
func NewStore(archive Archive, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		campaigns:  shard.New[storedCampaign](),
		executions: shard.New[*domain.ExecutionRecord](),
		archive:    archive,
		logger:     logger,
	}
	if r, ok := archive.(ArchiveReader); ok {
		s.reader = r
	}
	return s
}

// Put stores a copy of c keyed by its id.
func (s *Store) Put(ctx context.Context, c *domain.Campaign) {
	cp := c.Clone()
	s.campaigns.Set(cp.CampaignID, storedCampaign{campaign: cp, seq: s.seq.Add(1)})

	if s.archive != nil {
		if err := s.archive.SaveCampaign(ctx, cp); err != nil {
			s.logger.Warn("failed to archive campaign", zap.String("campaign_id", cp.CampaignID), zap.Error(err))
		}
	}
}

// Get returns a copy of the campaign. Campaigns missing from memory are
// loaded from the archive when it can serve reads.
func (s *Store) Get(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	if sc, ok := s.campaigns.Get(campaignID); ok {
		return sc.campaign.Clone(), nil
	}
	if s.reader == nil {
		return nil, domain.NewCampaignNotFound(campaignID)
	}

	c, err := s.reader.GetCampaign(ctx, campaignID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewCampaignNotFound(campaignID)
		}
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	return s.hydrate(c).Clone(), nil
}

// hydrate caches an archived campaign unless memory already holds a newer copy.
func (s *Store) hydrate(c *domain.Campaign) *domain.Campaign {
	var out *domain.Campaign
	s.campaigns.Update(c.CampaignID, func(old storedCampaign, exists bool) (storedCampaign, bool) {
		if exists {
			out = old.campaign
			return old, true
		}
		out = c.Clone()
		return storedCampaign{campaign: out, seq: s.seq.Add(1)}, true
	})
	return out
}

// MarkExecuted moves a campaign to executed. It reports whether the status changed.
func (s *Store) MarkExecuted(ctx context.Context, campaignID string) (bool, error) {
	found, changed := false, false
	s.campaigns.Update(campaignID, func(old storedCampaign, exists bool) (storedCampaign, bool) {
		if !exists {
			return old, false
		}
		found = true
		if old.campaign.Status == domain.CampaignStatusExecuted {
			return old, true
		}
		cp := old.campaign.Clone()
		cp.Status = domain.CampaignStatusExecuted
		changed = true
		return storedCampaign{campaign: cp, seq: old.seq}, true
	})
	if !found {
		return false, domain.NewCampaignNotFound(campaignID)
	}

	if changed && s.archive != nil {
		if err := s.archive.UpdateCampaignStatus(ctx, campaignID, domain.CampaignStatusExecuted); err != nil {
			s.logger.Warn("failed to archive campaign status", zap.String("campaign_id", campaignID), zap.Error(err))
		}
	}
	return changed, nil
}

// History returns the client's campaigns, newest first. Campaigns created at
// the same instant are ordered by insertion, latest first. Archived campaigns
// are merged in when the archive can serve reads.
func (s *Store) History(ctx context.Context, clientID string) []*domain.Campaign {
	if s.reader != nil {
		archived, err := s.reader.ListCampaigns(ctx, clientID)
		if err != nil {
			s.logger.Warn("failed to load archived campaigns", zap.String("client_id", clientID), zap.Error(err))
		}
		// Oldest first so hydrated insertion order matches the archive's.
		for i := len(archived) - 1; i >= 0; i-- {
			s.hydrate(&archived[i])
		}
	}

	var matched []storedCampaign
	s.campaigns.Range(func(_ string, sc storedCampaign) bool {
		if sc.campaign.ClientID == clientID {
			matched = append(matched, sc)
		}
		return true
	})

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.campaign.CreatedAt.Equal(b.campaign.CreatedAt) {
			return a.campaign.CreatedAt.After(b.campaign.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]*domain.Campaign, len(matched))
	for i, sc := range matched {
		out[i] = sc.campaign.Clone()
	}
	return out
}

// SaveExecution stores a copy of an execution record.
func (s *Store) SaveExecution(ctx context.Context, rec *domain.ExecutionRecord) {
	cp := rec.Clone()
	s.executions.Set(cp.ExecutionID, cp)

	if s.archive != nil {
		if err := s.archive.SaveExecution(ctx, cp); err != nil {
			s.logger.Warn("failed to archive execution", zap.String("execution_id", cp.ExecutionID), zap.Error(err))
		}
	}
}

// GetExecution returns a copy of an execution record.
func (s *Store) GetExecution(executionID string) (*domain.ExecutionRecord, error) {
	rec, ok := s.executions.Get(executionID)
	if !ok {
		return nil, &domain.NotFoundError{Kind: "execution", ID: executionID}
	}
	return rec.Clone(), nil
}

// Executions returns the execution records of a campaign, oldest first,
// including archived ones. Archived records are cached so GetExecution can
// serve them afterwards.
func (s *Store) Executions(ctx context.Context, campaignID string) ([]*domain.ExecutionRecord, error) {
	if _, err := s.Get(ctx, campaignID); err != nil {
		return nil, err
	}

	if s.reader != nil {
		archived, err := s.reader.ListExecutions(ctx, campaignID)
		if err != nil {
			s.logger.Warn("failed to load archived executions", zap.String("campaign_id", campaignID), zap.Error(err))
		}
		for i := range archived {
			rec := archived[i].Clone()
			s.executions.Update(rec.ExecutionID, func(old *domain.ExecutionRecord, exists bool) (*domain.ExecutionRecord, bool) {
				if exists {
					return old, true
				}
				return rec, true
			})
		}
	}

	out := []*domain.ExecutionRecord{}
	s.executions.Range(func(_ string, rec *domain.ExecutionRecord) bool {
		if rec.CampaignID == campaignID {
			out = append(out, rec.Clone())
		}
		return true
	})
	slices.SortStableFunc(out, func(a, b *domain.ExecutionRecord) int {
		if c := a.ExecutedAt.Compare(b.ExecutedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ExecutionID, b.ExecutionID)
	})
	return out, nil
}
