package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PracticalMetal/major-notice/internal/model"
	"github.com/PracticalMetal/major-notice/internal/repository"
)

// DashboardSummary is what the dashboard shows for one organization.
type DashboardSummary struct {
	Organization  string         `json:"organization"`
	DocumentCount int            `json:"documentCount"`
	ImageCount    int64          `json:"imageCount"`
	MonthIndex    int            `json:"monthIndex"`
	MonthCount    int            `json:"monthCount"`
	SelectedDocID string         `json:"selectedDocId,omitempty"`
	ActiveUsers   []model.Member `json:"activeUsers"`
	GeneratedOn   string         `json:"generatedOn"`
}

// DashboardService aggregates counts and members of an organization.
type DashboardService interface {
	Summary(ctx context.Context, org string) (*DashboardSummary, error)
	Members(ctx context.Context, org string) ([]model.Member, error)
}

type dashboardService struct {
	docs  repository.DocumentRepository
	orgs  repository.OrganizationRepository
	users repository.UserRepository
	loc   *time.Location
	now   func() time.Time
}

// NewDashboardService constructs a new DashboardService. Month buckets and the
// generated date are computed in loc.
func NewDashboardService(docs repository.DocumentRepository, orgs repository.OrganizationRepository, users repository.UserRepository, loc *time.Location) DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &dashboardService{docs: docs, orgs: orgs, users: users, loc: loc, now: time.Now}
}

func (s *dashboardService) Summary(ctx context.Context, org string) (*DashboardSummary, error) {
	now := s.now().In(s.loc)
	sum := &DashboardSummary{
		Organization: org,
		MonthIndex:   int(now.Month()) - 1,
		GeneratedOn:  now.Format(DateOfUploadLayout),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		o, err := s.orgs.Get(gctx, org)
		if err != nil {
			return err
		}
		sum.ImageCount = o.ImageCount
		sum.SelectedDocID = o.SelectedDocID
		return nil
	})
	g.Go(func() error {
		n, err := s.docs.Count(gctx, org)
		sum.DocumentCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.docs.CountMonth(gctx, org, sum.MonthIndex)
		sum.MonthCount = n
		return err
	})
	g.Go(func() error {
		m, err := s.users.ListMembers(gctx, org)
		sum.ActiveUsers = m
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrgNotFound
		}
		return nil, err
	}
	if sum.ActiveUsers == nil {
		sum.ActiveUsers = []model.Member{}
	}
	return sum, nil
}

func (s *dashboardService) Members(ctx context.Context, org string) ([]model.Member, error) {
	members, err := s.users.ListMembers(ctx, org)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []model.Member{}
	}
	return members, nil
}
