package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"webstar/tradework-outreach-worker/internal/dto"
	"webstar/tradework-outreach-worker/internal/handlers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource implements LeadSource in memory
type fakeSource struct {
	leads     []dto.Lead
	processed map[string]struct{}
	appended  []dto.LeadPersonalization

	listErr   error
	appendErr error
}

func newFakeSource(leads ...dto.Lead) *fakeSource {
	return &fakeSource{leads: leads, processed: map[string]struct{}{}}
}

func (f *fakeSource) ListLeads(ctx context.Context) ([]dto.Lead, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.leads, nil
}

func (f *fakeSource) ListProcessedIDs(ctx context.Context) (map[string]struct{}, error) {
	processed := make(map[string]struct{}, len(f.processed))
	for id := range f.processed {
		processed[id] = struct{}{}
	}
	return processed, nil
}

func (f *fakeSource) AppendPersonalization(ctx context.Context, rec dto.LeadPersonalization) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, rec)
	f.processed[rec.PlaceID] = struct{}{}
	return nil
}

// fakeReviews implements ReviewFetcher
type fakeReviews struct {
	reviews map[string][]handlers.Review
	err     error
}

func (f *fakeReviews) FetchReviews(placeID string) ([]handlers.Review, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.reviews[placeID], nil
}

// fakeSummarizer implements Summarizer
type fakeSummarizer struct {
	err          error
	websiteCalls int
	reviewCalls  int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, businessName string, reviews []handlers.Review) (*handlers.ReviewSummary, error) {
	f.reviewCalls++
	if f.err != nil {
		return nil, f.err
	}
	if len(reviews) == 0 {
		return handlers.FallbackSummary(), nil
	}
	return &handlers.ReviewSummary{OwnerName: "Dave Smith", Summary: "Customers praise the fast turnaround."}, nil
}

func (f *fakeSummarizer) SummarizeWebsite(ctx context.Context, businessName, markdown string) (*handlers.ReviewSummary, error) {
	f.websiteCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &handlers.ReviewSummary{OwnerName: "Dave Smith", Summary: "The website describes a family plumbing firm."}, nil
}

func (f *fakeSummarizer) SetLeadContext(leadID string) {}
func (f *fakeSummarizer) ClearLeadContext()            {}

// fakeGenerator implements MessageGenerator
type fakeGenerator struct {
	err   error
	calls int
}

func (f *fakeGenerator) Generate(ctx context.Context, lead dto.Lead, summary *handlers.ReviewSummary) (*handlers.PersonalizedMessage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &handlers.PersonalizedMessage{
		DMOpener: fmt.Sprintf("Hi, your Google reviews look great, %s.", lead.Business),
	}, nil
}

func (f *fakeGenerator) SetLeadContext(leadID string) {}
func (f *fakeGenerator) ClearLeadContext()            {}

// fakeScraper implements WebsiteScraper
type fakeScraper struct {
	page  *handlers.ScrapedPage
	calls int
}

func (f *fakeScraper) ScrapeHomepage(websiteURL string) *handlers.ScrapedPage {
	f.calls++
	return f.page
}

func makeLead(id string) dto.Lead {
	return dto.Lead{
		PlaceID:  id,
		Business: "Business " + id,
		Phone:    "+44 7700 900" + id,
	}
}

func newProcessor(t *testing.T, source *fakeSource, reviews ReviewFetcher, summarizer Summarizer, generator MessageGenerator) *LeadProcessor {
	t.Helper()
	p, err := NewLeadProcessor("test-run", source, reviews, summarizer, generator)
	require.NoError(t, err)
	return p
}

func TestNewLeadProcessor(t *testing.T) {
	source := newFakeSource()
	reviews := &fakeReviews{}
	summarizer := &fakeSummarizer{}
	generator := &fakeGenerator{}

	t.Run("requires all dependencies", func(t *testing.T) {
		_, err := NewLeadProcessor("", source, reviews, summarizer, generator)
		assert.Error(t, err)

		_, err = NewLeadProcessor("run", nil, reviews, summarizer, generator)
		assert.Error(t, err)

		_, err = NewLeadProcessor("run", source, nil, summarizer, generator)
		assert.Error(t, err)

		_, err = NewLeadProcessor("run", source, reviews, nil, generator)
		assert.Error(t, err)

		_, err = NewLeadProcessor("run", source, reviews, summarizer, nil)
		assert.Error(t, err)
	})

	t.Run("creates processor with valid dependencies", func(t *testing.T) {
		p, err := NewLeadProcessor("run", source, reviews, summarizer, generator)
		require.NoError(t, err)
		assert.NotNil(t, p)
	})
}

func TestLeadProcessorRun(t *testing.T) {
	ctx := context.Background()

	t.Run("personalizes every unprocessed lead", func(t *testing.T) {
		source := newFakeSource(makeLead("001"), makeLead("002"))
		reviews := &fakeReviews{reviews: map[string][]handlers.Review{
			"001": {{Text: "Great service."}},
			"002": {{Text: "Quick and tidy."}},
		}}
		p := newProcessor(t, source, reviews, &fakeSummarizer{}, &fakeGenerator{})

		report, err := p.Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, 2, report.LeadsTotal)
		assert.Equal(t, 2, report.LeadsProcessed)
		assert.Equal(t, 0, report.LeadsSkipped)
		assert.Equal(t, 0, report.LeadsFailed)

		assert.Equal(t, []string{"001", "002"}, report.AppendedIDs)

		require.Len(t, source.appended, 2)
		assert.Equal(t, "001", source.appended[0].PlaceID)
		assert.Equal(t, "+44 7700 900001", source.appended[0].Phone)
		assert.Contains(t, source.appended[0].Message, "Google reviews")
	})

	t.Run("rerun appends nothing", func(t *testing.T) {
		source := newFakeSource(makeLead("001"), makeLead("002"))
		reviews := &fakeReviews{}
		p := newProcessor(t, source, reviews, &fakeSummarizer{}, &fakeGenerator{})

		_, err := p.Run(ctx)
		require.NoError(t, err)
		require.Len(t, source.appended, 2)

		report, err := p.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, report.LeadsSkipped)
		assert.Equal(t, 0, report.LeadsProcessed)
		assert.Len(t, source.appended, 2)
	})

	t.Run("duplicate place IDs in the input are personalized once", func(t *testing.T) {
		source := newFakeSource(makeLead("001"), makeLead("001"))
		p := newProcessor(t, source, &fakeReviews{}, &fakeSummarizer{}, &fakeGenerator{})

		report, err := p.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.LeadsProcessed)
		assert.Equal(t, 1, report.LeadsSkipped)
		assert.Len(t, source.appended, 1)
	})

	t.Run("review fetch failure degrades to no reviews", func(t *testing.T) {
		source := newFakeSource(makeLead("001"))
		reviews := &fakeReviews{err: fmt.Errorf("%w: serpapi down", handlers.ErrProvider)}
		generator := &fakeGenerator{}
		p := newProcessor(t, source, reviews, &fakeSummarizer{}, generator)

		report, err := p.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.LeadsProcessed)
		assert.Equal(t, 1, generator.calls)
		assert.Len(t, source.appended, 1)
	})

	t.Run("summarizer failure skips the lead and continues", func(t *testing.T) {
		source := newFakeSource(makeLead("001"), makeLead("002"))
		summarizer := &fakeSummarizer{err: errors.New("model unavailable")}
		p := newProcessor(t, source, &fakeReviews{}, summarizer, &fakeGenerator{})

		report, err := p.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, report.LeadsFailed)
		assert.Empty(t, source.appended)
	})

	t.Run("generator validation failure skips the lead and continues", func(t *testing.T) {
		source := newFakeSource(makeLead("001"), makeLead("002"))
		generator := &fakeGenerator{err: fmt.Errorf("%w: message too long", handlers.ErrValidation)}
		p := newProcessor(t, source, &fakeReviews{}, &fakeSummarizer{}, generator)

		report, err := p.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, report.LeadsProcessed)
		assert.Equal(t, 2, report.LeadsFailed)
		assert.Empty(t, source.appended)
	})

	t.Run("append failure counts the lead as failed", func(t *testing.T) {
		source := newFakeSource(makeLead("001"))
		source.appendErr = errors.New("sheet write failed")
		p := newProcessor(t, source, &fakeReviews{}, &fakeSummarizer{}, &fakeGenerator{})

		report, err := p.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.LeadsFailed)
	})

	t.Run("lead read failure is fatal", func(t *testing.T) {
		source := newFakeSource()
		source.listErr = errors.New("sheets unavailable")
		p := newProcessor(t, source, &fakeReviews{}, &fakeSummarizer{}, &fakeGenerator{})

		_, err := p.Run(ctx)
		assert.Error(t, err)
	})

	t.Run("honors the lead cap", func(t *testing.T) {
		source := newFakeSource(makeLead("001"), makeLead("002"), makeLead("003"))
		p := newProcessor(t, source, &fakeReviews{}, &fakeSummarizer{}, &fakeGenerator{})
		p.SetMaxLeads(2)

		report, err := p.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, report.LeadsProcessed)
		assert.Len(t, source.appended, 2)
	})
}

func TestLeadProcessorWebsiteFallback(t *testing.T) {
	ctx := context.Background()

	leadWithSite := makeLead("001")
	leadWithSite.Website = "https://smithplumbing.co.uk"

	t.Run("scrapes the website when a lead has no reviews", func(t *testing.T) {
		source := newFakeSource(leadWithSite)
		summarizer := &fakeSummarizer{}
		scraper := &fakeScraper{page: &handlers.ScrapedPage{
			URL:      leadWithSite.Website,
			Markdown: "# Smith Plumbing\nFamily-run plumbing since 1998.",
			Success:  true,
		}}

		p := newProcessor(t, source, &fakeReviews{}, summarizer, &fakeGenerator{})
		p.SetWebsiteScraper(scraper)

		report, err := p.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.LeadsProcessed)
		assert.Equal(t, 1, scraper.calls)
		assert.Equal(t, 1, summarizer.websiteCalls)
		assert.Equal(t, 0, summarizer.reviewCalls)
	})

	t.Run("failed scrape falls back to the generic summary path", func(t *testing.T) {
		source := newFakeSource(leadWithSite)
		summarizer := &fakeSummarizer{}
		scraper := &fakeScraper{page: &handlers.ScrapedPage{
			URL:     leadWithSite.Website,
			Error:   "timeout",
			Success: false,
		}}

		p := newProcessor(t, source, &fakeReviews{}, summarizer, &fakeGenerator{})
		p.SetWebsiteScraper(scraper)

		report, err := p.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.LeadsProcessed)
		assert.Equal(t, 0, summarizer.websiteCalls)
		assert.Equal(t, 1, summarizer.reviewCalls)
	})

	t.Run("skips scraping when the lead has reviews", func(t *testing.T) {
		source := newFakeSource(leadWithSite)
		reviews := &fakeReviews{reviews: map[string][]handlers.Review{
			"001": {{Text: "Great service."}},
		}}
		summarizer := &fakeSummarizer{}
		scraper := &fakeScraper{page: &handlers.ScrapedPage{Success: true}}

		p := newProcessor(t, source, reviews, summarizer, &fakeGenerator{})
		p.SetWebsiteScraper(scraper)

		_, err := p.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, scraper.calls)
		assert.Equal(t, 1, summarizer.reviewCalls)
	})

	t.Run("no scraper configured uses the generic summary", func(t *testing.T) {
		source := newFakeSource(leadWithSite)
		summarizer := &fakeSummarizer{}

		p := newProcessor(t, source, &fakeReviews{}, summarizer, &fakeGenerator{})

		report, err := p.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.LeadsProcessed)
		assert.Equal(t, 1, summarizer.reviewCalls)
	})
}
