package handlers

import (
	"fmt"
	"log"

	g "github.com/serpapi/google-search-results-golang"
)

const (
	// DefaultMaxReviews is the maximum number of reviews fetched per place
	DefaultMaxReviews = 20
	// MaxReviewPagesToFetch caps pagination to prevent excessive API calls
	MaxReviewPagesToFetch = 5
	// DefaultReviewLanguage is the language requested from the review API
	DefaultReviewLanguage = "en"
)

// Review represents a single Google Maps review for a business location.
// Reviews are ephemeral, held only while one lead is being processed.
type Review struct {
	// Name of the reviewer
	Name string `json:"name"`
	// Text is the free-text review body
	Text string `json:"text"`
	// Title is an optional review title
	Title string `json:"title,omitempty"`
	// Rating is the optional numeric rating (1-5)
	Rating float64 `json:"rating,omitempty"`
}

// ReviewFetcherHandler fetches Google Maps reviews through SerpAPI
type ReviewFetcherHandler struct {
	apiKey     string
	maxReviews int
	language   string
}

// NewReviewFetcherHandler creates a new ReviewFetcherHandler instance
func NewReviewFetcherHandler(apiKey string, maxReviews int) *ReviewFetcherHandler {
	if maxReviews <= 0 {
		maxReviews = DefaultMaxReviews
	}
	return &ReviewFetcherHandler{
		apiKey:     apiKey,
		maxReviews: maxReviews,
		language:   DefaultReviewLanguage,
	}
}

// FetchReviews requests up to maxReviews reviews for a place ID. A provider
// error returns the error so the caller can degrade to an empty review set;
// unparsable entries are skipped.
func (h *ReviewFetcherHandler) FetchReviews(placeID string) ([]Review, error) {
	if placeID == "" {
		return nil, fmt.Errorf("%w: place ID is required", ErrProvider)
	}

	log.Printf("[ReviewFetcherHandler] Fetching up to %d reviews for place ID: %s", h.maxReviews, placeID)

	var reviews []Review
	nextPageToken := ""

	for page := 0; page < MaxReviewPagesToFetch && len(reviews) < h.maxReviews; page++ {
		pageReviews, token, err := h.fetchPage(placeID, nextPageToken)
		if err != nil {
			// Results from earlier pages are still usable
			if len(reviews) > 0 {
				log.Printf("[ReviewFetcherHandler] Page %d failed, returning %d reviews fetched so far: %v",
					page+1, len(reviews), err)
				break
			}
			return nil, err
		}

		reviews = append(reviews, pageReviews...)

		if token == "" || len(pageReviews) == 0 {
			break
		}
		nextPageToken = token
	}

	if len(reviews) > h.maxReviews {
		reviews = reviews[:h.maxReviews]
	}

	log.Printf("[ReviewFetcherHandler] Fetched %d reviews for place ID %s", len(reviews), placeID)
	return reviews, nil
}

// fetchPage fetches a single page of reviews from SerpAPI
func (h *ReviewFetcherHandler) fetchPage(placeID, nextPageToken string) ([]Review, string, error) {
	parameters := map[string]string{
		"engine":   "google_maps_reviews",
		"place_id": placeID,
		"hl":       h.language,
	}
	if nextPageToken != "" {
		parameters["next_page_token"] = nextPageToken
	}

	search := g.NewSearch("google_maps_reviews", parameters, h.apiKey)
	resp, err := search.GetJSON()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrProvider, err)
	}

	reviews := parseReviewItems(resp)

	token := ""
	if paginationMap, ok := resp["serpapi_pagination"].(map[string]interface{}); ok {
		token = getString(paginationMap, "next_page_token")
	}

	return reviews, token, nil
}

// parseReviewItems extracts the review list from a SerpAPI response.
// Entries without any text are skipped.
func parseReviewItems(resp map[string]interface{}) []Review {
	items, ok := resp["reviews"].([]interface{})
	if !ok {
		return nil
	}

	var reviews []Review
	for _, item := range items {
		itemMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		review := Review{
			Text:   getString(itemMap, "snippet"),
			Title:  getString(itemMap, "title"),
			Rating: getFloat(itemMap, "rating"),
		}
		if userMap, ok := itemMap["user"].(map[string]interface{}); ok {
			review.Name = getString(userMap, "name")
		}

		if review.Text == "" {
			continue
		}
		reviews = append(reviews, review)
	}

	return reviews
}

// Helper functions to safely extract values from map[string]interface{}
func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

func getFloat(m map[string]interface{}, key string) float64 {
	if val, ok := m[key].(float64); ok {
		return val
	}
	return 0
}
