package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"opacbookings/pkg/model"
)

const (
	HeaderKohaEmbed = "x-koha-embed"
	BookingsEmbed   = "patron,biblio,item,pickup_library"

	RuleLeadPeriod  = "bookings_lead_period"
	RuleTrailPeriod = "bookings_trail_period"
)

// KohaClient talks to the Koha public REST API.
type KohaClient struct {
	httpClient *HttpClient
}

func NewKohaClient(baseURL string, timeout time.Duration) *KohaClient {
	return &KohaClient{httpClient: NewHttpClient(baseURL, timeout)}
}

// StatusError is returned for any non-2xx answer.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("koha %s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func allPages() url.Values {
	return url.Values{"_per_page": []string{"-1"}}
}

func (c *KohaClient) getJSON(ctx context.Context, path string, query url.Values, headers map[string]string, target any) error {
	resp, err := c.httpClient.GET(ctx, path, query, headers)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &StatusError{Method: "GET", Path: path, StatusCode: resp.StatusCode, Message: GetErrorMessage(resp)}
	}
	if err := resp.DecodeJSON(target); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func (c *KohaClient) BookableItems(ctx context.Context, biblioID int) ([]model.BookableItem, error) {
	query := allPages()
	query.Set("bookable", "1")

	var items []model.BookableItem
	path := fmt.Sprintf("/api/v1/public/biblios/%d/items", biblioID)
	if err := c.getJSON(ctx, path, query, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *KohaClient) BiblioBookings(ctx context.Context, biblioID int) ([]model.Booking, error) {
	var bookings []model.Booking
	path := fmt.Sprintf("/api/v1/public/biblios/%d/bookings", biblioID)
	if err := c.getJSON(ctx, path, allPages(), nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *KohaClient) Libraries(ctx context.Context) ([]model.Library, error) {
	var libraries []model.Library
	if err := c.getJSON(ctx, "/api/v1/public/libraries", allPages(), nil, &libraries); err != nil {
		return nil, err
	}
	return libraries, nil
}

// CirculationRules returns the booking lead and trail periods. The zero
// window comes back alongside any error.
func (c *KohaClient) CirculationRules(ctx context.Context, q model.RulesQuery) (model.PreparationWindow, error) {
	query := url.Values{}
	query.Set("patron_category_id", q.PatronCategoryID)
	query.Set("item_type_id", q.ItemTypeID)
	query.Set("library_id", q.LibraryID)
	query.Set("rules", RuleLeadPeriod+","+RuleTrailPeriod)

	var rules []map[string]json.RawMessage
	if err := c.getJSON(ctx, "/api/v1/public/circulation_rules", query, nil, &rules); err != nil {
		return model.PreparationWindow{}, err
	}
	if len(rules) == 0 {
		return model.PreparationWindow{}, nil
	}

	lead, err := ruleDays(rules[0][RuleLeadPeriod])
	if err != nil {
		return model.PreparationWindow{}, fmt.Errorf("%s: %w", RuleLeadPeriod, err)
	}
	trail, err := ruleDays(rules[0][RuleTrailPeriod])
	if err != nil {
		return model.PreparationWindow{}, fmt.Errorf("%s: %w", RuleTrailPeriod, err)
	}
	return model.PreparationWindow{LeadDays: lead, TrailDays: trail}.Normalize(), nil
}

// ruleDays accepts a rule value encoded as a number, a numeric string, an
// empty string or null.
func ruleDays(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("unexpected rule value %s", raw)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func (c *KohaClient) CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	const path = "/api/v1/public/bookings"

	resp, err := c.httpClient.POST(ctx, path, req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &StatusError{Method: "POST", Path: path, StatusCode: resp.StatusCode, Message: GetErrorMessage(resp)}
	}

	var booking model.Booking
	if err := resp.DecodeJSON(&booking); err != nil {
		return nil, fmt.Errorf("failed to decode created booking: %w", err)
	}
	return &booking, nil
}

// PatronBookings lists a patron's bookings with patron, biblio, item and
// pickup library embedded.
func (c *KohaClient) PatronBookings(ctx context.Context, patronID int) ([]model.EmbeddedBooking, error) {
	query := allPages()
	query.Set("q", fmt.Sprintf(`{"patron_id":%d}`, patronID))

	var bookings []model.EmbeddedBooking
	headers := map[string]string{HeaderKohaEmbed: BookingsEmbed}
	if err := c.getJSON(ctx, "/api/v1/public/bookings", query, headers, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}
