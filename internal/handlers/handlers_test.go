package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ticket-checkout/internal/checkout"
	"ticket-checkout/internal/config"
	"ticket-checkout/internal/repositories"
	"ticket-checkout/internal/services"
	"ticket-checkout/internal/session"
)

type testServer struct {
	handler http.Handler
	store   *session.MemoryStore
}

const testPublicURL = "https://tickets.example.com/"

func newTestRouter(t *testing.T, opener session.Opener) http.Handler {
	t.Helper()

	catalogs := repositories.DemoCatalog()
	invoices, err := services.NewInvoiceRenderer()
	require.NoError(t, err)

	svc := checkout.NewService(
		catalogs,
		checkout.NewFinalizer(repositories.NewMemoryArchive(), nil),
		services.NewMockPaymentGateway(0, nil),
		invoices,
		services.NewReceiptSigner("handler-test-receipt-secret", time.Hour),
		time.Second,
		nil,
	)

	return NewRouter(RouterDeps{
		Checkout:  svc,
		Invoices:  invoices,
		Events:    catalogs,
		Sessions:  opener,
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
		PublicURL: testPublicURL,
		Logger:    zap.NewNop(),
	})
}

func newTestServer(t *testing.T) *testServer {
	store := session.NewMemoryStore()
	return &testServer{handler: newTestRouter(t, store), store: store}
}

func (s *testServer) do(method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) form(target string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rr := s.do("GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestEventsList(t *testing.T) {
	s := newTestServer(t)
	rr := s.do("GET", "/events", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Events []struct {
			ID string `json:"id"`
		} `json:"events"`
	}
	decode(t, rr, &body)
	require.Len(t, body.Events, 2)
}

func TestTicketsPage(t *testing.T) {
	s := newTestServer(t)

	rr := s.do("GET", "/events/jazz-night/tickets", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var page struct {
		Catalog struct {
			Tickets []struct {
				ID string `json:"id"`
			} `json:"tickets"`
		} `json:"catalog"`
		Quantities map[string]int `json:"quantities"`
		Currency   string         `json:"currency"`
	}
	decode(t, rr, &page)
	assert.Len(t, page.Catalog.Tickets, 2)
	assert.Equal(t, 0, page.Quantities["ga"])
	assert.Equal(t, "USD", page.Currency)

	rr = s.do("GET", "/events/nope/tickets", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestQuote(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		body       string
		status     int
		total      float64
		promoError bool
	}{
		{"two tickets", `{"eventId":"jazz-night","quantities":{"ga":2}}`, http.StatusOK, 55.00, false},
		{"sms", `{"eventId":"jazz-night","quantities":{"ga":2},"deliveryMethod":"sms"}`, http.StatusOK, 56.00, false},
		{"promo", `{"eventId":"jazz-night","quantities":{"ga":2},"promoCode":"Jazz10"}`, http.StatusOK, 50.00, false},
		{"bad promo", `{"eventId":"jazz-night","quantities":{"ga":2},"promoCode":"nope"}`, http.StatusOK, 55.00, true},
		{"free", `{"eventId":"open-rehearsal","quantities":{"rsvp":1}}`, http.StatusOK, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do("POST", "/checkout/quote", tt.body, nil)
			require.Equal(t, tt.status, rr.Code, rr.Body.String())

			var body struct {
				PromoError string `json:"promoError"`
				Pricing    struct {
					Total float64 `json:"total"`
				} `json:"pricing"`
			}
			decode(t, rr, &body)
			assert.Equal(t, tt.total, body.Pricing.Total)
			assert.Equal(t, tt.promoError, body.PromoError != "")
		})
	}

	rr := s.do("POST", "/checkout/quote", `{"eventId":"missing"}`, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = s.do("POST", "/checkout/quote", `{not json`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestDirectNavigationRedirects(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/checkout/details", "/checkout/payment", "/checkout/confirmation"} {
		rr := s.do("GET", path, "", nil)
		assert.Equal(t, http.StatusSeeOther, rr.Code, path)
		assert.Equal(t, "/events", rr.Header().Get("Location"), path)
	}

	rr := s.do("GET", "/checkout/payment", "", map[string]string{"HX-Request": "true"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "/events", rr.Header().Get("HX-Redirect"))
}

func TestSelectTickets_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"nothing selected", `{"eventId":"jazz-night","quantities":{}}`, "tickets"},
		{"only add-ons", `{"eventId":"jazz-night","quantities":{"parking":1}}`, "tickets"},
		{"bad promo", `{"eventId":"jazz-night","quantities":{"ga":1},"promoCode":"JAZZ"}`, "promoCode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do("POST", "/checkout/tickets", tt.body, nil)
			require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

			var body struct {
				Errors map[string][]string `json:"errors"`
			}
			decode(t, rr, &body)
			assert.Contains(t, body.Errors, tt.field)
		})
	}
}

func TestPaidCheckoutFlow(t *testing.T) {
	s := newTestServer(t)

	rr := s.form("/checkout/tickets", url.Values{"eventId": {"jazz-night"}, "qty.ga": {"2"}})
	require.Equal(t, http.StatusSeeOther, rr.Code, rr.Body.String())
	assert.Equal(t, "/checkout/details", rr.Header().Get("Location"))

	rr = s.do("GET", "/checkout/details", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	// payment is still out of reach
	rr = s.do("GET", "/checkout/payment", "", nil)
	assert.Equal(t, "/events/jazz-night/tickets", rr.Header().Get("Location"))

	rr = s.do("POST", "/checkout/details", `{"firstName":"Ada","lastName":"","email":"bad"}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var verrs struct {
		Errors map[string][]string `json:"errors"`
	}
	decode(t, rr, &verrs)
	assert.Contains(t, verrs.Errors, "lastName")
	assert.Contains(t, verrs.Errors, "email")

	rr = s.form("/checkout/details", url.Values{
		"firstName":      {"Ada"},
		"lastName":       {"Lovelace"},
		"email":          {"ada@example.com"},
		"phone":          {"+1 555 010 9999"},
		"deliveryMethod": {"sms"},
	})
	require.Equal(t, http.StatusSeeOther, rr.Code, rr.Body.String())
	assert.Equal(t, "/checkout/payment", rr.Header().Get("Location"))

	rr = s.do("GET", "/checkout/payment", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var summary struct {
		Pricing struct {
			Total float64 `json:"total"`
		} `json:"pricing"`
	}
	decode(t, rr, &summary)
	assert.Equal(t, 56.00, summary.Pricing.Total)

	rr = s.do("POST", "/checkout/payment", `{"cardHolder":"Ada","cardNumber":"4000 0000 0000 0002","expiry":"12/30","cvc":"123"}`, nil)
	assert.Equal(t, http.StatusPaymentRequired, rr.Code)

	rr = s.do("POST", "/checkout/payment", `{"cardHolder":"Ada","cardNumber":"1234","expiry":"13/30","cvc":"1"}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	decode(t, rr, &verrs)
	assert.Contains(t, verrs.Errors, "cardNumber")
	assert.Contains(t, verrs.Errors, "expiry")

	rr = s.form("/checkout/payment", url.Values{
		"cardHolder": {"Ada Lovelace"},
		"cardNumber": {"4242424242424242"},
		"expiry":     {"12/30"},
		"cvc":        {"123"},
	})
	require.Equal(t, http.StatusSeeOther, rr.Code, rr.Body.String())
	assert.Equal(t, "/checkout/confirmation", rr.Header().Get("Location"))

	rr = s.do("GET", "/checkout/confirmation", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var conf struct {
		Headline     string `json:"headline"`
		ReceiptToken string `json:"receiptToken"`
		InvoiceURL   string `json:"invoiceUrl"`
		Order        struct {
			OrderNumber string  `json:"orderNumber"`
			FinalTotal  float64 `json:"finalTotal"`
		} `json:"order"`
	}
	decode(t, rr, &conf)
	assert.Equal(t, checkout.HeadlinePaid, conf.Headline)
	assert.Equal(t, 56.00, conf.Order.FinalTotal)

	invoicePath := "/orders/" + conf.Order.OrderNumber + "/invoice?token=" + url.QueryEscape(conf.ReceiptToken)
	assert.Equal(t, "https://tickets.example.com"+invoicePath, conf.InvoiceURL)

	rr = s.do("GET", invoicePath, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "INV-"+strings.TrimPrefix(conf.Order.OrderNumber, "WTF-"))

	rr = s.do("GET", invoicePath+"&format=text", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "General Admission")

	rr = s.do("GET", "/orders/"+conf.Order.OrderNumber+"/invoice?token=forged", "", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = s.do("GET", "/orders/not-an-order/invoice", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFreeCheckoutSkipsPayment(t *testing.T) {
	s := newTestServer(t)

	rr := s.do("POST", "/checkout/tickets", `{"eventId":"open-rehearsal","quantities":{"rsvp":1}}`, nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	rr = s.do("POST", "/checkout/details", `{"firstName":"Grace","lastName":"Hopper","email":"grace@example.com"}`, nil)
	require.Equal(t, http.StatusSeeOther, rr.Code, rr.Body.String())
	assert.Equal(t, "/checkout/confirmation", rr.Header().Get("Location"))

	rr = s.do("GET", "/checkout/payment", "", nil)
	assert.Equal(t, "/checkout/confirmation", rr.Header().Get("Location"))

	rr = s.do("GET", "/checkout/confirmation", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var conf struct {
		Headline string `json:"headline"`
	}
	decode(t, rr, &conf)
	assert.Equal(t, "Registration Complete.", conf.Headline)
}

func TestCookieSessionsIsolateCustomers(t *testing.T) {
	cookies, err := session.NewCookieStore(config.SessionConfig{Secret: "cookie-test-secret-long-enough", MaxAge: 3600})
	require.NoError(t, err)
	srv := httptest.NewServer(newTestRouter(t, session.NewGorillaOpener(cookies, "checkout")))
	defer srv.Close()

	client := func() *http.Client {
		jar, _ := cookiejar.New(nil)
		return &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	alice, bob := client(), client()

	resp, err := alice.Post(srv.URL+"/checkout/tickets", "application/json", strings.NewReader(`{"eventId":"jazz-night","quantities":{"ga":1}}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, err = alice.Get(srv.URL + "/checkout/details")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = bob.Get(srv.URL + "/checkout/details")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/events", resp.Header.Get("Location"))
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t)
	rr := s.do("GET", "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStepURL(t *testing.T) {
	assert.Equal(t, "/checkout/details", stepURL(checkout.Detailing, checkout.Snapshot{}))
	assert.Equal(t, "/checkout/payment", stepURL(checkout.Paying, checkout.Snapshot{}))
	assert.Equal(t, "/checkout/confirmation", stepURL(checkout.Confirmed, checkout.Snapshot{}))
	assert.Equal(t, "/events", stepURL(checkout.Selecting, checkout.Snapshot{}))
}
