package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"orbit/internal/core"
)

const defaultGoCardlessBaseURL = "https://bankaccountdata.gocardless.com"

// GoCardlessClient fetches booked transactions through the GoCardless
// bank account data API. Access tokens are short lived and refreshed on
// demand from the secret pair.
type GoCardlessClient struct {
	httpClient *http.Client
	baseURL    string
	secretID   string
	secretKey  string
	accountID  string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewGoCardlessClient(secretID, secretKey, accountID, baseURL string) *GoCardlessClient {
	if baseURL == "" {
		baseURL = defaultGoCardlessBaseURL
	}
	return &GoCardlessClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		secretID:   secretID,
		secretKey:  secretKey,
		accountID:  accountID,
	}
}

func (c *GoCardlessClient) Name() string { return "gocardless" }

type gocardlessTokenResponse struct {
	Access        string `json:"access"`
	AccessExpires int64  `json:"access_expires"`
}

type gocardlessTransaction struct {
	TransactionID     string `json:"transactionId"`
	BookingDate       string `json:"bookingDate"`
	TransactionAmount struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	} `json:"transactionAmount"`
	CreditorName                      string `json:"creditorName"`
	RemittanceInformationUnstructured string `json:"remittanceInformationUnstructured"`
}

type gocardlessTransactionList struct {
	Transactions struct {
		Booked []gocardlessTransaction `json:"booked"`
	} `json:"transactions"`
}

// FetchTransactions lists booked debits since the given time. Amounts
// arrive as signed decimal strings, negative for money out; credits are
// skipped and debits come back as positive amounts.
func (c *GoCardlessClient) FetchTransactions(ctx context.Context, since time.Time) ([]core.Transaction, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/v2/accounts/%s/transactions/?%s", c.baseURL, c.accountID, url.Values{
		"date_from": {since.UTC().Format("2006-01-02")},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call GoCardless API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("GoCardless API returned %d: %s", resp.StatusCode, body)
	}

	var list gocardlessTransactionList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	txns := make([]core.Transaction, 0, len(list.Transactions.Booked))
	for _, gt := range list.Transactions.Booked {
		pence, err := core.ParseSignedPence(gt.TransactionAmount.Amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q for transaction %s: %w", gt.TransactionAmount.Amount, gt.TransactionID, err)
		}
		if pence >= 0 {
			continue
		}
		date, err := time.Parse("2006-01-02", gt.BookingDate)
		if err != nil {
			return nil, fmt.Errorf("parse booking date %q for transaction %s: %w", gt.BookingDate, gt.TransactionID, err)
		}
		txns = append(txns, core.Transaction{
			ID:           gt.TransactionID,
			MerchantName: gocardlessMerchantName(gt),
			Amount:       core.Money{Pence: -pence},
			Date:         date,
		})
	}
	return txns, nil
}

func gocardlessMerchantName(gt gocardlessTransaction) string {
	if gt.CreditorName != "" {
		return gt.CreditorName
	}
	if gt.RemittanceInformationUnstructured != "" {
		return gt.RemittanceInformationUnstructured
	}
	return "Unknown"
}

// token returns a cached access token, requesting a fresh one when the
// cached token is missing or within a minute of expiry.
func (c *GoCardlessClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Add(time.Minute).Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	body, err := json.Marshal(map[string]string{
		"secret_id":  c.secretID,
		"secret_key": c.secretKey,
	})
	if err != nil {
		return "", fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/token/new/", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, respBody)
	}

	var tr gocardlessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tr.Access == "" {
		return "", fmt.Errorf("token endpoint returned empty access token")
	}

	c.accessToken = tr.Access
	c.tokenExpiry = time.Now().Add(time.Duration(tr.AccessExpires) * time.Second)
	return c.accessToken, nil
}
