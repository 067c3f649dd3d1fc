package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"orbit/internal/core"
)

const defaultMonzoBaseURL = "https://api.monzo.com"

// MonzoClient fetches transactions from the Monzo API.
type MonzoClient struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	accountID   string
}

func NewMonzoClient(accessToken, accountID, baseURL string) *MonzoClient {
	if baseURL == "" {
		baseURL = defaultMonzoBaseURL
	}
	return &MonzoClient{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     baseURL,
		accessToken: accessToken,
		accountID:   accountID,
	}
}

func (c *MonzoClient) Name() string { return "monzo" }

type monzoTransaction struct {
	ID       string    `json:"id"`
	Amount   int64     `json:"amount"`
	Created  time.Time `json:"created"`
	Merchant *struct {
		Name string `json:"name"`
	} `json:"merchant"`
}

type monzoTransactionList struct {
	Transactions []monzoTransaction `json:"transactions"`
}

// FetchTransactions lists account debits created since the given time.
// Monzo amounts are integer pence, negative for money out; credits are
// skipped and debits come back as positive amounts.
func (c *MonzoClient) FetchTransactions(ctx context.Context, since time.Time) ([]core.Transaction, error) {
	endpoint := fmt.Sprintf("%s/transactions?%s", c.baseURL, url.Values{
		"account_id": {c.accountID},
		"since":      {since.UTC().Format(time.RFC3339)},
		"expand[]":   {"merchant"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call Monzo API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("Monzo API returned %d: %s", resp.StatusCode, body)
	}

	var list monzoTransactionList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	txns := make([]core.Transaction, 0, len(list.Transactions))
	for _, mt := range list.Transactions {
		if mt.Amount >= 0 {
			continue
		}
		txns = append(txns, core.Transaction{
			ID:           mt.ID,
			MerchantName: monzoMerchantName(mt),
			Amount:       core.Money{Pence: -mt.Amount},
			Date:         mt.Created,
		})
	}
	return txns, nil
}

// monzoMerchantName uses the expanded merchant object; transactions
// without one (bank transfers, pot moves) get "Unknown" so auto-match
// rules only ever fire on real merchant names.
func monzoMerchantName(mt monzoTransaction) string {
	if mt.Merchant != nil && mt.Merchant.Name != "" {
		return mt.Merchant.Name
	}
	return "Unknown"
}
