package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	apiURL        = "https://opentdb.com/api.php"
	defaultAmount = 10
	maxAmount     = 50
)

// RawQuestion mirrors the OpenTriviaDB question payload.
type RawQuestion struct {
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type apiResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []RawQuestion `json:"results"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient uses hc for requests, or a client with a 15s timeout when hc is nil.
func NewClient(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{httpClient: hc, baseURL: apiURL}
}

// FetchQuestions requests amount questions, clamped to the API's limit of 50.
func (c *Client) FetchQuestions(ctx context.Context, amount int) ([]RawQuestion, error) {
	if amount <= 0 {
		amount = defaultAmount
	}
	if amount > maxAmount {
		amount = maxAmount
	}

	reqURL := c.baseURL + "?amount=" + strconv.Itoa(amount)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("opentdb returned status %d", resp.StatusCode)
	}
	return DecodeQuestions(resp.Body)
}

// DecodeQuestions parses an API response body, such as one saved to a file.
func DecodeQuestions(r io.Reader) ([]RawQuestion, error) {
	var payload apiResponse
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode opentdb payload: %w", err)
	}
	if payload.ResponseCode != 0 {
		return nil, fmt.Errorf("opentdb response_code=%d", payload.ResponseCode)
	}
	return payload.Results, nil
}
