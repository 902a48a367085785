package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"complaint-service/internal/model"
)

// ErrUnavailable wraps every transport-level gateway failure so callers can
// degrade instead of aborting their workflow.
var ErrUnavailable = errors.New("ai gateway unavailable")

const (
	defaultTimeout    = 60 * time.Second
	defaultMaxRetries = 3
)

// HTTPClient talks to the AI service over HTTP. Construct once at startup and
// share; it is safe for concurrent use.
type HTTPClient struct {
	baseURL    string
	client     *http.Client
	maxRetries int
	log        zerolog.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration, maxRetries int, log zerolog.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		log:        log,
	}
}

type analyzeRequestBody struct {
	Image      string  `json:"image"`
	Street     string  `json:"street"`
	Area       string  `json:"area"`
	PostalCode string  `json:"postal_code"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

type analyzeResponseBody struct {
	IsValid bool `json:"is_valid"`
	Data    []struct {
		Category        string   `json:"category"`
		Department      string   `json:"department"`
		Severity        string   `json:"severity"`
		SuggestedTools  []string `json:"suggested_tools"`
		SafetyEquipment []string `json:"safety_equipment"`
	} `json:"data"`
	Error *string `json:"error"`
}

func (c *HTTPClient) AnalyzeComplaint(ctx context.Context, req AnalyzeRequest) (ClassificationResult, error) {
	payload := analyzeRequestBody{
		Image:      base64.StdEncoding.EncodeToString(req.Image),
		Street:     req.Street,
		Area:       req.Area,
		PostalCode: req.PostalCode,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
	}

	body, err := c.postJSON(ctx, "/analyze/complaint", payload)
	if err != nil {
		return ClassificationResult{}, err
	}

	var resp analyzeResponseBody
	if err := decodeLenient(body, &resp); err != nil {
		return ClassificationResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	result := ClassificationResult{Valid: resp.IsValid}
	if resp.Error != nil {
		result.Reason = *resp.Error
	}
	for _, item := range resp.Data {
		result.Issues = append(result.Issues, Issue{
			Category:        item.Category,
			Department:      departmentOrMapped(item.Department, item.Category),
			Severity:        item.Severity,
			SuggestedTools:  item.SuggestedTools,
			SafetyEquipment: item.SafetyEquipment,
		})
	}
	return result, nil
}

type verifyRequestBody struct {
	BeforeImage string `json:"before_image"`
	AfterImage  string `json:"after_image"`
	Category    string `json:"category"`
}

type verifyResponseBody struct {
	IsCompleted bool    `json:"is_completed"`
	Error       *string `json:"error"`
}

func (c *HTTPClient) VerifyCompletion(ctx context.Context, req VerifyRequest) (VerificationResult, error) {
	payload := verifyRequestBody{
		BeforeImage: base64.StdEncoding.EncodeToString(req.BeforeImage),
		AfterImage:  base64.StdEncoding.EncodeToString(req.AfterImage),
		Category:    req.Category,
	}

	body, err := c.postJSON(ctx, "/verify/completion", payload)
	if err != nil {
		return VerificationResult{}, err
	}

	var resp verifyResponseBody
	if err := decodeLenient(body, &resp); err != nil {
		return VerificationResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	result := VerificationResult{Completed: resp.IsCompleted}
	if resp.Error != nil {
		result.Message = *resp.Error
	}
	return result, nil
}

type predictRequestBody struct {
	Tickets []ReportTicket `json:"tickets"`
}

type predictResponseBody struct {
	ReportHTML  string  `json:"report_html"`
	GeneratedAt string  `json:"generated_at"`
	Error       *string `json:"error"`
}

func (c *HTTPClient) PredictReport(ctx context.Context, tickets []ReportTicket) (string, error) {
	body, err := c.postJSON(ctx, "/analytics/predict", predictRequestBody{Tickets: tickets})
	if err != nil {
		return "", err
	}

	var resp predictResponseBody
	if err := decodeLenient(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.Error != nil && *resp.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrUnavailable, *resp.Error)
	}
	return resp.ReportHTML, nil
}

// postJSON sends the payload and returns the raw response body. Timeouts,
// connection errors and 5xx responses are retried up to maxRetries attempts;
// 4xx responses fail immediately.
func (c *HTTPClient) postJSON(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrUnavailable, err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			if !isTransient(err) {
				break
			}
			c.log.Warn().Err(err).Str("path", path).Int("attempt", attempt).Msg("gateway request failed")
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if readErr != nil {
				return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, readErr)
			}
			return body, nil
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200))
			c.log.Warn().Int("status", resp.StatusCode).Str("path", path).Int("attempt", attempt).Msg("gateway server error")
		default:
			// 4xx is not retryable.
			return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, truncate(string(body), 200))
		}
	}

	return nil, fmt.Errorf("%w: %d attempts: %v", ErrUnavailable, c.maxRetries, lastErr)
}

// isTransient decides whether a transport error is worth another attempt.
// Timeouts, connection refusals and DNS failures are; a canceled caller
// context is not.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// http.Client wraps everything in url.Error; remaining cases are
	// connection-level failures.
	return true
}

var jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// decodeLenient parses body as JSON, tolerating markdown code fences or
// surrounding prose the upstream model occasionally leaks through.
func decodeLenient(body []byte, out interface{}) error {
	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	text = strings.TrimSpace(text)

	if err := json.Unmarshal([]byte(text), out); err == nil {
		return nil
	}
	if match := jsonObjectPattern.FindString(text); match != "" {
		if err := json.Unmarshal([]byte(match), out); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no parseable JSON in response")
}

// departmentOrMapped prefers the department the AI service reported and maps
// from the category when the field is absent or unrecognized.
func departmentOrMapped(reported, category string) model.Department {
	switch model.Department(reported) {
	case model.DepartmentSanitation, model.DepartmentRoads, model.DepartmentWater, model.DepartmentDrainage:
		return model.Department(reported)
	}
	return model.DepartmentForCategory(category)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
