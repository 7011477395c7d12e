package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fentz26/planora/internal/models"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Client wraps HTTP calls to the Planora API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client with timeout
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
}

// ListPlans fetches stored plan summaries from the API
func (c *Client) ListPlans(limit int) ([]PlanItem, error) {
	url := c.baseURL + "/api/plans"
	if limit > 0 {
		url += fmt.Sprintf("?limit=%d", limit)
	}

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	var result struct {
		Plans []struct {
			ID        string    `json:"id"`
			Goal      string    `json:"goal"`
			Category  string    `json:"category"`
			Method    string    `json:"method"`
			TaskCount int       `json:"task_count"`
			CreatedAt time.Time `json:"created_at"`
		} `json:"plans"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	items := make([]PlanItem, len(result.Plans))
	for i, p := range result.Plans {
		items[i] = PlanItem{
			ID:        p.ID,
			Goal:      p.Goal,
			Category:  p.Category,
			Method:    p.Method,
			TaskCount: p.TaskCount,
			Created:   p.CreatedAt.Local().Format("2006-01-02 15:04"),
		}
	}
	return items, nil
}

// GetPlan fetches a single plan
func (c *Client) GetPlan(id string) (*models.Plan, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/plan/" + id)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	var plan models.Plan
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// CreatePlan asks the daemon to generate a plan for the goal
func (c *Client) CreatePlan(goalText string) (*PlanResult, error) {
	body := map[string]string{
		"goal": goalText,
	}
	resp, err := c.post("/api/plan", body)
	if err != nil {
		return nil, err
	}

	var result struct {
		models.Plan
		Saved      bool   `json:"saved"`
		StoreError string `json:"store_error"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, err
	}

	return &PlanResult{
		Plan:       result.Plan,
		Saved:      result.Saved,
		StoreError: result.StoreError,
	}, nil
}

// DeletePlan deletes a stored plan
func (c *Client) DeletePlan(id string) error {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+"/api/plan/"+id, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s", string(body))
	}
	return nil
}

// GetLLMStatus fetches tier availability, optionally forcing a re-probe
func (c *Client) GetLLMStatus(refresh bool) (*LLMStatus, error) {
	url := c.baseURL + "/api/llm-status"
	if refresh {
		url += "?refresh=true"
	}

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	var result struct {
		CurrentMethod string `json:"current_method"`
		Tiers         []struct {
			Name      string `json:"name"`
			Available bool   `json:"available"`
			Detail    string `json:"detail"`
		} `json:"tiers"`
		OllamaInstalled bool `json:"ollama_installed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	status := &LLMStatus{
		CurrentMethod:   result.CurrentMethod,
		OllamaInstalled: result.OllamaInstalled,
	}
	for _, t := range result.Tiers {
		status.Tiers = append(status.Tiers, TierRow{
			Name:      t.Name,
			Available: t.Available,
			Detail:    t.Detail,
		})
	}
	return status, nil
}

func (c *Client) post(path string, data interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	return body, nil
}

// CheckHealth checks if the daemon is healthy
func (c *Client) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var health struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false, err
	}

	return health.OK, nil
}
