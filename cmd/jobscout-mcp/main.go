package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// apiError mirrors models.ErrorDetail.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// sessionAck mirrors the POST /sessions response.
type sessionAck struct {
	ID     string    `json:"id"`
	Status string    `json:"status"`
	Error  *apiError `json:"error"`
}

// jobRecord mirrors the JSON form of models.JobRecord.
type jobRecord struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	WorkArrangement *string `json:"work_arrangement"`
	EmploymentType  *string `json:"employment_type"`
	ExperienceLevel *string `json:"experience_level"`
}

// sessionView mirrors models.Session.
type sessionView struct {
	ID        string      `json:"id"`
	Site      string      `json:"site"`
	Status    string      `json:"status"`
	Attempted int         `json:"attempted"`
	Records   []jobRecord `json:"records"`
	Failures  []struct {
		ID      string `json:"id"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"failures"`
	Pending []string  `json:"pending"`
	Error   *apiError `json:"error"`
}

// classifyResponse mirrors models.ClassifyResponse.
type classifyResponse struct {
	WorkArrangement *string   `json:"work_arrangement"`
	EmploymentType  *string   `json:"employment_type"`
	ExperienceLevel *string   `json:"experience_level"`
	Error           *apiError `json:"error"`
}

// sitesResponse mirrors models.SitesResponse.
type sitesResponse struct {
	Sites []struct {
		Name          string   `json:"name"`
		RootDomain    string   `json:"root_domain"`
		AuthCookie    string   `json:"auth_cookie"`
		DetailDelayMs int64    `json:"detail_delay_ms"`
		Countries     []string `json:"countries"`
	} `json:"sites"`
}

func main() {
	apiURL := os.Getenv("JOBSCOUT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("JOBSCOUT_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "JOBSCOUT_API_KEY is required")
		os.Exit(1)
	}

	c := &client{
		http:   &http.Client{Timeout: 60 * time.Second},
		apiURL: strings.TrimRight(apiURL, "/"),
		apiKey: apiKey,
	}

	s := server.NewMCPServer(
		"jobscout",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	scrapeJobsTool := mcp.NewTool("scrape_jobs",
		mcp.WithDescription("Search a job board and scrape every matching job post (title, description, work arrangement, employment type, experience level). Runs in the background on the server; by default this tool waits for the session to finish."),
		mcp.WithString("site",
			mcp.Description("Job board to scrape"),
			mcp.Enum("linkedin", "indeed"),
		),
		mcp.WithString("keywords",
			mcp.Description("Search keywords, e.g. 'golang engineer'. Required unless ids is given."),
		),
		mcp.WithString("location",
			mcp.Description("Search location, e.g. 'Dublin'"),
		),
		mcp.WithArray("ids",
			mcp.Description("Scrape these job IDs directly instead of searching"),
		),
		mcp.WithString("country",
			mcp.Description("Indeed regional site: country code (ie, uk, us, ...) or English name"),
		),
		mcp.WithNumber("max_pages",
			mcp.Description("Results pages to walk (default: server setting)"),
		),
		mcp.WithString("description_format",
			mcp.Description("Description format: 'text' (default) or 'markdown'"),
			mcp.Enum("text", "markdown"),
		),
		mcp.WithBoolean("wait",
			mcp.Description("Wait for the session to finish (default: true). When false, returns the session ID for get_session."),
		),
	)
	s.AddTool(scrapeJobsTool, handleScrapeJobs(c))

	getSessionTool := mcp.NewTool("get_session",
		mcp.WithDescription("Get the status and records of a scrape session started by scrape_jobs."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Session ID returned by scrape_jobs"),
		),
	)
	s.AddTool(getSessionTool, handleGetSession(c))

	classifyTool := mcp.NewTool("classify_metadata",
		mcp.WithDescription("Classify a job post metadata line such as 'Remote · Full-time · Mid-Senior level' into work arrangement, employment type and experience level."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The metadata line to classify"),
		),
		mcp.WithString("site",
			mcp.Description("Which site's rules to apply (default: server setting)"),
			mcp.Enum("linkedin", "indeed"),
		),
	)
	s.AddTool(classifyTool, handleClassify(c))

	listSitesTool := mcp.NewTool("list_sites",
		mcp.WithDescription("List supported job boards with their root domains, sign-in cookie names, detail-page delays and Indeed countries."),
	)
	s.AddTool(listSitesTool, handleListSites(c))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

type client struct {
	http   *http.Client
	apiURL string
	apiKey string
}

// do sends a request to the jobscout API and returns the response body.
func (c *client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func (c *client) session(ctx context.Context, id string) (*sessionView, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+id, nil)
	if err != nil {
		return nil, err
	}
	var v sessionView
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if v.ID == "" && v.Error != nil {
		return nil, fmt.Errorf("[%s] %s", v.Error.Code, v.Error.Message)
	}
	return &v, nil
}

// pollSession polls a session until it leaves "running" or ctx ends.
func (c *client) pollSession(ctx context.Context, id string) (*sessionView, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			v, err := c.session(ctx, id)
			if err != nil {
				return nil, err
			}
			if v.Status != "running" {
				return v, nil
			}
		}
	}
}

func handleScrapeJobs(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload := map[string]any{}
		for _, key := range []string{"site", "keywords", "location", "country", "description_format"} {
			if v := request.GetString(key, ""); v != "" {
				payload[key] = v
			}
		}
		if ids := request.GetStringSlice("ids", nil); len(ids) > 0 {
			payload["ids"] = ids
		}
		if maxPages := request.GetInt("max_pages", 0); maxPages > 0 {
			payload["max_pages"] = maxPages
		}
		if payload["keywords"] == nil && payload["ids"] == nil {
			return mcp.NewToolResultError("keywords or ids is required"), nil
		}

		body, err := c.do(ctx, http.MethodPost, "/api/v1/sessions", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("session request failed: %v", err)), nil
		}
		var ack sessionAck
		if err := json.Unmarshal(body, &ack); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse session response: %v", err)), nil
		}
		if ack.ID == "" {
			msg := "session creation failed"
			if ack.Error != nil {
				msg = fmt.Sprintf("[%s] %s", ack.Error.Code, ack.Error.Message)
			}
			return mcp.NewToolResultError(msg), nil
		}

		if !request.GetBool("wait", true) {
			return mcp.NewToolResultText(fmt.Sprintf("Session %s started. Use get_session to follow it.", ack.ID)), nil
		}

		v, err := c.pollSession(ctx, ack.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling session %s failed: %v", ack.ID, err)), nil
		}
		return mcp.NewToolResultText(formatSession(v)), nil
	}
}

func handleGetSession(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}
		v, err := c.session(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatSession(v)), nil
	}
}

func handleClassify(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}
		payload := map[string]string{"text": text}
		if site := request.GetString("site", ""); site != "" {
			payload["site"] = site
		}

		body, err := c.do(ctx, http.MethodPost, "/api/v1/classify", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("classify request failed: %v", err)), nil
		}
		var resp classifyResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse classify response: %v", err)), nil
		}
		if resp.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("Work arrangement: %s\nEmployment type: %s\nExperience level: %s",
			orUnset(resp.WorkArrangement), orUnset(resp.EmploymentType), orUnset(resp.ExperienceLevel))), nil
	}
}

func handleListSites(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		body, err := c.do(ctx, http.MethodGet, "/api/v1/sites", nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("sites request failed: %v", err)), nil
		}
		var resp sitesResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse sites response: %v", err)), nil
		}

		var sb strings.Builder
		for _, s := range resp.Sites {
			fmt.Fprintf(&sb, "%s: %s (cookie %s, %.1fs between jobs)\n",
				s.Name, s.RootDomain, s.AuthCookie, float64(s.DetailDelayMs)/1000)
			if len(s.Countries) > 0 {
				fmt.Fprintf(&sb, "  countries: %s\n", strings.Join(s.Countries, ", "))
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func formatSession(v *sessionView) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Session %s (%s): %s, %d scraped / %d attempted\n",
		v.ID, v.Site, v.Status, len(v.Records), v.Attempted)
	if v.Error != nil {
		fmt.Fprintf(&sb, "Error: [%s] %s\n", v.Error.Code, v.Error.Message)
	}
	if len(v.Pending) > 0 {
		fmt.Fprintf(&sb, "Pending: %s\n", strings.Join(v.Pending, ", "))
	}
	sb.WriteString("\n")

	for i, r := range v.Records {
		fmt.Fprintf(&sb, "--- [%d] %s (%s) ---\n", i+1, r.Title, r.ID)
		fmt.Fprintf(&sb, "%s · %s · %s\n\n%s\n\n",
			orUnset(r.WorkArrangement), orUnset(r.EmploymentType), orUnset(r.ExperienceLevel), r.Description)
	}
	for _, f := range v.Failures {
		fmt.Fprintf(&sb, "--- %s FAILED: [%s] %s ---\n", f.ID, f.Code, f.Message)
	}
	return sb.String()
}

func orUnset(s *string) string {
	if s == nil {
		return "unset"
	}
	return *s
}
