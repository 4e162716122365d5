package servicenow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"incident-assignment/internal/models"
)

// glideTime is the timestamp layout used by the ServiceNow table API.
const glideTime = "2006-01-02 15:04:05"

// APIError reports a non-2xx response from the table API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("servicenow: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the ServiceNow REST table API with basic auth.
type Client struct {
	baseURL  string
	username string
	password string
	httpc    *http.Client
}

func New(baseURL, username, password string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		httpc:    &http.Client{Timeout: 30 * time.Second},
	}
}

type tableResult struct {
	Result json.RawMessage `json:"result"`
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("servicenow: encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("servicenow: build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("servicenow: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var wrapper tableResult
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		return fmt.Errorf("servicenow: decode response: %w", err)
	}
	if err := json.Unmarshal(wrapper.Result, out); err != nil {
		return fmt.Errorf("servicenow: decode result: %w", err)
	}
	return nil
}

// refField absorbs ServiceNow reference columns, which arrive either as a
// bare sys_id string or as {"value": "...", "link": "..."}.
type refField struct {
	Value string
}

func (r *refField) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &r.Value)
	}
	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	r.Value = obj.Value
	return nil
}

type incidentRow struct {
	SysID            string   `json:"sys_id"`
	Number           string   `json:"number"`
	AssignmentGroup  refField `json:"assignment_group"`
	Priority         string   `json:"priority"`
	Severity         string   `json:"severity"`
	OpenedAt         string   `json:"opened_at"`
	SysCreatedOn     string   `json:"sys_created_on"`
	ShortDescription string   `json:"short_description"`
}

// FetchUnassigned returns active, unassigned incidents created after since
// in any of the given assignment groups.
func (c *Client) FetchUnassigned(ctx context.Context, groupSysIDs []string, since time.Time) ([]models.Incident, error) {
	if len(groupSysIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("assignment_groupIN%s^assigned_toISEMPTY^active=true^sys_created_on>%s",
		strings.Join(groupSysIDs, ","), since.UTC().Format(glideTime))
	params := url.Values{
		"sysparm_query":  {query},
		"sysparm_fields": {"sys_id,number,assignment_group,priority,severity,opened_at,sys_created_on,short_description"},
		"sysparm_limit":  {"200"},
	}

	var rows []incidentRow
	if err := c.do(ctx, http.MethodGet, "/api/now/table/incident", params, nil, &rows); err != nil {
		return nil, err
	}

	incidents := make([]models.Incident, 0, len(rows))
	for _, row := range rows {
		inc := models.Incident{
			SysID:            row.SysID,
			Number:           row.Number,
			GroupSysID:       row.AssignmentGroup.Value,
			Priority:         row.Priority,
			Severity:         row.Severity,
			ShortDescription: row.ShortDescription,
		}
		raw := row.OpenedAt
		if raw == "" {
			raw = row.SysCreatedOn
		}
		if raw != "" {
			if t, err := time.Parse(glideTime, raw); err == nil {
				inc.OpenedAt = t
			}
		}
		incidents = append(incidents, inc)
	}
	return incidents, nil
}

// GroupMembers returns the set of user sys_ids currently in the group.
func (c *Client) GroupMembers(ctx context.Context, groupSysID string) (map[string]bool, error) {
	params := url.Values{
		"sysparm_query":  {"group=" + groupSysID},
		"sysparm_fields": {"user"},
	}
	var rows []struct {
		User refField `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/now/table/sys_user_grmember", params, nil, &rows); err != nil {
		return nil, err
	}
	members := make(map[string]bool, len(rows))
	for _, row := range rows {
		if row.User.Value != "" {
			members[row.User.Value] = true
		}
	}
	return members, nil
}

// AssignIncident writes the decision back: sets the assignee, moves the
// incident to In Progress, and leaves a work note.
func (c *Client) AssignIncident(ctx context.Context, incidentSysID, memberSysID string) error {
	body := map[string]string{
		"assigned_to": memberSysID,
		"state":       "2",
		"work_notes":  "Auto-assigned by incident assignment engine at " + time.Now().UTC().Format(time.RFC3339),
	}
	return c.do(ctx, http.MethodPut, "/api/now/table/incident/"+incidentSysID, nil, body, nil)
}

// Ping performs a minimal authenticated read to verify connectivity.
func (c *Client) Ping(ctx context.Context) error {
	params := url.Values{"sysparm_limit": {"1"}}
	var rows []struct{}
	return c.do(ctx, http.MethodGet, "/api/now/table/incident", params, nil, &rows)
}
