package remote

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

	"github.com/go-playground/validator/v10"
)

// Client is the typed interface to the cloud backend. Every query and
// mutation is scoped to the session's household; the server enforces the
// same boundary independently, the client just never reaches outside it.
type Client struct {
	baseURL    string
	session    Session
	httpClient *http.Client
	userAgent  string
	validate   *validator.Validate
}

// NewClient creates a remote store client for one household session.
func NewClient(session Session, userAgent string) *Client {
	return &Client{
		baseURL: strings.TrimRight(session.RemoteURL, "/"),
		session: session,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: userAgent,
		validate:  validator.New(),
	}
}

// HouseholdID returns the household this client is scoped to.
func (c *Client) HouseholdID() string {
	return c.session.HouseholdID
}

// Ping confirms the remote store is reachable and the session is accepted.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// ListRecipes returns household recipes updated strictly after since.
// A nil since returns everything.
func (c *Client) ListRecipes(ctx context.Context, since *time.Time) ([]RecipePayload, error) {
	path := c.householdPath("recipes") + sinceQuery(since)

	var resp recipeListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	for i := range resp.Recipes {
		if err := c.validate.Struct(&resp.Recipes[i]); err != nil {
			return nil, permanentError(fmt.Sprintf("invalid recipe payload from remote: %v", err), err)
		}
	}

	return resp.Recipes, nil
}

// PushRecipe applies a recipe mutation remotely. On a lost last-write-wins
// race it returns the winning remote record and no error; the caller
// overwrites its local cache with it.
func (c *Client) PushRecipe(ctx context.Context, payload RecipePayload) (*RecipePayload, error) {
	if err := c.validate.Struct(&payload); err != nil {
		return nil, permanentError(fmt.Sprintf("invalid recipe payload: %v", err), err)
	}

	winner := &RecipePayload{}
	conflict, err := c.push(ctx, c.householdPath("recipes", payload.ID), payload, winner)
	if err != nil {
		return nil, err
	}
	if !conflict {
		return nil, nil
	}

	if err := c.validate.Struct(winner); err != nil {
		return nil, permanentError(fmt.Sprintf("invalid conflict payload from remote: %v", err), err)
	}
	return winner, nil
}

// DeleteRecipe removes a recipe remotely. Deleting an absent record is a
// success: the intended end state already holds.
func (c *Client) DeleteRecipe(ctx context.Context, id string) error {
	return c.delete(ctx, c.householdPath("recipes", id))
}

// ListScheduleEntries returns household schedule entries updated strictly
// after since.
func (c *Client) ListScheduleEntries(ctx context.Context, since *time.Time) ([]ScheduleEntryPayload, error) {
	path := c.householdPath("schedule-entries") + sinceQuery(since)

	var resp scheduleListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	for i := range resp.Entries {
		if err := c.validate.Struct(&resp.Entries[i]); err != nil {
			return nil, permanentError(fmt.Sprintf("invalid schedule entry payload from remote: %v", err), err)
		}
	}

	return resp.Entries, nil
}

// PushScheduleEntry applies a schedule entry mutation remotely, returning
// the winning remote record on a lost conflict.
func (c *Client) PushScheduleEntry(ctx context.Context, payload ScheduleEntryPayload) (*ScheduleEntryPayload, error) {
	if err := c.validate.Struct(&payload); err != nil {
		return nil, permanentError(fmt.Sprintf("invalid schedule entry payload: %v", err), err)
	}

	winner := &ScheduleEntryPayload{}
	conflict, err := c.push(ctx, c.householdPath("schedule-entries", payload.ID), payload, winner)
	if err != nil {
		return nil, err
	}
	if !conflict {
		return nil, nil
	}

	if err := c.validate.Struct(winner); err != nil {
		return nil, permanentError(fmt.Sprintf("invalid conflict payload from remote: %v", err), err)
	}
	return winner, nil
}

// DeleteScheduleEntry removes a schedule entry remotely.
func (c *Client) DeleteScheduleEntry(ctx context.Context, id string) error {
	return c.delete(ctx, c.householdPath("schedule-entries", id))
}

// CreateHousehold registers a new household and returns it with a fresh
// invite code. Safe to repeat: creating twice yields two households, but
// the caller only persists one profile.
func CreateHousehold(ctx context.Context, remoteURL, accessToken, userAgent, name string) (*Household, error) {
	c := NewClient(Session{RemoteURL: remoteURL, AccessToken: accessToken}, userAgent)

	var household Household
	err := c.do(ctx, http.MethodPost, "/rpc/create-household", map[string]string{"name": name}, &household)
	if err != nil {
		return nil, err
	}
	if err := c.validate.Struct(&household); err != nil {
		return nil, permanentError(fmt.Sprintf("invalid household payload from remote: %v", err), err)
	}

	return &household, nil
}

// JoinHousehold joins the household matching an invite code. Joining a
// household the caller already belongs to returns the same membership.
func JoinHousehold(ctx context.Context, remoteURL, accessToken, userAgent, inviteCode string) (*Household, error) {
	c := NewClient(Session{RemoteURL: remoteURL, AccessToken: accessToken}, userAgent)

	var household Household
	err := c.do(ctx, http.MethodPost, "/rpc/join-household", map[string]string{"inviteCode": inviteCode}, &household)
	if err != nil {
		return nil, err
	}
	if err := c.validate.Struct(&household); err != nil {
		return nil, permanentError(fmt.Sprintf("invalid household payload from remote: %v", err), err)
	}

	return &household, nil
}

// RegenerateInviteCode invalidates the household's invite code and returns
// a new one.
func (c *Client) RegenerateInviteCode(ctx context.Context) (*Household, error) {
	var household Household
	err := c.do(ctx, http.MethodPost, "/rpc/regenerate-invite-code",
		map[string]string{"householdId": c.session.HouseholdID}, &household)
	if err != nil {
		return nil, err
	}
	if err := c.validate.Struct(&household); err != nil {
		return nil, permanentError(fmt.Sprintf("invalid household payload from remote: %v", err), err)
	}

	return &household, nil
}

func (c *Client) householdPath(parts ...string) string {
	segments := append([]string{"households", c.session.HouseholdID}, parts...)
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return "/" + strings.Join(segments, "/")
}

func sinceQuery(since *time.Time) string {
	if since == nil {
		return ""
	}
	return "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339Nano))
}

// push PUTs a payload and decodes the winning record out of a 409 response.
func (c *Client) push(ctx context.Context, path string, payload, winner any) (conflict bool, err error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return false, permanentError(fmt.Sprintf("failed to marshal payload: %v", err), err)
	}

	resp, err := c.roundTrip(ctx, http.MethodPut, path, bytes.NewReader(body))
	if err != nil {
		return false, transientError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		if err := json.NewDecoder(resp.Body).Decode(winner); err != nil {
			return false, permanentError(fmt.Sprintf("failed to decode conflict response: %v", err), err)
		}
		return true, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return false, nil
	default:
		return false, c.statusError(resp)
	}
}

func (c *Client) delete(ctx context.Context, path string) error {
	resp, err := c.roundTrip(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return transientError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return c.statusError(resp)
}

// do performs a request with an optional JSON body, decoding a JSON
// response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return permanentError(fmt.Sprintf("failed to marshal request body: %v", err), err)
		}
		reader = bytes.NewReader(data)
	}

	resp, err := c.roundTrip(ctx, method, path, reader)
	if err != nil {
		return transientError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return permanentError(fmt.Sprintf("failed to decode response: %v", err), err)
		}
	}

	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.AccessToken)
	}
	if c.session.DeviceID != "" {
		req.Header.Set("X-Device-ID", c.session.DeviceID)
	}

	return c.httpClient.Do(req)
}

// statusError drains an error response into a classified error.
func (c *Client) statusError(resp *http.Response) *Error {
	message := ""
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(data) > 0 {
		var errResp errorResponse
		if json.Unmarshal(data, &errResp) == nil {
			if errResp.Message != "" {
				message = errResp.Message
			} else {
				message = errResp.Error
			}
		}
	}
	return classifyStatus(resp.StatusCode, message)
}
