package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/jwebster45206/dungeon-engine/pkg/engine"
	"github.com/jwebster45206/dungeon-engine/pkg/state"
)

// CampaignSummary is one entry of GET /v1/campaigns.
type CampaignSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateGameStateRequest matches the API request structure
type CreateGameStateRequest struct {
	CampaignID  string `json:"campaign_id"`
	CharacterID string `json:"character_id,omitempty"`
}

// TurnResult holds the fields every turn response shares.
type TurnResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

type apiClient struct {
	client  *http.Client
	baseURL string
}

func newAPIClient(client *http.Client, baseURL string) *apiClient {
	return &apiClient{client: client, baseURL: baseURL}
}

func (a *apiClient) testConnection() bool {
	resp, err := a.client.Get(a.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// do sends body as JSON (when non-nil) and decodes the response into out.
// Statuses listed in accept are decoded like 200; anything else becomes an
// error carrying the API's message.
func (a *apiClient) do(method, path string, body, out any, accept ...int) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	for _, code := range accept {
		ok = ok || resp.StatusCode == code
	}
	if !ok {
		var errorResp ErrorResponse
		if err := json.Unmarshal(data, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (a *apiClient) listCampaigns() ([]CampaignSummary, error) {
	var campaigns []CampaignSummary
	if err := a.do(http.MethodGet, "/v1/campaigns", nil, &campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (a *apiClient) getCampaign(id string) (*campaign.Campaign, error) {
	var c campaign.Campaign
	if err := a.do(http.MethodGet, "/v1/campaigns/"+url.PathEscape(id), nil, &c); err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return &c, nil
}

func (a *apiClient) createGameState(campaignID, characterID string) (*state.GameState, error) {
	req := CreateGameStateRequest{CampaignID: campaignID, CharacterID: characterID}
	var gs state.GameState
	if err := a.do(http.MethodPost, "/v1/gamestate", req, &gs); err != nil {
		return nil, fmt.Errorf("failed to create game state: %w", err)
	}
	return &gs, nil
}

func (a *apiClient) getGameState(id uuid.UUID) (*state.GameState, error) {
	var gs state.GameState
	if err := a.do(http.MethodGet, "/v1/gamestate/"+id.String(), nil, &gs); err != nil {
		return nil, fmt.Errorf("failed to get game state: %w", err)
	}
	return &gs, nil
}

func (a *apiClient) getRoom(id uuid.UUID) (*engine.RoomView, error) {
	var room engine.RoomView
	if err := a.do(http.MethodGet, "/v1/gamestate/"+id.String()+"/room", nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (a *apiClient) getEnemies(id uuid.UUID) ([]campaign.Enemy, error) {
	var enemies []campaign.Enemy
	if err := a.do(http.MethodGet, "/v1/gamestate/"+id.String()+"/enemies", nil, &enemies); err != nil {
		return nil, err
	}
	return enemies, nil
}

func (a *apiClient) getTreasure(id uuid.UUID) ([]campaign.Treasure, error) {
	var treasure []campaign.Treasure
	if err := a.do(http.MethodGet, "/v1/gamestate/"+id.String()+"/treasure", nil, &treasure); err != nil {
		return nil, err
	}
	return treasure, nil
}

// turn applies one action. A refused action (403/404 with a result body) is
// a normal TurnResult, not an error.
func (a *apiClient) turn(id uuid.UUID, action string, body any) (*TurnResult, error) {
	var res struct {
		TurnResult
		Error string `json:"error"`
	}
	err := a.do(http.MethodPost, "/v1/gamestate/"+id.String()+"/"+action, body, &res,
		http.StatusForbidden, http.StatusNotFound)
	if err != nil {
		return nil, err
	}
	if res.Error != "" {
		return nil, errors.New(res.Error)
	}
	return &res.TurnResult, nil
}
