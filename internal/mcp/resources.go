package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jwebster45206/dungeon-engine/pkg/engine"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

const campaignURIPrefix = "campaign://"

func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&sdk.ResourceTemplate{
		Name:        "campaign",
		Title:       "Campaign",
		Description: "Full campaign definition: rooms, exits, enemies and treasure. URI format: campaign://{campaign_id}",
		MIMEType:    "application/json",
		URITemplate: campaignURIPrefix + "{campaign_id}",
	}, s.readCampaign)
}

func (s *Server) readCampaign(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	if req == nil || req.Params == nil || req.Params.URI == "" {
		return nil, fmt.Errorf("campaign ID is required; use URI format campaign://{campaign_id}")
	}
	uri := req.Params.URI

	id := strings.TrimPrefix(uri, campaignURIPrefix)
	if id == uri || id == "" || strings.Contains(id, "/") {
		return nil, fmt.Errorf("malformed campaign URI %q", uri)
	}

	c, err := s.service.Campaign(ctx, id)
	if errors.Is(err, engine.ErrNotFound) {
		return nil, sdk.ResourceNotFoundError(uri)
	}
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal campaign: %w", err)
	}
	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}
