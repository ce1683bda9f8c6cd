// Package storage implements pkg/storage.Storage. Session state is kept in
// Redis or SQLite; campaigns and character sheets are YAML files on disk.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/jwebster45206/dungeon-engine/pkg/actor"
	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
)

// characterTemplate is the blank sheet shipped for authors to copy.
const characterTemplate = "template"

var fileIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Files reads campaigns from <dataDir>/campaigns and character sheets from
// <dataDir>/characters. Both accept .yaml and .yml.
type Files struct {
	dataDir string
	logger  *slog.Logger
}

// NewFiles creates a file loader rooted at dataDir (default ./data).
func NewFiles(dataDir string, logger *slog.Logger) *Files {
	if dataDir == "" {
		dataDir = "./data"
	}
	return &Files{dataDir: dataDir, logger: logger}
}

// DataDir returns the root directory.
func (f *Files) DataDir() string {
	return f.dataDir
}

func isYAML(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

func stem(name string) string {
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
}

// find returns the path of <dir>/<id>.yaml or <dir>/<id>.yml.
func (f *Files) find(dir, id string) (string, error) {
	if !fileIDPattern.MatchString(id) {
		return "", fmt.Errorf("invalid id %q: %w", id, campaign.ErrNotFound)
	}
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(f.dataDir, dir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%s %q: %w", strings.TrimSuffix(dir, "s"), id, campaign.ErrNotFound)
}

// ListCampaigns maps campaign id to display name. Files that fail to parse
// are logged and skipped.
func (f *Files) ListCampaigns(ctx context.Context) (map[string]string, error) {
	dir := filepath.Join(f.dataDir, "campaigns")
	campaigns := make(map[string]string)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !isYAML(path) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		c, err := f.loadCampaign(path)
		if err != nil {
			f.logger.Warn("Skipping campaign file", "path", path, "error", err)
			return nil
		}
		campaigns[c.ID] = c.Name
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return campaigns, nil
		}
		f.logger.Error("Failed to walk campaigns directory", "error", err)
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

// GetCampaign loads and validates one campaign by id.
func (f *Files) GetCampaign(ctx context.Context, id string) (*campaign.Campaign, error) {
	path, err := f.find("campaigns", id)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("Loading campaign", "campaign_id", id, "path", path)
	return f.loadCampaign(path)
}

func (f *Files) loadCampaign(path string) (*campaign.Campaign, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("campaign file %s: %w", path, campaign.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read campaign file: %w", err)
	}
	defer file.Close()

	c, err := campaign.Decode(file, stem(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign %s: %w", filepath.Base(path), err)
	}
	return c, nil
}

// ListCharacters returns the ids of all character sheets, sorted. The
// template sheet is not listed.
func (f *Files) ListCharacters(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(f.dataDir, "characters"))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read characters directory: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		id := stem(entry.Name())
		if id == characterTemplate {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// GetCharacter loads one character sheet. The file stem becomes the sheet id.
func (f *Files) GetCharacter(ctx context.Context, id string) (*actor.CharacterSheet, error) {
	if id == characterTemplate {
		return nil, fmt.Errorf("character %q: %w", id, campaign.ErrNotFound)
	}
	path, err := f.find("characters", id)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read character file: %w", err)
	}
	defer file.Close()

	sheet, err := actor.DecodeCharacterSheet(file, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load character %s: %w", id, err)
	}
	return sheet, nil
}
