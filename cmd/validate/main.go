package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/jwebster45206/dungeon-engine/pkg/actor"
	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"golang.org/x/sync/errgroup"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <campaign.yaml|character.yaml|dir>...\n", os.Args[0])
		os.Exit(1)
	}

	files, err := expand(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	results := validateAll(files)
	failed := 0
	for i, err := range results {
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", files[i], err)
			continue
		}
		fmt.Printf("%s: ok\n", files[i])
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "Validation failed: %d of %d files\n", failed, len(files))
		os.Exit(1)
	}
	fmt.Printf("All %d files are valid!\n", len(files))
}

// expand replaces directories with the YAML files directly inside them.
func expand(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		for _, ext := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(arg, ext))
			if err != nil {
				return nil, err
			}
			files = append(files, matches...)
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// validateAll checks every file concurrently. results[i] belongs to files[i].
func validateAll(files []string) []error {
	results := make([]error, len(files))
	var g errgroup.Group
	g.SetLimit(8)
	for i, file := range files {
		g.Go(func() error {
			results[i] = (&Validator{}).validateFile(file)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Validator collects id format problems for one file. Structural problems
// are reported by the campaign and actor decoders.
type Validator struct {
	errors []string
}

func (v *Validator) validateFile(filename string) error {
	baseName := filepath.Base(filename)
	ext := filepath.Ext(baseName)
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("file must have a .yaml or .yml extension: %s", baseName)
	}

	id := strings.TrimSuffix(baseName, ext)
	if !isValidID(id) {
		return fmt.Errorf("filename '%s' must be lowercase snake_case (e.g., sunken_crypt.yaml, not sunken-crypt.yaml or SunkenCrypt.yaml)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil
	if isCharacterFile(filename) {
		if _, err := actor.ParseCharacterSheet(data, id); err != nil {
			return err
		}
		return nil
	}

	c, err := campaign.Parse(data, id)
	if err != nil {
		return err
	}
	v.validateCampaign(c)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors:\n%s", strings.Join(v.errors, "\n"))
	}
	return nil
}

// isCharacterFile reports whether the file lives in a characters directory.
func isCharacterFile(filename string) bool {
	abs, err := filepath.Abs(filename)
	if err != nil {
		abs = filename
	}
	return filepath.Base(filepath.Dir(abs)) == "characters"
}

func (v *Validator) validateCampaign(c *campaign.Campaign) {
	for _, roomID := range c.RoomIDs() {
		v.validateIDFormat("room ID", roomID)
		for _, trap := range c.Rooms[roomID].Traps {
			v.validateIDFormat("trap ID", trap.ID)
		}
	}
	for _, enemyID := range c.EnemyIDs() {
		v.validateIDFormat("enemy ID", enemyID)
	}
	for _, treasureID := range c.TreasureIDs() {
		v.validateIDFormat("treasure ID", treasureID)
		if flag := c.Treasure[treasureID].Requires; flag != "" {
			v.validateIDFormat("quest flag", flag)
		}
	}
}

func (v *Validator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}

	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *Validator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}
