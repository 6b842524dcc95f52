package training

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Project is everything a bot project directory holds.
type Project struct {
	NLU     TrainingData
	Domain  Domain
	Stories StoryGraph
	Config  Config
}

// Project layout, relative to the project root.
const (
	NLUFile     = "data/nlu.md"
	StoriesFile = "data/stories.md"
	DomainFile  = "domain.yml"
	ConfigFile  = "config.yml"
)

// LoadProject reads a project directory. The domain is read before the
// stories so a malformed domain is reported as *InvalidDomainError.
func LoadProject(root string, at time.Time) (*Project, error) {
	var p Project

	nlu, err := os.Open(filepath.Join(root, NLUFile))
	if err != nil {
		return nil, err
	}
	defer nlu.Close()
	if p.NLU, err = ReadNLUMarkdown(nlu); err != nil {
		return nil, fmt.Errorf("%s: %w", NLUFile, err)
	}

	domain, err := os.ReadFile(filepath.Join(root, DomainFile))
	if err != nil {
		return nil, err
	}
	if p.Domain, err = ReadDomainYAML(domain); err != nil {
		return nil, err
	}

	stories, err := os.Open(filepath.Join(root, StoriesFile))
	if err != nil {
		return nil, err
	}
	defer stories.Close()
	if p.Stories, err = ReadStoriesMarkdown(stories, at); err != nil {
		return nil, fmt.Errorf("%s: %w", StoriesFile, err)
	}

	config, err := os.ReadFile(filepath.Join(root, ConfigFile))
	if err != nil {
		return nil, err
	}
	if p.Config, err = ReadConfigYAML(config); err != nil {
		return nil, err
	}
	return &p, nil
}
