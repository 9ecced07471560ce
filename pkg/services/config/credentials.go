package config

import (
	"context"
	"fmt"

	"gopkg.in/ini.v1"
)

// CredentialRegistry resolves named credential profiles, one INI section per profile:
//
//	[boavizta]
//	token = ...
type CredentialRegistry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetCredentials(ctx context.Context, profile string) (map[string]string, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

func NewCredentialRegistry(path string) (CredentialRegistry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials file: %w", err)
	}
	return &cfgRegistry{cfg: cfg}, nil
}

// EmptyCredentialRegistry is used when no credentials file is configured.
func EmptyCredentialRegistry() CredentialRegistry {
	return &cfgRegistry{cfg: ini.Empty()}
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetCredentials(_ context.Context, profile string) (map[string]string, error) {
	section, err := cr.cfg.GetSection(profile)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found", profile)
	}
	return section.KeysHash(), nil
}
