package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Nyukimin/leadqual/internal/adapter/config"
	"github.com/Nyukimin/leadqual/internal/application/qualification"
	"github.com/Nyukimin/leadqual/internal/domain/llm"
	"github.com/Nyukimin/leadqual/internal/domain/routing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	dir := t.TempDir()
	leadPath := filepath.Join(dir, "lead.json")
	rulesPath := filepath.Join(dir, "rules.json")

	require.NoError(t, os.WriteFile(leadPath, []byte(`{"industry":"Logistics","companySize":"250","source":"Referral"}`), 0644))
	require.NoError(t, os.WriteFile(rulesPath, []byte(`[
		{"id":"r1","condition":{"field":"industry","operator":"equals","value":"Logistics"},"points":20,"active":true},
		{"id":"r2","condition":{"field":"companySize","operator":"greater_than","value":"100"},"points":15,"active":true},
		{"id":"r3","condition":{"field":"source","operator":"equals","value":"Referral"},"points":10,"active":false}
	]`), 0644))

	out, err := execute(t, "score", "--lead", leadPath, "--rules", rulesPath)
	require.NoError(t, err)
	assert.Equal(t, "35", strings.TrimSpace(out))
}

func TestScoreCommand_MissingFile(t *testing.T) {
	_, err := execute(t, "score", "--lead", "/nonexistent/lead.json", "--rules", "/nonexistent/rules.json")
	assert.Error(t, err)
}

func TestRouteCommand_WithoutConfigUsesDefaults(t *testing.T) {
	for _, key := range []string{"GEMINI_API_KEY", "LEADQUAL_LLM_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "LEADQUAL_LLM_PROVIDER"} {
		t.Setenv(key, "")
	}

	out, err := execute(t, "route", "--config", filepath.Join(t.TempDir(), "missing.yaml"),
		"--lat=-17.8", "--lng=31.0", "find", "near", "Harare")
	require.NoError(t, err)

	var decision routing.Decision
	require.NoError(t, json.Unmarshal([]byte(out), &decision))
	assert.Equal(t, routing.RouteGEO, decision.Route)
	assert.True(t, decision.HasTool(routing.CapabilityGoogleMaps))
	require.NotNil(t, decision.Retrieval)
	assert.Equal(t, -17.8, decision.Retrieval.LatLng.Latitude)
}

func TestProspectCommand_BlankQueryFailsBeforeConfig(t *testing.T) {
	_, err := execute(t, "prospect", "--config", "/nonexistent/config.yaml", "--query", "  ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query must not be blank")
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantName string
		wantErr  bool
	}{
		{provider: config.ProviderGemini, wantName: "gemini-std"},
		{provider: config.ProviderOpenAI, wantName: "openai-std"},
		{provider: config.ProviderAnthropic, wantName: "claude-std"},
		{provider: "bard", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := &config.Config{
				LLM:     config.LLMConfig{Provider: tt.provider, APIKey: "k", BaseURL: "http://127.0.0.1:1/"},
				Routing: config.RoutingConfig{StandardModel: "std"},
			}

			p, err := newProvider(context.Background(), cfg, zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestBuildDependencies(t *testing.T) {
	cfg := &config.Config{
		LLM:     config.LLMConfig{Provider: config.ProviderOpenAI, APIKey: "k", BaseURL: "http://127.0.0.1:1/v1/"},
		Routing: config.RoutingConfig{StandardModel: "std", ProspectingModel: "std"},
		Store:   config.StoreConfig{Path: filepath.Join(t.TempDir(), "book.json")},
	}

	deps, err := buildDependencies(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, deps.service)
	assert.NotNil(t, deps.handler(zap.NewNop()))
}

func TestPrintAnswer(t *testing.T) {
	var out bytes.Buffer
	printAnswer(&out, qualification.Answer{
		Text:  "Two depots.",
		Route: routing.RouteGEO,
		Model: "m",
		GroundingReferences: []llm.GroundingReference{
			{Title: "Depot A", URI: "https://a"},
			{URI: "https://b"},
		},
	})

	assert.Equal(t, "[GEO m]\nTwo depots.\n  [1] Depot A <https://a>\n  [2] https://b <https://b>\n", out.String())
}
