package cmd

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/linkedin-coach/internal/ai/gemini"
	"github.com/spigell/linkedin-coach/internal/checkpoint"
	"github.com/spigell/linkedin-coach/internal/dispatch"
	"github.com/spigell/linkedin-coach/internal/scraper"
)

func TestGetConfigDefaults(t *testing.T) {
	config, err := getConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.MaxThreads != checkpoint.DefaultCapacity {
		t.Fatalf("expected capacity %d, got %d", checkpoint.DefaultCapacity, config.MaxThreads)
	}
	if config.HistoryWindow != dispatch.DefaultHistoryWindow || config.MaxToolCalls != dispatch.DefaultMaxToolCalls {
		t.Fatalf("unexpected loop limits: window %d, tool calls %d", config.HistoryWindow, config.MaxToolCalls)
	}
	if config.Scraper.Provider != scraperApify || config.Scraper.Apify.Actor != scraper.DefaultActor {
		t.Fatalf("unexpected scraper config: %+v %+v", config.Scraper, config.Scraper.Apify)
	}
	if config.HTTP.Listen != ":8080" || config.HTTP.WriteTimeout != 10*time.Minute {
		t.Fatalf("unexpected http config: %+v", config.HTTP)
	}
	if config.AI.Gemini == nil || config.AI.Gemini.ThinkingBudget != gemini.DefaultThinkingBudget || config.AI.Structured.MaxAttempts != 3 {
		t.Fatalf("unexpected ai config: %+v", config.AI)
	}
}

func TestNewScraper(t *testing.T) {
	t.Setenv("APIFY_API_TOKEN", "")

	cases := []struct {
		name    string
		config  *ScraperConfig
		wantErr string
	}{
		{name: "file", config: &ScraperConfig{Provider: scraperFile, ProfileFile: "profile.json", Apify: &ApifyConfig{}}},
		{name: "file without path", config: &ScraperConfig{Provider: scraperFile, Apify: &ApifyConfig{}}, wantErr: "profile-file is required"},
		{name: "apify inline token", config: &ScraperConfig{Provider: scraperApify, Apify: &ApifyConfig{Token: "apify_api_x"}}},
		{name: "apify without token", config: &ScraperConfig{Apify: &ApifyConfig{}}, wantErr: "apify token is not configured"},
		{name: "unknown", config: &ScraperConfig{Provider: "proxycurl", Apify: &ApifyConfig{}}, wantErr: "unsupported scraper provider"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			source, err := newScraper(tc.config, zap.NewNop())
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if source == nil {
				t.Fatal("expected a source")
			}
		})
	}
}
