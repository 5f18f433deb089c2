package scraper

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	apifyURL     = "https://api.apify.com/v2"
	DefaultActor = "dev_fusion~Linkedin-Profile-Scraper"
	userAgent    = "spigell/linkedin-coach"

	contentType    = "application/json"
	acceptEncoding = "gzip"
)

// Apify runs a profile scraper actor synchronously and reads its dataset items.
type Apify struct {
	token      string
	actor      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

func NewApify(logger *zap.Logger, token, actor string) *Apify {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = DefaultActor
	}

	return &Apify{
		token:  token,
		actor:  strings.ReplaceAll(actor, "/", "~"),
		logger: logger,
		// actor runs take a while
		HTTPClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		UserAgent: userAgent,
		APIURL:    apifyURL,
	}
}

func (a *Apify) Fetch(ctx context.Context, profileURL string) map[string]any {
	items, err := a.runSync(ctx, profileURL)
	if err != nil {
		a.logger.Warn("scraping profile failed", zap.String("url", profileURL), zap.Error(err))
		return map[string]any{}
	}

	if len(items) == 0 {
		a.logger.Warn("scraper returned no data", zap.String("url", profileURL))
		return map[string]any{}
	}

	a.logger.Debug("profile scraped", zap.String("url", profileURL), zap.Int("items", len(items)))
	return items[0]
}

func (a *Apify) runSync(ctx context.Context, profileURL string) ([]map[string]any, error) {
	payload, err := json.Marshal(map[string]any{"profileUrls": []string{profileURL}})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/acts/%s/run-sync-get-dataset-items", a.APIURL, url.PathEscape(a.actor))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req = a.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	a.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode dataset items: %w", err)
	}

	return items, nil
}

func (a *Apify) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", a.token))
	req.Header.Set("User-Agent", a.UserAgent)
	req.Header.Set("Accept-Encoding", acceptEncoding)

	return req
}
