package tool

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/mfern/kestrel/internal/domain"
)

const maxPageText = 50000

// FetchURL loads a page in a headless browser and returns its text content.
// The browser is launched lazily on first use and shared across calls.
type FetchURL struct {
	mu      sync.Mutex
	browser *rod.Browser
}

func NewFetchURL() *FetchURL {
	return &FetchURL{}
}

func (f *FetchURL) Info() domain.Tool {
	return domain.Tool{
		Name:        "fetch_url",
		Description: "Fetch a web page in a headless browser and return its rendered text content.",
		Parameters: domain.JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{
					"type":        "string",
					"description": "The URL to fetch",
				},
				"timeout": map[string]any{
					"type":        "number",
					"description": "Timeout in seconds (default 30)",
				},
			},
			"required": []string{"url"},
		},
	}
}

func (f *FetchURL) getBrowser() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		return f.browser, nil
	}

	path, _ := launcher.LookPath()
	controlURL, err := launcher.New().Bin(path).Headless(true).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	f.browser = browser
	return browser, nil
}

// Close shuts down the shared browser, if one was launched.
func (f *FetchURL) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browser != nil {
		_ = f.browser.Close()
		f.browser = nil
	}
}

func (f *FetchURL) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	url, ok := args["url"].(string)
	if !ok || url == "" {
		return &Result{Summary: "Missing URL"}, nil
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	timeout := 30 * time.Second
	if t, ok := args["timeout"].(float64); ok && t > 0 {
		timeout = time.Duration(t) * time.Second
	}

	browser, err := f.getBrowser()
	if err != nil {
		return &Result{Summary: "Browser unavailable", Output: err.Error()}, nil
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return &Result{Summary: "Failed to open page", Output: err.Error()}, nil
	}
	defer page.Close()

	page = page.Context(ctx).Timeout(timeout)

	if err := page.Navigate(url); err != nil {
		return &Result{Summary: fmt.Sprintf("Failed to load %s", url), Output: err.Error()}, nil
	}
	// Non-fatal, some pages never settle.
	_ = page.WaitStable(time.Second)

	html, err := page.HTML()
	if err != nil {
		return &Result{Summary: fmt.Sprintf("Failed to read %s", url), Output: err.Error()}, nil
	}

	text := htmlToText(html)
	if len(text) > maxPageText {
		text = text[:maxPageText] + "\n... (truncated)"
	}

	title := url
	if info, err := page.Info(); err == nil && info.Title != "" {
		title = info.Title
	}

	return &Result{
		OK:      true,
		Summary: fmt.Sprintf("Fetched %s", title),
		Output:  text,
	}, nil
}

var _ Executor = (*FetchURL)(nil)
