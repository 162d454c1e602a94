package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/playwright-community/playwright-go"
)

const defaultActionTimeout = 10 * time.Second

// Playwright implements [Driver] on top of a playwright page.
//
// playwright-go calls are not context-aware, so each call checks ctx first
// and bounds the action by the shorter of the action timeout and the ctx
// deadline.
type Playwright struct {
	page    playwright.Page
	timeout time.Duration
}

// NewPlaywright wraps page. A non-positive actionTimeout uses 10s.
func NewPlaywright(page playwright.Page, actionTimeout time.Duration) *Playwright {
	if actionTimeout <= 0 {
		actionTimeout = defaultActionTimeout
	}
	return &Playwright{page: page, timeout: actionTimeout}
}

// Page returns the underlying playwright page.
func (p *Playwright) Page() playwright.Page {
	return p.page
}

// timeoutMS returns the playwright timeout for an action started under ctx.
func (p *Playwright) timeoutMS(ctx context.Context) (*float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < d {
			d = remaining
		}
	}
	if d <= 0 {
		return nil, context.DeadlineExceeded
	}
	return playwright.Float(float64(d.Milliseconds())), nil
}

// Navigate loads url and waits for DOMContentLoaded.
func (p *Playwright) Navigate(ctx context.Context, url string) error {
	timeout, err := p.timeoutMS(ctx)
	if err != nil {
		return err
	}
	if _, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   timeout,
	}); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// Click clicks the first element matching selector.
func (p *Playwright) Click(ctx context.Context, selector string) error {
	timeout, err := p.timeoutMS(ctx)
	if err != nil {
		return err
	}
	if err := p.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: timeout,
	}); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

// Fill replaces the value of the first input matching selector.
func (p *Playwright) Fill(ctx context.Context, selector, text string) error {
	timeout, err := p.timeoutMS(ctx)
	if err != nil {
		return err
	}
	if err := p.page.Locator(selector).First().Fill(text, playwright.LocatorFillOptions{
		Timeout: timeout,
	}); err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	return nil
}

// ReadText returns the text content of the first element matching selector.
//
// A selector with no match fails at once with [ErrElementNotFound] instead
// of waiting out the action timeout, so a status that is not rendered yet
// costs one poll interval.
func (p *Playwright) ReadText(ctx context.Context, selector string) (string, error) {
	timeout, err := p.timeoutMS(ctx)
	if err != nil {
		return "", err
	}
	locator := p.page.Locator(selector)
	n, err := locator.Count()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return locator.First().TextContent(playwright.LocatorTextContentOptions{
		Timeout: timeout,
	})
}

// Wait pauses for d or until ctx is done.
func (p *Playwright) Wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// UploadFile sets path on the file input matching selector.
func (p *Playwright) UploadFile(ctx context.Context, selector, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	timeout, err := p.timeoutMS(ctx)
	if err != nil {
		return err
	}
	if err := p.page.Locator(selector).First().SetInputFiles(path, playwright.LocatorSetInputFilesOptions{
		Timeout: timeout,
	}); err != nil {
		return fmt.Errorf("upload %s to %s: %w", path, selector, err)
	}
	return nil
}

// LaunchOptions configures [Launch].
type LaunchOptions struct {
	// Headless runs Chromium without a window.
	Headless bool

	// ActionTimeout bounds each driver call. Defaults to 10s.
	ActionTimeout time.Duration
}

// Session owns a playwright process, a Chromium browser and one page.
type Session struct {
	*Playwright

	pw      *playwright.Playwright
	browser playwright.Browser
}

// Launch starts playwright and Chromium and opens a fresh page.
//
// The caller must call [Session.Close] to release the browser.
func Launch(opts LaunchOptions) (*Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	page, err := browser.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("open page: %w", err)
	}

	return &Session{
		Playwright: NewPlaywright(page, opts.ActionTimeout),
		pw:         pw,
		browser:    browser,
	}, nil
}

// Close shuts down the browser and the playwright driver process.
func (s *Session) Close() error {
	return errors.Join(s.browser.Close(), s.pw.Stop())
}
