package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 512 * 1024

// LocalScraper fetches HTML via net/http with per-host rate limiting and
// block detection. Free, no API calls. Falls through to Jina when blocked.
type LocalScraper struct {
	client *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
	burst    int
}

// NewLocalScraper creates a LocalScraper with sensible defaults: 15s total
// timeout, one request per second per host with a burst of two.
func NewLocalScraper() *LocalScraper {
	return &LocalScraper{
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(1),
		burst:    2,
	}
}

func (l *LocalScraper) Name() string { return "local_http" }

// Supports refuses LinkedIn; everything else is fair game.
func (l *LocalScraper) Supports(targetURL string) bool {
	return !IsLinkedInURL(targetURL)
}

// FetchHTML fetches a URL and returns the raw (bounded) HTML body. Used by
// tools that parse structure, like the socials anchor extractor.
func (l *LocalScraper) FetchHTML(ctx context.Context, targetURL string, timeout time.Duration) (string, error) {
	if IsLinkedInURL(targetURL) {
		return "", eris.New("local_http: refusing to fetch linkedin.com")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := l.waitHost(ctx, targetURL); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; EnrichBot/1.0)")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "local_http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", eris.Wrap(err, "local_http: read body")
	}

	if blocked, blockType := DetectBlock(resp, body); blocked {
		return "", eris.Errorf("local_http: blocked (%s)", blockType)
	}
	if resp.StatusCode >= 400 {
		return "", eris.Errorf("local_http: status %d", resp.StatusCode)
	}
	return string(body), nil
}

// Scrape fetches a URL, detects blocks, and strips HTML to plaintext.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	html, err := l.FetchHTML(ctx, targetURL, 0)
	if err != nil {
		return nil, err
	}
	if len(html) < 100 {
		return nil, eris.New("local_http: empty page")
	}

	return &Result{
		URL:        targetURL,
		Title:      ExtractTitle(html),
		HTML:       html,
		Text:       StripHTML(html),
		StatusCode: http.StatusOK,
		Source:     "local_http",
	}, nil
}

// waitHost blocks until the per-host limiter admits the request.
func (l *LocalScraper) waitHost(ctx context.Context, targetURL string) error {
	u, err := url.Parse(targetURL)
	if err != nil {
		return eris.Wrap(err, "local_http: parse url")
	}
	host := strings.ToLower(u.Hostname())

	l.mu.Lock()
	lim, ok := l.limiters[host]
	if !ok {
		lim = rate.NewLimiter(l.perHost, l.burst)
		l.limiters[host] = lim
	}
	l.mu.Unlock()

	if err := lim.Wait(ctx); err != nil {
		return eris.Wrap(err, "local_http: rate limit wait")
	}
	return nil
}

var titleRe = regexp.MustCompile(`(?i)<title[^>]*>(.*?)</title>`)

// ExtractTitle pulls the <title> from HTML.
func ExtractTitle(html string) string {
	m := titleRe.FindStringSubmatch(html)
	if len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

var metaDescRe = regexp.MustCompile(`(?i)<meta[^>]+name=["']description["'][^>]+content=["']([^"']*)["']`)
var metaDescRevRe = regexp.MustCompile(`(?i)<meta[^>]+content=["']([^"']*)["'][^>]+name=["']description["']`)

// ExtractMetaDescription pulls the meta description from HTML, tolerating
// either attribute order.
func ExtractMetaDescription(html string) string {
	if m := metaDescRe.FindStringSubmatch(html); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	if m := metaDescRevRe.FindStringSubmatch(html); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// StripHTML removes scripts/styles/nav/footer, strips tags, decodes
// entities, and collapses whitespace. The result is plaintext suitable for
// LLM extraction.
func StripHTML(html string) string {
	// Remove script, style, nav, footer blocks entirely.
	for _, tag := range []string{"script", "style", "noscript", "nav", "footer", "header"} {
		re := regexp.MustCompile(`(?is)<` + tag + `[^>]*>.*?</` + tag + `>`)
		html = re.ReplaceAllString(html, "")
	}

	// Strip remaining HTML tags.
	tagRe := regexp.MustCompile(`<[^>]+>`)
	html = tagRe.ReplaceAllString(html, " ")

	// Decode common HTML entities.
	r := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	html = r.Replace(html)

	// Collapse whitespace: multiple spaces → single, multiple newlines → double.
	spaceRe := regexp.MustCompile(`[ \t]+`)
	html = spaceRe.ReplaceAllString(html, " ")

	nlRe := regexp.MustCompile(`\n{3,}`)
	html = nlRe.ReplaceAllString(html, "\n\n")

	return strings.TrimSpace(html)
}
