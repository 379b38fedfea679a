// catalog-check validates the builtin provider catalog, optionally with an
// overlay file merged on top. It rebuilds the registry (unique provider and
// model ids, auth scheme shape), then runs the checks the registry does not
// enforce: known wire formats, well-formed docs URLs, models paths that start
// with "/". Pricing gaps are reported as warnings because some catalogs
// legitimately lack entries (Azure deployment names are account-specific).
//
// With -check-urls it also performs a HEAD request against every docs URL and
// reports any that return 4xx/5xx or fail to connect. The process exits with
// code 1 if any failures are found so the GitHub Action can open an issue.
//
// Usage:
//
// go run ./scripts/catalog-check                       # builtin catalog only
// go run ./scripts/catalog-check -catalog overlay.yaml # builtin + overlay
// go run ./scripts/catalog-check -check-urls           # also probe docs URLs
package main

import (
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	aibridge "github.com/loomworks/ai-bridge"
	"github.com/loomworks/ai-bridge/providers"
)

func main() {
	catalogPath := flag.String("catalog", "", "path to a catalog overlay file (.json, .yaml, .yml)")
	checkURLs := flag.Bool("check-urls", false, "probe every docs URL with a HEAD request")
	concurrency := flag.Int("concurrency", 10, "number of parallel HTTP requests for -check-urls")
	flag.Parse()

	descs := providers.Builtin()
	if *catalogPath != "" {
		merged, err := aibridge.LoadCatalogFile(*catalogPath, descs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: cannot load catalog overlay: %v\n", err)
			os.Exit(2)
		}
		descs = merged
	}

	var failures, warnings []string

	reg, err := providers.NewRegistry(descs...)
	if err != nil {
		// Registry construction names the offending provider; no point
		// running the per-descriptor checks on a catalog that cannot build.
		fmt.Fprintf(os.Stderr, "error: catalog does not build: %v\n", err)
		os.Exit(1)
	}

	for _, d := range reg.All() {
		failures = append(failures, checkDescriptor(d)...)
		warnings = append(warnings, pricingGaps(d)...)
	}

	fmt.Fprintf(os.Stderr, "Checked %d providers, %d models\n", reg.Len(), modelCount(reg))

	if len(warnings) > 0 {
		fmt.Fprintf(os.Stderr, "\n%d warnings (not fatal):\n", len(warnings))
		for _, w := range warnings {
			fmt.Fprintln(os.Stderr, "  "+w)
		}
	}

	if *checkURLs {
		failures = append(failures, probeDocsURLs(reg.All(), *concurrency)...)
	}

	if len(failures) > 0 {
		fmt.Fprintf(os.Stderr, "\n%d failures:\n", len(failures))
		for _, f := range failures {
			fmt.Fprintln(os.Stderr, "  "+f)
		}
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, "OK")
}

var knownWires = map[providers.WireFormat]bool{
	providers.WireOpenAI:    true,
	providers.WireAnthropic: true,
	providers.WireGemini:    true,
	providers.WireCohere:    true,
	providers.WireReplicate: true,
	providers.WireBedrock:   true,
}

// checkDescriptor runs the invariants NewRegistry leaves to callers: the wire
// format must be one the client factory dispatches on, paths must join cleanly
// onto base URLs, and URLs must parse.
func checkDescriptor(d providers.Descriptor) []string {
	var out []string
	fail := func(format string, args ...any) {
		out = append(out, fmt.Sprintf("%s: ", d.ID)+fmt.Sprintf(format, args...))
	}

	if !knownWires[d.Wire] {
		fail("unknown wire format %q", d.Wire)
	}
	if d.DisplayName == "" {
		fail("empty display name")
	}
	if d.ModelCount() == 0 {
		fail("no models")
	}
	if d.BaseURL != "" {
		if u, err := url.Parse(d.BaseURL); err != nil || u.Scheme != "https" || u.Host == "" {
			fail("base URL %q is not an absolute https URL", d.BaseURL)
		}
	}
	if d.DocsURL != "" {
		if u, err := url.Parse(d.DocsURL); err != nil || !strings.HasPrefix(u.Scheme, "http") || u.Host == "" {
			fail("docs URL %q is not an absolute URL", d.DocsURL)
		}
	}
	if d.ModelsPath != "" && !strings.HasPrefix(d.ModelsPath, "/") {
		fail("models path %q does not start with /", d.ModelsPath)
	}
	if d.ModelsPath != "" && d.Auth.Kind == providers.AuthSigV4 {
		fail("models path set on a SigV4 provider (live discovery cannot sign)")
	}
	for _, m := range d.LanguageModels {
		if m.DisplayName == "" {
			fail("language model %q: empty display name", m.ID)
		}
	}
	for _, m := range d.ImageModels {
		if m.DisplayName == "" {
			fail("image model %q: empty display name", m.ID)
		}
		for _, s := range m.Sizes {
			if !strings.Contains(s, "x") {
				fail("image model %q: size %q is not WxH", m.ID, s)
			}
		}
	}
	return out
}

// pricingGaps lists models with no entry in the pricing tables. Cost
// estimation falls back to zero for them, which is tolerated but worth
// surfacing when a new model lands.
func pricingGaps(d providers.Descriptor) []string {
	var out []string
	for _, m := range d.LanguageModels {
		if _, ok := providers.PricingTable[d.ID+"/"+m.ID]; !ok {
			out = append(out, fmt.Sprintf("%s: language model %q has no pricing entry", d.ID, m.ID))
		}
	}
	for _, m := range d.ImageModels {
		if _, ok := providers.ImagePricingTable[d.ID+"/"+m.ID]; !ok {
			out = append(out, fmt.Sprintf("%s: image model %q has no pricing entry", d.ID, m.ID))
		}
	}
	return out
}

func modelCount(reg *providers.Registry) int {
	n := 0
	for _, d := range reg.All() {
		n += d.ModelCount()
	}
	return n
}

// probeDocsURLs HEAD-requests every unique docs URL. Some servers reject
// HEAD, so connection-level failures retry once with GET.
func probeDocsURLs(descs []providers.Descriptor, concurrency int) []string {
	seen := map[string]bool{}
	var urls []string
	for _, d := range descs {
		u := strings.TrimSpace(d.DocsURL)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	sort.Strings(urls)

	fmt.Fprintf(os.Stderr, "Probing %d unique docs URLs (concurrency=%d)...\n", len(urls), concurrency)

	type result struct {
		url    string
		status int
		err    error
	}

	client := &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	sem := make(chan struct{}, concurrency)
	results := make(chan result, len(urls))
	var wg sync.WaitGroup

	for _, u := range urls {
		u := u
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			req, err := http.NewRequest(http.MethodHead, u, nil)
			if err != nil {
				results <- result{url: u, err: err}
				return
			}
			req.Header.Set("User-Agent", "loombridge-catalog-check/1.0 (+https://github.com/loomworks/ai-bridge)")

			resp, err := client.Do(req)
			if err != nil {
				req2, _ := http.NewRequest(http.MethodGet, u, nil)
				req2.Header.Set("User-Agent", req.Header.Get("User-Agent"))
				resp2, err2 := client.Do(req2)
				if err2 != nil {
					results <- result{url: u, err: err}
					return
				}
				_ = resp2.Body.Close()
				results <- result{url: u, status: resp2.StatusCode}
				return
			}
			_ = resp.Body.Close()
			results <- result{url: u, status: resp.StatusCode}
		}()
	}

	wg.Wait()
	close(results)

	var failures []string
	for r := range results {
		switch {
		case r.err != nil:
			failures = append(failures, fmt.Sprintf("CONN ERR  %s: %v", r.url, r.err))
		case r.status >= 400:
			failures = append(failures, fmt.Sprintf("HTTP %-4d %s", r.status, r.url))
		}
	}
	sort.Strings(failures)
	return failures
}
