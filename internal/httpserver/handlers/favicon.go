package handlers

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/haoyun/navtable/internal/httpserver/deps"
	"github.com/haoyun/navtable/internal/logger"
)

// transparentPNG is a 1x1 transparent pixel served when the upstream
// favicon service fails, so broken icons never surface in the UI.
var transparentPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

// faviconUpstream is the icon service queried per host. Package
// variable so tests can point it at a local server.
var faviconUpstream = "https://www.google.com/s2/favicons?domain=%s&sz=64"

// Favicon proxies site icons through the server so the browser never
// talks to the icon service directly.
func Favicon(d deps.Deps) http.HandlerFunc {
	client := &http.Client{Timeout: d.FaviconTimeout}

	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("url")
		target, err := url.Parse(raw)
		if err != nil || target.Host == "" || (target.Scheme != "http" && target.Scheme != "https") {
			fail(w, http.StatusBadRequest, "url parameter must be an absolute http(s) URL")
			return
		}

		src := fmt.Sprintf(faviconUpstream, url.QueryEscape(target.Host))

		req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, src, nil)
		if err != nil {
			servePlaceholder(w)
			return
		}
		resp, err := client.Do(req)
		if err != nil {
			d.Logger.Debug("favicon fetch failed",
				logger.String("host", target.Host), logger.Error(err))
			servePlaceholder(w)
			return
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			servePlaceholder(w)
			return
		}

		ct := resp.Header.Get("Content-Type")
		if ct == "" {
			ct = "image/png"
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.WriteHeader(http.StatusOK)
		_, _ = io.Copy(w, resp.Body)
	}
}

func servePlaceholder(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(transparentPNG)
}
