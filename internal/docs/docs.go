// Package docs serves the OpenAPI description of the player API and a
// browsable reference page.
package docs

import (
	_ "embed"
	"fmt"
	"net/http"

	"github.com/prahasith1996/video-player/internal/httputil"
)

//go:embed openapi.yaml
var specYAML []byte

func HandleSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(specYAML)
}

func HandleDocs(w http.ResponseWriter, r *http.Request) {
	nonce := httputil.NonceFromContext(r.Context())
	w.Header().Set("Content-Security-Policy", fmt.Sprintf(
		"default-src 'self'; "+
			"script-src 'self' https://cdn.jsdelivr.net%s; "+
			"style-src 'self' https://cdn.jsdelivr.net 'unsafe-inline'; "+
			"font-src 'self' https://cdn.jsdelivr.net data:; "+
			"img-src 'self' data:; connect-src 'self'; frame-ancestors 'self';", httputil.NonceSource(nonce)))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprintf(w, docsHTML, nonce, nonce)
}

const docsHTML = `<!DOCTYPE html>
<html><head>
  <title>Hotspot Player API Reference</title>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
</head><body>
  <script id="api-reference" nonce="%s" data-url="/api/docs/openapi.yaml"></script>
  <script nonce="%s" src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body></html>`
