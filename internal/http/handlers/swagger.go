package handlers

import (
	_ "embed"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed openapi.yaml
var openAPISpec string

const swaggerUIHTML = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width,initial-scale=1" />
    <title>{{TITLE}} API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
    <style>
      body { margin: 0; background: #f8fafc; }
      #swagger-ui { max-width: 1200px; margin: 0 auto; }
    </style>
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: "/api/docs/openapi.yaml",
        dom_id: "#swagger-ui",
        deepLinking: true,
        presets: [SwaggerUIBundle.presets.apis],
        layout: "BaseLayout"
      });
    </script>
  </body>
</html>`

type DocsHandler struct {
	page []byte
	spec []byte
}

func NewDocsHandler(title string) *DocsHandler {
	return &DocsHandler{
		page: []byte(strings.ReplaceAll(swaggerUIHTML, "{{TITLE}}", title)),
		spec: []byte(strings.ReplaceAll(openAPISpec, "{{TITLE}}", title)),
	}
}

func (h *DocsHandler) SwaggerUI(ctx *gin.Context) {
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", h.page)
}

func (h *DocsHandler) OpenAPI(ctx *gin.Context) {
	ctx.Data(http.StatusOK, "application/yaml", h.spec)
}
