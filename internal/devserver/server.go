// Package devserver hosts the Lambda handlers behind a local gin server so
// the front end can run against them without API Gateway.
package devserver

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"claim-assistant/internal/logger"
)

const (
	maxRequestBytes  = 1 << 20
	corsHeaderPrefix = "Access-Control-"
)

// LambdaHandler is the signature shared by every API Gateway proxy handler.
type LambdaHandler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// Route binds a method and an API Gateway resource template to a handler.
type Route struct {
	Method   string
	Resource string
	Handler  LambdaHandler
}

type Config struct {
	AllowOrigins []string
}

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

func NewRouter(routes []Route, cfg Config, log *logger.Logger) (*gin.Engine, error) {
	if log == nil {
		return nil, errors.New("devserver: logger must not be nil")
	}
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type", "X-Correlation-Id"},
		ExposeHeaders: []string{"X-Correlation-Id"},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/healthcheck", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	for _, r := range routes {
		if r.Handler == nil {
			return nil, errors.New("devserver: route " + r.Method + " " + r.Resource + " has no handler")
		}
		router.Handle(r.Method, ginPath(r.Resource), adapt(r.Resource, r.Handler, log))
	}
	return router, nil
}

// ginPath turns "/conditions/{conditionId}" into "/conditions/:conditionId".
func ginPath(resource string) string {
	parts := strings.Split(resource, "/")
	for i, p := range parts {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			parts[i] = ":" + strings.TrimSuffix(strings.TrimPrefix(p, "{"), "}")
		}
	}
	return strings.Join(parts, "/")
}

func adapt(resource string, h LambdaHandler, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := toProxyRequest(c, resource)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT", "message": "unreadable_body"})
			return
		}
		resp, err := h(c.Request.Context(), req)
		if err != nil {
			log.Error("handler returned error", "resource", resource, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL_ERROR", "message": "internal error"})
			return
		}
		writeProxyResponse(c, resp)
	}
}

func toProxyRequest(c *gin.Context, resource string) (events.APIGatewayProxyRequest, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBytes))
	if err != nil {
		return events.APIGatewayProxyRequest{}, err
	}
	headers := make(map[string]string, len(c.Request.Header))
	for k, v := range c.Request.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	query := make(map[string]string)
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}
	var params map[string]string
	if len(c.Params) > 0 {
		params = make(map[string]string, len(c.Params))
		for _, p := range c.Params {
			params[p.Key] = p.Value
		}
	}
	return events.APIGatewayProxyRequest{
		Resource:              resource,
		Path:                  c.Request.URL.Path,
		HTTPMethod:            c.Request.Method,
		Headers:               headers,
		QueryStringParameters: query,
		PathParameters:        params,
		Body:                  string(body),
	}, nil
}

// writeProxyResponse copies a proxy response onto c. CORS headers set by the
// Lambda are dropped; the cors middleware owns them locally.
func writeProxyResponse(c *gin.Context, resp events.APIGatewayProxyResponse) {
	contentType := ""
	for k, v := range resp.Headers {
		if strings.EqualFold(k, "Content-Type") {
			contentType = v
			continue
		}
		if len(k) >= len(corsHeaderPrefix) && strings.EqualFold(k[:len(corsHeaderPrefix)], corsHeaderPrefix) {
			continue
		}
		c.Header(k, v)
	}
	if resp.StatusCode == http.StatusNoContent || resp.Body == "" {
		c.Status(resp.StatusCode)
		return
	}
	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(resp.Body)
		if err == nil {
			body = decoded
		}
	}
	c.Data(resp.StatusCode, contentType, body)
}

// NewHTTPServer wraps the router with the timeouts used for local runs.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
}
