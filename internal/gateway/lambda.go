package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	echoadapter "github.com/awslabs/aws-lambda-go-api-proxy/echo"
	"github.com/labstack/echo/v4"
)

// Adapter serves API Gateway HTTP API (payload v2) events through the echo router, so the
// lambda and the standalone server share routes and response shapes.
type Adapter struct {
	proxy *echoadapter.EchoLambdaV2
}

func NewAdapter(e *echo.Echo) *Adapter {
	return &Adapter{proxy: echoadapter.NewV2(e)}
}

// Handle has the signature lambda.Start expects.
func (a *Adapter) Handle(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return a.proxy.ProxyWithContext(ctx, withDefaults(evt))
}

// withDefaults fills the event fields the handlers rely on. Clients often post JSON
// without a content type, and the gateway request id becomes the echo request id.
func withDefaults(evt events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPRequest {
	headers := make(map[string]string, len(evt.Headers)+2)
	for k, v := range evt.Headers {
		headers[strings.ToLower(k)] = v
	}
	if evt.Body != "" && headers["content-type"] == "" {
		headers["content-type"] = echo.MIMEApplicationJSON
	}
	if id := evt.RequestContext.RequestID; id != "" && headers["x-request-id"] == "" {
		headers["x-request-id"] = id
	}
	evt.Headers = headers

	if evt.RawPath == "" {
		evt.RawPath = evt.RequestContext.HTTP.Path
	}
	if evt.RequestContext.HTTP.Method == "" {
		evt.RequestContext.HTTP.Method = http.MethodGet
	}
	return evt
}
