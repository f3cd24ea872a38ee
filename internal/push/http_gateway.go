package push

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const sendPath = "/v1/projects/{project}/messages:send"

// HTTPGateway posts messages to an FCM HTTP v1 compatible endpoint.
type HTTPGateway struct {
	client  *resty.Client
	project string
}

type sendRequest struct {
	Message Message `json:"message"`
}

type sendResponse struct {
	Name string `json:"name"`
}

// errorResponse is the Google API error body:
// {"error":{"code":404,"message":"...","status":"NOT_FOUND","details":[{"errorCode":"UNREGISTERED"}]}}
type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Type      string `json:"@type"`
			ErrorCode string `json:"errorCode"`
		} `json:"details"`
	} `json:"error"`
}

// NewHTTPGateway returns a gateway posting to endpoint on behalf of project.
// An empty accessToken sends no Authorization header.
func NewHTTPGateway(endpoint, project, accessToken string, timeout time.Duration) *HTTPGateway {
	c := resty.New().
		SetBaseURL(strings.TrimRight(endpoint, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if accessToken != "" {
		c.SetAuthToken(accessToken)
	}
	return &HTTPGateway{client: c, project: project}
}

// Send delivers msg and returns the gateway's message name.
func (g *HTTPGateway) Send(ctx context.Context, msg Message) (string, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParam("project", g.project).
		SetBody(sendRequest{Message: msg}).
		SetResult(&sendResponse{}).
		SetError(&errorResponse{}).
		Post(sendPath)
	if err != nil {
		return "", &GatewayError{Code: CodeUnavailable, Description: err.Error()}
	}
	if resp.IsError() {
		return "", toGatewayError(resp)
	}
	out, _ := resp.Result().(*sendResponse)
	if out == nil || out.Name == "" {
		return "", &GatewayError{Code: CodeInternal, Description: "gateway response without message name", Status: resp.StatusCode()}
	}
	return out.Name, nil
}

// Close releases idle connections.
func (g *HTTPGateway) Close() error {
	g.client.GetClient().CloseIdleConnections()
	return nil
}

func toGatewayError(resp *resty.Response) *GatewayError {
	gerr := &GatewayError{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*errorResponse); ok && body != nil {
		gerr.Description = body.Error.Message
		gerr.Code = body.Error.Status
		for _, d := range body.Error.Details {
			if d.ErrorCode != "" {
				gerr.Code = d.ErrorCode
				break
			}
		}
	}
	if gerr.Code == "" {
		gerr.Code = codeForStatus(resp.StatusCode())
	}
	if gerr.Description == "" {
		gerr.Description = http.StatusText(resp.StatusCode())
	}
	return gerr
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusNotFound:
		return CodeUnregistered
	case status == http.StatusBadRequest:
		return CodeInvalidArgument
	case status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable:
		return CodeUnavailable
	case status >= 500:
		return CodeInternal
	}
	return CodeUnknown
}
