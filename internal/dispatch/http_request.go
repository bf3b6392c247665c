// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/skill"
)

// defaultHTTPTimeout backs HttpRequest when the step declares none.
const defaultHTTPTimeout = 30 * time.Second

// handleHttpRequest performs a single HTTP call via resty, returning the
// response body text; a non-2xx status raises with the status code and
// body folded into the error.
func (r *Registry) handleHttpRequest(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	hr := op.(skill.HttpRequest)

	method, err := oc.interp(hr.Method)
	if err != nil {
		return Result{}, err
	}
	if method == "" {
		method = "GET"
	}
	url, err := oc.interp(hr.URL)
	if err != nil {
		return Result{}, err
	}
	body, err := oc.interp(hr.Body)
	if err != nil {
		return Result{}, err
	}

	timeout := defaultHTTPTimeout
	if hr.TimeoutSecs > 0 {
		timeout = time.Duration(hr.TimeoutSecs * float64(time.Second))
	}

	client := resty.New().SetTimeout(timeout)
	req := client.R().SetContext(ctx)
	for k, v := range hr.Headers {
		expanded, err := oc.interp(v)
		if err != nil {
			return Result{}, err
		}
		req.SetHeader(k, expanded)
	}
	if body != "" {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return Result{}, engineerr.Network("dispatch.HttpRequest", fmt.Errorf("%s %s: %w", method, url, err))
	}

	text := resp.String()
	if resp.IsError() {
		return Result{ExitCode: resp.StatusCode(), Output: text}, engineerr.HTTP("dispatch.HttpRequest",
			fmt.Errorf("%s %s: status %d: %s", method, url, resp.StatusCode(), text))
	}

	result := Result{ExitCode: resp.StatusCode(), Output: text}
	if hr.VarName != "" {
		result.Vars = map[string]string{hr.VarName: text}
	}
	return result, nil
}
