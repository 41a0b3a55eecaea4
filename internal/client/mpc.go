// Package client talks to the MPC network, either a remote cluster over HTTP
// or an in-process simulator.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AlexZinkM/confidential-pay/internal/model"

	"github.com/sirupsen/logrus"
)

const (
	invokePath     = "/api/computation/invoke"
	defaultTimeout = 30 * time.Second
)

// MPCClient is a client for the MPC cluster's computation API
type MPCClient struct {
	baseURL string
	client  *http.Client
	log     *logrus.Logger
}

// NewMPCClient creates a client for the service at baseURL. The caller's
// context bounds each call; timeout is an upper bound on top of it.
func NewMPCClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *MPCClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &MPCClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		log: logger,
	}
}

// errorResponse is the cluster's error body
type errorResponse struct {
	Error string `json:"error"`
}

// Execute posts req to the cluster and waits for the result.
func (c *MPCClient) Execute(ctx context.Context, req *model.ComputationRequest) (*model.ComputationResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode computation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+invokePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.log.WithFields(logrus.Fields{
		"computation": req.ComputationID,
		"operation":   req.Operation,
	}).Debug("invoking computation")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke computation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("failed to invoke computation: status %d: %s", resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("failed to invoke computation: status %d", resp.StatusCode)
	}

	var result model.ComputationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode computation result: %w", err)
	}
	return &result, nil
}
