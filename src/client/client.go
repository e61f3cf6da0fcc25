package client

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"calcsync/src/model"
)

// Client is a thin resty wrapper over the calcsync HTTP API, used by the
// CLI and by anything else driving the service from outside.
type Client struct {
	http *resty.Client
}

func New(baseURL string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json")

	return &Client{http: c}
}

// WithToken sets the bearer token for subsequent calls.
func (c *Client) WithToken(token string) *Client {
	c.http.SetAuthToken(token)
	return c
}

type loginResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

// Login authenticates and stores the returned token on the client.
func (c *Client) Login(username, password string) (string, error) {
	var out loginResponse

	resp, err := c.http.R().
		SetBody(model.LoginPayload{Username: username, Password: password}).
		SetResult(&out).
		Post("/api/login")

	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("login failed: %s (%s)", resp.Status(), resp.String())
	}

	c.http.SetAuthToken(out.Token)
	return out.Token, nil
}

// GetInputs fetches the current calculator record.
func (c *Client) GetInputs() (*model.CalculatorInputs, error) {
	var out model.CalculatorInputs

	resp, err := c.http.R().
		SetResult(&out).
		Get("/api/inputs")

	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get inputs failed: %s (%s)", resp.Status(), resp.String())
	}

	return &out, nil
}

// SaveFields applies a partial update and returns the merged record.
func (c *Client) SaveFields(payload model.UpdateCalculatorInputsPayload) (*model.CalculatorInputs, error) {
	return c.patchInputs(payload)
}

// SaveRaw is SaveFields for callers that build the partial dynamically.
// Values must already have the field's JSON type.
func (c *Client) SaveRaw(updates map[string]interface{}) (*model.CalculatorInputs, error) {
	return c.patchInputs(updates)
}

func (c *Client) patchInputs(body interface{}) (*model.CalculatorInputs, error) {
	var out model.CalculatorInputs

	resp, err := c.http.R().
		SetBody(body).
		SetResult(&out).
		Patch("/api/inputs")

	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("save inputs failed: %s (%s)", resp.Status(), resp.String())
	}

	return &out, nil
}
