package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type SignupRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Organization string `json:"organization"`
	LicenceNo    string `json:"licence_no"`
	Phone        string `json:"phone"`
	Specialty    string `json:"specialty"`
}

type SignupResult struct {
	Message string `json:"message"`
}

// Signup forwards a registration to the signup service. The service answers
// with an optional JSON message; anything else is ignored.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (SignupResult, error) {
	body, err := c.do(ctx, "Signup", http.MethodPost, c.signupURL, req)
	if err != nil {
		return SignupResult{}, err
	}

	var result SignupResult
	_ = json.Unmarshal(body, &result)
	if strings.TrimSpace(result.Message) == "" {
		result.Message = "Account created"
	}
	return result, nil
}
