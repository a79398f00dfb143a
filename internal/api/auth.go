package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/five82/tote/internal/validate"
)

// Credentials signs a user in.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignUpRequest registers a new account.
type SignUpRequest struct {
	Name       string `json:"name" validate:"required,min=3"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,strongpassword"`
	RePassword string `json:"rePassword" validate:"required,eqfield=Password"`
	Phone      string `json:"phone" validate:"required,egphone"`
}

// ChangePasswordRequest changes the signed-in user's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	Password        string `json:"password" validate:"required,strongpassword"`
	RePassword      string `json:"rePassword" validate:"required,eqfield=Password"`
}

// ProfileUpdate changes the signed-in user's profile. Empty fields are omitted.
type ProfileUpdate struct {
	Name  string `json:"name,omitempty" validate:"omitempty,min=3"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,egphone"`
}

type resetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetCode struct {
	ResetCode string `json:"resetCode" validate:"required"`
}

type newPassword struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"newPassword" validate:"required,strongpassword"`
}

// StatusResponse is the plain acknowledgement several endpoints return.
type StatusResponse struct {
	Status    string `json:"status,omitempty"`
	StatusMsg string `json:"statusMsg,omitempty"`
	Message   string `json:"message,omitempty"`
	Token     string `json:"token,omitempty"`
}

// checked validates payload and reports failures as a KindValidation error
// without touching the network.
func checked(method, path string, payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var fe validate.FieldErrors
	if errors.As(err, &fe) {
		return &Error{Kind: KindValidation, Method: method, Path: path, Message: fe.Error(), Err: fe}
	}
	return err
}

// SignIn exchanges credentials for a token.
func (c *Client) SignIn(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	const path = "/v1/auth/signin"
	if err := checked(http.MethodPost, path, creds); err != nil {
		return nil, err
	}
	var resp AuthResponse
	if err := c.send(ctx, http.MethodPost, path, creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SignUp creates an account and returns its token.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	const path = "/v1/auth/signup"
	if err := checked(http.MethodPost, path, req); err != nil {
		return nil, err
	}
	var resp AuthResponse
	if err := c.send(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ForgotPassword emails a reset code to email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*StatusResponse, error) {
	const path = "/v1/auth/forgotPasswords"
	body := resetRequest{Email: email}
	if err := checked(http.MethodPost, path, body); err != nil {
		return nil, err
	}
	var resp StatusResponse
	if err := c.send(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyResetCode confirms a reset code.
func (c *Client) VerifyResetCode(ctx context.Context, code string) (*StatusResponse, error) {
	const path = "/v1/auth/verifyResetCode"
	body := resetCode{ResetCode: code}
	if err := checked(http.MethodPost, path, body); err != nil {
		return nil, err
	}
	var resp StatusResponse
	if err := c.send(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResetPassword sets a new password after a verified reset code and returns
// a fresh token.
func (c *Client) ResetPassword(ctx context.Context, email, password string) (*AuthResponse, error) {
	const path = "/v1/auth/resetPassword"
	body := newPassword{Email: email, NewPassword: password}
	if err := checked(http.MethodPut, path, body); err != nil {
		return nil, err
	}
	var resp AuthResponse
	if err := c.send(ctx, http.MethodPut, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyToken asks the server to decode the current token. A rejected token
// is reported as KindAuthRejected and runs the unauthorized handler, unlike
// other auth endpoints where 401 means bad credentials.
func (c *Client) VerifyToken(ctx context.Context) (*TokenClaims, error) {
	const path = "/v1/auth/verify"
	var resp struct {
		Decoded TokenClaims `json:"decoded"`
	}
	err := c.get(ctx, path, &resp)
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		apiErr.Kind = KindAuthRejected
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx, apiErr)
		}
		return nil, apiErr
	}
	if err != nil {
		return nil, err
	}
	return &resp.Decoded, nil
}

// ChangePassword changes the password and returns the replacement token.
func (c *Client) ChangePassword(ctx context.Context, req ChangePasswordRequest) (*AuthResponse, error) {
	const path = "/v1/users/changeMyPassword"
	if err := checked(http.MethodPut, path, req); err != nil {
		return nil, err
	}
	var resp AuthResponse
	if err := c.send(ctx, http.MethodPut, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateProfile changes name, email or phone.
func (c *Client) UpdateProfile(ctx context.Context, req ProfileUpdate) (*AuthResponse, error) {
	const path = "/v1/users/updateMe/"
	if err := checked(http.MethodPut, path, req); err != nil {
		return nil, err
	}
	var resp AuthResponse
	if err := c.send(ctx, http.MethodPut, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
