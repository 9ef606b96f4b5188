package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openclaw/bountyboard/internal/config"
	"github.com/openclaw/bountyboard/internal/model"
	"github.com/openclaw/bountyboard/internal/service"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Auth   *service.AuthService
	Google *service.GoogleOAuth
}

func NewAuthHandler(cfg config.Config, auth *service.AuthService, google *service.GoogleOAuth) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Auth: auth, Google: google}
}

// ----- DTOs -----

type registerReq struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Handle       string `json:"handle"`
	Organization string `json:"organization"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type forgotPasswordReq struct {
	Email string `json:"email"`
}
type verifyOTPReq struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}
type resetPasswordReq struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}
type updateDataReq struct {
	ResourceURL  string `json:"resourceUrl"`
	Description  string `json:"description"`
	ProcessedURL string `json:"processedUrl"`
}

// userView is the sanitized user shape returned to clients; credential
// material and OTP state never leave the server.
type userView struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Handle       string `json:"handle,omitempty"`
	Organization string `json:"organization,omitempty"`
	Loot         string `json:"loot"`
	IsGoogleUser bool   `json:"isGoogleUser"`
	IsRegistered bool   `json:"isRegistered"`
	IsSuspended  bool   `json:"isSuspended"`
}

func viewOf(u *model.User) userView {
	return userView{
		ID: u.ID, Email: u.Email, Handle: u.Handle, Organization: u.Organization,
		Loot: u.Loot, IsGoogleUser: u.IsGoogleUser, IsRegistered: u.IsRegistered,
		IsSuspended: u.IsSuspended,
	}
}

const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// Register creates a password-origin account and returns a fresh session.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	sess, err := h.Auth.Register(ctx, req.Email, req.Password, req.Handle, req.Organization)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, sess)
}

// Login verifies credentials and returns a new session. Unknown email
// and wrong password are reported identically.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.ValidatePassword(ctx, req.Email, req.Password)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid credentials"})
	}
	sess, err := h.Auth.Login(ctx, u)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

// GoogleLogin starts the federated handshake. An optional
// ?registered=true is folded into the OAuth state so the redirect
// completion knows whether an unknown email may create an account.
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	if !h.Google.Enabled() {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "google login not configured"})
	}
	state := "anon"
	if c.QueryParam("registered") == "true" {
		state = "registered"
	}
	return c.Redirect(http.StatusTemporaryRedirect, h.Google.AuthURL(state))
}

// GoogleRedirect completes the handshake. An existing account matched
// by email gets the federation linked; an unknown email either creates
// a federated account (when pre-registered) or is redirected to the
// register page. Either way the caller lands back on the frontend with
// a fresh token or a register prompt.
func (h *AuthHandler) GoogleRedirect(c echo.Context) error {
	if !h.Google.Enabled() {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "google login not configured"})
	}
	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "missing code"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	profile, err := h.Google.Exchange(ctx, code)
	if err != nil {
		return respondErr(c, err)
	}
	profile.PreRegistered = c.QueryParam("state") == "registered"

	u, err := h.Auth.FindByEmail(ctx, profile.Email)
	if err != nil {
		return respondErr(c, err)
	}
	if u != nil {
		if err := h.Auth.LinkGoogleAccount(ctx, u, profile); err != nil {
			return respondErr(c, err)
		}
	} else {
		if !profile.PreRegistered {
			return c.Redirect(http.StatusFound, fmt.Sprintf(
				"%s/register?message=%s&email=%s",
				h.Cfg.HomeURL, url.QueryEscape("kindly register first"), url.QueryEscape(profile.Email)))
		}
		if u, err = h.Auth.CreateGoogleUser(ctx, profile); err != nil {
			return respondErr(c, err)
		}
	}

	sess, err := h.Auth.Login(ctx, u)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Redirect(http.StatusFound, fmt.Sprintf(
		"%s/dashboard?access_token=%s&userId=%s",
		h.Cfg.HomeURL, url.QueryEscape(sess.Token), url.QueryEscape(sess.UserID)))
}

// Protected is a liveness check of the token guard.
func (h *AuthHandler) Protected(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "This is a protected route"})
}

// GetUser returns a user's sanitized record plus their current access
// token so the caller's session stays fresh.
func (h *AuthHandler) GetUser(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.GetByID(ctx, c.Param("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":        "User info retrieved successfully.",
		"user":           viewOf(u),
		"newAccessToken": u.AccessToken,
	})
}

// ForgotPassword issues a one-time code and emails it. The send is a
// single attempt; failure is surfaced, not retried.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.FindByEmail(ctx, req.Email)
	if err != nil {
		return respondErr(c, err)
	}
	if u == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Email not found"})
	}
	code, err := h.Auth.CreateOTP(ctx, u)
	if err != nil {
		return respondErr(c, err)
	}
	if err := h.Auth.SendOTP(u.Email, code); err != nil {
		c.Logger().Errorf("send otp: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to send OTP"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "OTP sent to email"})
}

// VerifyOTP checks a pending code. Invalid or expired codes are 403.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.VerifyOTP(ctx, req.Email, req.OTP); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Invalid OTP"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "OTP verified successfully"})
}

// ResetPassword replaces the password after a verified OTP. Unmet
// preconditions are 400.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.ResetPassword(ctx, req.Email, req.NewPassword); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Password reset failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password reset successful"})
}

// UpdateData appends a free-form operation record to the user.
func (h *AuthHandler) UpdateData(c echo.Context) error {
	var req updateDataReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	userID := c.Param("userId")
	ops, err := h.Auth.AddOperation(ctx, userID, req.ResourceURL, req.Description, req.ProcessedURL)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":    "Data updated successfully",
		"userId":     userID,
		"operations": ops,
	})
}
