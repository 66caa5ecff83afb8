package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/accounts/internal/account"
	"github.com/geocoder89/accounts/internal/domain/user"
	"github.com/geocoder89/accounts/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// AccountService is the subset of account.Service the handlers call.
type AccountService interface {
	SignUp(ctx context.Context, in account.NewAccount) (user.User, error)
	Login(ctx context.Context, email, password string) (account.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (account.TokenPair, error)
	Profile(ctx context.Context, id int64) (user.User, error)
}

type AuthHandler struct {
	accounts AccountService
	timeout  time.Duration
}

func NewAuthHandler(accounts AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts, timeout: 3 * time.Second}
}

type SignUpRequest struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
	Password  string `json:"password" binding:"required"`
}

// LoginForm follows the OAuth2 password grant field names.
type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.accounts.SignUp(cctx, account.NewAccount{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})

	if err != nil {
		if errors.Is(err, account.ErrDuplicateUser) {
			RespondBadRequestCode(ctx, "duplicate_user", "The user with this email already exists in the system.")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, u.Profile())
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var form LoginForm

	if !BindForm(ctx, &form) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	pair, err := h.accounts.Login(cctx, form.Username, form.Password)

	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			RespondUnAuthorized(ctx, "invalid_credentials", "Incorrect username or password.")
			return
		}

		RespondInternal(ctx, "Could not log in")
		return
	}

	ctx.Header("Cache-Control", "no-store")
	ctx.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Refresh(ctx *gin.Context) {
	var req RefreshRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	pair, err := h.accounts.Refresh(cctx, req.RefreshToken)

	if err != nil {
		switch {
		case errors.Is(err, account.ErrUnauthenticated):
			RespondUnAuthorized(ctx, "unauthenticated", "Could not validate credentials.")
		case errors.Is(err, account.ErrAccountDisabled):
			RespondBadRequestCode(ctx, "account_disabled", "Inactive user.")
		default:
			RespondInternal(ctx, "Could not refresh session")
		}
		return
	}

	ctx.Header("Cache-Control", "no-store")
	ctx.JSON(http.StatusOK, pair)
}

// Me returns the profile of the user resolved by the auth middleware.
func (h *AuthHandler) Me(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthenticated", "Could not validate credentials.")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, u.Profile())
}

func (h *AuthHandler) GetByID(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "id must be a positive integer", nil)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.accounts.Profile(cctx, id)

	if err != nil {
		if errors.Is(err, account.ErrUserNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not fetch user")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, u.Profile())
}
