package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"uploadit/internal/application/ports"
	"uploadit/internal/interface/api/rest/dto/auth"
	"uploadit/internal/interface/api/rest/validator"
)

type AuthController struct {
	logger      *zap.Logger
	authService ports.Auth
}

func NewAuthController(
	r *gin.Engine,
	logger *zap.Logger,
	authService ports.Auth,
) *AuthController {
	ac := &AuthController{
		logger:      logger,
		authService: authService,
	}

	r.POST(RouteSignUp, ac.SignUpHandler)
	r.POST(RouteSignIn, ac.SignInHandler)
	r.POST(RouteSignOut, ac.SignOutHandler)
	r.GET(RouteSession, ac.SessionHandler)

	return ac
}

func (ac *AuthController) bindCredentials(c *gin.Context) (auth.Credentials, bool) {
	var req auth.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid json"},
		)
		return req, false
	}

	if errs := validator.ValidateCredentials(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": errs,
		})
		return req, false
	}

	return req, true
}

func (ac *AuthController) SignUpHandler(c *gin.Context) {
	req, ok := ac.bindCredentials(c)
	if !ok {
		return
	}

	msg, err := ac.authService.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abortWithServiceError(c, ac.logger, "SignUp()", err)
		return
	}

	c.JSON(http.StatusCreated, auth.Message{Message: msg})
}

func (ac *AuthController) SignInHandler(c *gin.Context) {
	req, ok := ac.bindCredentials(c)
	if !ok {
		return
	}

	s, err := ac.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abortWithServiceError(c, ac.logger, "SignIn()", err)
		return
	}

	c.JSON(http.StatusOK, auth.ToResponseSession(*s))
}

func (ac *AuthController) SignOutHandler(c *gin.Context) {
	if err := ac.authService.SignOut(c.Request.Context()); err != nil {
		abortWithServiceError(c, ac.logger, "SignOut()", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SessionHandler answers 204 when nobody is signed in.
func (ac *AuthController) SessionHandler(c *gin.Context) {
	s := ac.authService.GetSession(c.Request.Context())
	if s == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, auth.ToResponseSession(*s))
}
