package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	apperrors "github.com/studypulse/studypulse/internal/errors"
)

// requireAuth resolves the session cookie into an account id. The SPA gets
// a 401 JSON body, never a redirect.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := s.sessionStore.Get(c.Request(), sessionName)
		if err != nil {
			return apperrors.UnauthorizedError("not logged in")
		}

		raw, ok := session.Values[sessionKeyAccountID].(string)
		if !ok {
			return apperrors.UnauthorizedError("not logged in")
		}

		accountID, err := uuid.Parse(raw)
		if err != nil {
			return apperrors.UnauthorizedError("not logged in")
		}

		c.Set("accountID", accountID)
		return next(c)
	}
}

// currentAccountID reads the account id requireAuth stored on the context.
func currentAccountID(c echo.Context) uuid.UUID {
	id, _ := c.Get("accountID").(uuid.UUID)
	return id
}

// loginRateLimiter throttles credential guessing per client IP.
func loginRateLimiter() echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(5),
			Burst:     10,
			ExpiresIn: 3 * time.Minute,
		}),
	})
}
