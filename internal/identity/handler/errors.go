package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"phone-otp-auth/internal/identity/service"
	"phone-otp-auth/internal/phone"
	"phone-otp-auth/internal/server/response"
)

// failure is the stable outward form of a service error.
type failure struct {
	status  int
	code    int
	message string
}

// failures maps service sentinels to (HTTP status, business code, message). The first match
// wins, so the phone-format entry precedes the generic invalid input entry it also matches.
var failures = []struct {
	err error
	failure
}{
	{phone.ErrNationalFormUnsupported, failure{http.StatusBadRequest, response.CodeInvalidInput,
		"phone number must be in international format (+<country calling code>) for this country"}},
	{service.ErrInvalidInput, failure{http.StatusBadRequest, response.CodeInvalidInput, "invalid input data"}},
	{service.ErrUserBlocked, failure{http.StatusOK, response.CodeUserBlocked, "user is blocked"}},
	{service.ErrUserNotFound, failure{http.StatusOK, response.CodeUserNotFound, "user does not exist"}},
	{service.ErrInvalidCredentials, failure{http.StatusOK, response.CodeInvalidCredentials, "invalid verification code"}},
	{service.ErrServiceUnavailable, failure{http.StatusOK, response.CodeServiceUnavailable, "try again later"}},
	{service.ErrAlreadyAuthenticated, failure{http.StatusBadRequest, response.CodeAlreadyAuthenticated, "caller must be anonymous"}},
	{service.ErrUnauthenticated, failure{http.StatusBadRequest, response.CodeUnauthenticated, "caller is not authenticated"}},
	{service.ErrRateLimited, failure{http.StatusTooManyRequests, response.CodeRateLimited, "too many requests; try again later"}},
}

var internalFailure = failure{http.StatusInternalServerError, response.CodeInternal, "internal error"}

func failureFor(err error) failure {
	for _, f := range failures {
		if errors.Is(err, f.err) {
			return f.failure
		}
	}
	return internalFailure
}

// writeError writes the envelope for err. The error text itself never reaches the client.
func writeError(c *gin.Context, err error) {
	f := failureFor(err)
	response.Fail(c, f.status, f.code, f.message)
}
