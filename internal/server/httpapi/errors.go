package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/verdantlab/floraid/internal/common"
)

// detail strings the mobile client matches on; do not reword casually.
const (
	detailEmailTaken      = "This email has already been recorded."
	detailUsernameTaken   = "This username has already been recorded."
	detailBadCredentials  = "No user exists with these credentials."
	detailBadGoogleUser   = "No google user exists with these credentials."
	detailGoogleRejected  = "Google token verification failed."
	detailEmailNotFound   = "User with this email could not be found."
	detailExternalAccount = "Action denied. User with this email is considered an external account."
	detailSpeciesTaken    = "This species has already been recorded."
	detailNotFound        = "Not found."
	detailInvalidToken    = "Could not validate credentials."
	detailInternal        = "Internal server error."
)

func isNotFound(err error) bool { return errors.Is(err, common.ErrorNotFound) }

// writeError maps the service error taxonomy to a status and a client-facing
// detail. unauthorizedDetail lets auth endpoints keep their own 401 wording;
// everything unrecognized is sanitized into a 500.
func writeError(c *gin.Context, err error, unauthorizedDetail string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case errors.Is(err, common.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": detailInvalidToken})
	case errors.Is(err, common.ErrorUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": unauthorizedDetail})
	case errors.Is(err, common.ErrorForbidden):
		c.JSON(http.StatusForbidden, gin.H{"detail": detailExternalAccount})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": detailNotFound})
	case errors.Is(err, common.ErrorEmailExists):
		c.JSON(http.StatusConflict, gin.H{"detail": detailEmailTaken})
	case errors.Is(err, common.ErrorUsernameExists):
		c.JSON(http.StatusConflict, gin.H{"detail": detailUsernameTaken})
	case errors.Is(err, common.ErrorAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"detail": detailSpeciesTaken})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"detail": detailInternal})
	}
}
