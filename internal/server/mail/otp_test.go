package mail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOTPBody(t *testing.T) {
	body := OTPBody("Xy12Ab", 15*time.Minute)
	assert.Contains(t, body, "Xy12Ab")
	assert.Contains(t, body, "expires in 15 minutes")
}
