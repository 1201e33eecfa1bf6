package mail

import (
	"fmt"
	"time"
)

// OTPSubject is the subject line for password reset messages.
const OTPSubject = "Password Reset"

// OTPBody renders the plain-text password reset message.
func OTPBody(otp string, validity time.Duration) string {
	minutes := int(validity.Minutes())
	return fmt.Sprintf(
		"Hello,\r\n\r\n"+
			"You requested a password reset. Your one-time password is:\r\n\r\n"+
			"%s\r\n\r\n"+
			"It expires in %d minutes. If you did not request a reset, you can ignore this message.\r\n",
		otp, minutes)
}
