// Package interactive provides terminal user interface components
package interactive

import (
	"github.com/AlecAivazis/survey/v2"
)

// Confirm asks for user confirmation
func Confirm(message string) bool {
	confirmed := false
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	_ = survey.AskOne(prompt, &confirmed)
	return confirmed
}
