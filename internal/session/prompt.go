package session

import "github.com/manifoldco/promptui"

// EnterPrompt returns a PromptFunc that blocks on stdin until the
// operator presses Enter. Ctrl-C surfaces as promptui.ErrInterrupt and
// aborts the login.
func EnterPrompt() PromptFunc {
	return func(label string) error {
		prompt := promptui.Prompt{
			Label:       label,
			HideEntered: true,
		}
		_, err := prompt.Run()
		return err
	}
}
