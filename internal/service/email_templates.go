package service

import "fmt"

func welcomeEmailTemplate(name, appURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi %s,

Your account is ready. Add your first habit and start a streak today:
%s

Small steps, repeated daily, add up.

Best,
The %s Team`, name, appURL, appName)

	return subject, body
}

func accountDeletedEmailTemplate(name, appName string) (string, string) {
	subject := fmt.Sprintf("Your %s account has been deleted", appName)
	body := fmt.Sprintf(`Hi %s,

Your account has been permanently deleted from %s.

Your habits, completion history, profile and avatar have been removed from our systems.

If you didn't request this deletion, please contact our support team immediately, though we won't be able to recover your account.

If you change your mind, you're welcome to create a new account anytime.

Best,
The %s Team`, name, appName, appName)

	return subject, body
}
