package main

import (
	"errors"

	"jenkins-notify-bot/src/chatwork"
	"jenkins-notify-bot/src/config"
	"jenkins-notify-bot/src/jenkins"
	"jenkins-notify-bot/src/store"
)

// explain converts known failures into user-friendly errors with hints.
func explain(err error) error {
	if err == nil {
		return nil
	}

	var userErr *config.UserError
	if errors.As(err, &userErr) {
		return err
	}

	switch {
	case errors.Is(err, jenkins.ErrAuthFailed):
		return &config.UserError{
			Message: "Jenkins rejected the request",
			Hint:    "Set jenkins_user and jenkins_api_token, or NOTIFY_BOT_JENKINS_USER and NOTIFY_BOT_JENKINS_API_TOKEN.",
			Err:     err,
		}
	case errors.Is(err, chatwork.ErrAuthFailed):
		return &config.UserError{
			Message: "Chatwork rejected the API token",
			Hint:    "Check api_token (or NOTIFY_BOT_API_TOKEN) and that the bot account is a member of every room.",
			Err:     err,
		}
	case errors.Is(err, store.ErrMalformedLine):
		return &config.UserError{
			Message: "The build status file is corrupt",
			Hint:    "Each line must be \"<job> <updated> <status>\". Fix or delete the reported line.",
			Err:     err,
		}
	case errors.Is(err, store.ErrUnknownDriver):
		return &config.UserError{
			Message: "Unknown status store driver",
			Hint:    "status_store.driver must be file, sqlite or postgres.",
			Err:     err,
		}
	}
	return err
}
