// Package email sends transactional emails for the email notification channel.
//
// EmailSender is the transport contract. Two implementations are provided:
//
//   - NewPostmarkClient delivers through the Postmark API
//   - NewDevSender writes a JSON envelope and the HTML body to a local directory
//
// NewSender picks Postmark when both tokens are configured and falls back to DevSender.
//
//	sender, err := email.NewSender(cfg, log)
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//		SendTo:   "user@example.com",
//		Subject:  "New comment",
//		BodyHTML: html,
//		Tag:      "comment_created",
//	})
//
// Parameters are validated before sending; invalid input yields ErrInvalidParams and
// transport failures yield ErrFailedToSendEmail.
package email
