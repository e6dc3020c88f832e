// Package mailer is the out-of-band delivery collaborator for the email
// sign-in flow. The engine never talks SMTP or a vendor API directly; it
// hands a rendered message to a Mailer and treats any failure as fatal for
// the current request.
//
// Two implementations ship with the package: a Postmark-backed sender for
// production and a DevSender that writes messages to disk so the magic-link
// flow can be exercised locally without an email account.
package mailer
