package utils

import (
	"fmt"
	"log"
	"time"

	"coursepilot/config"
	"coursepilot/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailNotifier sends enrollment notifications through SendGrid. It
// implements services.LaunchNotifier; launches never wait on it.
type EmailNotifier struct{}

// NotifyEnrollments emails each newly enrolled member
func (n *EmailNotifier) NotifyEnrollments(members []models.Member, course models.Course, dueDate *time.Time) {
	for _, member := range members {
		if member.Email == "" {
			continue
		}
		body := fmt.Sprintf("<p>Hi %s,</p><p>You have been enrolled in <strong>%s</strong>.</p>", member.Name, course.Title)
		if dueDate != nil {
			body += fmt.Sprintf("<p>Please complete it by %s.</p>", dueDate.Format("January 2, 2006"))
		}
		if err := SendEmail(member.Email, member.Name, "You have been enrolled: "+course.Title, body); err != nil {
			log.Printf("Error sending enrollment email to %s: %v", member.Email, err)
		}
	}
}

// SendEmail sends one HTML email via SendGrid
func SendEmail(toEmail, toName, subject, htmlBody string) error {
	if config.AppConfig.SendgridApiKey == "" {
		log.Printf("SENDGRID_API_KEY not set; skipping email to %s", toEmail)
		return nil
	}

	from := mail.NewEmail("CoursePilot", config.AppConfig.EmailSender)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", getEmailTemplate(subject, htmlBody))

	client := sendgrid.NewSendClient(config.AppConfig.SendgridApiKey)
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

// getEmailTemplate wraps body content in the standard layout
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #1A2B4C; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1A2B4C; line-height: 1.6; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>COURSEPILOT</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 CoursePilot. All rights reserved.
			</div>
		</div>
	</body>
	</html>`, title, bodyContent)
}
