package mail

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/kcentral/internal/render"
)

const SubjectRecoverPassword = "Password recovery request"

func SendRecoverPassword(sender MailSender, toEmail string, link string, validFor string) error {
	params := fiber.Map{
		"email":    toEmail,
		"link":     link,
		"validFor": validFor,
	}
	body, err := render.RenderText("mail/recover-password", params)
	if err != nil {
		return err
	}
	htmlBody, err := render.RenderHTML("mail/recover-password", params)
	if err != nil {
		return err
	}
	return sender.Send(&Message{
		To:       []string{toEmail},
		Subject:  SubjectRecoverPassword,
		Body:     body,
		HTMLBody: htmlBody,
	})
}
