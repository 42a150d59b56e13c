package core

import (
	"context"
	"strings"
	"syscall"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"golang.org/x/term"

	"telegram-forwarder/internal/infra/pr"
)

// ErrTermsDeclined — пользователь не принял условия использования Telegram.
var ErrTermsDeclined = errors.New("user did not accept terms of service")

// TerminalAuthenticator реализует auth.UserAuthenticator и собирает ввод из терминала:
// номер телефона (если не задан заранее), код подтверждения, пароль 2FA,
// принятие ToS и первичную регистрацию. Формат номера не проверяется.
type TerminalAuthenticator struct {
	PhoneNumber string
}

var _ auth.UserAuthenticator = TerminalAuthenticator{}

// Phone возвращает заранее известный номер или спрашивает его.
func (t TerminalAuthenticator) Phone(_ context.Context) (string, error) {
	if phone := strings.TrimSpace(t.PhoneNumber); phone != "" {
		return phone, nil
	}
	return pr.ReadLine("Enter phone number (international format): ")
}

// Code запрашивает код подтверждения. sentCode здесь не используется.
func (t TerminalAuthenticator) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	return pr.ReadLine("Enter the code from Telegram: ")
}

// Password считывает пароль 2FA без эха.
func (t TerminalAuthenticator) Password(_ context.Context) (string, error) {
	pr.Print("Enter 2FA password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	pr.Println()
	if err != nil {
		return "", err
	}
	return string(passwordBytes), nil
}

// AcceptTermsOfService выводит условия и принимает только "y"/"Y".
func (t TerminalAuthenticator) AcceptTermsOfService(_ context.Context, tos tg.HelpTermsOfService) error {
	pr.Printf("Telegram Terms of Service: %s\n", tos.Text)
	resp, err := pr.ReadLine("Do you accept? (y/n): ")
	if err != nil {
		return err
	}
	if resp != "y" && resp != "Y" {
		return ErrTermsDeclined
	}
	return nil
}

// SignUp собирает имя и (опциональную) фамилию для незарегистрированного номера.
func (t TerminalAuthenticator) SignUp(_ context.Context) (auth.UserInfo, error) {
	firstName, err := pr.ReadLine("Enter your first name: ")
	if err != nil {
		return auth.UserInfo{}, err
	}
	// Фамилия опциональна; ошибку чтения игнорируем.
	lastName, _ := pr.ReadLine("Enter your last name (optional): ")
	return auth.UserInfo{
		FirstName: firstName,
		LastName:  lastName,
	}, nil
}
