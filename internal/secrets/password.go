package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"outreach-engine/internal/config"
)

const (
	// “Service” groups the app's secrets in the OS keychain.
	KeyringService = "outreach"
)

func GetPassword(keyringAccount string) (string, error) {
	if strings.TrimSpace(keyringAccount) != "" {
		pw, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}

	return "", errors.New("password not found (set it in keychain or via env)")
}

func SetPassword(keyringAccount string, password string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, password)
}

func DeletePassword(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}

func SMTPKeyringAccount(cfg config.Config) string {
	return fmt.Sprintf(
		"outreach:smtp:%s@%s",
		cfg.SMTP.Username,
		cfg.SMTP.Host,
	)
}

func IMAPKeyringAccount(cfg config.Config) string {
	return fmt.Sprintf(
		"outreach:imap:%s@%s",
		cfg.IMAP.Username,
		cfg.IMAP.Host,
	)
}
