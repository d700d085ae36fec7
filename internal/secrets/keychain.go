package secrets

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// Keychain items live under one service with the app name as the account.
const keychainService = "embrace-wizard.api-token"

type keychain struct{}

// reachKeychain writes and removes a throwaway item; headless Linux without a
// secret service fails here.
func reachKeychain() (keychain, bool) {
	const account = "__reachability__"
	if err := keyring.Set(keychainService, account, "ok"); err != nil {
		return keychain{}, false
	}
	_ = keyring.Delete(keychainService, account)
	return keychain{}, true
}

func (keychain) load(app string) (string, error) {
	tok, err := keyring.Get(keychainService, app)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	return tok, err
}

func (keychain) save(app, token string) error {
	return keyring.Set(keychainService, app, token)
}

func (keychain) forget(app string) error {
	err := keyring.Delete(keychainService, app)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func (keychain) kind() string { return "keychain" }
