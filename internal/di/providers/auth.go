package providers

import (
	"github.com/samber/do/v2"

	"github.com/inkwell-blog/inkwell-server/internal/auth"
	"github.com/inkwell-blog/inkwell-server/internal/config"
	"github.com/inkwell-blog/inkwell-server/internal/logger"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey loads the configured secret, or loads or generates the
// key file under the data path.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadKey(cfg.Auth.Secret, cfg.Data.Path)
	if err != nil {
		return nil, err
	}

	source := "key file"
	if cfg.Auth.Secret != "" {
		source = "AUTH_SECRET"
	}
	log.Info("Authentication key loaded",
		"source", source,
		"access_token_duration", cfg.Auth.AccessTokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService([]byte(authKey), cfg.Auth.AccessTokenDuration)
}

// ProvidePasswordHasher provides the argon2id password hasher.
func ProvidePasswordHasher(i do.Injector) (*auth.PasswordHasher, error) {
	return auth.NewPasswordHasher(auth.DefaultPasswordParams()), nil
}
