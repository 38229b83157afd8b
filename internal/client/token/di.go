package token

import (
	"github.com/samber/do/v2"

	"github.com/talkscribe/talkscribe-go/internal/config"
)

// RegisterDI provides the token store, backed by the configured token file.
func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Store, error) {
		opts := do.MustInvoke[*config.Options](i)
		return Open(opts.TokenFile)
	})
}
