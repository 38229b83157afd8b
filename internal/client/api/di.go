package api

import (
	"net/http"

	"github.com/samber/do/v2"
	"go.uber.org/zap"

	"github.com/talkscribe/talkscribe-go/internal/client/token"
	"github.com/talkscribe/talkscribe-go/internal/config"
)

// RegisterDI provides the API client against the configured base URL.
func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Client, error) {
		opts := do.MustInvoke[*config.Options](i)
		tokens := do.MustInvoke[*token.Store](i)
		log := do.MustInvoke[*zap.Logger](i)
		return New(opts.BaseURL, &http.Client{}, tokens, log), nil
	})
}
