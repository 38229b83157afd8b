package session

import (
	"github.com/samber/do/v2"
	"go.uber.org/zap"

	"github.com/talkscribe/talkscribe-go/internal/client/api"
	"github.com/talkscribe/talkscribe-go/internal/client/token"
)

// RegisterDI provides the session manager. It is a singleton scoped to the
// injector, so every consumer shares one session.
func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		client := do.MustInvoke[*api.Client](i)
		tokens := do.MustInvoke[*token.Store](i)
		log := do.MustInvoke[*zap.Logger](i)
		return NewManager(client, tokens, log), nil
	})
}
