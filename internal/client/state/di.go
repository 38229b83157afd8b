package state

import (
	"github.com/samber/do/v2"
	"go.uber.org/zap"

	"github.com/talkscribe/talkscribe-go/internal/client/api"
)

// RegisterDI provides the three entity caches.
func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*AudioFiles, error) {
		return NewAudioFiles(do.MustInvoke[*api.Client](i), do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (*Transcriptions, error) {
		return NewTranscriptions(do.MustInvoke[*api.Client](i), do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (*Conversations, error) {
		return NewConversations(do.MustInvoke[*api.Client](i), do.MustInvoke[*zap.Logger](i)), nil
	})
}
