package grammar

import (
	"github.com/rs/zerolog"
)

// ParseTextLogged wraps ParseText with the store package's nil-safe
// *zerolog.Logger convention: callers that have a logger (cmd/timefuzz's
// cobra shell, a session driver) pass it so grammar-parse failures are
// recorded per spec §7 rather than only returned to the caller. log may
// be nil, in which case this behaves exactly like ParseText.
func ParseTextLogged(text string, log *zerolog.Logger) (*Graph, error) {
	g, err := ParseText(text)
	if err != nil {
		if log != nil {
			log.Warn().Err(err).Msg("grammar parse failed")
		}
		return g, err
	}
	if !g.Valid {
		if log != nil {
			log.Warn().Msg("grammar parsed but failed validation, marked invalid")
		}
	}
	return g, nil
}
