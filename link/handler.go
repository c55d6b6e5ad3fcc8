package link

import "github.com/telsis/ocpclient/wire"

// Handler receives call-class messages dispatched to a registered task
// id. Implementations reply by calling Enqueue on the link passed in,
// setting destination/origination task ids themselves.
type Handler interface {
	HandleMessage(msg wire.Message, origin *Link)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(msg wire.Message, origin *Link)

func (f HandlerFunc) HandleMessage(msg wire.Message, origin *Link) { f(msg, origin) }
