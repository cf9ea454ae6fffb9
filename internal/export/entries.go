package export

import (
	"context"

	"github.com/Zuo-Peng/msgexport/internal/archive"
	"github.com/Zuo-Peng/msgexport/internal/attachment"
	"github.com/Zuo-Peng/msgexport/internal/render"
)

// Entries adapts a message stream into a render.Source, resolving each
// message's attachments as it is read.
type Entries struct {
	ctx    context.Context
	stream *archive.MessageStream
	atts   *attachment.Resolver
	cur    render.Entry
	err    error
}

func NewEntries(ctx context.Context, stream *archive.MessageStream, atts *attachment.Resolver) *Entries {
	return &Entries{ctx: ctx, stream: stream, atts: atts}
}

func (e *Entries) Next() bool {
	if e.err != nil || !e.stream.Next() {
		return false
	}
	m := e.stream.Message()
	atts, err := e.atts.For(e.ctx, m)
	if err != nil {
		e.err = err
		return false
	}
	e.cur = render.Entry{Message: m, Attachments: atts}
	return true
}

func (e *Entries) Entry() render.Entry { return e.cur }

func (e *Entries) Err() error {
	if e.err != nil {
		return e.err
	}
	return e.stream.Err()
}
