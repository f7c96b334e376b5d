// Package invoke routes read only queries to module endpoints.
package invoke

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/state/sandbox"
	"github.com/xuperchain/xabi/lib/logs"
)

// Handler serves one endpoint, writes it makes to the state are discarded
type Handler func(ctx *Context) ([]byte, error)

// ViewProvider opens a buffered view over the latest committed state
type ViewProvider interface {
	NewReadWriter() *sandbox.View
}

type Context struct {
	context.Context
	Log    logs.Logger
	Method string
	Params []byte
	// header supplied by the caller, may be nil
	Header *abi.BlockHeader
	state  *sandbox.View
}

// StateStore is the committed state under the prefix of the endpoint module
func (c *Context) StateStore() *sandbox.View {
	return c.state
}

type Registry struct {
	mutex    sync.RWMutex
	handlers map[string]Handler
	views    ViewProvider
	log      logs.Logger
}

func NewRegistry(views ViewProvider, log logs.Logger) *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		views:    views,
		log:      log,
	}
}

// Register panics if module_method is already taken
func (r *Registry) Register(module, method string, h Handler) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	name := module + "_" + method
	if _, ok := r.handlers[name]; ok {
		panic("endpoint " + name + " exists")
	}
	r.handlers[name] = h
}

func (r *Registry) Methods() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Invoke runs method, named module_method, against a throwaway view
func (r *Registry) Invoke(ctx context.Context, method string, params []byte, header *abi.BlockHeader) ([]byte, error) {
	r.mutex.RLock()
	h, ok := r.handlers[method]
	r.mutex.RUnlock()
	if !ok {
		return nil, abi.ErrMethodNotRegistered.More("%s", method)
	}
	module := method[:strings.Index(method, "_")]

	view := r.views.NewReadWriter()
	ictx := &Context{
		Context: ctx,
		Log:     r.log,
		Method:  method,
		Params:  params,
		Header:  header,
		state:   view.Sub([]byte(module + "/")),
	}
	return h(ictx)
}
