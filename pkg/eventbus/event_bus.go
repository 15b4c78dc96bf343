package eventbus

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

// EventBus dispatches events synchronously to every subscriber whose
// parameter list matches the published arguments.
type EventBus interface {
	Publish(args ...any)
	PublishE(args ...any) error
	Subscribe(handler any)
	SubscribersCount() int
}

var (
	ErrNoSubscribers        = serrors.NewError("EVENTBUS_NO_SUBSCRIBERS", "no matching subscribers", "")
	ErrInvalidHandlerReturn = serrors.NewError("EVENTBUS_INVALID_HANDLER_RETURN", "invalid handler return signature", "")
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type publisher struct {
	log      *logrus.Logger
	mu       sync.RWMutex
	handlers []reflect.Value
}

func NewEventPublisher(log *logrus.Logger) EventBus {
	return &publisher{log: log}
}

// MatchSignature reports whether handler can be called with args.
func MatchSignature(handler any, args []any) bool {
	t := reflect.TypeOf(handler)
	if t == nil || t.Kind() != reflect.Func || t.NumIn() != len(args) {
		return false
	}
	for i, arg := range args {
		paramType := t.In(i)
		if arg == nil {
			switch paramType.Kind() {
			case reflect.Interface, reflect.Ptr:
				continue
			default:
				return false
			}
		}
		argType := reflect.TypeOf(arg)
		if paramType.Kind() == reflect.Interface {
			if !argType.Implements(paramType) {
				return false
			}
			continue
		}
		if !argType.AssignableTo(paramType) {
			return false
		}
	}
	return true
}

func (p *publisher) Subscribe(handler any) {
	v := reflect.ValueOf(handler)
	if v.Kind() != reflect.Func {
		panic("handler must be a function")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, v)
}

func (p *publisher) SubscribersCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.handlers)
}

// Publish calls matching handlers, logging panics and returned errors.
func (p *publisher) Publish(args ...any) {
	err := p.PublishE(args...)
	if err == nil || p.log == nil {
		return
	}
	if errors.Is(err, ErrNoSubscribers) {
		p.log.Warnf("eventbus.Publish: no matching subscribers for %d args", len(args))
		return
	}
	p.log.WithError(err).Error("eventbus.Publish: handler failed")
}

// PublishE calls matching handlers and joins their errors. Handlers may
// return nothing or a single error.
func (p *publisher) PublishE(args ...any) error {
	p.mu.RLock()
	handlers := append([]reflect.Value(nil), p.handlers...)
	p.mu.RUnlock()

	handled := false
	var errs []error
	for _, h := range handlers {
		if !MatchSignature(h.Interface(), args) {
			continue
		}
		handled = true
		if err := call(h, argValues(h.Type(), args)); err != nil {
			errs = append(errs, err)
		}
	}
	if !handled {
		return ErrNoSubscribers
	}
	return errors.Join(errs...)
}

func argValues(fn reflect.Type, args []any) []reflect.Value {
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		if arg == nil {
			in[i] = reflect.Zero(fn.In(i))
			continue
		}
		in[i] = reflect.ValueOf(arg)
	}
	return in
}

func call(h reflect.Value, in []reflect.Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("eventbus: handler %s panicked: %v", h.Type(), r)
		}
	}()
	out := h.Call(in)
	switch {
	case len(out) == 0:
		return nil
	case len(out) > 1 || out[0].Type() != errorType:
		return fmt.Errorf("%w: handler %s", ErrInvalidHandlerReturn, h.Type())
	case out[0].IsNil():
		return nil
	default:
		return out[0].Interface().(error)
	}
}
