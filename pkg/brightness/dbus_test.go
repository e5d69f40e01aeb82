package brightness

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bderrors "github.com/jmylchreest/brightnessd/internal/errors"
)

type recordedCall struct {
	method string
	args   []any
}

// fakeObject answers calls like the settings daemon's screen object.
type fakeObject struct {
	mu       sync.Mutex
	level    int
	err      error
	body     []any
	calls    []recordedCall
	property bool
}

func (f *fakeObject) CallWithContext(_ context.Context, method string, _ dbus.Flags, args ...any) *dbus.Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{method: method, args: args})

	if f.err != nil {
		return &dbus.Call{Method: method, Err: f.err}
	}
	if f.body != nil {
		return &dbus.Call{Method: method, Body: f.body}
	}

	reply := func(v int) []any {
		if f.property {
			return []any{int32(v), "eDP-1"}
		}
		return []any{uint32(v)}
	}

	switch method {
	case DefaultInterface + ".GetPercentage":
		return &dbus.Call{Body: reply(f.level)}
	case DefaultInterface + ".SetPercentage":
		f.level = int(args[0].(uint32))
		return &dbus.Call{Body: reply(f.level)}
	case DefaultInterface + ".StepUp":
		f.level = min(f.level+1, 100)
		return &dbus.Call{Body: reply(f.level)}
	case DefaultInterface + ".StepDown":
		f.level = max(f.level-1, 0)
		return &dbus.Call{Body: reply(f.level)}
	case propertiesInterface + ".Get":
		return &dbus.Call{Body: []any{dbus.MakeVariant(int32(f.level))}}
	case propertiesInterface + ".Set":
		f.level = int(args[2].(dbus.Variant).Value().(int32))
		return &dbus.Call{}
	}
	return &dbus.Call{Err: dbus.Error{Name: "org.freedesktop.DBus.Error.UnknownMethod"}}
}

func (f *fakeObject) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.method
	}
	return out
}

func TestDBusService_MethodsProtocol(t *testing.T) {
	obj := &fakeObject{level: 50}
	s := newDBusService(obj, DBusOptions{}, nil)
	ctx := context.Background()

	level, err := s.GetPercentage(ctx)
	require.NoError(t, err)
	assert.Equal(t, Level(50), level)

	level, err = s.StepUp(ctx)
	require.NoError(t, err)
	assert.Equal(t, Level(51), level)

	level, err = s.StepDown(ctx)
	require.NoError(t, err)
	assert.Equal(t, Level(50), level)

	_, err = s.SetPercentage(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, obj.level)

	assert.Equal(t, []string{
		DefaultInterface + ".GetPercentage",
		DefaultInterface + ".StepUp",
		DefaultInterface + ".StepDown",
		DefaultInterface + ".SetPercentage",
	}, obj.methods())
}

func TestDBusService_SetGetRoundTrip(t *testing.T) {
	obj := &fakeObject{}
	s := newDBusService(obj, DBusOptions{}, nil)
	ctx := context.Background()

	for l := MinLevel; l <= MaxLevel; l++ {
		_, err := s.SetPercentage(ctx, l)
		require.NoError(t, err)
		got, err := s.GetPercentage(ctx)
		require.NoError(t, err)
		require.Equal(t, l, got)
	}
}

func TestDBusService_PropertyProtocol(t *testing.T) {
	obj := &fakeObject{level: 40, property: true}
	s := newDBusService(obj, DBusOptions{Protocol: ProtocolProperty}, nil)
	ctx := context.Background()

	level, err := s.GetPercentage(ctx)
	require.NoError(t, err)
	assert.Equal(t, Level(40), level)

	level, err = s.SetPercentage(ctx, 70)
	require.NoError(t, err)
	assert.Equal(t, Level(70), level)
	assert.Equal(t, 70, obj.level)

	level, err = s.StepUp(ctx)
	require.NoError(t, err)
	assert.Equal(t, Level(71), level)

	obj.mu.Lock()
	setCall := obj.calls[1]
	obj.mu.Unlock()
	assert.Equal(t, propertiesInterface+".Set", setCall.method)
	assert.Equal(t, DefaultInterface, setCall.args[0])
	assert.Equal(t, brightnessProperty, setCall.args[1])
}

func TestDBusService_ServiceUnavailable(t *testing.T) {
	obj := &fakeObject{err: dbus.Error{Name: "org.freedesktop.DBus.Error.ServiceUnknown"}}
	s := newDBusService(obj, DBusOptions{}, nil)

	_, err := s.GetPercentage(context.Background())
	require.Error(t, err)
	assert.True(t, bderrors.IsServiceUnavailable(err))
	assert.True(t, bderrors.IsRemoteCallFailed(err))
}

func TestDBusService_OtherFailure(t *testing.T) {
	obj := &fakeObject{err: errors.New("timeout")}
	s := newDBusService(obj, DBusOptions{}, nil)

	_, err := s.StepUp(context.Background())
	require.Error(t, err)
	assert.True(t, bderrors.IsRemoteCallFailed(err))
	assert.False(t, bderrors.IsServiceUnavailable(err))
}

func TestDBusService_MalformedReply(t *testing.T) {
	obj := &fakeObject{body: []any{"not a number"}}
	s := newDBusService(obj, DBusOptions{}, nil)

	_, err := s.GetPercentage(context.Background())
	require.Error(t, err)
	assert.True(t, bderrors.IsRemoteCallFailed(err))
}

func TestParseProtocol(t *testing.T) {
	assert.Equal(t, ProtocolProperty, ParseProtocol("property"))
	assert.Equal(t, ProtocolMethods, ParseProtocol("methods"))
	assert.Equal(t, ProtocolMethods, ParseProtocol(""))
	assert.Equal(t, ProtocolMethods, ParseProtocol("bogus"))
}
