package brightness

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/brightnessd/internal/errors"
)

// Well-known names of the GNOME settings daemon power plugin.
const (
	DefaultBusName    = "org.gnome.SettingsDaemon.Power"
	DefaultObjectPath = "/org/gnome/SettingsDaemon/Power"
	DefaultInterface  = "org.gnome.SettingsDaemon.Power.Screen"

	propertiesInterface = "org.freedesktop.DBus.Properties"
	brightnessProperty  = "Brightness"
)

// Protocol selects how the screen interface is spoken.
type Protocol string

const (
	// ProtocolMethods uses GetPercentage/SetPercentage/StepUp/StepDown, each
	// returning the level as an unsigned int.
	ProtocolMethods Protocol = "methods"
	// ProtocolProperty reads and writes the int Brightness property; StepUp
	// and StepDown return (new level, connector).
	ProtocolProperty Protocol = "property"
)

// ParseProtocol maps a config value to a Protocol, defaulting to ProtocolMethods.
func ParseProtocol(s string) Protocol {
	if Protocol(s) == ProtocolProperty {
		return ProtocolProperty
	}
	return ProtocolMethods
}

// DBusOptions locate the screen object on the bus.
type DBusOptions struct {
	BusName    string
	ObjectPath string
	Interface  string
	Protocol   Protocol
}

func (o DBusOptions) withDefaults() DBusOptions {
	if o.BusName == "" {
		o.BusName = DefaultBusName
	}
	if o.ObjectPath == "" {
		o.ObjectPath = DefaultObjectPath
	}
	if o.Interface == "" {
		o.Interface = DefaultInterface
	}
	if o.Protocol == "" {
		o.Protocol = ProtocolMethods
	}
	return o
}

// caller is the subset of dbus.BusObject used here.
type caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...any) *dbus.Call
}

// DBusService talks to the settings daemon's screen interface.
type DBusService struct {
	obj    caller
	conn   *dbus.Conn
	opts   DBusOptions
	logger *slog.Logger
}

var _ Service = (*DBusService)(nil)

// ConnectSession opens a private session bus connection and returns a
// service bound to the configured object.
func ConnectSession(opts DBusOptions, logger *slog.Logger) (*DBusService, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, errors.ServiceUnavailablef(err, "connect session bus")
	}
	s := NewDBusService(conn, opts, logger)
	s.conn = conn
	return s, nil
}

// NewDBusService binds to the screen object on an existing connection.
func NewDBusService(conn *dbus.Conn, opts DBusOptions, logger *slog.Logger) *DBusService {
	opts = opts.withDefaults()
	return newDBusService(conn.Object(opts.BusName, dbus.ObjectPath(opts.ObjectPath)), opts, logger)
}

func newDBusService(obj caller, opts DBusOptions, logger *slog.Logger) *DBusService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DBusService{obj: obj, opts: opts.withDefaults(), logger: logger}
}

// Close releases the connection opened by ConnectSession.
func (s *DBusService) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// GetPercentage implements Service.
func (s *DBusService) GetPercentage(ctx context.Context) (Level, error) {
	if s.opts.Protocol == ProtocolProperty {
		var v dbus.Variant
		if err := s.call(ctx, propertiesInterface+".Get", []any{&v}, s.opts.Interface, brightnessProperty); err != nil {
			return 0, err
		}
		return variantLevel(v)
	}

	var v uint32
	if err := s.call(ctx, s.method("GetPercentage"), []any{&v}); err != nil {
		return 0, err
	}
	return Level(v), nil
}

// SetPercentage implements Service. With ProtocolProperty the daemon sends
// no reply value and v itself is returned.
func (s *DBusService) SetPercentage(ctx context.Context, v Level) (Level, error) {
	if s.opts.Protocol == ProtocolProperty {
		if err := s.call(ctx, propertiesInterface+".Set", nil, s.opts.Interface, brightnessProperty, dbus.MakeVariant(int32(v))); err != nil {
			return 0, err
		}
		return v, nil
	}

	var out uint32
	if err := s.call(ctx, s.method("SetPercentage"), []any{&out}, uint32(v)); err != nil {
		return 0, err
	}
	return Level(out), nil
}

// StepUp implements Service.
func (s *DBusService) StepUp(ctx context.Context) (Level, error) {
	return s.step(ctx, "StepUp")
}

// StepDown implements Service.
func (s *DBusService) StepDown(ctx context.Context) (Level, error) {
	return s.step(ctx, "StepDown")
}

func (s *DBusService) step(ctx context.Context, name string) (Level, error) {
	if s.opts.Protocol == ProtocolProperty {
		var level int32
		var connector string
		if err := s.call(ctx, s.method(name), []any{&level, &connector}); err != nil {
			return 0, err
		}
		return Level(level), nil
	}

	var v uint32
	if err := s.call(ctx, s.method(name), []any{&v}); err != nil {
		return 0, err
	}
	return Level(v), nil
}

func (s *DBusService) method(name string) string {
	return s.opts.Interface + "." + name
}

func (s *DBusService) call(ctx context.Context, method string, out []any, args ...any) error {
	call := s.obj.CallWithContext(ctx, method, 0, args...)
	if call.Err != nil {
		s.logger.Debug("dbus call failed", "method", method, "error", call.Err)
		return classify(call.Err, method)
	}
	if len(out) == 0 {
		return nil
	}
	if err := call.Store(out...); err != nil {
		s.logger.Debug("dbus reply malformed", "method", method, "body", call.Body, "error", err)
		return errors.RemoteCallFailedf(err, "decode %s reply", method)
	}
	return nil
}

// unavailableNames are bus errors meaning the screen object isn't there.
var unavailableNames = map[string]bool{
	"org.freedesktop.DBus.Error.ServiceUnknown":   true,
	"org.freedesktop.DBus.Error.NameHasNoOwner":   true,
	"org.freedesktop.DBus.Error.UnknownObject":    true,
	"org.freedesktop.DBus.Error.UnknownInterface": true,
	"org.freedesktop.DBus.Error.Disconnected":     true,
}

func classify(err error, method string) error {
	var name string
	var dbusErr dbus.Error
	var dbusErrPtr *dbus.Error
	switch {
	case stderrors.As(err, &dbusErr):
		name = dbusErr.Name
	case stderrors.As(err, &dbusErrPtr):
		name = dbusErrPtr.Name
	}
	if unavailableNames[name] || stderrors.Is(err, dbus.ErrClosed) {
		return errors.ServiceUnavailablef(err, "call %s", method)
	}
	return errors.RemoteCallFailedf(err, "call %s", method)
}

func variantLevel(v dbus.Variant) (Level, error) {
	switch n := v.Value().(type) {
	case int32:
		return Level(n), nil
	case uint32:
		return Level(n), nil
	case int64:
		return Level(n), nil
	default:
		return 0, errors.RemoteCallFailedf(nil, "unexpected %s type %s", brightnessProperty, fmt.Sprintf("%T", n))
	}
}
