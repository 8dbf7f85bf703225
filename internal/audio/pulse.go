// Package audio discovers PulseAudio output sinks and picks the one cue
// tones play on.
package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Device describes one Pulse output sink.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// Selection is the resolved output sink plus an optional fallback warning.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

// Connect opens a Pulse client named after the application.
func Connect() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("trustpay"),
		pulse.ClientApplicationIconName("audio-speakers"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// ListDevices returns the output sinks known to the Pulse server.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := Connect()
	if err != nil {
		return nil, err
	}
	defer client.Close()
	return listDevices(client)
}

func listDevices(client *pulse.Client) ([]Device, error) {
	defaultSink, err := client.DefaultSink()
	if err != nil {
		return nil, fmt.Errorf("read default sink: %w", err)
	}
	defaultID := defaultSink.ID()

	var sinkInfos pulseproto.GetSinkInfoListReply
	if err := client.RawRequest(&pulseproto.GetSinkInfoList{}, &sinkInfos); err != nil {
		return nil, fmt.Errorf("list sinks: %w", err)
	}

	devices := make([]Device, 0, len(sinkInfos))
	for _, sink := range sinkInfos {
		if sink == nil {
			continue
		}
		devices = append(devices, Device{
			ID:          sink.SinkName,
			Description: sink.Device,
			State:       sinkStateString(sink.State),
			Available:   sinkAvailable(sink),
			Muted:       sink.Mute,
			Default:     sink.SinkName == defaultID,
		})
	}
	return devices, nil
}

// SelectDevice resolves an indicator.sound_output preference against the
// live sinks.
func SelectDevice(_ context.Context, output string) (Selection, error) {
	client, err := Connect()
	if err != nil {
		return Selection{}, err
	}
	defer client.Close()

	devices, err := listDevices(client)
	if err != nil {
		return Selection{}, err
	}
	return selectDeviceFromList(devices, output)
}

// ResolveSink picks the sink for output on an open client. An empty or
// "default" preference returns nil so playback follows the server default.
func ResolveSink(client *pulse.Client, output string) (*pulse.Sink, string, error) {
	if isDefault(output) {
		return nil, "", nil
	}
	devices, err := listDevices(client)
	if err != nil {
		return nil, "", err
	}
	selection, err := selectDeviceFromList(devices, output)
	if err != nil {
		return nil, "", err
	}
	sink, err := client.SinkByID(selection.Device.ID)
	if err != nil {
		return nil, "", fmt.Errorf("resolve sink %q: %w", selection.Device.ID, err)
	}
	return sink, selection.Warning, nil
}

func isDefault(output string) bool {
	output = strings.TrimSpace(strings.ToLower(output))
	return output == "" || output == "default"
}

// selectDeviceFromList prefers the named sink and falls back to the server
// default when it is muted or unplugged.
func selectDeviceFromList(devices []Device, output string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, errors.New("no audio output devices found")
	}

	var defaultDevice, byOutput *Device
	term := strings.TrimSpace(strings.ToLower(output))
	for i := range devices {
		dev := &devices[i]
		if dev.Default {
			defaultDevice = dev
		}
		if byOutput == nil && !isDefault(term) && deviceMatches(*dev, term) {
			byOutput = dev
		}
	}

	primary := byOutput
	if isDefault(term) {
		if defaultDevice == nil {
			return Selection{}, errors.New("default audio sink is unavailable")
		}
		primary = defaultDevice
	} else if primary == nil {
		return Selection{}, fmt.Errorf("indicator.sound_output %q did not match any sink", output)
	}

	if primary.Available && !primary.Muted {
		return Selection{Device: *primary}, nil
	}

	reason := "unavailable"
	if primary.Muted {
		reason = "muted"
	}
	if defaultDevice == nil || defaultDevice == primary {
		return Selection{}, fmt.Errorf("output sink %q is %s and no usable fallback exists", primary.ID, reason)
	}
	if !defaultDevice.Available || defaultDevice.Muted {
		return Selection{}, fmt.Errorf("output sink %q is %s and default sink %q is not usable", primary.ID, reason, defaultDevice.ID)
	}

	return Selection{
		Device:   *defaultDevice,
		Warning:  fmt.Sprintf("output sink %q is %s; falling back to %q", primary.ID, reason, defaultDevice.ID),
		Fallback: true,
	}, nil
}

// deviceMatches reports whether a search term matches a sink id or description.
func deviceMatches(device Device, term string) bool {
	if term == "" {
		return false
	}
	id := strings.ToLower(device.ID)
	desc := strings.ToLower(device.Description)
	return strings.Contains(id, term) || strings.Contains(desc, term)
}

func sinkStateString(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

func sinkAvailable(sink *pulseproto.GetSinkInfoReply) bool {
	if sink == nil {
		return false
	}
	if len(sink.Ports) == 0 {
		return true
	}
	for _, port := range sink.Ports {
		if port.Name != sink.ActivePortName {
			continue
		}
		// PulseAudio values: unknown=0, no=1, yes=2.
		return port.Available == 0 || port.Available == 2
	}
	return true
}

// String renders a device as one line of the devices listing.
func (d Device) String() string {
	var flags []string
	if d.Default {
		flags = append(flags, "default")
	}
	if d.Muted {
		flags = append(flags, "muted")
	}
	if !d.Available {
		flags = append(flags, "unavailable")
	}
	line := fmt.Sprintf("%s\t%s\t%s", d.ID, d.Description, d.State)
	if len(flags) > 0 {
		line += "\t[" + strings.Join(flags, ",") + "]"
	}
	return line
}
