// Package portaudio captures frames from an input device.
package portaudio

import (
	"strconv"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"

	"github.com/dudk/auditraq"
	"github.com/dudk/auditraq/signal"
)

// DefaultDevice selects the system default input device.
const DefaultDevice = "default"

// ErrDeviceNotFound is returned when no input device matches the name.
var ErrDeviceNotFound = errors.New("input device not found")

// Device describes an input device.
type Device struct {
	Index             int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	DefaultSampleRate float64
}

// Source reads frames from portaudio input stream.
// This component cannot be reused for consequent runs.
type Source struct {
	buf         []float32
	stream      *portaudio.Stream
	hopSize     int
	numChannels int
	device      Device

	once     sync.Once
	closeErr error
}

// Devices returns all devices with input channels.
func Devices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, errors.Wrap(err, "initializing portaudio")
	}
	defer portaudio.Terminate()
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "listing devices")
	}
	return inputs(infos), nil
}

// Open opens and starts the input stream of the device. Device is matched by
// index, exact name or name prefix. Every frame carries hopSize samples per
// channel.
func Open(device string, sampleRate, hopSize, numChannels int) (*Source, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, errors.Wrap(err, "initializing portaudio")
	}
	s, err := open(device, sampleRate, hopSize, numChannels)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	return s, nil
}

func open(device string, sampleRate, hopSize, numChannels int) (*Source, error) {
	info, err := lookup(device)
	if err != nil {
		return nil, err
	}
	if numChannels > info.MaxInputChannels {
		numChannels = info.MaxInputChannels
	}
	if numChannels <= 0 {
		return nil, errors.Errorf("device %q has no input channels", info.Name)
	}
	s := &Source{
		buf:         make([]float32, hopSize*numChannels),
		hopSize:     hopSize,
		numChannels: numChannels,
		device:      toDevice(info),
	}
	p := portaudio.LowLatencyParameters(info, nil)
	p.Input.Channels = numChannels
	p.SampleRate = float64(sampleRate)
	p.FramesPerBuffer = hopSize
	s.stream, err = portaudio.OpenStream(p, &s.buf)
	if err != nil {
		return nil, errors.Wrapf(err, "opening stream on %q", info.Name)
	}
	if err = s.stream.Start(); err != nil {
		s.stream.Close()
		return nil, errors.Wrapf(err, "starting stream on %q", info.Name)
	}
	return s, nil
}

func lookup(device string) (*portaudio.DeviceInfo, error) {
	if device == "" || device == DefaultDevice {
		info, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, errors.Wrap(err, "default input device")
		}
		return info, nil
	}
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "listing devices")
	}
	return FindDevice(infos, device)
}

// FindDevice returns the input device matching the name. Name is either
// device index, exact name or case-insensitive name prefix.
func FindDevice(infos []*portaudio.DeviceInfo, name string) (*portaudio.DeviceInfo, error) {
	if index, err := strconv.Atoi(name); err == nil {
		for _, info := range infos {
			if info.Index == index && info.MaxInputChannels > 0 {
				return info, nil
			}
		}
		return nil, errors.Wrapf(ErrDeviceNotFound, "index %d", index)
	}
	var prefixed *portaudio.DeviceInfo
	for _, info := range infos {
		if info.MaxInputChannels == 0 {
			continue
		}
		if info.Name == name {
			return info, nil
		}
		if prefixed == nil && strings.HasPrefix(strings.ToLower(info.Name), strings.ToLower(name)) {
			prefixed = info
		}
	}
	if prefixed != nil {
		return prefixed, nil
	}
	return nil, errors.Wrapf(ErrDeviceNotFound, "name %q", name)
}

func inputs(infos []*portaudio.DeviceInfo) []Device {
	var result []Device
	for _, info := range infos {
		if info.MaxInputChannels > 0 {
			result = append(result, toDevice(info))
		}
	}
	return result
}

func toDevice(info *portaudio.DeviceInfo) Device {
	d := Device{
		Index:             info.Index,
		Name:              info.Name,
		MaxInputChannels:  info.MaxInputChannels,
		DefaultSampleRate: info.DefaultSampleRate,
	}
	if info.HostApi != nil {
		d.HostAPI = info.HostApi.Name
	}
	return d
}

// Device returns the opened device.
func (s *Source) Device() Device {
	return s.device
}

// Next blocks until the next frame is captured. Input overflow is not an
// error: the frame is returned as is.
func (s *Source) Next() (auditraq.Frame, error) {
	if err := s.stream.Read(); err != nil && err != portaudio.InputOverflowed {
		return nil, errors.Wrap(err, "reading stream")
	}
	return signal.InterFloat32{
		Data:        s.buf,
		NumChannels: s.numChannels,
	}.Frame(), nil
}

// Close stops the stream and terminates portaudio. It's safe to call it more
// than once.
func (s *Source) Close() error {
	s.once.Do(func() {
		var errs []error
		if err := s.stream.Stop(); err != nil {
			errs = append(errs, errors.Wrap(err, "stopping stream"))
		}
		if err := s.stream.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "closing stream"))
		}
		if err := portaudio.Terminate(); err != nil {
			errs = append(errs, errors.Wrap(err, "terminating portaudio"))
		}
		if len(errs) > 0 {
			s.closeErr = auditraq.Errors(errs)
		}
	})
	return s.closeErr
}
