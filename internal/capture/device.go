package capture

import (
	"context"
	"encoding/hex"
	"fmt"
	"runtime"
	"strings"
	"unsafe"

	"github.com/gen2brain/malgo"

	"github.com/voicevault/voicevault/internal/conf"
	"github.com/voicevault/voicevault/internal/errors"
	"github.com/voicevault/voicevault/internal/logging"
)

// Device is an acquired microphone stream. Stop releases the underlying OS
// resources and must be safe to call exactly once.
type Device interface {
	Stop() error
}

// Acquirer opens a capture device and begins delivering PCM16 chunks to
// onData in arrival order. Implementations must not call onData after Stop
// returns.
type Acquirer interface {
	Acquire(ctx context.Context, onData func(chunk []byte)) (Device, error)
}

// AudioDeviceInfo holds information about an audio device.
type AudioDeviceInfo struct {
	Index int
	Name  string
	ID    string
}

// malgoAcquirer implements Acquirer on top of the miniaudio bindings.
type malgoAcquirer struct {
	settings *conf.Settings
}

// NewMalgoAcquirer returns an Acquirer for the configured capture device.
func NewMalgoAcquirer(settings *conf.Settings) Acquirer {
	return &malgoAcquirer{settings: settings}
}

type malgoDevice struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
}

func (d *malgoDevice) Stop() error {
	d.device.Uninit()
	if err := d.ctx.Uninit(); err != nil {
		return err
	}
	d.ctx.Free()
	return nil
}

// ListAudioSources returns a list of available audio capture devices.
func ListAudioSources() ([]AudioDeviceInfo, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}

	var devices []AudioDeviceInfo
	for i, info := range infos {
		decodedID, err := hexToASCII(info.ID.String())
		if err != nil {
			continue
		}
		devices = append(devices, AudioDeviceInfo{
			Index: i,
			Name:  info.Name(),
			ID:    decodedID,
		})
	}

	return devices, nil
}

// Acquire initializes the backend context, selects the configured capture
// source and starts the device. The returned Device owns both the malgo
// device and its context.
func (a *malgoAcquirer) Acquire(ctx context.Context, onData func(chunk []byte)) (Device, error) {
	// Honor an already-expired acquisition deadline before touching the
	// backend.
	if err := ctx.Err(); err != nil {
		return nil, deviceUnavailable(err)
	}

	var backend malgo.Backend
	switch runtime.GOOS {
	case "linux":
		backend = malgo.BackendAlsa
	case "windows":
		backend = malgo.BackendWasapi
	case "darwin":
		backend = malgo.BackendCoreaudio
	}

	malgoCtx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, deviceUnavailable(fmt.Errorf("context init failed: %w", err))
	}

	infos, err := malgoCtx.Devices(malgo.Capture)
	if err != nil {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return nil, deviceUnavailable(fmt.Errorf("failed to get devices: %w", err))
	}

	source, err := selectCaptureSource(a.settings.Capture.Device, infos)
	if err != nil {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return nil, err
	}

	logging.Debug("capture source selected", "name", source.name, "id", source.id)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = conf.NumChannels
	deviceConfig.SampleRate = conf.SampleRate
	deviceConfig.Alsa.NoMMap = 1
	deviceConfig.Capture.DeviceID = source.pointer

	onReceiveFrames := func(pOutput, pSamples []byte, framecount uint32) {
		// The callback's slice is reused by the backend, copy before
		// handing it off.
		chunk := make([]byte, len(pSamples))
		copy(chunk, pSamples)
		onData(chunk)
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onReceiveFrames,
	})
	if err != nil {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return nil, mapDeviceError(err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return nil, mapDeviceError(err)
	}

	return &malgoDevice{ctx: malgoCtx, device: device}, nil
}

// captureSource holds information about an audio capture source.
type captureSource struct {
	name    string
	id      string
	pointer unsafe.Pointer
}

// selectCaptureSource selects a capture device matching the configured
// source name or ID.
func selectCaptureSource(audioSource string, infos []malgo.DeviceInfo) (captureSource, error) {
	for _, info := range infos {
		decodedID, err := hexToASCII(info.ID.String())
		if err != nil {
			continue
		}
		if matchesDeviceSettings(decodedID, info, audioSource) {
			return captureSource{
				name:    info.Name(),
				id:      decodedID,
				pointer: info.ID.Pointer(),
			}, nil
		}
	}
	return captureSource{}, errors.Newf("no suitable capture source found for device setting %s", audioSource).
		Component("capture").
		Category(errors.CategoryDevice).
		Build()
}

// matchesDeviceSettings checks if the device matches the configured source.
func matchesDeviceSettings(decodedID string, info malgo.DeviceInfo, audioSource string) bool {
	if audioSource == "sysdefault" && runtime.GOOS != "linux" {
		// Only Linux exposes a literal "sysdefault" device, elsewhere use
		// the backend's default.
		return info.IsDefault == 1
	}
	return decodedID == audioSource || strings.Contains(info.Name(), audioSource)
}

// hexToASCII converts a hexadecimal string to an ASCII string.
func hexToASCII(hexStr string) (string, error) {
	bytes, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// mapDeviceError classifies a backend failure as permission denied or
// device unavailable.
func mapDeviceError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "access denied") || strings.Contains(msg, "permission") {
		return errors.New(fmt.Errorf("microphone permission denied: %w", err)).
			Component("capture").
			Category(errors.CategoryDevice).
			Context("reason", "permission-denied").
			Build()
	}
	return deviceUnavailable(err)
}

func deviceUnavailable(err error) error {
	return errors.New(fmt.Errorf("capture device unavailable: %w", err)).
		Component("capture").
		Category(errors.CategoryDevice).
		Context("reason", "device-unavailable").
		Build()
}
