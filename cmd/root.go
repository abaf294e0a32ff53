// cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/cleansine/wasapi-exclusive/internal/bridge"
	"github.com/cleansine/wasapi-exclusive/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "wasapimixer",
	Short: "WASAPI exclusive-mode audio core demo host",
	Long:  `A minimal demo host that drives the WASAPI exclusive-mode core: streams a generated tone to a render device, or records a capture device to a file.`,
	RunE:  runMixer,
}

// runMixer wires bridge.Init, device selection, and the render/capture
// streaming loop together — the same role cwdecoder's runDecoder plays
// for internal/audio + internal/dsp + internal/cw.
func runMixer(_ *cobra.Command, _ []string) error {
	settings, err := config.Get()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if !bridge.Init(settings.LogLevel, settings.LogTarget, settings.RateVariants, settings.ChannelVariants, settings.MaxRateLimit, settings.MaxChannelsLimit) {
		return fmt.Errorf("bridge init failed")
	}

	if listFlag, _ := viper.Get("list_only").(bool); listFlag {
		return listDevices()
	}

	deviceID := settings.DeviceID
	if deviceID == "" {
		deviceID, err = firstDevice(settings.IsRender)
		if err != nil {
			return err
		}
	}

	handle := bridge.Open(deviceID, settings.IsRender, settings.Rate, settings.ValidBits, settings.FrameBytes, settings.Channels, settings.BufferBytes)
	if handle == 0 {
		return fmt.Errorf("open device %q failed", deviceID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		fmt.Printf("\nReceived signal %v, shutting down...\n", sig)
		cancel()
	}()

	bridge.Start(handle, settings.IsRender)

	if settings.IsRender {
		err = streamTone(ctx, handle, settings)
		bridge.Drain(handle, true)
	} else {
		err = captureToFile(ctx, handle, settings)
		bridge.Flush(handle, false)
	}
	bridge.Close(handle, settings.IsRender)

	return err
}

func listDevices() error {
	count := bridge.DeviceCount()
	fmt.Printf("%d device(s):\n", count)
	for i := int32(0); i < count; i++ {
		info := bridge.MakeMixerInfo(int(i))
		if info == nil {
			continue
		}
		fmt.Printf("  [%s] %s (%s) — %s\n", info.DeviceID, info.Name, info.Direction, info.Description)
	}
	return nil
}

func firstDevice(isRender bool) (string, error) {
	count := bridge.DeviceCount()
	for i := int32(0); i < count; i++ {
		info := bridge.MakeMixerInfo(int(i))
		if info == nil {
			continue
		}
		wantRender := info.Direction.String() == "render"
		if wantRender == isRender {
			return info.DeviceID, nil
		}
	}
	return "", fmt.Errorf("no matching device found (is_render=%v)", isRender)
}

// streamTone writes a generated sine wave through bridge.Write until
// ctx is done, in §4.5-sized chunks matching frame_bytes.
func streamTone(ctx context.Context, handle int64, settings *config.Settings) error {
	const toneFrequency = 440.0
	frame := settings.FrameBytes
	chunkFrames := settings.Rate / 20 // ~50ms per write call
	if chunkFrames < 1 {
		chunkFrames = 1
	}
	buf := make([]byte, chunkFrames*frame)
	bytesPerSample := frame / settings.Channels
	var phase float64

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		for f := 0; f < chunkFrames; f++ {
			sample := math.Sin(phase) * 0.2
			phase += 2 * math.Pi * toneFrequency / float64(settings.Rate)
			writeSample(buf[f*frame:], sample, settings.Channels, bytesPerSample)
		}

		if n := bridge.Write(handle, buf, 0, len(buf)); n < 0 {
			return fmt.Errorf("write failed")
		}
	}
}

// writeSample encodes one sample value into every channel of a single
// frame, little-endian signed PCM per spec.md §6 "Format wire layout".
func writeSample(frame []byte, sample float64, channels, bytesPerSample int) {
	var raw int32
	switch bytesPerSample {
	case 2:
		raw = int32(sample * 32767)
	case 3:
		raw = int32(sample * 8388607)
	case 4:
		raw = int32(sample * 2147483647)
	}
	for c := 0; c < channels; c++ {
		off := c * bytesPerSample
		for b := 0; b < bytesPerSample; b++ {
			frame[off+b] = byte(raw >> (8 * b))
		}
	}
}

// captureToFile reads through bridge.Read and appends everything to
// capture.raw until ctx is done; at debug log level it prints the
// running byte total and GetAvailBytes after each read.
func captureToFile(ctx context.Context, handle int64, settings *config.Settings) error {
	out, err := os.Create("capture.raw")
	if err != nil {
		return fmt.Errorf("create capture file: %w", err)
	}
	defer out.Close()

	buf := make([]byte, settings.BufferBytes)
	var totalBytes int64

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n := bridge.Read(handle, buf, 0, len(buf))
		if n < 0 {
			return fmt.Errorf("read failed")
		}
		if n == 0 {
			continue
		}
		if _, err := out.Write(buf[:n]); err != nil {
			return fmt.Errorf("write capture file: %w", err)
		}
		totalBytes += int64(n)

		if settings.LogLevel == "debug" {
			fmt.Printf("captured %d bytes, avail=%d\n", totalBytes, bridge.GetAvailBytes(handle, false))
		}
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "execution error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("device", "d", "", "device id (empty selects the first matching device)")
	rootCmd.PersistentFlags().BoolP("render", "r", true, "stream to a render device (false = capture)")
	rootCmd.PersistentFlags().IntP("rate", "R", 48000, "sample rate in Hz")
	rootCmd.PersistentFlags().IntP("channels", "c", 2, "channel count")
	rootCmd.PersistentFlags().BoolP("list", "l", false, "list devices and exit")

	cobra.CheckErr(viper.BindPFlag("device_id", rootCmd.PersistentFlags().Lookup("device")))
	cobra.CheckErr(viper.BindPFlag("is_render", rootCmd.PersistentFlags().Lookup("render")))
	cobra.CheckErr(viper.BindPFlag("rate", rootCmd.PersistentFlags().Lookup("rate")))
	cobra.CheckErr(viper.BindPFlag("channels", rootCmd.PersistentFlags().Lookup("channels")))
	cobra.CheckErr(viper.BindPFlag("list_only", rootCmd.PersistentFlags().Lookup("list")))
}

func initConfig() {
	if err := config.Init(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
}
