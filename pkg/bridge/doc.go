// Package bridge provides an embeddable Morse bridge.
//
// A bridge reads framed JPEG images from a capture device, asks a hosted
// multimodal model to transcribe the dot and dash marks in each image, asks
// the model again to turn the marks into text, and writes that text to a
// display device. It can be used through the morsebridge CLI or embedded in
// another Go program.
//
// # Basic Usage
//
// The caller owns both device handles. Open them, pass them in, and close
// them after Stop:
//
//	cfg := bridge.DefaultConfig()
//	cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
//
//	b, err := bridge.New(cfg, capturePort, displayPort)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := b.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... wait for a shutdown signal or <-b.Done() ...
//
//	if err := b.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Event Handling
//
// Implement [EventHandler], usually by embedding [BaseEventHandler], and
// pass it via [WithEventHandler]. Events are called synchronously from the
// pipeline goroutine.
//
// # Dependency Injection
//
// [WithProvider] replaces the hosted model client, which is how tests run
// the bridge without network access:
//
//	b, err := bridge.New(cfg, capture, display,
//	    bridge.WithProvider(inference.NewMock()),
//	    bridge.WithLogger(customLogger),
//	)
//
// # Plugins
//
// Plugins are initialized in registration order on Start and shut down in
// reverse order on Stop. Each receives a [Tuner] for changing the poll
// interval and prompts while the bridge runs:
//
//	b, err := bridge.New(cfg, capture, display,
//	    configwatcher.WithConfigWatcher(configwatcher.DefaultConfig()),
//	    capturecleanup.WithCaptureCleanup(capturecleanup.DefaultConfig()),
//	)
package bridge
