package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"aria/internal/agent"
	"aria/internal/api/calendar"
	"aria/internal/api/events"
	"aria/internal/api/finance"
	"aria/internal/api/maps"
	"aria/internal/api/news"
	"aria/internal/api/sport"
	"aria/internal/api/transit"
	"aria/internal/api/weather"
	"aria/internal/config"
	"aria/internal/httpclient"
	"aria/internal/intent"
	"aria/internal/logging"
	"aria/internal/profile"
	"aria/internal/usecase/briefing"
	eventsuc "aria/internal/usecase/events"
	"aria/internal/usecase/general"
	"aria/internal/usecase/navigation"
	sportuc "aria/internal/usecase/sport"
	"aria/internal/voice"
)

// destinations the navigation handler can be asked for by name. The next
// calendar appointment works on top of these without configuration.
var namedDestinations = []navigation.Destination{
	{Name: "campus", Address: "Universitaetsstrasse 38, 70569 Stuttgart", TransitStop: "de:08111:6008"},
	{Name: "the office", Address: "Industriestrasse 1, 70565 Stuttgart", TransitStop: "de:08111:2201"},
	{Name: "the lab", Address: "Nobelstrasse 12, 70569 Stuttgart", TransitStop: "de:08111:6021"},
}

type cliOptions struct {
	configFile string
	logLevel   string
	language   string
	micIndex   int
	chooseMic  bool
	textMode   bool
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	cmd := &cobra.Command{
		Use:           "aria",
		Short:         "Aria is a voice-driven personal assistant",
		Long:          "Aria listens on the microphone, matches what it hears against a hand-written intent catalog and answers by voice: briefings, weekend events, commutes and sports.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "path to a config file")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level (DEBUG, INFO, WARNING, ERROR)")
	cmd.Flags().StringVar(&opts.language, "language", "", "speech language tag, e.g. en-US")
	cmd.Flags().IntVar(&opts.micIndex, "mic", -1, "input device index, -1 for the system default")
	cmd.Flags().BoolVar(&opts.chooseMic, "choose-mic", false, "pick the input device interactively")
	cmd.Flags().BoolVar(&opts.textMode, "text", false, "read utterances from stdin instead of the microphone")
	return cmd
}

func run(parent context.Context, opts *cliOptions) error {
	// A local .env is a convenience for the API keys; absence is fine.
	_ = godotenv.Load()

	var cfgOpts []config.Option
	if opts.configFile != "" {
		cfgOpts = append(cfgOpts, config.WithConfigFile(opts.configFile))
	}
	cfg, err := config.Load(cfgOpts...)
	if err != nil {
		return err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.language != "" {
		cfg.Language = opts.language
	}
	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))
	logger := logging.NewComponentLogger("main")

	if missing := cfg.MissingSecrets(); len(missing) > 0 {
		logger.Warn("missing API keys, some features will apologize instead: %s", strings.Join(missing, ", "))
	}

	catalog, err := intent.Load(cfg.IntentsPath)
	if err != nil {
		return err
	}
	userProfile, err := profile.Load(cfg.ProfilePath)
	if err != nil {
		return err
	}

	io, closeVoice, err := buildVoice(cfg, opts)
	if err != nil {
		return err
	}
	defer closeVoice()

	session := agent.NewSession(catalog, userProfile, io)
	registry, err := buildRegistry(session, cfg)
	if err != nil {
		return err
	}
	loop, err := agent.NewLoop(session, registry, cfg, logging.NewComponentLogger("agent"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("aria is ready, language %s, %d intents", cfg.Language, catalog.Len())
	if err := loop.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("interrupted, shutting down")
			return nil
		}
		return err
	}
	return nil
}

// buildVoice assembles the conversational stack: microphone plus speech
// services, or a terminal conversation in text mode. Everything spoken and
// heard is echoed to the terminal either way.
func buildVoice(cfg config.Runtime, opts *cliOptions) (*voice.IO, func(), error) {
	logger := logging.NewComponentLogger("voice")

	if opts.textMode {
		console := newConsole()
		io := voice.NewIO(console, console, cfg.ListenTimeout, logger)
		return io, func() {}, nil
	}

	micIndex := opts.micIndex
	if opts.chooseMic {
		picked, err := pickMicrophone()
		if err != nil {
			return nil, nil, err
		}
		micIndex = picked
	}

	web := &http.Client{Timeout: cfg.HTTPTimeout}
	transcriber := voice.NewHTTPTranscriber(web, voice.DefaultRecognizerURL, "", logger)
	mic, err := voice.NewMic(transcriber, cfg.Language, micIndex, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening microphone: %w", err)
	}
	speaker := voice.NewHTTPSpeaker(&http.Client{Timeout: cfg.HTTPTimeout}, voice.DefaultSynthesisURL, cfg.Language, logger)

	echo := newEcho(mic, speaker)
	io := voice.NewIO(echo, echo, cfg.ListenTimeout, logger)
	return io, mic.Close, nil
}

// pickMicrophone lists the input devices and reads a selection.
func pickMicrophone() (int, error) {
	devices, err := voice.InputDevices()
	if err != nil {
		return 0, fmt.Errorf("listing input devices: %w", err)
	}
	if len(devices) == 0 {
		return 0, errors.New("no input devices found")
	}
	prompt := promptui.Select{
		Label: "Choose a microphone",
		Items: devices,
		Size:  len(devices),
	}
	index, _, err := prompt.Run()
	if err != nil {
		return 0, fmt.Errorf("choosing microphone: %w", err)
	}
	return index, nil
}

// buildRegistry wires every use-case handler with its adapters.
func buildRegistry(session *agent.Session, cfg config.Runtime) (*agent.Registry, error) {
	web := httpclient.New(cfg.HTTPTimeout, logging.NewComponentLogger("http"))

	weatherClient := weather.New(web, cfg.Secrets.Weather)
	newsClient := news.New(web, cfg.Secrets.News)
	financeClient := finance.New(web, cfg.Secrets.Finance1, cfg.Secrets.Finance2)
	discoveryClient := events.New(web, cfg.Secrets.Event)
	mapsClient := maps.New(web, cfg.Secrets.GoogleMaps)
	transitClient := transit.New(web)
	sportClient := sport.New(web, cfg.Secrets.Soccer, cfg.Secrets.Sports)

	// The calendar needs a stored OAuth token; without one the dependent
	// features degrade to spoken apologies.
	calendarClient, err := calendar.New(web, cfg.CalendarTokenPath)
	if err != nil {
		logging.NewComponentLogger("calendar").Warn("calendar unavailable: %v", err)
		calendarClient = nil
	}

	var briefingCal briefing.CalendarService
	var eventsCal eventsuc.CalendarService
	var navigationCal navigation.CalendarService
	if calendarClient != nil {
		briefingCal = calendarClient
		eventsCal = calendarClient
		navigationCal = calendarClient
	}

	registry := agent.NewRegistry()
	handlers := map[agent.Family]agent.Handler{
		agent.FamilyGeneral: general.New(session, logging.NewComponentLogger("general")),
		agent.FamilyMorningBriefing: briefing.New(session,
			briefingCal, newsClient, weatherClient, financeClient,
			logging.NewComponentLogger("briefing")),
		agent.FamilyEvents: eventsuc.New(session,
			discoveryClient, eventsCal, weatherClient, mapsClient,
			logging.NewComponentLogger("events")),
		agent.FamilyTransportation: navigation.New(session,
			mapsClient, transitClient, weatherClient, navigationCal, namedDestinations,
			logging.NewComponentLogger("navigation")),
		agent.FamilySport: sportuc.New(session,
			sportClient, sportClient,
			logging.NewComponentLogger("sport")),
	}
	for family, handler := range handlers {
		if err := registry.Register(family, handler); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
