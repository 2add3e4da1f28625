package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tassalor1/vtol/internal/config"
	"github.com/tassalor1/vtol/internal/link"
	"github.com/tassalor1/vtol/internal/station"
	"github.com/tassalor1/vtol/internal/telemetry"
	"github.com/tassalor1/vtol/internal/types"
)

type options struct {
	configPath        string
	linkURL           string
	px4SITL           bool
	mqttBrokerAddress string
	deviceID          string
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "offboard",
		Short:         "Hold a PX4 vehicle in an offboard hover over MAVLink",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}

	opts.register(cmd.Flags())
	return cmd
}

func (o *options) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&o.linkURL, "link", link.DefaultURL, "MAVLink connection url")
	fs.BoolVar(&o.px4SITL, "px4-sitl", false, "Listen on the PX4 SITL offboard port ("+link.SITLURL+")")
	fs.StringVar(&o.mqttBrokerAddress, "mqtt_broker", "", "MQTT broker protocol, address and port")
	fs.StringVar(&o.deviceID, "device_id", "", "Device id used in MQTT topics")
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

// loadConfig layers explicitly set flags over the config file over defaults.
func loadConfig(cmd *cobra.Command, opts options) (config.Config, error) {
	if opts.px4SITL && cmd.Flags().Changed("link") {
		return config.Config{}, errors.New("--px4-sitl and --link are mutually exclusive")
	}

	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		cfg, err = config.Load(opts.configPath)
		if err != nil {
			return cfg, err
		}
	}

	if cmd.Flags().Changed("link") {
		cfg.Link = opts.linkURL
	}
	if opts.px4SITL {
		cfg.Link = link.SITLURL
	}
	if cmd.Flags().Changed("mqtt_broker") {
		cfg.MQTT.Broker = opts.mqttBrokerAddress
	}
	if cmd.Flags().Changed("device_id") {
		cfg.MQTT.DeviceID = opts.deviceID
	}

	return cfg, cfg.Validate()
}

func run(cfg config.Config) error {
	// attach sigint & sigterm listeners
	terminationSignals := make(chan os.Signal, 1)
	signal.Notify(terminationSignals, syscall.SIGINT, syscall.SIGTERM)

	// quitFunc will be called when process is terminated
	ctx, quitFunc := context.WithCancel(context.Background())
	defer quitFunc()

	// wait group will make sure all goroutines have time to clean up
	var wg sync.WaitGroup

	conn, err := link.Open(cfg.Link)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("Link open: %s", cfg.Link)

	var handlers []types.MessageHandler
	if cfg.MQTT.Broker != "" {
		mqttClient, err := newMQTTClient(cfg.MQTT)
		if err != nil {
			return err
		}
		defer mqttClient.Disconnect(1000)
		handlers = append(handlers, telemetry.New(mqttClient, cfg.MQTT.DeviceID, telemetry.DefaultPeriod))
	}

	st := station.New(conn, station.Options{
		ID:             cfg.Station,
		Target:         cfg.Target,
		Hover:          cfg.Setpoint.Position,
		BeaconPeriod:   cfg.Beacon.Period,
		SetpointPeriod: cfg.Setpoint.Period,
		SetpointIdle:   cfg.Setpoint.Idle,
		Stdout:         os.Stdout,
		Handlers:       handlers,
	})
	st.Start(ctx, &wg)

	// wait for termination and close quit to signal all
	<-terminationSignals
	// cancel the main context
	log.Printf("Shutting down..")
	quitFunc()
	// wait until goroutines have done their cleanup
	log.Printf("Waiting for routines to finish..")
	wg.Wait()
	log.Printf("Signing off - BYE (last phase: %v)", st.Phase())
	return nil
}

func newMQTTClient(cfg config.MQTT) (mqtt.Client, error) {
	log.Printf("address: %v", cfg.Broker)

	clientID := fmt.Sprintf("offboard-%s", cfg.DeviceID)
	log.Println("Client ID:", clientID)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetProtocolVersion(4) // Use MQTT 3.1.1

	client := mqtt.NewClient(opts)

	for attempt := 1; ; attempt++ {
		log.Printf("Connecting MQTT...")
		tok := client.Connect()
		if !tok.WaitTimeout(time.Second * 5) {
			log.Println("Connection Timeout")
			if attempt == 3 {
				return nil, errors.Errorf("mqtt: no connection to %s after %d attempts", cfg.Broker, attempt)
			}
			continue
		}
		if err := tok.Error(); err != nil {
			return nil, errors.WithMessage(err, "mqtt: connect failed")
		}
		log.Printf("..Connected")
		return client, nil
	}
}
