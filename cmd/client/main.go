package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stv0g/pion-roulette/pkg/client"
)

type stringList []string

func (l *stringList) String() string     { return strings.Join(*l, ",") }
func (l *stringList) Set(s string) error { *l = append(*l, s); return nil }

var (
	signalingURL  = flag.String("url", "ws://localhost:8080", "Signaling URL")
	displayName   = flag.String("name", "", "Name shown in front of chat messages")
	retryInterval = flag.Duration("retry-interval", 2*time.Second, "Delay between reconnect attempts")
	retryAttempts = flag.Int("retry-attempts", 5, "Number of failed reconnect attempts before giving up")
	udpPortMin    = flag.Uint("udp-port-min", 0, "Lowest local UDP port used for ICE")
	udpPortMax    = flag.Uint("udp-port-max", 0, "Highest local UDP port used for ICE")
	noCapture     = flag.Bool("no-capture", false, "Do not send any local media")
	logLevel      = flag.String("log-level", "info", "log level")
	iceServers    stringList
)

func init() {
	flag.Var(&iceServers, "ice-server", "STUN/TURN server URL (repeatable)")
}

func main() {
	flag.Parse()

	lvl, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", err)
	}
	logrus.SetLevel(lvl)

	u, err := url.Parse(*signalingURL)
	if err != nil {
		logrus.Fatalf("Invalid signaling URL: %s", err)
	}

	sessionCfg := client.DefaultSessionConfig()
	if len(iceServers) > 0 {
		sessionCfg.ICEServers = iceServers
	}
	sessionCfg.UDPPortMin = uint16(*udpPortMin)
	sessionCfg.UDPPortMax = uint16(*udpPortMax)

	factory, err := client.NewSessionFactory(sessionCfg)
	if err != nil {
		logrus.Fatalf("Failed to prepare peer sessions: %s", err)
	}

	signalingCfg := client.DefaultSignalingConfig(u)
	signalingCfg.RetryInterval = *retryInterval
	signalingCfg.RetryAttempts = *retryAttempts

	sc := client.NewSignalingClient(signalingCfg)
	ctrl := client.NewController(sc, factory, &syntheticCapturer{disabled: *noCapture}, &consoleRenderer{out: os.Stdout})

	sc.OnSignalingMessage(ctrl.HandleMessage)
	sc.OnStateChange(ctrl.HandleChannelState)

	ctx, cancel := context.WithCancel(context.Background())

	signals := make(chan os.Signal, 10)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signals
		cancel()
	}()

	go readCommands(ctx, os.Stdin, ctrl, cancel)

	ctrlDone := make(chan struct{})
	go func() {
		ctrl.Run(ctx)
		close(ctrlDone)
	}()

	err = sc.Run(ctx)
	cancel()
	<-ctrlDone

	if err != nil && !errors.Is(err, context.Canceled) {
		logrus.Errorf("%s", err)
		os.Exit(1)
	}
}

func readCommands(ctx context.Context, in io.Reader, ctrl *client.Controller, quit func()) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		if !dispatch(scanner.Text(), ctrl, quit) {
			return
		}
	}

	quit()
}

type commander interface {
	Next()
	Disconnect()
	ToggleBlur()
	SendChat(text string)
}

// dispatch executes one line of user input and reports whether more input
// should be read.
func dispatch(line string, c commander, quit func()) bool {
	line = strings.TrimSpace(line)

	switch line {
	case "":
	case "/next":
		c.Next()
	case "/disconnect":
		c.Disconnect()
	case "/blur":
		c.ToggleBlur()
	case "/quit":
		quit()
		return false
	default:
		if strings.HasPrefix(line, "/") {
			fmt.Fprintf(os.Stderr, "Unknown command %s (try /next, /disconnect, /blur or /quit)\n", line)
			break
		}

		if *displayName != "" {
			line = fmt.Sprintf("%s: %s", *displayName, line)
		}
		c.SendChat(line)
	}

	return true
}
