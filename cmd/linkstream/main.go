package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/mvrik/linkstream/internal/config"
	"github.com/mvrik/linkstream/internal/link"
	"github.com/mvrik/linkstream/internal/logging"
	"github.com/mvrik/linkstream/internal/stream"
)

type printer struct{}

func (printer) OnMessageReceived(msg stream.Message) {
	fmt.Printf("<< [%s] %s\n", msg.Operation, msg.Payload)
}

func (printer) OnMessageSent(id uint32) {
	fmt.Printf("-- message %d sent\n", id)
}

func main() {
	listen := flag.String("listen", "", "accept one peer on this address")
	dial := flag.String("dial", "", "connect to a peer on this address")
	configPath := flag.String("config", "", "path to linkstream.toml")
	keyHex := flag.String("key", "", "hex-encoded 32-byte pre-shared key")
	encrypt := flag.Bool("encrypt", false, "encrypt outgoing messages (requires -key)")
	flag.Parse()

	logging.ConfigureRuntime()
	logger := logging.New("linkstream")

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load config")
		}
		cfg = loaded
	}

	conn, err := connect(*listen, *dial)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to establish link")
	}
	logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("link established")

	lk := link.NewTCP(conn, link.TCPConfig{
		MaxWriteSize: cfg.Link.MaxWriteSize,
		ReadTimeout:  cfg.Link.ReadTimeout(),
		WriteTimeout: cfg.Link.WriteTimeout(),
	})
	s := stream.New(lk, stream.Config{
		MessageIDBound: cfg.Stream.MessageIDBound,
		Compress:       cfg.Stream.Compress,
	})
	if *keyHex != "" {
		key, err := hex.DecodeString(strings.TrimSpace(*keyHex))
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid key")
		}
		if err := s.SetKey(key); err != nil {
			logger.Fatal().Err(err).Msg("failed to install key")
		}
	}
	if *encrypt && *keyHex == "" {
		logger.Fatal().Msg("-encrypt requires -key")
	}
	if err := s.Register(printer{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to register observer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		defer cancel()
		if err := lk.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Warn().Err(err).Msg("link ended")
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if _, err := s.Send(stream.Message{
			Payload:   []byte(line),
			Operation: stream.OpData,
			Encrypted: *encrypt,
		}); err != nil {
			logger.Error().Err(err).Msg("send failed")
			break
		}
	}
	s.Close()
}

func connect(listen, dial string) (net.Conn, error) {
	switch {
	case listen != "" && dial != "":
		return nil, fmt.Errorf("use either -listen or -dial, not both")
	case listen != "":
		ln, err := net.Listen("tcp", listen)
		if err != nil {
			return nil, err
		}
		defer ln.Close()
		return ln.Accept()
	case dial != "":
		return net.Dial("tcp", dial)
	default:
		return nil, fmt.Errorf("one of -listen or -dial is required")
	}
}
